// Package scan walks the resolved roots and produces the candidate set for
// deletion. Scanning never mutates the filesystem.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"spacefree/internal/globmatch"
)

// previewLimit caps how many matched paths the confirmation prompt shows.
const previewLimit = 10

// File is one deletion candidate with the size observed at scan time.
type File struct {
	Path string
	Size uint64
}

// Result aggregates a full scan across all roots. Files preserves root order,
// and within a root, lexical walk order, so output is deterministic for a
// given tree.
type Result struct {
	Files      []File
	TotalBytes uint64
	Warnings   []string
}

// Preview returns at most previewLimit candidate paths for display.
func (r *Result) Preview() []string {
	n := len(r.Files)
	if n > previewLimit {
		n = previewLimit
	}
	out := make([]string, 0, n)
	for _, f := range r.Files[:n] {
		out = append(out, f.Path)
	}
	return out
}

// Truncated reports how many matches the preview omits.
func (r *Result) Truncated() int {
	if len(r.Files) > previewLimit {
		return len(r.Files) - previewLimit
	}
	return 0
}

type rootResult struct {
	files    []File
	bytes    uint64
	warnings []string
}

// Run walks every root concurrently, selecting regular files that pass the
// matcher and meet the size floor. Unreadable directories degrade into
// warnings. Symlinked directories are not descended into; a symlink whose
// target is a regular file is counted with the target's size.
func Run(ctx context.Context, roots []string, m *globmatch.Matcher, minSize uint64) (*Result, error) {
	results := make([]rootResult, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, root := range roots {
		g.Go(func() error {
			return walkRoot(ctx, root, m, minSize, &results[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge in root order so the preview does not depend on goroutine timing.
	res := &Result{}
	for _, rr := range results {
		res.Files = append(res.Files, rr.files...)
		res.TotalBytes += rr.bytes
		res.Warnings = append(res.Warnings, rr.warnings...)
	}
	return res, nil
}

func walkRoot(ctx context.Context, root string, m *globmatch.Matcher, minSize uint64, out *rootResult) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			out.warnings = append(out.warnings, "scan "+path+": "+err.Error())
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		var size uint64
		switch {
		case d.Type().IsRegular():
			info, ierr := d.Info()
			if ierr != nil {
				out.warnings = append(out.warnings, "stat "+path+": "+ierr.Error())
				return nil
			}
			size = uint64(info.Size())
		case d.Type()&fs.ModeSymlink != 0:
			info, ierr := os.Stat(path)
			if ierr != nil || !info.Mode().IsRegular() {
				return nil // broken link or link to a non-file
			}
			size = uint64(info.Size())
		default:
			return nil // sockets, devices, fifos
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		if !m.Match(rel) {
			return nil
		}
		if size < minSize {
			return nil
		}

		out.files = append(out.files, File{Path: path, Size: size})
		out.bytes += size
		return nil
	})
}
