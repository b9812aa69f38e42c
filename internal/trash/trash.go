// Package trash moves files into the freedesktop.org trash instead of
// unlinking them. Layout and .trashinfo format follow the XDG Trash
// specification: $XDG_DATA_HOME/Trash/files holds the payload,
// $XDG_DATA_HOME/Trash/info holds one .trashinfo per entry.
package trash

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

const infoTemplate = "[Trash Info]\nPath=%s\nDeletionDate=%s\n"

// Dir resolves the trash directory root, honoring XDG_DATA_HOME and falling
// back to ~/.local/share.
func Dir() (string, error) {
	data := os.Getenv("XDG_DATA_HOME")
	if data == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home: %w", err)
		}
		data = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(data, "Trash"), nil
}

// Move transfers path into the trash. The .trashinfo file is created first
// with O_EXCL, which doubles as the name reservation when several entries
// share a base name.
func Move(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	root, err := Dir()
	if err != nil {
		return err
	}
	filesDir := filepath.Join(root, "files")
	infoDir := filepath.Join(root, "info")
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("create trash dir: %w", err)
		}
	}

	name, infoFile, err := reserve(infoDir, filepath.Base(abs), abs)
	if err != nil {
		return err
	}

	dest := filepath.Join(filesDir, name)
	if err := moveFile(abs, dest); err != nil {
		// Roll back the reservation so the trash stays consistent.
		os.Remove(infoFile)
		return err
	}
	return nil
}

// reserve creates the .trashinfo file for base, appending ".2", ".3", ... on
// collision, and returns the chosen entry name.
func reserve(infoDir, base, abs string) (string, string, error) {
	now := time.Now().Format("2006-01-02T15:04:05")
	escaped := (&url.URL{Path: abs}).EscapedPath()
	content := fmt.Sprintf(infoTemplate, escaped, now)

	name := base
	for i := 2; ; i++ {
		infoFile := filepath.Join(infoDir, name+".trashinfo")
		f, err := os.OpenFile(infoFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, werr := f.WriteString(content)
			cerr := f.Close()
			if werr != nil {
				os.Remove(infoFile)
				return "", "", werr
			}
			if cerr != nil {
				os.Remove(infoFile)
				return "", "", cerr
			}
			return name, infoFile, nil
		}
		if !os.IsExist(err) {
			return "", "", fmt.Errorf("reserve trash entry: %w", err)
		}
		name = base + "." + strconv.Itoa(i)
	}
}

// moveFile renames src to dest, falling back to copy+remove when the trash
// lives on a different filesystem.
func moveFile(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		return copyAndRemove(src, dest)
	}
	return err
}

func copyAndRemove(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	return os.Remove(src)
}
