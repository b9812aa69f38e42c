// Package confirm implements the gate between scanning and deletion.
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrAborted means the user declined or input ended before an answer.
var ErrAborted = errors.New("aborted by user")

// accepted holds the exact answers that approve a run. Anything else,
// including EOF, aborts.
var accepted = map[string]bool{
	"YES": true,
	"Yes": true,
	"Y":   true,
	"y":   true,
}

// Summary is what the prompt shows before asking.
type Summary struct {
	Files      int
	TotalBytes uint64
	Preview    []string
	Truncated  int
	Mode       string // "delete", "trash"
}

// Ask prints the summary to w and reads one line from r. It returns nil only
// on an explicit approval.
func Ask(w io.Writer, r io.Reader, s Summary) error {
	fmt.Fprintf(w, "About to %s %d file(s), %s total:\n",
		s.Mode, s.Files, humanize.IBytes(s.TotalBytes))
	for _, p := range s.Preview {
		fmt.Fprintf(w, "  %s\n", p)
	}
	if s.Truncated > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", s.Truncated)
	}
	fmt.Fprint(w, "Proceed? [YES/no]: ")

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return ErrAborted
	}
	if accepted[strings.TrimSpace(line)] {
		return nil
	}
	return ErrAborted
}
