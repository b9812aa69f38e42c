package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

// New creates the run logger. Output goes to stderr so stdout stays free for
// the progress bar and the final report. When logFile is non-empty, log lines
// are mirrored there; the returned func closes the file.
func New(logFile string) (*log.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", logFile, err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeFn = f.Close
	}

	return log.New(w, "", log.LstdFlags|log.Lmicroseconds), closeFn, nil
}
