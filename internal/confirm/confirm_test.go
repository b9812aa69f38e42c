package confirm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func testSummary() Summary {
	return Summary{
		Files:      3,
		TotalBytes: 4096,
		Preview:    []string{"/data/a.log", "/data/b.log", "/data/c.log"},
		Mode:       "delete",
	}
}

func TestAskAccepted(t *testing.T) {
	for _, answer := range []string{"YES", "Yes", "Y", "y"} {
		var out bytes.Buffer
		err := Ask(&out, strings.NewReader(answer+"\n"), testSummary())
		if err != nil {
			t.Errorf("answer %q: err = %v, want approval", answer, err)
		}
	}
}

func TestAskRejected(t *testing.T) {
	for _, answer := range []string{"no", "yes", "N", "YES!", "", "  ", "YE S"} {
		var out bytes.Buffer
		err := Ask(&out, strings.NewReader(answer+"\n"), testSummary())
		if !errors.Is(err, ErrAborted) {
			t.Errorf("answer %q: err = %v, want ErrAborted", answer, err)
		}
	}
}

func TestAskEOFAborts(t *testing.T) {
	var out bytes.Buffer
	if err := Ask(&out, strings.NewReader(""), testSummary()); !errors.Is(err, ErrAborted) {
		t.Errorf("err = %v, want ErrAborted on EOF", err)
	}
}

func TestAskTrimsWhitespace(t *testing.T) {
	var out bytes.Buffer
	if err := Ask(&out, strings.NewReader("  YES  \n"), testSummary()); err != nil {
		t.Errorf("padded YES should be accepted: %v", err)
	}
}

func TestAskShowsSummary(t *testing.T) {
	var out bytes.Buffer
	s := testSummary()
	s.Truncated = 7
	_ = Ask(&out, strings.NewReader("no\n"), s)

	text := out.String()
	for _, want := range []string{"3 file(s)", "4.0 KiB", "/data/a.log", "... and 7 more", "Proceed?"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q in:\n%s", want, text)
		}
	}
}
