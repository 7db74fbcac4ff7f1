package session

import (
	"regexp"
	"strings"

	"github.com/armon/circbuf"
)

// promptBuffer accumulates plain text for prompt matching. It keeps only the
// most recent bytes, which is where an anchored prompt lives.
type promptBuffer struct {
	buf *circbuf.Buffer
}

func newPromptBuffer(size int) (*promptBuffer, error) {
	buf, err := circbuf.NewBuffer(int64(size))
	if err != nil {
		return nil, err
	}
	return &promptBuffer{buf: buf}, nil
}

func (b *promptBuffer) Write(p []byte) {
	// circbuf.Buffer.Write never fails.
	_, _ = b.buf.Write(p)
}

func (b *promptBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *promptBuffer) Len() int {
	return len(b.buf.Bytes())
}

func (b *promptBuffer) Reset() {
	b.buf.Reset()
}

// Truncated reports whether older text has been dropped to stay within bounds.
func (b *promptBuffer) Truncated() bool {
	return b.buf.TotalWritten() > b.buf.Size()
}

func matchAny(patterns []*regexp.Regexp, text []byte) bool {
	for _, re := range patterns {
		if re.Match(text) {
			return true
		}
	}
	return false
}

// failureMarker is a plain substring matched without regard to case.
type failureMarker struct {
	text string // lower-cased
	re   *regexp.Regexp
}

func newFailureMarker(marker string) failureMarker {
	return failureMarker{
		text: strings.ToLower(marker),
		re:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(marker)),
	}
}

// matchMarker returns the first marker found in text and the offset in text
// just past it. Offsets are into text as given, whatever its encoding.
func matchMarker(markers []failureMarker, text []byte) (string, int, bool) {
	for _, m := range markers {
		if loc := m.re.FindIndex(text); loc != nil {
			return m.text, loc[1], true
		}
	}
	return "", 0, false
}
