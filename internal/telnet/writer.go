package telnet

import (
	"io"
)

// Writer sends bytes to the remote host. Data is written verbatim: once the
// login exchange is over nothing on the outbound path is interpreted or
// escaped.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write sends p unmodified.
func (w *Writer) Write(p []byte) (n int, err error) {
	return w.w.Write(p)
}

// WriteCommand sends a Telnet command sequence.
// It automatically prepends IAC.
// Example: WriteCommand(DONT, Echo) sends IAC DONT ECHO
func (w *Writer) WriteCommand(cmds ...byte) error {
	data := make([]byte, 1+len(cmds))
	data[0] = IAC
	copy(data[1:], cmds)
	_, err := w.w.Write(data)
	return err
}
