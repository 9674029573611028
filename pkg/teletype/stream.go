package teletype

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/antibyte/retrobasic/pkg/tinybasic"
)

// Stream is a teletype over plain reader and writer. It serves piped input
// and "retrobasic run".
type Stream struct {
	in     *bufio.Reader
	out    io.Writer
	mu     sync.Mutex
	cancel tinybasic.CancelToken

	// EchoInput repeats every line read, so transcripts of piped sessions
	// look like typed ones.
	EchoInput bool
}

// NewStream creates a teletype reading r and writing w.
func NewStream(r io.Reader, w io.Writer) *Stream {
	return &Stream{in: bufio.NewReader(r), out: w}
}

// ReadLine writes prompt and reads up to the next line break. A last line
// without terminator is returned before io.EOF.
func (s *Stream) ReadLine(prompt string) (string, error) {
	if err := s.Write(prompt); err != nil {
		return "", err
	}
	line, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if s.EchoInput {
		if werr := s.Write(line + "\n"); werr != nil {
			return "", werr
		}
	}
	return line, nil
}

// Write prints text.
func (s *Stream) Write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.out, text)
	return err
}

// ReadChar returns the next rune of input.
func (s *Stream) ReadChar() (rune, error) {
	r, _, err := s.in.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == utf8.RuneError {
		return '?', nil
	}
	return r, nil
}

// Cancellation returns the break token.
func (s *Stream) Cancellation() *tinybasic.CancelToken {
	return &s.cancel
}
