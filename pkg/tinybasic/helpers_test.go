package tinybasic

import (
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
)

// scriptTeletype feeds prepared input lines and records all output.
type scriptTeletype struct {
	input   []string
	prompts []string
	out     strings.Builder
	cancel  CancelToken

	writes      int
	cancelAfter int // raise the break token on this write, 0 = never
}

func (s *scriptTeletype) ReadLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.input) == 0 {
		return "", io.EOF
	}
	line := s.input[0]
	s.input = s.input[1:]
	return line, nil
}

func (s *scriptTeletype) Write(text string) error {
	s.out.WriteString(text)
	s.writes++
	if s.cancelAfter > 0 && s.writes == s.cancelAfter {
		s.cancel.Cancel()
	}
	return nil
}

func (s *scriptTeletype) ReadChar() (rune, error) {
	return 0, io.EOF
}

func (s *scriptTeletype) Cancellation() *CancelToken {
	return &s.cancel
}

// memFS is an in-memory FileSystem.
type memFS struct {
	files map[string]string
}

func newMemFS() *memFS {
	return &memFS{files: make(map[string]string)}
}

func (m *memFS) ReadFile(path, owner string) (string, error) {
	content, ok := m.files[path]
	if !ok {
		return "", errors.New("not found")
	}
	return content, nil
}

func (m *memFS) WriteFile(path, content, owner string) error {
	m.files[path] = content
	return nil
}

func (m *memFS) Exists(path, owner string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *memFS) ListDirProgramFiles(owner string) ([]string, error) {
	var names []string
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func testOptions() Options {
	o := DefaultOptions()
	o.RandomSeed = 1
	return o
}

// NewTestBasic creates an interpreter on a scripted teletype and an
// in-memory file system.
func NewTestBasic(input ...string) (*TinyBASIC, *scriptTeletype, *memFS) {
	tty := &scriptTeletype{input: input}
	fs := newMemFS()
	return NewTinyBASIC(tty, fs, testOptions()), tty, fs
}

// enterProgram stores every line and fails the test on tokenizer errors.
func enterProgram(t *testing.T, b *TinyBASIC, lines ...string) {
	t.Helper()
	for _, l := range lines {
		if err := b.Enter(l); err != nil {
			t.Fatalf("Enter(%q): %v", l, err)
		}
	}
}

// runProgram stores lines, runs them and returns the output and the result.
func runProgram(t *testing.T, lines ...string) (string, error, *TinyBASIC) {
	t.Helper()
	b, tty, _ := NewTestBasic()
	enterProgram(t, b, lines...)
	err := b.RunProgram()
	return tty.out.String(), err, b
}

// scalar returns the value of a scalar variable.
func scalar(t *testing.T, b *TinyBASIC, name string) Accumulator {
	t.Helper()
	ref, err := b.Variables().GetOrCreateVariable(name).Reference(nil)
	if err != nil {
		t.Fatalf("reference %s: %v", name, err)
	}
	return ref.Get()
}

func mustFloat(t *testing.T, a Accumulator) float64 {
	t.Helper()
	f, err := a.Float()
	if err != nil {
		t.Fatalf("Float(): %v", err)
	}
	return f
}

func mustString(t *testing.T, a Accumulator) string {
	t.Helper()
	s, err := a.Str()
	if err != nil {
		t.Fatalf("Str(): %v", err)
	}
	return s
}

func errorKind(err error) (ErrorKind, bool) {
	be, ok := AsBASICError(err)
	if !ok {
		return 0, false
	}
	return be.Kind, true
}
