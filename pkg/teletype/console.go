package teletype

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
)

// HistoryFile is kept in the home directory.
const HistoryFile = ".retrobasic_history"

// DefaultWidth is assumed when the terminal size is unknown.
const DefaultWidth = 80

// Console is the interactive terminal teletype: line editing and history
// at the prompt, Ctrl-C as keyboard break while a program runs.
type Console struct {
	line     *liner.State
	history  string
	cancel   tinybasic.CancelToken
	signals  chan os.Signal
	done     chan struct{}
	inFd     int
	outFd    int
	lastLine string
}

// IsTerminal reports whether stdin and stdout are both terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// NewConsole takes over the terminal. Close must be called to restore it.
func NewConsole() (*Console, error) {
	if !IsTerminal() {
		return nil, errors.New("console requires a terminal on stdin and stdout")
	}

	c := &Console{
		line:    liner.NewLiner(),
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
		inFd:    int(os.Stdin.Fd()),
		outFd:   int(os.Stdout.Fd()),
	}
	c.line.SetCtrlCAborts(true)

	if home, err := os.UserHomeDir(); err == nil {
		c.history = filepath.Join(home, HistoryFile)
		if f, err := os.Open(c.history); err == nil {
			_, _ = c.line.ReadHistory(f)
			f.Close()
		}
	}

	// Outside the prompt the terminal is in cooked mode and Ctrl-C arrives
	// as SIGINT.
	signal.Notify(c.signals, os.Interrupt)
	go func() {
		for {
			select {
			case <-c.signals:
				logger.Debug(logger.AreaTerminal, "keyboard break")
				c.cancel.Cancel()
			case <-c.done:
				return
			}
		}
	}()
	return c, nil
}

// ReadLine prompts with line editing. Ctrl-C at the prompt raises the break
// token and returns an empty line; Ctrl-D returns io.EOF.
func (c *Console) ReadLine(prompt string) (string, error) {
	text, err := c.line.Prompt(prompt)
	switch {
	case errors.Is(err, liner.ErrPromptAborted):
		c.cancel.Cancel()
		return "", nil
	case err != nil:
		return "", err
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" && trimmed != c.lastLine {
		c.line.AppendHistory(trimmed)
		c.lastLine = trimmed
	}
	return text, nil
}

// Write prints text to stdout.
func (c *Console) Write(text string) error {
	_, err := io.WriteString(os.Stdout, text)
	return err
}

// ReadChar switches the terminal to raw mode for a single key.
func (c *Console) ReadChar() (rune, error) {
	state, err := term.MakeRaw(c.inFd)
	if err != nil {
		return 0, fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(c.inFd, state)

	var buf [1]byte
	n, err := os.Stdin.Read(buf[:])
	if err != nil || n == 0 {
		return 0, io.EOF
	}
	// Ctrl-C arrives as a byte in raw mode.
	if buf[0] == 3 {
		c.cancel.Cancel()
	}
	return rune(buf[0]), nil
}

// Cancellation returns the break token.
func (c *Console) Cancellation() *tinybasic.CancelToken {
	return &c.cancel
}

// Width returns the terminal width in columns.
func (c *Console) Width() int {
	if w, _, err := term.GetSize(c.outFd); err == nil && w > 0 {
		return w
	}
	return DefaultWidth
}

// Close saves the history and restores the terminal.
func (c *Console) Close() error {
	signal.Stop(c.signals)
	close(c.done)

	if c.history != "" {
		if f, err := os.Create(c.history); err == nil {
			_, _ = c.line.WriteHistory(f)
			f.Close()
		}
	}
	return c.line.Close()
}
