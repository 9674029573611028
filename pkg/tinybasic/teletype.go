package tinybasic

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// Teletype is the console the interpreter talks to.
type Teletype interface {
	// ReadLine shows prompt and returns one line of input without the line
	// terminator. io.EOF ends the session.
	ReadLine(prompt string) (string, error)
	// Write prints text as is.
	Write(text string) error
	// ReadChar waits for a single key.
	ReadChar() (rune, error)
	// Cancellation returns the token raised by the keyboard break.
	Cancellation() *CancelToken
}

// CancelToken is an asynchronous break request. Any goroutine may raise it;
// the executor consumes it between statements.
type CancelToken struct {
	raised atomic.Bool
}

// Cancel raises the token.
func (c *CancelToken) Cancel() {
	c.raised.Store(true)
}

// Consume reports whether the token was raised and lowers it.
func (c *CancelToken) Consume() bool {
	return c.raised.Swap(false)
}

// Raised reports the state without lowering it.
func (c *CancelToken) Raised() bool {
	return c.raised.Load()
}

// DefaultZoneWidth is the width of a PRINT comma zone.
const DefaultZoneWidth = 16

// PositionedTeletype tracks the output column of a Teletype for TAB, SPC and
// comma zones.
type PositionedTeletype struct {
	Teletype
	column    int
	zoneWidth int
}

// NewPositionedTeletype wraps t. zoneWidth <= 0 uses DefaultZoneWidth.
func NewPositionedTeletype(t Teletype, zoneWidth int) *PositionedTeletype {
	if zoneWidth <= 0 {
		zoneWidth = DefaultZoneWidth
	}
	return &PositionedTeletype{Teletype: t, zoneWidth: zoneWidth}
}

// Write prints text and advances the column.
func (p *PositionedTeletype) Write(text string) error {
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		p.column = utf8.RuneCountInString(text[i+1:])
	} else {
		p.column += utf8.RuneCountInString(text)
	}
	return p.Teletype.Write(text)
}

// ReadLine prompts for input. The echoed newline resets the column.
func (p *PositionedTeletype) ReadLine(prompt string) (string, error) {
	line, err := p.Teletype.ReadLine(prompt)
	p.column = 0
	return line, err
}

// Column returns the zero-based output column.
func (p *PositionedTeletype) Column() int {
	return p.column
}

// Tab moves to column col (zero based). Nothing happens if the cursor is
// already past it.
func (p *PositionedTeletype) Tab(col int) error {
	if col <= p.column {
		return nil
	}
	return p.Write(strings.Repeat(" ", col-p.column))
}

// Space writes n blanks.
func (p *PositionedTeletype) Space(n int) error {
	if n <= 0 {
		return nil
	}
	return p.Write(strings.Repeat(" ", n))
}

// NextZone moves to the start of the next comma zone.
func (p *PositionedTeletype) NextZone() error {
	next := (p.column/p.zoneWidth + 1) * p.zoneWidth
	return p.Tab(next)
}

// NewLine ends the current output line.
func (p *PositionedTeletype) NewLine() error {
	return p.Write("\n")
}
