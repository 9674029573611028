package tinybasic

import (
	"fmt"
	"strconv"
)

// ProgramLine is a token sequence with a read cursor. Lines without a number
// are executed immediately and never stored.
type ProgramLine struct {
	number   uint16
	numbered bool
	tokens   []*Token
	cursor   int
	last     int // index of the token returned by the latest NextToken, -1 if none
}

// NewProgramLine creates an immediate-mode line.
func NewProgramLine(tokens []*Token) *ProgramLine {
	return &ProgramLine{tokens: tokens, last: -1}
}

// NewNumberedLine creates a deferred-mode line.
func NewNumberedLine(number uint16, tokens []*Token) *ProgramLine {
	return &ProgramLine{number: number, numbered: true, tokens: tokens, last: -1}
}

// Number returns the line number and whether the line has one.
func (l *ProgramLine) Number() (uint16, bool) {
	return l.number, l.numbered
}

// IsImmediate reports whether the line has no line number.
func (l *ProgramLine) IsImmediate() bool {
	return !l.numbered
}

// Len returns the number of tokens.
func (l *ProgramLine) Len() int {
	return len(l.tokens)
}

// Tokens returns the underlying token slice. Callers must not modify it.
func (l *ProgramLine) Tokens() []*Token {
	return l.tokens
}

// NextToken returns the token under the cursor and advances. Past the end it
// returns EndOfLine and the cursor stays put.
func (l *ProgramLine) NextToken() *Token {
	if l.cursor >= len(l.tokens) {
		l.last = -1
		return EndOfLine
	}
	t := l.tokens[l.cursor]
	l.last = l.cursor
	l.cursor++
	return t
}

// PeekToken returns the next token without consuming it.
func (l *ProgramLine) PeekToken() *Token {
	if l.cursor >= len(l.tokens) {
		return EndOfLine
	}
	return l.tokens[l.cursor]
}

// PushToken steps the cursor back over t, which must be the token returned by
// the most recent NextToken. EndOfLine can always be pushed back. Anything
// else is a programming error and panics.
func (l *ProgramLine) PushToken(t *Token) {
	if t.IsEndOfLine() {
		return
	}
	if l.last < 0 || l.last != l.cursor-1 || l.tokens[l.last] != t {
		panic(fmt.Sprintf("tinybasic: push back of %q does not match last read token", t.Text))
	}
	l.cursor = l.last
	l.last = -1
}

// Position returns the cursor index.
func (l *ProgramLine) Position() int {
	return l.cursor
}

// Seek moves the cursor to pos, clamped to [0, Len].
func (l *ProgramLine) Seek(pos int) {
	switch {
	case pos < 0:
		pos = 0
	case pos > len(l.tokens):
		pos = len(l.tokens)
	}
	l.cursor = pos
	l.last = -1
}

// Reset moves the cursor back to the first token.
func (l *ProgramLine) Reset() {
	l.Seek(0)
}

// AtEnd reports whether every token has been read.
func (l *ProgramLine) AtEnd() bool {
	return l.cursor >= len(l.tokens)
}

// Clone returns a copy with its own cursor at zero sharing the tokens.
func (l *ProgramLine) Clone() *ProgramLine {
	return &ProgramLine{number: l.number, numbered: l.numbered, tokens: l.tokens, last: -1}
}

// SkipToEnd moves the cursor past the last token.
func (l *ProgramLine) SkipToEnd() {
	l.Seek(len(l.tokens))
}

// String renders the line in listing form.
func (l *ProgramLine) String() string {
	if !l.numbered {
		return renderTokens(l.tokens)
	}
	return strconv.Itoa(int(l.number)) + " " + renderTokens(l.tokens)
}
