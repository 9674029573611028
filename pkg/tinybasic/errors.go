// Package tinybasic implements a line-oriented BASIC interpreter.
package tinybasic

import (
	"errors"
	"strconv"
)

// ErrExit is returned by the executor when SYSTEM ends the session.
var ErrExit = errors.New("tinybasic: exit requested")

// ErrorKind classifies a BASICError.
type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	TypeMismatch
	IllegalQuantity
	Overflow
	DivisionByZero
	BadSubscript
	RedimensionedArray
	OutOfMemory
	StringTooLong
	UndefinedStatement
	NextWithoutFor
	ReturnWithoutGosub
	CantContinue
	IllegalDirect
	IllegalDeferred
	OutOfData
	UndefinedFunction
	FormulaTooComplex
	UnableToEdit
	FileNotFound
	StackOverflow

	// Control signals. They stop the program but are not failures.
	End
	Stop
	Break
)

type errorInfo struct {
	message string
	code    int // -1: not trappable by ONERR
}

var errorTable = map[ErrorKind]errorInfo{
	SyntaxError:        {"SYNTAX", 16},
	TypeMismatch:       {"TYPE MISMATCH", 163},
	IllegalQuantity:    {"ILLEGAL QUANTITY", 53},
	Overflow:           {"OVERFLOW", 69},
	DivisionByZero:     {"DIVISION BY ZERO", 133},
	BadSubscript:       {"BAD SUBSCRIPT", 107},
	RedimensionedArray: {"REDIM'D ARRAY", 120},
	OutOfMemory:        {"OUT OF MEMORY", 77},
	StringTooLong:      {"STRING TOO LONG", 176},
	UndefinedStatement: {"UNDEF'D STATEMENT", 90},
	NextWithoutFor:     {"NEXT WITHOUT FOR", 0},
	ReturnWithoutGosub: {"RETURN WITHOUT GOSUB", 22},
	CantContinue:       {"CAN'T CONTINUE", -1},
	IllegalDirect:      {"ILLEGAL DIRECT", -1},
	IllegalDeferred:    {"ILLEGAL DEFERRED", -1},
	OutOfData:          {"OUT OF DATA", 42},
	UndefinedFunction:  {"UNDEF'D FUNCTION", 224},
	FormulaTooComplex:  {"FORMULA TOO COMPLEX", 191},
	UnableToEdit:       {"UNABLE TO EDIT", -1},
	FileNotFound:       {"FILE NOT FOUND", -1},
	StackOverflow:      {"OUT OF MEMORY", -1}, // fatal, ONERR cannot catch it
	End:                {"END", -1},
	Stop:               {"BREAK", -1},
	Break:              {"BREAK", -1},
}

// BASICError is an error raised while tokenizing or executing BASIC code.
type BASICError struct {
	Kind       ErrorKind
	LineNumber uint16
	HasLine    bool   // LineNumber is valid
	Detail     string // extra context for logs; BREAK shows it instead of the default text
}

// NewBASICError creates an error of the given kind without line information.
func NewBASICError(kind ErrorKind) *BASICError {
	return &BASICError{Kind: kind}
}

// WithLine attaches the line the error occurred in. An already attached line
// is kept.
func (be *BASICError) WithLine(number uint16) *BASICError {
	if !be.HasLine {
		be.LineNumber = number
		be.HasLine = true
	}
	return be
}

// WithDetail attaches a detail text.
func (be *BASICError) WithDetail(detail string) *BASICError {
	be.Detail = detail
	return be
}

// Message returns the classic message text without decorations.
func (be *BASICError) Message() string {
	return errorTable[be.Kind].message
}

// Code returns the numeric error code reported to ONERR handlers.
func (be *BASICError) Code() (int, bool) {
	code := errorTable[be.Kind].code
	return code, code >= 0
}

// Trappable reports whether an ONERR handler may catch the error.
func (be *BASICError) Trappable() bool {
	_, ok := be.Code()
	return ok
}

// IsControl reports whether the error is a control signal (END, STOP, BREAK).
func (be *BASICError) IsControl() bool {
	return be.Kind == End || be.Kind == Stop || be.Kind == Break
}

// Error implementiert das error-Interface. Format: "?SYNTAX ERROR IN 10",
// "BREAK IN 20".
func (be *BASICError) Error() string {
	var msg string
	switch be.Kind {
	case End:
		return ""
	case Stop, Break:
		msg = be.Message()
		if be.Kind == Break && be.Detail != "" {
			msg = be.Detail
		}
	default:
		msg = "?" + be.Message() + " ERROR"
	}
	if be.HasLine {
		msg += " IN " + strconv.Itoa(int(be.LineNumber))
	}
	return msg
}

// Is lets errors.Is match on the error kind.
func (be *BASICError) Is(target error) bool {
	var t *BASICError
	if errors.As(target, &t) {
		return t.Kind == be.Kind
	}
	return false
}

// IsKind reports whether err is a BASICError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *BASICError
	return errors.As(err, &be) && be.Kind == kind
}

// AsBASICError extracts a BASICError from err.
func AsBASICError(err error) (*BASICError, bool) {
	var be *BASICError
	ok := errors.As(err, &be)
	return be, ok
}
