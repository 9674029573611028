package tinybasic

import "strings"

// TokenClass classifies a token for the executor and the evaluator.
type TokenClass int

const (
	ClassUnknown TokenClass = iota
	ClassStatement
	ClassSeparator
	ClassVariable
	ClassNumber
	ClassString
	ClassFunction
	ClassRemark
	ClassData
)

// TokenKind is the semantic tag of a built-in token. Tokens created from user
// text carry KindNone.
type TokenKind int

const (
	KindNone TokenKind = iota
	KindEndOfLine

	// Separators
	KindColon
	KindComma
	KindSemicolon
	KindEqual
	KindLess
	KindGreater
	KindPlus
	KindMinus
	KindMultiply
	KindDivide
	KindPower
	KindOpenBracket
	KindCloseBracket
	KindDollar
	KindPercent

	// Keywords used inside statements and expressions
	KindAnd
	KindOr
	KindNot
	KindTo
	KindStep
	KindThen
	KindFn

	// Statements
	KindElse
	KindGoto
	KindGosub
	KindReturn
	KindPop
	KindFor
	KindNext
	KindIf
	KindOn
	KindOnErr
	KindResume
	KindEnd
	KindStop
	KindCont
	KindRun
	KindList
	KindNew
	KindDel
	KindLoad
	KindSave
	KindCatalog
	KindClear
	KindSystem
	KindLet
	KindPrint
	KindInput
	KindDim
	KindRem
	KindData
	KindRead
	KindRestore
	KindDef
	KindHome

	// Functions
	KindAbs
	KindAsc
	KindAtn
	KindChr
	KindCos
	KindExp
	KindInt
	KindLeft
	KindLen
	KindLog
	KindMid
	KindRight
	KindRnd
	KindSgn
	KindSin
	KindSqr
	KindStr
	KindTan
	KindVal
	KindTab
	KindSpc
)

// Token is an immutable lexical unit. Built-in tokens are allocated once and
// shared by every line that uses them.
type Token struct {
	Text  string
	Class TokenClass
	Kind  TokenKind
}

// EndOfLine is returned by ProgramLine.NextToken once the cursor has passed
// the last token.
var EndOfLine = &Token{Text: "", Class: ClassSeparator, Kind: KindEndOfLine}

// NewTextToken builds a Variable or Number token from raw user text. A
// leading digit or period makes it a number.
func NewTextToken(text string) *Token {
	class := ClassVariable
	if text != "" && (text[0] == '.' || (text[0] >= '0' && text[0] <= '9')) {
		class = ClassNumber
	}
	return &Token{Text: text, Class: class}
}

// NewStringToken builds a string literal token (text without quotes).
func NewStringToken(text string) *Token {
	return &Token{Text: text, Class: ClassString}
}

// NewRemarkToken builds a REM body token.
func NewRemarkToken(text string) *Token {
	return &Token{Text: text, Class: ClassRemark}
}

// NewDataToken builds a DATA body token.
func NewDataToken(text string) *Token {
	return &Token{Text: text, Class: ClassData}
}

// IsEndOfLine reports whether t is the synthetic end-of-line token.
func (t *Token) IsEndOfLine() bool {
	return t.Kind == KindEndOfLine
}

// Is reports whether t is the built-in token of the given kind.
func (t *Token) Is(kind TokenKind) bool {
	return t.Kind == kind && kind != KindNone
}

// Render returns the listing form of the token.
func (t *Token) Render() string {
	switch t.Class {
	case ClassStatement:
		return " " + t.Text + " "
	case ClassFunction:
		return " " + t.Text
	case ClassString:
		return "\"" + t.Text + "\""
	default:
		return t.Text
	}
}

func (t *Token) String() string {
	return t.Render()
}

// renderTokens joins tokens in listing form.
func renderTokens(tokens []*Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Render())
	}
	return sb.String()
}
