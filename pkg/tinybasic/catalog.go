package tinybasic

import "strings"

// Built-in tokens. Statement-class keywords render with surrounding spaces,
// separators render literally.
var (
	TokColon        = &Token{":", ClassSeparator, KindColon}
	TokComma        = &Token{",", ClassSeparator, KindComma}
	TokSemicolon    = &Token{";", ClassSeparator, KindSemicolon}
	TokEqual        = &Token{"=", ClassSeparator, KindEqual}
	TokLess         = &Token{"<", ClassSeparator, KindLess}
	TokGreater      = &Token{">", ClassSeparator, KindGreater}
	TokPlus         = &Token{"+", ClassSeparator, KindPlus}
	TokMinus        = &Token{"-", ClassSeparator, KindMinus}
	TokMultiply     = &Token{"*", ClassSeparator, KindMultiply}
	TokDivide       = &Token{"/", ClassSeparator, KindDivide}
	TokPower        = &Token{"^", ClassSeparator, KindPower}
	TokOpenBracket  = &Token{"(", ClassSeparator, KindOpenBracket}
	TokCloseBracket = &Token{")", ClassSeparator, KindCloseBracket}
	TokDollar       = &Token{"$", ClassSeparator, KindDollar}
	TokPercent      = &Token{"%", ClassSeparator, KindPercent}

	TokAnd  = &Token{"AND", ClassStatement, KindAnd}
	TokOr   = &Token{"OR", ClassStatement, KindOr}
	TokNot  = &Token{"NOT", ClassStatement, KindNot}
	TokTo   = &Token{"TO", ClassStatement, KindTo}
	TokStep = &Token{"STEP", ClassStatement, KindStep}
	TokThen = &Token{"THEN", ClassStatement, KindThen}
	TokFn   = &Token{"FN", ClassStatement, KindFn}

	TokElse    = &Token{"ELSE", ClassStatement, KindElse}
	TokGoto    = &Token{"GOTO", ClassStatement, KindGoto}
	TokGosub   = &Token{"GOSUB", ClassStatement, KindGosub}
	TokReturn  = &Token{"RETURN", ClassStatement, KindReturn}
	TokPop     = &Token{"POP", ClassStatement, KindPop}
	TokFor     = &Token{"FOR", ClassStatement, KindFor}
	TokNext    = &Token{"NEXT", ClassStatement, KindNext}
	TokIf      = &Token{"IF", ClassStatement, KindIf}
	TokOn      = &Token{"ON", ClassStatement, KindOn}
	TokOnErr   = &Token{"ONERR", ClassStatement, KindOnErr}
	TokResume  = &Token{"RESUME", ClassStatement, KindResume}
	TokEnd     = &Token{"END", ClassStatement, KindEnd}
	TokStop    = &Token{"STOP", ClassStatement, KindStop}
	TokCont    = &Token{"CONT", ClassStatement, KindCont}
	TokRun     = &Token{"RUN", ClassStatement, KindRun}
	TokList    = &Token{"LIST", ClassStatement, KindList}
	TokNew     = &Token{"NEW", ClassStatement, KindNew}
	TokDel     = &Token{"DEL", ClassStatement, KindDel}
	TokLoad    = &Token{"LOAD", ClassStatement, KindLoad}
	TokSave    = &Token{"SAVE", ClassStatement, KindSave}
	TokCatalog = &Token{"CATALOG", ClassStatement, KindCatalog}
	TokClear   = &Token{"CLEAR", ClassStatement, KindClear}
	TokSystem  = &Token{"SYSTEM", ClassStatement, KindSystem}
	TokLet     = &Token{"LET", ClassStatement, KindLet}
	TokPrint   = &Token{"PRINT", ClassStatement, KindPrint}
	TokInput   = &Token{"INPUT", ClassStatement, KindInput}
	TokDim     = &Token{"DIM", ClassStatement, KindDim}
	TokRem     = &Token{"REM", ClassStatement, KindRem}
	TokData    = &Token{"DATA", ClassStatement, KindData}
	TokRead    = &Token{"READ", ClassStatement, KindRead}
	TokRestore = &Token{"RESTORE", ClassStatement, KindRestore}
	TokDef     = &Token{"DEF", ClassStatement, KindDef}
	TokHome    = &Token{"HOME", ClassStatement, KindHome}

	// tokPrintShorthand matches "?" and is replaced by TokPrint on emission.
	tokPrintShorthand = &Token{"?", ClassStatement, KindPrint}

	TokAbs   = &Token{"ABS", ClassFunction, KindAbs}
	TokAsc   = &Token{"ASC", ClassFunction, KindAsc}
	TokAtn   = &Token{"ATN", ClassFunction, KindAtn}
	TokChr   = &Token{"CHR$", ClassFunction, KindChr}
	TokCos   = &Token{"COS", ClassFunction, KindCos}
	TokExp   = &Token{"EXP", ClassFunction, KindExp}
	TokInt   = &Token{"INT", ClassFunction, KindInt}
	TokLeft  = &Token{"LEFT$", ClassFunction, KindLeft}
	TokLen   = &Token{"LEN", ClassFunction, KindLen}
	TokLog   = &Token{"LOG", ClassFunction, KindLog}
	TokMid   = &Token{"MID$", ClassFunction, KindMid}
	TokRight = &Token{"RIGHT$", ClassFunction, KindRight}
	TokRnd   = &Token{"RND", ClassFunction, KindRnd}
	TokSgn   = &Token{"SGN", ClassFunction, KindSgn}
	TokSin   = &Token{"SIN", ClassFunction, KindSin}
	TokSqr   = &Token{"SQR", ClassFunction, KindSqr}
	TokStr   = &Token{"STR$", ClassFunction, KindStr}
	TokTan   = &Token{"TAN", ClassFunction, KindTan}
	TokVal   = &Token{"VAL", ClassFunction, KindVal}
	TokTab   = &Token{"TAB(", ClassFunction, KindTab}
	TokSpc   = &Token{"SPC(", ClassFunction, KindSpc}
)

// Catalog is the set of tokens the tokenizer recognizes.
type Catalog struct {
	tokens []*Token
	exact  map[string]*Token
}

// NewCatalog builds a catalog from the given tokens.
func NewCatalog(tokens ...*Token) *Catalog {
	c := &Catalog{
		tokens: tokens,
		exact:  make(map[string]*Token, len(tokens)),
	}
	for _, t := range tokens {
		c.exact[t.Text] = t
	}
	return c
}

// DefaultCatalog returns the dialect's full keyword, function and operator set.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		TokColon, TokComma, TokSemicolon, TokEqual, TokLess, TokGreater,
		TokPlus, TokMinus, TokMultiply, TokDivide, TokPower,
		TokOpenBracket, TokCloseBracket, TokDollar, TokPercent,
		TokAnd, TokOr, TokNot, TokTo, TokStep, TokThen, TokFn,
		TokElse, TokGoto, TokGosub, TokReturn, TokPop, TokFor, TokNext,
		TokIf, TokOn, TokOnErr, TokResume, TokEnd, TokStop, TokCont,
		TokRun, TokList, TokNew, TokDel, TokLoad, TokSave, TokCatalog,
		TokClear, TokSystem, TokLet, TokPrint, TokInput, TokDim, TokRem,
		TokData, TokRead, TokRestore, TokDef, TokHome, tokPrintShorthand,
		TokAbs, TokAsc, TokAtn, TokChr, TokCos, TokExp, TokInt, TokLeft,
		TokLen, TokLog, TokMid, TokRight, TokRnd, TokSgn, TokSin, TokSqr,
		TokStr, TokTan, TokVal, TokTab, TokSpc,
	)
}

// Lookup returns the token whose text equals text exactly.
func (c *Catalog) Lookup(text string) (*Token, bool) {
	t, ok := c.exact[text]
	return t, ok
}

// prefixMatches returns every token that starts with text.
func (c *Catalog) prefixMatches(text string) []*Token {
	var out []*Token
	for _, t := range c.tokens {
		if strings.HasPrefix(t.Text, text) {
			out = append(out, t)
		}
	}
	return out
}

// longestWithin finds the longest catalog token occurring anywhere inside
// text. Equal lengths are resolved by the earliest position.
func (c *Catalog) longestWithin(text string) (int, *Token) {
	bestPos := -1
	var best *Token
	for _, t := range c.tokens {
		pos := strings.Index(text, t.Text)
		if pos < 0 {
			continue
		}
		if best == nil || len(t.Text) > len(best.Text) ||
			(len(t.Text) == len(best.Text) && pos < bestPos) {
			best, bestPos = t, pos
		}
	}
	return bestPos, best
}

// canonical maps aliases onto the token that is stored in a line.
func canonical(t *Token) *Token {
	if t == tokPrintShorthand {
		return TokPrint
	}
	return t
}
