package tinybasic

import (
	"math"
	"strconv"
	"strings"
)

// MaxExpressionDepth is the deepest expression nesting accepted.
const MaxExpressionDepth = 64

// EvaluateExpression evaluates one expression at the cursor of the current
// line.
func (b *TinyBASIC) EvaluateExpression() (Accumulator, error) {
	return b.expr()
}

// evaluateFloat evaluates an expression that must be numeric.
func (b *TinyBASIC) evaluateFloat() (float64, error) {
	v, err := b.expr()
	if err != nil {
		return 0, err
	}
	return v.Float()
}

// evaluateInt evaluates a numeric expression and truncates it into int16.
func (b *TinyBASIC) evaluateInt() (int, error) {
	v, err := b.expr()
	if err != nil {
		return 0, err
	}
	i, err := v.Int()
	return int(i), err
}

// evaluateString evaluates an expression that must be a string.
func (b *TinyBASIC) evaluateString() (string, error) {
	v, err := b.expr()
	if err != nil {
		return "", err
	}
	return v.Str()
}

// ParseLineNumber reads a line number at the cursor. If the next token is
// not a valid line number the cursor is left unchanged.
func (b *TinyBASIC) ParseLineNumber() (uint16, bool) {
	t := b.line.NextToken()
	if t.Class != ClassNumber {
		b.line.PushToken(t)
		return 0, false
	}
	n, err := strconv.ParseUint(t.Text, 10, 16)
	if err != nil {
		b.line.PushToken(t)
		return 0, false
	}
	return uint16(n), true
}

// parseName reads a variable name with its optional sigil.
func (b *TinyBASIC) parseName() (string, error) {
	t := b.line.NextToken()
	if t.Class != ClassVariable {
		b.line.PushToken(t)
		return "", NewBASICError(SyntaxError)
	}
	name := t.Text
	s := b.line.NextToken()
	switch {
	case s.Is(KindDollar):
		name += "$"
	case s.Is(KindPercent):
		name += "%"
	default:
		b.line.PushToken(s)
	}
	return name, nil
}

// ParseLeftValue reads a variable, optionally subscripted, and returns the
// location it names. Arrays used for the first time are created.
func (b *TinyBASIC) ParseLeftValue() (*VariableReference, error) {
	name, err := b.parseName()
	if err != nil {
		return nil, err
	}
	if !b.accept(KindOpenBracket) {
		return b.vars.GetOrCreateVariable(name).Reference(nil)
	}
	indices, err := b.parseSubscripts()
	if err != nil {
		return nil, err
	}
	arr, err := b.vars.GetOrCreateArray(name, len(indices))
	if err != nil {
		return nil, err
	}
	return arr.Reference(indices)
}

// parseSubscripts reads "i, j, ...)" after an opening bracket.
func (b *TinyBASIC) parseSubscripts() ([]int, error) {
	var indices []int
	for {
		i, err := b.evaluateInt()
		if err != nil {
			return nil, err
		}
		indices = append(indices, i)
		t := b.line.NextToken()
		if t.Is(KindComma) {
			continue
		}
		if t.Is(KindCloseBracket) {
			return indices, nil
		}
		b.line.PushToken(t)
		return nil, NewBASICError(SyntaxError)
	}
}

// expr := and ( OR and )*
func (b *TinyBASIC) expr() (Accumulator, error) {
	b.depth++
	defer func() { b.depth-- }()
	if b.depth > MaxExpressionDepth {
		return Accumulator{}, NewBASICError(FormulaTooComplex)
	}

	left, err := b.andExpr()
	if err != nil {
		return left, err
	}
	for b.accept(KindOr) {
		right, err := b.andExpr()
		if err != nil {
			return right, err
		}
		l, err := left.Truthy()
		if err != nil {
			return left, err
		}
		r, err := right.Truthy()
		if err != nil {
			return right, err
		}
		left = BoolValue(l || r)
	}
	return left, nil
}

// and := not ( AND not )*
func (b *TinyBASIC) andExpr() (Accumulator, error) {
	left, err := b.notExpr()
	if err != nil {
		return left, err
	}
	for b.accept(KindAnd) {
		right, err := b.notExpr()
		if err != nil {
			return right, err
		}
		l, err := left.Truthy()
		if err != nil {
			return left, err
		}
		r, err := right.Truthy()
		if err != nil {
			return right, err
		}
		left = BoolValue(l && r)
	}
	return left, nil
}

// not := NOT not | compare
func (b *TinyBASIC) notExpr() (Accumulator, error) {
	if !b.accept(KindNot) {
		return b.compare()
	}
	v, err := b.notExpr()
	if err != nil {
		return v, err
	}
	t, err := v.Truthy()
	if err != nil {
		return v, err
	}
	return BoolValue(!t), nil
}

type relation int

const (
	relNone relation = iota
	relEqual
	relNotEqual
	relLess
	relLessEqual
	relGreater
	relGreaterEqual
)

// parseRelation reads =, <, <=, <>, >, >= built from one or two tokens.
func (b *TinyBASIC) parseRelation() relation {
	switch {
	case b.accept(KindEqual):
		return relEqual
	case b.accept(KindLess):
		if b.accept(KindEqual) {
			return relLessEqual
		}
		if b.accept(KindGreater) {
			return relNotEqual
		}
		return relLess
	case b.accept(KindGreater):
		if b.accept(KindEqual) {
			return relGreaterEqual
		}
		return relGreater
	}
	return relNone
}

// compare := addsub [ relation addsub ]
func (b *TinyBASIC) compare() (Accumulator, error) {
	left, err := b.addSub()
	if err != nil {
		return left, err
	}
	rel := b.parseRelation()
	if rel == relNone {
		return left, nil
	}
	right, err := b.addSub()
	if err != nil {
		return right, err
	}

	var c int
	if left.IsString() != right.IsString() {
		return left, NewBASICError(TypeMismatch)
	}
	if left.IsString() {
		c = strings.Compare(left.s, right.s)
	} else {
		l, _ := left.Float()
		r, _ := right.Float()
		switch {
		case l < r:
			c = -1
		case l > r:
			c = 1
		}
	}

	switch rel {
	case relEqual:
		return BoolValue(c == 0), nil
	case relNotEqual:
		return BoolValue(c != 0), nil
	case relLess:
		return BoolValue(c < 0), nil
	case relLessEqual:
		return BoolValue(c <= 0), nil
	case relGreater:
		return BoolValue(c > 0), nil
	default:
		return BoolValue(c >= 0), nil
	}
}

// addsub := muldiv ( (+|-) muldiv )*
func (b *TinyBASIC) addSub() (Accumulator, error) {
	left, err := b.mulDiv()
	if err != nil {
		return left, err
	}
	for {
		var plus bool
		switch {
		case b.accept(KindPlus):
			plus = true
		case b.accept(KindMinus):
		default:
			return left, nil
		}
		right, err := b.mulDiv()
		if err != nil {
			return right, err
		}
		if left.IsString() || right.IsString() {
			if !plus || !left.IsString() || !right.IsString() {
				return left, NewBASICError(TypeMismatch)
			}
			left, err = StringValue(left.s + right.s)
			if err != nil {
				return left, err
			}
			continue
		}
		l, _ := left.Float()
		r, _ := right.Float()
		if plus {
			left, err = numericResult(l + r)
		} else {
			left, err = numericResult(l - r)
		}
		if err != nil {
			return left, err
		}
	}
}

// muldiv := negate ( (*|/) negate )*
func (b *TinyBASIC) mulDiv() (Accumulator, error) {
	left, err := b.negate()
	if err != nil {
		return left, err
	}
	for {
		var mul bool
		switch {
		case b.accept(KindMultiply):
			mul = true
		case b.accept(KindDivide):
		default:
			return left, nil
		}
		right, err := b.negate()
		if err != nil {
			return right, err
		}
		l, err := left.Float()
		if err != nil {
			return left, err
		}
		r, err := right.Float()
		if err != nil {
			return right, err
		}
		if mul {
			left, err = numericResult(l * r)
		} else {
			if r == 0 {
				return left, NewBASICError(DivisionByZero)
			}
			left, err = numericResult(l / r)
		}
		if err != nil {
			return left, err
		}
	}
}

// negate := - power | power
func (b *TinyBASIC) negate() (Accumulator, error) {
	if !b.accept(KindMinus) {
		return b.power()
	}
	v, err := b.power()
	if err != nil {
		return v, err
	}
	f, err := v.Float()
	if err != nil {
		return v, err
	}
	return FloatValue(-f), nil
}

// power := brackets ( ^ [-] brackets )*
func (b *TinyBASIC) power() (Accumulator, error) {
	left, err := b.brackets()
	if err != nil {
		return left, err
	}
	for b.accept(KindPower) {
		negative := b.accept(KindMinus)
		right, err := b.brackets()
		if err != nil {
			return right, err
		}
		l, err := left.Float()
		if err != nil {
			return left, err
		}
		r, err := right.Float()
		if err != nil {
			return right, err
		}
		if negative {
			r = -r
		}
		p := math.Pow(l, r)
		switch {
		case math.IsNaN(p):
			return left, NewBASICError(IllegalQuantity)
		case math.IsInf(p, 0) && l == 0:
			return left, NewBASICError(DivisionByZero)
		}
		if left, err = numericResult(p); err != nil {
			return left, err
		}
	}
	return left, nil
}

// brackets := ( expr ) | value
func (b *TinyBASIC) brackets() (Accumulator, error) {
	if !b.accept(KindOpenBracket) {
		return b.value()
	}
	v, err := b.expr()
	if err != nil {
		return v, err
	}
	if err := b.expect(KindCloseBracket); err != nil {
		return v, err
	}
	return v, nil
}

// value := number | string | variable | function call
func (b *TinyBASIC) value() (Accumulator, error) {
	t := b.line.NextToken()
	switch t.Class {
	case ClassNumber:
		return b.numberLiteral(t)
	case ClassString:
		return StringValue(t.Text)
	case ClassVariable:
		b.line.PushToken(t)
		ref, err := b.ParseLeftValue()
		if err != nil {
			return Accumulator{}, err
		}
		return ref.Get(), nil
	case ClassFunction:
		return b.callFunction(t)
	}
	if t.Is(KindFn) {
		return b.callUserFunction()
	}
	b.line.PushToken(t)
	return Accumulator{}, NewBASICError(SyntaxError)
}

// numberLiteral parses a Number token. An exponent sign splits the literal
// into several tokens ("1E", "-", "5"), which are joined again here.
func (b *TinyBASIC) numberLiteral(t *Token) (Accumulator, error) {
	text := t.Text
	if strings.HasSuffix(text, "E") {
		sign := b.line.NextToken()
		if sign.Is(KindPlus) || sign.Is(KindMinus) {
			digits := b.line.NextToken()
			if digits.Class != ClassNumber {
				b.line.PushToken(digits)
				return Accumulator{}, NewBASICError(SyntaxError)
			}
			text += sign.Text + digits.Text
		} else {
			b.line.PushToken(sign)
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return Accumulator{}, NewBASICError(Overflow)
		}
		return Accumulator{}, NewBASICError(SyntaxError)
	}
	return FloatValue(f), nil
}

// numericResult wraps an arithmetic result, rejecting infinities.
func numericResult(f float64) (Accumulator, error) {
	if math.IsInf(f, 0) {
		return Accumulator{}, NewBASICError(Overflow)
	}
	if math.IsNaN(f) {
		return Accumulator{}, NewBASICError(IllegalQuantity)
	}
	return FloatValue(f), nil
}
