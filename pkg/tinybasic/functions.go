package tinybasic

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// functionArgs reads a bracketed argument list. The opening bracket is
// consumed here; min and max bound the argument count.
func (b *TinyBASIC) functionArgs(min, max int) ([]Accumulator, error) {
	if err := b.expect(KindOpenBracket); err != nil {
		return nil, err
	}
	var args []Accumulator
	for {
		v, err := b.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		if !b.accept(KindComma) {
			break
		}
	}
	if err := b.expect(KindCloseBracket); err != nil {
		return nil, err
	}
	if len(args) < min || len(args) > max {
		return nil, NewBASICError(SyntaxError)
	}
	return args, nil
}

var floatFunctions = map[TokenKind]func(float64) (float64, error){
	KindAbs: func(x float64) (float64, error) { return math.Abs(x), nil },
	KindAtn: func(x float64) (float64, error) { return math.Atan(x), nil },
	KindCos: func(x float64) (float64, error) { return math.Cos(x), nil },
	KindSin: func(x float64) (float64, error) { return math.Sin(x), nil },
	KindTan: func(x float64) (float64, error) { return math.Tan(x), nil },
	KindExp: func(x float64) (float64, error) { return math.Exp(x), nil },
	KindInt: func(x float64) (float64, error) { return math.Floor(x), nil },
	KindLog: func(x float64) (float64, error) {
		if x <= 0 {
			return 0, NewBASICError(IllegalQuantity)
		}
		return math.Log(x), nil
	},
	KindSqr: func(x float64) (float64, error) {
		if x < 0 {
			return 0, NewBASICError(IllegalQuantity)
		}
		return math.Sqrt(x), nil
	},
	KindSgn: func(x float64) (float64, error) {
		switch {
		case x > 0:
			return 1, nil
		case x < 0:
			return -1, nil
		}
		return 0, nil
	},
}

// callFunction evaluates a built-in function whose token was just read.
func (b *TinyBASIC) callFunction(fn *Token) (Accumulator, error) {
	if f, ok := floatFunctions[fn.Kind]; ok {
		args, err := b.functionArgs(1, 1)
		if err != nil {
			return Accumulator{}, err
		}
		x, err := args[0].Float()
		if err != nil {
			return Accumulator{}, err
		}
		r, err := f(x)
		if err != nil {
			return Accumulator{}, err
		}
		return numericResult(r)
	}

	switch fn.Kind {
	case KindRnd:
		args, err := b.functionArgs(1, 1)
		if err != nil {
			return Accumulator{}, err
		}
		x, err := args[0].Float()
		if err != nil {
			return Accumulator{}, err
		}
		return FloatValue(b.random(x)), nil

	case KindLen:
		s, err := b.stringArg()
		if err != nil {
			return Accumulator{}, err
		}
		return FloatValue(float64(utf8.RuneCountInString(s))), nil

	case KindAsc:
		s, err := b.stringArg()
		if err != nil {
			return Accumulator{}, err
		}
		if s == "" {
			return Accumulator{}, NewBASICError(IllegalQuantity)
		}
		r, _ := utf8.DecodeRuneInString(s)
		return FloatValue(float64(r)), nil

	case KindVal:
		s, err := b.stringArg()
		if err != nil {
			return Accumulator{}, err
		}
		return FloatValue(parseLeadingNumber(s)), nil

	case KindChr:
		args, err := b.functionArgs(1, 1)
		if err != nil {
			return Accumulator{}, err
		}
		n, err := byteArg(args[0])
		if err != nil {
			return Accumulator{}, err
		}
		return StringValue(string(rune(n)))

	case KindStr:
		args, err := b.functionArgs(1, 1)
		if err != nil {
			return Accumulator{}, err
		}
		if args[0].IsString() {
			return Accumulator{}, NewBASICError(TypeMismatch)
		}
		return StringValue(args[0].Text())

	case KindLeft, KindRight:
		args, err := b.functionArgs(2, 2)
		if err != nil {
			return Accumulator{}, err
		}
		s, err := args[0].Str()
		if err != nil {
			return Accumulator{}, err
		}
		n, err := byteArg(args[1])
		if err != nil {
			return Accumulator{}, err
		}
		r := []rune(s)
		if n > len(r) {
			n = len(r)
		}
		if fn.Kind == KindLeft {
			return StringValue(string(r[:n]))
		}
		return StringValue(string(r[len(r)-n:]))

	case KindMid:
		args, err := b.functionArgs(2, 3)
		if err != nil {
			return Accumulator{}, err
		}
		s, err := args[0].Str()
		if err != nil {
			return Accumulator{}, err
		}
		start, err := byteArg(args[1])
		if err != nil {
			return Accumulator{}, err
		}
		if start < 1 {
			return Accumulator{}, NewBASICError(IllegalQuantity)
		}
		r := []rune(s)
		n := len(r)
		if len(args) == 3 {
			if n, err = byteArg(args[2]); err != nil {
				return Accumulator{}, err
			}
		}
		if start > len(r) {
			return StringValue("")
		}
		end := start - 1 + n
		if end > len(r) {
			end = len(r)
		}
		return StringValue(string(r[start-1 : end]))
	}

	// TAB( and SPC( only make sense inside PRINT.
	return Accumulator{}, NewBASICError(SyntaxError)
}

func (b *TinyBASIC) stringArg() (string, error) {
	args, err := b.functionArgs(1, 1)
	if err != nil {
		return "", err
	}
	return args[0].Str()
}

// byteArg converts a numeric argument into 0..255.
func byteArg(a Accumulator) (int, error) {
	i, err := a.Int()
	if err != nil {
		return 0, err
	}
	if i < 0 || i > 255 {
		return 0, NewBASICError(IllegalQuantity)
	}
	return int(i), nil
}

// random implements RND: a negative argument reseeds, zero repeats the last
// number.
func (b *TinyBASIC) random(x float64) float64 {
	switch {
	case x < 0:
		b.rng.Seed(int64(x))
		b.lastRnd = b.rng.Float64()
	case x > 0:
		b.lastRnd = b.rng.Float64()
	}
	return b.lastRnd
}

// parseLeadingNumber returns the value of the longest numeric prefix of s,
// or 0. Blanks are ignored.
func parseLeadingNumber(s string) float64 {
	s = strings.ReplaceAll(s, " ", "")
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			if strings.ContainsAny(s[:end], "xXpP_iInN") {
				continue
			}
			return f
		}
	}
	return 0
}

// callUserFunction evaluates FN name(arg). The parameter variable is replaced
// for the duration of the call and restored afterwards.
func (b *TinyBASIC) callUserFunction() (Accumulator, error) {
	name, err := b.parseName()
	if err != nil {
		return Accumulator{}, err
	}
	name = CanonicalName(name)
	args, err := b.functionArgs(1, 1)
	if err != nil {
		return Accumulator{}, err
	}
	fn, ok := b.functions[name]
	if !ok {
		return Accumulator{}, NewBASICError(UndefinedFunction)
	}

	saved, hadParam := b.vars.Lookup(fn.param)
	param := newScalar(CanonicalName(fn.param))
	ref, _ := param.Reference(nil)
	if err := ref.Set(args[0]); err != nil {
		return Accumulator{}, err
	}
	b.vars.Put(param)

	callerLine, callerPos := b.line, b.line.Position()
	b.line = fn.line
	b.line.Seek(fn.pos)
	result, err := b.expr()
	b.line = callerLine
	b.line.Seek(callerPos)

	if hadParam {
		b.vars.Put(saved)
	} else {
		b.vars.Remove(fn.param)
	}
	if err != nil {
		return Accumulator{}, err
	}
	return result.ConvertTo(typeForName(name))
}
