package tinybasic

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxStringLength is the longest string a value may hold, in characters.
const MaxStringLength = 256

// ValueType is the primitive type held by an Accumulator.
type ValueType int

const (
	TypeFloat ValueType = iota
	TypeInt
	TypeString
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "integer"
	case TypeString:
		return "string"
	default:
		return "float"
	}
}

// Accumulator is a runtime value: a float64, an int16 or a string.
// The zero value is the float 0.
type Accumulator struct {
	typ ValueType
	f   float64
	i   int16
	s   string
}

// FloatValue wraps f.
func FloatValue(f float64) Accumulator {
	return Accumulator{typ: TypeFloat, f: f}
}

// IntValue wraps i.
func IntValue(i int16) Accumulator {
	return Accumulator{typ: TypeInt, i: i}
}

// StringValue wraps s. Strings longer than MaxStringLength characters fail.
func StringValue(s string) (Accumulator, error) {
	if utf8.RuneCountInString(s) > MaxStringLength {
		return Accumulator{}, NewBASICError(StringTooLong)
	}
	return Accumulator{typ: TypeString, s: s}, nil
}

// BoolValue maps a condition to 1 or 0.
func BoolValue(b bool) Accumulator {
	if b {
		return FloatValue(1)
	}
	return FloatValue(0)
}

// ZeroValue returns the default value of a type.
func ZeroValue(t ValueType) Accumulator {
	return Accumulator{typ: t}
}

// Type returns the held type.
func (a Accumulator) Type() ValueType {
	return a.typ
}

// IsString reports whether a holds a string.
func (a Accumulator) IsString() bool {
	return a.typ == TypeString
}

// Float returns a numeric value as float64.
func (a Accumulator) Float() (float64, error) {
	switch a.typ {
	case TypeFloat:
		return a.f, nil
	case TypeInt:
		return float64(a.i), nil
	}
	return 0, NewBASICError(TypeMismatch)
}

// Int returns a numeric value as int16, truncating toward zero.
func (a Accumulator) Int() (int16, error) {
	switch a.typ {
	case TypeInt:
		return a.i, nil
	case TypeFloat:
		return floatToInt16(a.f)
	}
	return 0, NewBASICError(TypeMismatch)
}

// Str returns a string value.
func (a Accumulator) Str() (string, error) {
	if a.typ != TypeString {
		return "", NewBASICError(TypeMismatch)
	}
	return a.s, nil
}

// Truthy reports whether a numeric value is non-zero.
func (a Accumulator) Truthy() (bool, error) {
	f, err := a.Float()
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

// ConvertTo converts a to type t. Numbers convert between each other, strings
// never convert.
func (a Accumulator) ConvertTo(t ValueType) (Accumulator, error) {
	if a.typ == t {
		return a, nil
	}
	switch t {
	case TypeFloat:
		f, err := a.Float()
		return FloatValue(f), err
	case TypeInt:
		i, err := a.Int()
		return IntValue(i), err
	}
	return Accumulator{}, NewBASICError(TypeMismatch)
}

func floatToInt16(f float64) (int16, error) {
	if math.IsNaN(f) {
		return 0, NewBASICError(IllegalQuantity)
	}
	t := math.Trunc(f)
	if t < math.MinInt16 || t > math.MaxInt16 {
		return 0, NewBASICError(IllegalQuantity)
	}
	return int16(t), nil
}

// Text renders the value without padding.
func (a Accumulator) Text() string {
	switch a.typ {
	case TypeString:
		return a.s
	case TypeInt:
		return strconv.Itoa(int(a.i))
	}
	return formatNumber(a.f)
}

// String renders numbers with one leading and one trailing blank.
func (a Accumulator) String() string {
	if a.typ == TypeString {
		return a.s
	}
	return " " + a.Text() + " "
}

// formatNumber prints up to nine significant digits, classic style: no
// leading zero before the decimal point and an upper case exponent.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	s := strconv.FormatFloat(f, 'G', 9, 64)
	if strings.Contains(s, "E") {
		mant, exp, _ := strings.Cut(s, "E")
		if strings.Contains(mant, ".") {
			mant = strings.TrimRight(strings.TrimRight(mant, "0"), ".")
		}
		s = mant + "E" + exp
	}
	switch {
	case strings.HasPrefix(s, "0."):
		s = s[1:]
	case strings.HasPrefix(s, "-0."):
		s = "-" + s[2:]
	}
	return s
}
