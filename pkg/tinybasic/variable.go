package tinybasic

import "strings"

// MaxArrayElements caps the slot count of a single array.
const MaxArrayElements = 65536

// DefaultArrayBound is the upper index of every subscript of an array that
// is used before it was dimensioned.
const DefaultArrayBound = 10

// Variable holds a scalar or a dense array of a single type. The type comes
// from the name's sigil: % integer, $ string, float otherwise.
type Variable struct {
	Name   string
	typ    ValueType
	sizes  []int // slots per dimension; nil for scalars
	values []Accumulator
}

// typeForName picks the value type from a variable name's trailing sigil.
func typeForName(name string) ValueType {
	switch {
	case strings.HasSuffix(name, "$"):
		return TypeString
	case strings.HasSuffix(name, "%"):
		return TypeInt
	}
	return TypeFloat
}

// CanonicalName truncates a variable name to two significant characters and
// keeps its sigil, so ABCD and ABEF name the same variable.
func CanonicalName(name string) string {
	name = strings.ToUpper(name)
	sigil := ""
	if n := len(name); n > 0 && (name[n-1] == '$' || name[n-1] == '%') {
		sigil = name[n-1:]
		name = name[:n-1]
	}
	if len(name) > 2 {
		name = name[:2]
	}
	return name + sigil
}

func newScalar(name string) *Variable {
	typ := typeForName(name)
	return &Variable{Name: name, typ: typ, values: []Accumulator{ZeroValue(typ)}}
}

// newArray creates an array whose dimension i accepts indices 0..bounds[i].
func newArray(name string, bounds []int) (*Variable, error) {
	typ := typeForName(name)
	sizes := make([]int, len(bounds))
	total := 1
	for i, b := range bounds {
		if b < 0 {
			return nil, NewBASICError(IllegalQuantity)
		}
		sizes[i] = b + 1
		total *= sizes[i]
		if total > MaxArrayElements {
			return nil, NewBASICError(OutOfMemory)
		}
	}
	values := make([]Accumulator, total)
	zero := ZeroValue(typ)
	for i := range values {
		values[i] = zero
	}
	return &Variable{Name: name, typ: typ, sizes: sizes, values: values}, nil
}

// Type returns the element type.
func (v *Variable) Type() ValueType {
	return v.typ
}

// IsArray reports whether v has dimensions.
func (v *Variable) IsArray() bool {
	return v.sizes != nil
}

// Dimensions returns the number of subscripts.
func (v *Variable) Dimensions() int {
	return len(v.sizes)
}

// Reference resolves an index tuple to an element. Scalars take no indices.
func (v *Variable) Reference(indices []int) (*VariableReference, error) {
	if len(indices) != len(v.sizes) {
		return nil, NewBASICError(BadSubscript)
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= v.sizes[i] {
			return nil, NewBASICError(BadSubscript)
		}
		offset = offset*v.sizes[i] + idx
	}
	return &VariableReference{Variable: v, Indices: indices, offset: offset}, nil
}

// VariableReference is an assignable location: a scalar or one array element.
type VariableReference struct {
	Variable *Variable
	Indices  []int
	offset   int
}

// Get returns the current value.
func (r *VariableReference) Get() Accumulator {
	return r.Variable.values[r.offset]
}

// Set stores a, converting between numeric types. Strings and numbers do not
// mix.
func (r *VariableReference) Set(a Accumulator) error {
	converted, err := a.ConvertTo(r.Variable.typ)
	if err != nil {
		return err
	}
	r.Variable.values[r.offset] = converted
	return nil
}

// Type returns the type of the referenced slot.
func (r *VariableReference) Type() ValueType {
	return r.Variable.typ
}
