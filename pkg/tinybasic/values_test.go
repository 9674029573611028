package tinybasic

import (
	"strings"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{4, "4"},
		{-3, "-3"},
		{0.5, ".5"},
		{-0.25, "-.25"},
		{12.5, "12.5"},
		{1.0 / 3, ".333333333"},
		{123456789, "123456789"},
		{1e9, "1E+09"},
		{0.00001, "1E-05"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAccumulatorConversions(t *testing.T) {
	tests := []struct {
		name    string
		in      Accumulator
		to      ValueType
		want    string
		wantErr ErrorKind
		fails   bool
	}{
		{"float to int truncates", FloatValue(2.9), TypeInt, "2", 0, false},
		{"negative truncates toward zero", FloatValue(-2.9), TypeInt, "-2", 0, false},
		{"int to float", IntValue(-7), TypeFloat, "-7", 0, false},
		{"out of range", FloatValue(40000), TypeInt, "", IllegalQuantity, true},
		{"string to number", mustStringValue("X"), TypeFloat, "", TypeMismatch, true},
		{"number to string", FloatValue(1), TypeString, "", TypeMismatch, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.ConvertTo(tt.to)
			if tt.fails {
				if !IsKind(err, tt.wantErr) {
					t.Fatalf("ConvertTo error = %v, want kind %d", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Type() != tt.to || got.Text() != tt.want {
				t.Errorf("ConvertTo = %v (%v), want %q", got.Text(), got.Type(), tt.want)
			}
		})
	}
}

func mustStringValue(s string) Accumulator {
	a, err := StringValue(s)
	if err != nil {
		panic(err)
	}
	return a
}

func TestStringLimits(t *testing.T) {
	if _, err := StringValue(strings.Repeat("X", MaxStringLength)); err != nil {
		t.Errorf("string of max length rejected: %v", err)
	}
	if _, err := StringValue(strings.Repeat("X", MaxStringLength+1)); !IsKind(err, StringTooLong) {
		t.Errorf("overlong string error = %v", err)
	}
	// The limit counts characters, not bytes.
	if _, err := StringValue(strings.Repeat("é", MaxStringLength)); err != nil {
		t.Errorf("multibyte string of max length rejected: %v", err)
	}
	if _, err := StringValue(strings.Repeat("é", MaxStringLength+1)); !IsKind(err, StringTooLong) {
		t.Errorf("overlong multibyte string error = %v", err)
	}
}

func TestAccumulatorString(t *testing.T) {
	if got := FloatValue(5).String(); got != " 5 " {
		t.Errorf("number String() = %q", got)
	}
	if got := mustStringValue("AB").String(); got != "AB" {
		t.Errorf("string String() = %q", got)
	}
	truth, err := FloatValue(0.1).Truthy()
	if err != nil || !truth {
		t.Errorf("Truthy(0.1) = %v, %v", truth, err)
	}
	if _, err := mustStringValue("").Truthy(); !IsKind(err, TypeMismatch) {
		t.Errorf("Truthy of string: %v", err)
	}
}

func TestCanonicalName(t *testing.T) {
	tests := map[string]string{
		"A":     "A",
		"ABCD":  "AB",
		"abef":  "AB",
		"NAME$": "NA$",
		"CNT%":  "CN%",
		"X1":    "X1",
	}
	for in, want := range tests {
		if got := CanonicalName(in); got != want {
			t.Errorf("CanonicalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVariableRepository(t *testing.T) {
	r := NewVariableRepository()

	a := r.GetOrCreateVariable("ABCD")
	if r.GetOrCreateVariable("ABXY") != a {
		t.Errorf("names sharing two characters are different variables")
	}
	if r.GetOrCreateVariable("AB$") == a {
		t.Errorf("sigil does not separate variables")
	}
	if a.Type() != TypeFloat || r.GetOrCreateVariable("I%").Type() != TypeInt {
		t.Errorf("types not derived from sigils")
	}

	arr, err := r.GetOrCreateArray("AB", 1)
	if err != nil {
		t.Fatal(err)
	}
	if arr == a {
		t.Errorf("array and scalar share storage")
	}
	if _, err := arr.Reference([]int{DefaultArrayBound}); err != nil {
		t.Errorf("implicit bound %d rejected: %v", DefaultArrayBound, err)
	}
	if _, err := arr.Reference([]int{DefaultArrayBound + 1}); !IsKind(err, BadSubscript) {
		t.Errorf("index past implicit bound: %v", err)
	}
	if _, err := r.DimensionArray("AB", []int{5}); !IsKind(err, RedimensionedArray) {
		t.Errorf("DIM of implicit array: %v", err)
	}
}

func TestArrayStorage(t *testing.T) {
	r := NewVariableRepository()
	m, err := r.DimensionArray("M", []int{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if m.Dimensions() != 2 {
		t.Fatalf("Dimensions = %d", m.Dimensions())
	}

	ref, err := m.Reference([]int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := ref.Set(FloatValue(42)); err != nil {
		t.Fatal(err)
	}
	again, _ := m.Reference([]int{1, 2})
	if f, _ := again.Get().Float(); f != 42 {
		t.Errorf("M(1,2) = %v, want 42", f)
	}
	other, _ := m.Reference([]int{2, 1})
	if f, _ := other.Get().Float(); f != 0 {
		t.Errorf("M(2,1) = %v, want 0", f)
	}

	tests := []struct {
		indices []int
		kind    ErrorKind
	}{
		{[]int{3, 0}, BadSubscript},
		{[]int{0, -1}, BadSubscript},
		{[]int{1}, BadSubscript},
	}
	for _, tt := range tests {
		if _, err := m.Reference(tt.indices); !IsKind(err, tt.kind) {
			t.Errorf("Reference(%v) = %v", tt.indices, err)
		}
	}

	if _, err := r.DimensionArray("N", []int{-1}); !IsKind(err, IllegalQuantity) {
		t.Errorf("negative bound: %v", err)
	}
	if _, err := r.DimensionArray("BIG", []int{300, 300}); !IsKind(err, OutOfMemory) {
		t.Errorf("oversized array: %v", err)
	}

	s, _ := r.DimensionArray("S$", []int{1})
	sr, _ := s.Reference([]int{0})
	if err := sr.Set(FloatValue(1)); !IsKind(err, TypeMismatch) {
		t.Errorf("number into string array: %v", err)
	}
}

func TestControlStack(t *testing.T) {
	s := NewControlStack(4)
	push := func(e *StackEntry) {
		t.Helper()
		if err := s.Push(e); err != nil {
			t.Fatal(err)
		}
	}

	push(&StackEntry{})                                  // GOSUB
	push(&StackEntry{Variable: "I", Target: 3, Step: 1}) // FOR I
	push(&StackEntry{Variable: "J", Target: 3, Step: 1}) // FOR J
	if err := s.Push(&StackEntry{Variable: "K"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Push(&StackEntry{}); !IsKind(err, StackOverflow) {
		t.Errorf("overflow error = %v", err)
	}

	e, err := s.FindFor("I")
	if err != nil || e.Variable != "I" {
		t.Fatalf("FindFor(I) = %v, %v", e, err)
	}
	if s.Len() != 2 {
		t.Errorf("inner loops not discarded, Len = %d", s.Len())
	}
	if _, err := s.FindFor("Q"); !IsKind(err, NextWithoutFor) {
		t.Errorf("FindFor stopped at GOSUB frame with %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d after failed search", s.Len())
	}

	push(&StackEntry{Variable: "I"})
	g, err := s.PopGosub()
	if err != nil || !g.IsGosub() {
		t.Fatalf("PopGosub = %v, %v", g, err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after PopGosub", s.Len())
	}
	if _, err := s.PopGosub(); !IsKind(err, ReturnWithoutGosub) {
		t.Errorf("PopGosub on empty stack: %v", err)
	}
}

func TestStackEntryFinished(t *testing.T) {
	up := &StackEntry{Variable: "I", Target: 3, Step: 1}
	down := &StackEntry{Variable: "I", Target: 1, Step: -1}
	tests := []struct {
		e     *StackEntry
		value float64
		want  bool
	}{
		{up, 3, false},
		{up, 4, true},
		{down, 1, false},
		{down, 0, true},
	}
	for _, tt := range tests {
		if got := tt.e.Finished(tt.value); got != tt.want {
			t.Errorf("Finished(%v) step %v = %v", tt.value, tt.e.Step, got)
		}
	}
}

func TestBASICErrorText(t *testing.T) {
	tests := []struct {
		err  *BASICError
		want string
	}{
		{NewBASICError(SyntaxError), "?SYNTAX ERROR"},
		{NewBASICError(DivisionByZero).WithLine(30), "?DIVISION BY ZERO ERROR IN 30"},
		{NewBASICError(Stop).WithLine(20), "BREAK IN 20"},
		{NewBASICError(Break).WithLine(10), "BREAK IN 10"},
		{NewBASICError(End).WithLine(10), ""},
		{NewBASICError(TypeMismatch).WithLine(5).WithLine(9), "?TYPE MISMATCH ERROR IN 5"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	if code, ok := NewBASICError(DivisionByZero).Code(); !ok || code != 133 {
		t.Errorf("code of DIVISION BY ZERO = %d,%v", code, ok)
	}
	if NewBASICError(IllegalDirect).Trappable() {
		t.Errorf("ILLEGAL DIRECT must not be trappable")
	}
}
