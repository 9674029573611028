package tinybasic

import "testing"

func TestProgramLineCursor(t *testing.T) {
	tokens := []*Token{TokPrint, NewTextToken("A"), TokColon, TokEnd}
	line := NewNumberedLine(10, tokens)

	if got := line.NextToken(); got != TokPrint {
		t.Fatalf("first token = %v", got)
	}
	a := line.NextToken()
	if a.Class != ClassVariable || a.Text != "A" {
		t.Fatalf("second token = %+v", a)
	}
	line.PushToken(a)
	if line.Position() != 1 {
		t.Errorf("Position after push = %d, want 1", line.Position())
	}
	if line.PeekToken() != a {
		t.Errorf("PeekToken = %v, want A", line.PeekToken())
	}
	if line.Position() != 1 {
		t.Errorf("PeekToken moved the cursor")
	}

	line.SkipToEnd()
	if !line.AtEnd() {
		t.Errorf("AtEnd() = false after SkipToEnd")
	}
	for i := 0; i < 3; i++ {
		if !line.NextToken().IsEndOfLine() {
			t.Fatalf("expected EndOfLine past the end")
		}
	}
	line.PushToken(EndOfLine)
	if line.Position() != len(tokens) {
		t.Errorf("pushing EndOfLine moved the cursor to %d", line.Position())
	}

	line.Seek(99)
	if line.Position() != len(tokens) {
		t.Errorf("Seek clamp high = %d", line.Position())
	}
	line.Seek(-4)
	if line.Position() != 0 {
		t.Errorf("Seek clamp low = %d", line.Position())
	}
}

func TestProgramLinePushMismatchPanics(t *testing.T) {
	line := NewProgramLine([]*Token{TokPrint, TokEnd})
	line.NextToken()
	end := line.NextToken()
	line.PushToken(end)

	defer func() {
		if recover() == nil {
			t.Errorf("PushToken of a token that was not read last did not panic")
		}
	}()
	line.PushToken(TokPrint)
}

func TestProgramLineClone(t *testing.T) {
	line := NewNumberedLine(20, []*Token{TokPrint, NewTextToken("1")})
	line.NextToken()
	c := line.Clone()
	if c.Position() != 0 {
		t.Errorf("clone cursor = %d, want 0", c.Position())
	}
	if line.Position() != 1 {
		t.Errorf("original cursor changed to %d", line.Position())
	}
	if n, ok := c.Number(); !ok || n != 20 {
		t.Errorf("clone number = %d,%v", n, ok)
	}
}

func TestProgramLineString(t *testing.T) {
	tests := []struct {
		line *ProgramLine
		want string
	}{
		{NewNumberedLine(10, []*Token{TokPrint, NewStringToken("HI")}), `10  PRINT "HI"`},
		{NewNumberedLine(20, []*Token{TokEnd}), "20  END "},
		{NewProgramLine([]*Token{NewTextToken("A"), TokEqual, NewTextToken("1")}), "A=1"},
		{NewNumberedLine(30, []*Token{TokRem, NewRemarkToken("note")}), "30  REM note"},
	}
	for _, tt := range tests {
		if got := tt.line.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
