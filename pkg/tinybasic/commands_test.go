package tinybasic

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestPrint(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PRINT 1;2", " 1  2 \n"},
		{`PRINT "A","B"`, "A" + strings.Repeat(" ", 15) + "B\n"},
		{`PRINT "A",,"B"`, "A" + strings.Repeat(" ", 31) + "B\n"},
		{`PRINT TAB(5);"X"`, "    X\n"},
		{`PRINT "ABCDEF";TAB(3);"X"`, "ABCDEFX\n"},
		{`PRINT SPC(3);"X"`, "   X\n"},
		{"PRINT 1/3", " .333333333 \n"},
		{"PRINT -1.5", " -1.5 \n"},
		{"PRINT 1E9", " 1E+09 \n"},
		{`PRINT "A";`, "A"},
		{`PRINT "A",`, "A" + strings.Repeat(" ", 15)},
		{"PRINT", "\n"},
		{`PRINT "A":PRINT "B"`, "A\nB\n"},
		{`A$="HI":PRINT A$;"!"`, "HI!\n"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			b, tty, _ := NewTestBasic()
			if err := b.Enter(tt.input); err != nil {
				t.Fatalf("Enter(%q): %v", tt.input, err)
			}
			if got := tty.out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  ErrorKind
	}{
		{"PRINT TAB(300)", IllegalQuantity},
		{"PRINT SPC(-1)", IllegalQuantity},
		{"PRINT TAB(3", SyntaxError},
		{"PRINT 1+", SyntaxError},
	}
	for _, tt := range tests {
		b, _, _ := NewTestBasic()
		if err := b.Enter(tt.input); !IsKind(err, tt.kind) {
			t.Errorf("Enter(%q) = %v", tt.input, err)
		}
	}
}

func TestHome(t *testing.T) {
	b, tty, _ := NewTestBasic()
	if err := b.Enter(`PRINT "AB";:HOME:PRINT "A","B"`); err != nil {
		t.Fatal(err)
	}
	want := "AB" + ansiClearScreen + "A" + strings.Repeat(" ", 15) + "B\n"
	if got := tty.out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestInput(t *testing.T) {
	tests := []struct {
		name    string
		program []string
		input   []string
		output  string
		prompts []string
	}{
		{
			name:    "prompt and string",
			program: []string{`10 INPUT "NAME";N$`, `20 PRINT "HI ";N$`},
			input:   []string{"BOB"},
			output:  "HI BOB\n",
			prompts: []string{"NAME"},
		},
		{
			name:    "reenter on bad number",
			program: []string{"10 INPUT A", "20 PRINT A"},
			input:   []string{"X", "5"},
			output:  "?REENTER\n 5 \n",
			prompts: []string{"?", "?"},
		},
		{
			name:    "missing items are asked for",
			program: []string{"10 INPUT A,B", "20 PRINT A;B"},
			input:   []string{"1", "2"},
			output:  " 1  2 \n",
			prompts: []string{"?", "??"},
		},
		{
			name:    "extra items are ignored",
			program: []string{"10 INPUT A", "20 PRINT A"},
			input:   []string{"1,2"},
			output:  "?EXTRA IGNORED\n 1 \n",
			prompts: []string{"?"},
		},
		{
			name:    "quoted string keeps commas",
			program: []string{"10 INPUT A$,B", "20 PRINT A$;B"},
			input:   []string{`"X,Y", 3`},
			output:  "X,Y 3 \n",
			prompts: []string{"?"},
		},
		{
			name:    "empty entry is zero",
			program: []string{"10 INPUT A", "20 PRINT A"},
			input:   []string{""},
			output:  " 0 \n",
			prompts: []string{"?"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, tty, _ := NewTestBasic(tt.input...)
			enterProgram(t, b, tt.program...)
			if err := b.RunProgram(); err != nil {
				t.Fatalf("RUN: %v", err)
			}
			if got := tty.out.String(); got != tt.output {
				t.Errorf("output = %q, want %q", got, tt.output)
			}
			if strings.Join(tty.prompts, "|") != strings.Join(tt.prompts, "|") {
				t.Errorf("prompts = %q, want %q", tty.prompts, tt.prompts)
			}
		})
	}
}

func TestInputEndOfFile(t *testing.T) {
	b, _, _ := NewTestBasic()
	enterProgram(t, b, "10 INPUT A")
	if err := b.RunProgram(); !errors.Is(err, io.EOF) {
		t.Errorf("RUN = %v, want EOF", err)
	}
}

func TestReadData(t *testing.T) {
	tests := []struct {
		name    string
		program []string
		output  string
		errText string
	}{
		{
			name: "read restore",
			program: []string{
				`10 DATA 1,2,"THREE"`,
				"20 READ A,B,C$",
				"30 PRINT A;B;C$",
				"40 RESTORE",
				"50 READ A",
				"60 PRINT A",
			},
			output: " 1  2 THREE\n 1 \n",
		},
		{
			name:    "data after read",
			program: []string{"10 READ A$", "20 PRINT A$", `30 DATA "HELLO, WORLD"`},
			output:  "HELLO, WORLD\n",
		},
		{
			name:    "data spans lines",
			program: []string{"10 DATA 1", "20 DATA 2, 3", "30 READ A,B,C", "40 PRINT A+B+C"},
			output:  " 6 \n",
		},
		{
			name:    "read does not disturb the line",
			program: []string{"10 READ A:PRINT A", "20 DATA 7"},
			output:  " 7 \n",
		},
		{
			name:    "data and read share a line",
			program: []string{"10 DATA 4,5:READ A,B:PRINT A+B"},
			output:  " 9 \n",
		},
		{
			name:    "unquoted strings are trimmed",
			program: []string{"10 DATA  ABC , D E ", "20 READ A$,B$", `30 PRINT "[";A$;"][";B$;"]"`},
			output:  "[ABC][D E]\n",
		},
		{
			name:    "array targets",
			program: []string{"10 DIM A(2)", "20 DATA 5,6", "30 READ A(1),A(2)", "40 PRINT A(1)*A(2)"},
			output:  " 30 \n",
		},
		{
			name:    "out of data",
			program: []string{"10 READ A"},
			errText: "?OUT OF DATA ERROR IN 10",
		},
		{
			name:    "bad number in data",
			program: []string{"10 DATA X", "20 READ A"},
			errText: "?SYNTAX ERROR IN 20",
		},
		{
			name:    "number into string",
			program: []string{"10 DATA 1", "20 READ A$", "30 PRINT A$"},
			output:  "1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err, _ := runProgram(t, tt.program...)
			if out != tt.output {
				t.Errorf("output = %q, want %q", out, tt.output)
			}
			if tt.errText == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.errText {
				t.Errorf("error = %v, want %q", err, tt.errText)
			}
		})
	}
}

func TestSplitDataItems(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"1,2,3", []string{"1", "2", "3"}},
		{`"A,B", C`, []string{"A,B", "C"}},
		{` " X " ,Y`, []string{" X ", "Y"}},
		{"", []string{""}},
		{"1,,2", []string{"1", "", "2"}},
	}
	for _, tt := range tests {
		got := SplitDataItems(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("SplitDataItems(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestListDelNew(t *testing.T) {
	b, tty, _ := NewTestBasic()
	enterProgram(t, b, `10 print "HI"`, "20 END", "30 REM X")

	steps := []struct {
		input string
		want  string
	}{
		{"LIST", "10  PRINT \"HI\"\n20  END \n30  REM X\n"},
		{"LIST 20", "20  END \n"},
		{"LIST 20-", "20  END \n30  REM X\n"},
		{"LIST ,20", "10  PRINT \"HI\"\n20  END \n"},
		{"DEL 10,20", ""},
		{"LIST", "30  REM X\n"},
		{"30", ""},
		{"LIST", ""},
	}
	for _, s := range steps {
		tty.out.Reset()
		if err := b.Enter(s.input); err != nil {
			t.Fatalf("Enter(%q): %v", s.input, err)
		}
		if got := tty.out.String(); got != s.want {
			t.Errorf("%s: output = %q, want %q", s.input, got, s.want)
		}
	}

	enterProgram(t, b, "10 A=1")
	if err := b.Enter("NEW"); err != nil {
		t.Fatal(err)
	}
	if b.Program().Len() != 0 {
		t.Errorf("NEW left %d lines", b.Program().Len())
	}
	if err := b.Enter("DEL 20,10"); !IsKind(err, SyntaxError) {
		t.Errorf("DEL with reversed range = %v", err)
	}
}

func TestSaveLoadCatalog(t *testing.T) {
	b, tty, fs := NewTestBasic()
	enterProgram(t, b, `10 PRINT "SAVED"`, "20 END")

	if err := b.Enter(`SAVE "PROG"`); err != nil {
		t.Fatalf("SAVE: %v", err)
	}
	content, ok := fs.files["PROG.bas"]
	if !ok {
		t.Fatalf("file not written, have %v", fs.files)
	}
	if content != "10  PRINT \"SAVED\"\n20  END \n" {
		t.Errorf("saved content = %q", content)
	}

	if err := b.Enter("NEW"); err != nil {
		t.Fatal(err)
	}
	if err := b.Enter(`LOAD "PROG"`); err != nil {
		t.Fatalf("LOAD: %v", err)
	}
	if b.ListProgram() != content {
		t.Errorf("loaded program = %q", b.ListProgram())
	}

	tty.out.Reset()
	if err := b.Enter("CATALOG"); err != nil {
		t.Fatalf("CATALOG: %v", err)
	}
	if got := tty.out.String(); got != "PROG.bas\n" {
		t.Errorf("CATALOG output = %q", got)
	}

	tty.out.Reset()
	if err := b.Enter(`RUN "PROG"`); !IsKind(err, End) {
		t.Fatalf("RUN file = %v", err)
	}
	if got := tty.out.String(); got != "SAVED\n" {
		t.Errorf("RUN output = %q", got)
	}

	if err := b.Enter(`LOAD "NOPE"`); !IsKind(err, FileNotFound) {
		t.Errorf("LOAD of missing file = %v", err)
	}
	if err := b.Enter("SAVE"); !IsKind(err, SyntaxError) {
		t.Errorf("SAVE without name = %v", err)
	}
}

func TestLoadRejectsImmediateLines(t *testing.T) {
	b, _, _ := NewTestBasic()
	enterProgram(t, b, "10 END")
	err := b.LoadProgram("10 PRINT 1\nPRINT 2\n")
	if !IsKind(err, SyntaxError) {
		t.Fatalf("LoadProgram = %v", err)
	}
	if b.ListProgram() != "10  END \n" {
		t.Errorf("failed load replaced the program: %q", b.ListProgram())
	}
}

func TestNoFileSystem(t *testing.T) {
	tty := &scriptTeletype{}
	b := NewTinyBASIC(tty, nil, testOptions())
	if err := b.Enter(`SAVE "X"`); !IsKind(err, UnableToEdit) {
		t.Errorf("SAVE = %v", err)
	}
	if err := b.Enter(`LOAD "X"`); !IsKind(err, FileNotFound) {
		t.Errorf("LOAD = %v", err)
	}
	if err := b.Enter("CATALOG"); !IsKind(err, FileNotFound) {
		t.Errorf("CATALOG = %v", err)
	}
}

func TestPositionedTeletype(t *testing.T) {
	tty := &scriptTeletype{}
	p := NewPositionedTeletype(tty, 8)
	p.Write("AB")
	if p.Column() != 2 {
		t.Errorf("Column = %d", p.Column())
	}
	p.NextZone()
	if p.Column() != 8 {
		t.Errorf("Column after zone = %d", p.Column())
	}
	p.Tab(3)
	if p.Column() != 8 {
		t.Errorf("Tab backwards moved to %d", p.Column())
	}
	p.Write("X\nYZ")
	if p.Column() != 2 {
		t.Errorf("Column after newline = %d", p.Column())
	}
	if got := tty.out.String(); got != "AB      X\nYZ" {
		t.Errorf("output = %q", got)
	}
}

func TestCancelToken(t *testing.T) {
	var c CancelToken
	if c.Consume() {
		t.Fatal("fresh token consumed")
	}
	c.Cancel()
	if !c.Raised() {
		t.Fatal("Raised() = false after Cancel")
	}
	if !c.Consume() {
		t.Fatal("Consume() = false after Cancel")
	}
	if c.Raised() || c.Consume() {
		t.Fatal("token still raised after Consume")
	}
}
