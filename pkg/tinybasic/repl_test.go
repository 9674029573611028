package tinybasic

import (
	"context"
	"errors"
	"testing"
)

func TestRunLoop(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		output  string
		prompts int
	}{
		{
			name:    "program and error report",
			input:   []string{`10 PRINT "HI"`, "RUN", "PRINT 1/0"},
			output:  "HI\n?DIVISION BY ZERO ERROR\n",
			prompts: 4,
		},
		{
			name:    "system ends the session",
			input:   []string{"SYSTEM", "PRINT 1"},
			output:  "",
			prompts: 1,
		},
		{
			name:    "blank lines are skipped",
			input:   []string{"", "   ", "PRINT 2"},
			output:  " 2 \n",
			prompts: 4,
		},
		{
			name:    "error report starts on a fresh line",
			input:   []string{`10 PRINT "X";`, "20 STOP", "RUN"},
			output:  "X\nBREAK IN 20\n",
			prompts: 4,
		},
		{
			name:    "end prints nothing",
			input:   []string{"10 END", "RUN"},
			output:  "",
			prompts: 3,
		},
		{
			name:    "program error carries its line",
			input:   []string{"10 GOTO 50", "RUN"},
			output:  "?UNDEF'D STATEMENT ERROR IN 10\n",
			prompts: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, tty, _ := NewTestBasic(tt.input...)
			if err := b.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := tty.out.String(); got != tt.output {
				t.Errorf("output = %q, want %q", got, tt.output)
			}
			if len(tty.prompts) != tt.prompts {
				t.Errorf("prompts = %d (%q), want %d", len(tty.prompts), tty.prompts, tt.prompts)
			}
			for _, p := range tty.prompts {
				if p != "]" {
					t.Errorf("prompt = %q", p)
				}
			}
		})
	}
}

func TestRunLoopCancelledContext(t *testing.T) {
	b, _, _ := NewTestBasic("PRINT 1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestLoadOptionsDefaults(t *testing.T) {
	// Without an initialized configuration the defaults apply.
	o := LoadOptions()
	d := DefaultOptions()
	if o.MaxStackDepth != d.MaxStackDepth || o.Prompt != d.Prompt || o.ZoneWidth != d.ZoneWidth {
		t.Errorf("LoadOptions() = %+v, want %+v", o, d)
	}
}
