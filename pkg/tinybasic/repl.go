package tinybasic

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Enter processes one line of user input. Numbered lines are stored (a
// number without statements deletes the line), other lines run at once.
func (b *TinyBASIC) Enter(text string) error {
	line, err := b.tokenizer.Tokenize(text)
	if err != nil {
		return err
	}
	if number, numbered := line.Number(); numbered {
		b.program.SetProgramLine(line)
		// Editing the program invalidates every pointer into it.
		b.cont = continuation{}
		b.data.reset()
		tinyBasicDebugLog("stored line %d (%d tokens)", number, line.Len())
		return nil
	}
	if line.Len() == 0 {
		return nil
	}
	return b.Execute(line)
}

// RunProgram executes the stored program as if RUN had been typed.
func (b *TinyBASIC) RunProgram() error {
	return b.Execute(NewProgramLine([]*Token{TokRun}))
}

// LoadProgram replaces the stored program with text.
func (b *TinyBASIC) LoadProgram(text string) error {
	if err := b.loadProgram(b.tokenizer, text); err != nil {
		return err
	}
	b.clearState()
	return nil
}

// ListProgram returns the listing of the stored program.
func (b *TinyBASIC) ListProgram() string {
	return b.renderProgram()
}

// Report writes an error or break message to the teletype on its own line.
func (b *TinyBASIC) Report(err error) error {
	msg := err.Error()
	if msg == "" {
		return nil
	}
	if b.out.Column() > 0 {
		if werr := b.out.NewLine(); werr != nil {
			return werr
		}
	}
	return b.out.Write(msg + "\n")
}

// Run is the interactive loop: prompt, read, enter. It returns nil after
// SYSTEM or end of input and ctx.Err() when ctx is cancelled.
func (b *TinyBASIC) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := b.out.ReadLine(b.options.Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		// A break typed at the prompt has nothing to interrupt.
		b.out.Cancellation().Consume()
		if strings.TrimSpace(text) == "" {
			continue
		}

		err = b.Enter(text)
		switch {
		case err == nil:
		case errors.Is(err, ErrExit):
			return nil
		case errors.Is(err, io.EOF):
			return nil
		default:
			if _, ok := AsBASICError(err); !ok {
				return err
			}
			if rerr := b.Report(err); rerr != nil {
				return rerr
			}
		}
	}
}
