package tinybasic

import (
	"errors"
)

// CommandKind selects how the executor drives a command.
type CommandKind int

const (
	// FireAndForget commands run once.
	FireAndForget CommandKind = iota
	// Interruptable commands run a setup and then steps until done; the break
	// token is checked between steps.
	Interruptable
	// TokenizerAware commands need the tokenizer to read program text.
	TokenizerAware
)

// StepFunc performs one step of an interruptable command.
type StepFunc func() (done bool, err error)

// Command is one entry of the statement table. Only the function matching
// Kind is set.
type Command struct {
	Kind          CommandKind
	Run           func(b *TinyBASIC) error
	Setup         func(b *TinyBASIC) (StepFunc, error)
	RunTokenizing func(b *TinyBASIC, tz *Tokenizer) error
}

func fireAndForget(fn func(b *TinyBASIC) error) Command {
	return Command{Kind: FireAndForget, Run: fn}
}

func interruptable(fn func(b *TinyBASIC) (StepFunc, error)) Command {
	return Command{Kind: Interruptable, Setup: fn}
}

func tokenizerAware(fn func(b *TinyBASIC, tz *Tokenizer) error) Command {
	return Command{Kind: TokenizerAware, RunTokenizing: fn}
}

// Execute runs line. An immediate line returns once its statements are done
// or control leaves it for good; a numbered line runs on into the program.
// The result is nil, ErrExit or a *BASICError (END, STOP and BREAK included).
func (b *TinyBASIC) Execute(line *ProgramLine) error {
	b.line = line
	b.stmtLine, b.stmtPos = line, line.Position()
	return b.finish(b.run())
}

func (b *TinyBASIC) run() error {
	for {
		t := b.line.NextToken()
		if t.IsEndOfLine() {
			number, numbered := b.line.Number()
			if !numbered {
				return nil
			}
			next, ok := b.program.GetNextLine(number)
			if !ok {
				// Falling off the end leaves nothing to continue.
				b.cont = continuation{}
				tinyBasicDebugLog("program ended after line %d", number)
				return nil
			}
			b.line = next
			continue
		}
		if t.Is(KindColon) {
			continue
		}
		b.line.PushToken(t)

		if err := b.statement(); err != nil {
			if !b.trap(err) {
				return err
			}
			// A handler that fails again never completes a statement.
			if b.out.Cancellation().Consume() {
				return NewBASICError(Break)
			}
		}
	}
}

// statement executes exactly one statement and checks what follows it.
func (b *TinyBASIC) statement() error {
	b.stmtLine, b.stmtPos = b.line, b.line.Position()
	if !b.line.IsImmediate() {
		b.cont = continuation{line: b.line, pos: b.line.Position(), valid: true}
	}

	t := b.line.NextToken()
	if t.Is(KindSystem) {
		return ErrExit
	}
	if t.Class == ClassVariable {
		b.line.PushToken(t)
		t = TokLet
	}
	cmd, ok := b.commands[t.Kind]
	if !ok || t.Kind == KindNone {
		return NewBASICError(SyntaxError)
	}

	b.transferred = false
	if err := b.dispatch(cmd); err != nil {
		return err
	}
	if b.out.Cancellation().Consume() {
		return NewBASICError(Break)
	}
	if b.transferred {
		return nil
	}

	next := b.line.NextToken()
	switch {
	case next.IsEndOfLine(), next.Is(KindColon):
		return nil
	case next.Is(KindElse):
		b.line.PushToken(next)
		return nil
	}
	return NewBASICError(SyntaxError)
}

func (b *TinyBASIC) dispatch(cmd Command) error {
	switch cmd.Kind {
	case Interruptable:
		step, err := cmd.Setup(b)
		if err != nil {
			return err
		}
		for {
			done, err := step()
			if err != nil || done {
				return err
			}
			if b.out.Cancellation().Consume() {
				return NewBASICError(Break)
			}
		}
	case TokenizerAware:
		return cmd.RunTokenizing(b, b.tokenizer)
	default:
		return cmd.Run(b)
	}
}

// trap hands a program error to the ONERR handler. It reports whether the
// error was consumed.
func (b *TinyBASIC) trap(err error) bool {
	be, ok := AsBASICError(err)
	if !ok || !be.Trappable() || !b.onErrSet || b.stmtLine == nil || b.stmtLine.IsImmediate() {
		return false
	}
	handler, lerr := b.program.GetLine(b.onErrLine)
	if lerr != nil {
		return false
	}
	code, _ := be.Code()
	number, _ := b.stmtLine.Number()
	b.lastError = errorState{
		valid:      true,
		resumable:  true,
		Line:       number,
		Number:     code,
		StackCount: b.stack.Len(),
		line:       b.stmtLine,
		pos:        b.stmtPos,
	}
	tinyBasicDebugLog("error %d in line %d trapped, handler at %d", code, number, b.onErrLine)
	b.line = handler
	return true
}

// finish records the continuation point and attaches line numbers.
func (b *TinyBASIC) finish(err error) error {
	if err == nil || errors.Is(err, ErrExit) {
		return err
	}
	be, ok := AsBASICError(err)
	if !ok {
		b.cont = continuation{}
		return err
	}
	if be.IsControl() {
		if number, numbered := b.line.Number(); numbered {
			b.cont = continuation{line: b.line, pos: b.line.Position(), valid: true}
			if be.Kind != End {
				be.WithLine(number)
			}
		}
		if be.Kind == Break {
			tinyBasicDebugLog("break: %s", be.Error())
		}
		return be
	}
	b.cont = continuation{}
	if b.stmtLine != nil {
		if number, numbered := b.stmtLine.Number(); numbered {
			be.WithLine(number)
		}
	}
	return be
}

// jumpTo continues execution at the start of the given line.
func (b *TinyBASIC) jumpTo(number uint16) error {
	line, err := b.program.GetLine(number)
	if err != nil {
		return err
	}
	b.line = line
	b.transferred = true
	return nil
}

// resumeAt continues execution at pos of line.
func (b *TinyBASIC) resumeAt(line *ProgramLine, pos int) {
	line.Seek(pos)
	b.line = line
	b.transferred = true
}

// expect consumes the next token, which must be of the given kind.
func (b *TinyBASIC) expect(kind TokenKind) error {
	t := b.line.NextToken()
	if !t.Is(kind) {
		b.line.PushToken(t)
		return NewBASICError(SyntaxError)
	}
	return nil
}

// accept consumes the next token if it is of the given kind.
func (b *TinyBASIC) accept(kind TokenKind) bool {
	t := b.line.NextToken()
	if t.Is(kind) {
		return true
	}
	b.line.PushToken(t)
	return false
}

// atStatementEnd reports whether the next token ends the statement.
func (b *TinyBASIC) atStatementEnd() bool {
	t := b.line.PeekToken()
	return t.IsEndOfLine() || t.Is(KindColon) || t.Is(KindElse)
}
