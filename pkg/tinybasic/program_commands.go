package tinybasic

import (
	"github.com/antibyte/retrobasic/pkg/logger"
)

// cmdRun starts the program: RUN [line | "file"]. Variables, stacks and the
// DATA pointer are reset first.
func cmdRun(b *TinyBASIC, tz *Tokenizer) error {
	var start uint16
	hasStart := false
	t := b.line.NextToken()
	switch {
	case t.Class == ClassString:
		if err := b.loadFile(tz, t.Text); err != nil {
			return err
		}
	case t.Class == ClassNumber:
		b.line.PushToken(t)
		n, ok := b.ParseLineNumber()
		if !ok {
			return NewBASICError(SyntaxError)
		}
		start, hasStart = n, true
	default:
		b.line.PushToken(t)
	}

	b.clearState()
	tinyBasicDebugLog("RUN with %d lines", b.program.Len())

	if hasStart {
		return b.jumpTo(start)
	}
	first, ok := b.program.GetFirstLine()
	if !ok {
		b.halt()
		return nil
	}
	b.line = first
	b.transferred = true
	return nil
}

// listRange parses the optional range of LIST and DEL: from[,to] or from-to.
func (b *TinyBASIC) listRange() (from, to uint16, err error) {
	from, to = 0, MaxLineNumber
	if b.atStatementEnd() {
		return from, to, nil
	}
	if n, ok := b.ParseLineNumber(); ok {
		from, to = n, n
	} else if !b.line.PeekToken().Is(KindComma) && !b.line.PeekToken().Is(KindMinus) {
		return 0, 0, NewBASICError(SyntaxError)
	}
	if b.accept(KindComma) || b.accept(KindMinus) {
		to = MaxLineNumber
		if n, ok := b.ParseLineNumber(); ok {
			to = n
		}
	}
	return from, to, nil
}

// cmdList prints the program one line per step so a break can stop it.
func cmdList(b *TinyBASIC) (StepFunc, error) {
	from, to, err := b.listRange()
	if err != nil {
		return nil, err
	}
	var lines []*ProgramLine
	b.program.Ascend(from, to, func(l *ProgramLine) bool {
		lines = append(lines, l)
		return true
	})
	return func() (bool, error) {
		if len(lines) == 0 {
			return true, nil
		}
		if err := b.out.Write(lines[0].String() + "\n"); err != nil {
			return true, err
		}
		lines = lines[1:]
		return len(lines) == 0, nil
	}, nil
}

// cmdNew deletes the program and every variable.
func cmdNew(b *TinyBASIC) error {
	b.program.Clear()
	b.clearState()
	if !b.line.IsImmediate() {
		b.halt()
	}
	return nil
}

// cmdDel deletes a range of lines: DEL from,to.
func cmdDel(b *TinyBASIC) error {
	from, ok := b.ParseLineNumber()
	if !ok {
		return NewBASICError(SyntaxError)
	}
	if err := b.expect(KindComma); err != nil {
		return err
	}
	to, ok := b.ParseLineNumber()
	if !ok || to < from {
		return NewBASICError(SyntaxError)
	}
	n := b.program.DeleteProgramLines(from, to)
	tinyBasicDebugLog("DEL %d,%d removed %d lines", from, to, n)
	b.cont = continuation{}
	return nil
}

// fileName reads the string operand of LOAD and SAVE.
func (b *TinyBASIC) fileName() (string, error) {
	t := b.line.NextToken()
	if t.Class != ClassString || NormalizeProgramName(t.Text) == "" {
		b.line.PushToken(t)
		return "", NewBASICError(SyntaxError)
	}
	return NormalizeProgramName(t.Text), nil
}

// loadFile replaces the program with the content of a file.
func (b *TinyBASIC) loadFile(tz *Tokenizer, name string) error {
	name = NormalizeProgramName(name)
	if b.fs == nil || !b.fs.Exists(name, b.owner) {
		return NewBASICError(FileNotFound).WithDetail(name)
	}
	content, err := b.fs.ReadFile(name, b.owner)
	if err != nil {
		logger.Error(logger.AreaFileSystem, "LOAD %s failed: %v", name, err)
		return NewBASICError(FileNotFound).WithDetail(err.Error())
	}
	if err := b.loadProgram(tz, content); err != nil {
		return err
	}
	logger.Info(logger.AreaFileSystem, "loaded %s (%d lines)", name, b.program.Len())
	return nil
}

// cmdLoad loads a program: LOAD "name". A running program stops.
func cmdLoad(b *TinyBASIC, tz *Tokenizer) error {
	name, err := b.fileName()
	if err != nil {
		return err
	}
	if err := b.loadFile(tz, name); err != nil {
		return err
	}
	b.clearState()
	if !b.line.IsImmediate() {
		b.halt()
	}
	return nil
}

// cmdSave writes the program listing: SAVE "name".
func cmdSave(b *TinyBASIC) error {
	name, err := b.fileName()
	if err != nil {
		return err
	}
	if b.fs == nil {
		return NewBASICError(UnableToEdit).WithDetail("no file system")
	}
	if err := b.fs.WriteFile(name, b.renderProgram(), b.owner); err != nil {
		logger.Error(logger.AreaFileSystem, "SAVE %s failed: %v", name, err)
		return NewBASICError(UnableToEdit).WithDetail(err.Error())
	}
	return nil
}

// cmdCatalog lists the stored programs one name per step.
func cmdCatalog(b *TinyBASIC) (StepFunc, error) {
	if b.fs == nil {
		return nil, NewBASICError(FileNotFound).WithDetail("no file system")
	}
	names, err := b.fs.ListDirProgramFiles(b.owner)
	if err != nil {
		logger.Error(logger.AreaFileSystem, "CATALOG failed: %v", err)
		return nil, NewBASICError(FileNotFound).WithDetail(err.Error())
	}
	return func() (bool, error) {
		if len(names) == 0 {
			return true, nil
		}
		if err := b.out.Write(names[0] + "\n"); err != nil {
			return true, err
		}
		names = names[1:]
		return len(names) == 0, nil
	}, nil
}

// cmdRem ignores the remark.
func cmdRem(b *TinyBASIC) error {
	if b.line.PeekToken().Class == ClassRemark {
		b.line.NextToken()
	}
	return nil
}
