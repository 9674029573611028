package tinybasic

// cmdGoto performs an unconditional jump.
func cmdGoto(b *TinyBASIC) error {
	target, ok := b.ParseLineNumber()
	if !ok {
		return NewBASICError(SyntaxError)
	}
	return b.jumpTo(target)
}

// cmdGosub calls a subroutine. The return position is right after the
// target number.
func cmdGosub(b *TinyBASIC) error {
	target, ok := b.ParseLineNumber()
	if !ok {
		return NewBASICError(SyntaxError)
	}
	return b.gosub(target)
}

func (b *TinyBASIC) gosub(target uint16) error {
	line, err := b.program.GetLine(target)
	if err != nil {
		return err
	}
	caller := b.line
	if err := b.stack.Push(&StackEntry{Line: caller, Position: caller.Position()}); err != nil {
		return err
	}
	b.line = line
	b.transferred = true
	return nil
}

// cmdReturn returns to the statement after the latest GOSUB. Loops opened
// inside the subroutine are abandoned.
func cmdReturn(b *TinyBASIC) error {
	e, err := b.stack.PopGosub()
	if err != nil {
		return err
	}
	b.resumeAt(e.Line, e.Position)
	return nil
}

// cmdPop forgets the latest GOSUB without returning.
func cmdPop(b *TinyBASIC) error {
	_, err := b.stack.PopGosub()
	return err
}

// cmdFor opens a loop: FOR v = start TO target [STEP step].
func cmdFor(b *TinyBASIC) error {
	name, err := b.parseName()
	if err != nil {
		return err
	}
	if b.line.PeekToken().Is(KindOpenBracket) {
		return NewBASICError(SyntaxError)
	}
	v := b.vars.GetOrCreateVariable(name)
	if v.Type() == TypeString {
		return NewBASICError(TypeMismatch)
	}
	ref, _ := v.Reference(nil)

	if err := b.expect(KindEqual); err != nil {
		return err
	}
	start, err := b.EvaluateExpression()
	if err != nil {
		return err
	}
	if err := ref.Set(start); err != nil {
		return err
	}
	if err := b.expect(KindTo); err != nil {
		return err
	}
	target, err := b.evaluateFloat()
	if err != nil {
		return err
	}
	step := 1.0
	if b.accept(KindStep) {
		if step, err = b.evaluateFloat(); err != nil {
			return err
		}
	}

	// A loop re-entered while its old frame is still stacked gets a second
	// frame; NEXT finds the newest one first.
	return b.stack.Push(&StackEntry{
		Variable: v.Name,
		Target:   target,
		Step:     step,
		Line:     b.line,
		Position: b.line.Position(),
	})
}

// cmdNext closes one or more loops: NEXT [v [, w ...]].
func cmdNext(b *TinyBASIC) error {
	for {
		name := ""
		if b.line.PeekToken().Class == ClassVariable {
			n, err := b.parseName()
			if err != nil {
				return err
			}
			name = CanonicalName(n)
		}
		e, err := b.stack.FindFor(name)
		if err != nil {
			return err
		}
		ref, err := b.vars.GetOrCreateVariable(e.Variable).Reference(nil)
		if err != nil {
			return err
		}
		current, err := ref.Get().Float()
		if err != nil {
			return err
		}
		next, err := numericResult(current + e.Step)
		if err != nil {
			return err
		}
		if err := ref.Set(next); err != nil {
			return err
		}
		value, _ := ref.Get().Float()
		if !e.Finished(value) {
			b.resumeAt(e.Line, e.Position)
			return nil
		}
		b.stack.Pop()
		if name == "" || !b.accept(KindComma) {
			return nil
		}
	}
}

// cmdIf evaluates IF cond THEN ... [ELSE ...]. A false condition skips to the
// matching ELSE or to the end of the line.
func cmdIf(b *TinyBASIC) error {
	cond, err := b.EvaluateExpression()
	if err != nil {
		return err
	}
	truth, err := cond.Truthy()
	if err != nil {
		return err
	}

	t := b.line.NextToken()
	switch {
	case t.Is(KindThen):
	case t.Is(KindGoto):
		if !truth {
			return b.skipToElse()
		}
		return cmdGoto(b)
	default:
		b.line.PushToken(t)
		return NewBASICError(SyntaxError)
	}

	if !truth {
		return b.skipToElse()
	}
	if target, ok := b.ParseLineNumber(); ok {
		return b.jumpTo(target)
	}
	// The statements after THEN run as part of the normal loop.
	b.transferred = true
	return nil
}

// skipToElse moves past the ELSE that belongs to the current IF. Nested IFs
// claim their own ELSE. Without an ELSE the rest of the line is skipped.
func (b *TinyBASIC) skipToElse() error {
	b.transferred = true
	nested := 0
	for {
		t := b.line.NextToken()
		switch {
		case t.IsEndOfLine():
			return nil
		case t.Is(KindIf):
			nested++
		case t.Is(KindElse):
			if nested > 0 {
				nested--
				continue
			}
			if target, ok := b.ParseLineNumber(); ok {
				return b.jumpTo(target)
			}
			return nil
		}
	}
}

// cmdElse ends the THEN branch of a taken IF: the ELSE branch is skipped.
func cmdElse(b *TinyBASIC) error {
	b.line.SkipToEnd()
	return nil
}

// cmdOn implements ON x GOTO|GOSUB n1, n2, ... An index out of range falls
// through to the next statement.
func cmdOn(b *TinyBASIC) error {
	f, err := b.evaluateFloat()
	if err != nil {
		return err
	}
	if f < 0 {
		return NewBASICError(IllegalQuantity)
	}
	index, err := floatToInt16(f)
	if err != nil {
		return err
	}

	t := b.line.NextToken()
	isGosub := t.Is(KindGosub)
	if !isGosub && !t.Is(KindGoto) {
		b.line.PushToken(t)
		return NewBASICError(SyntaxError)
	}

	var targets []uint16
	for {
		n, ok := b.ParseLineNumber()
		if !ok {
			return NewBASICError(SyntaxError)
		}
		targets = append(targets, n)
		if !b.accept(KindComma) {
			break
		}
	}

	if index < 1 || int(index) > len(targets) {
		return nil
	}
	target := targets[index-1]
	if isGosub {
		return b.gosub(target)
	}
	return b.jumpTo(target)
}

// cmdOnErr registers an error handler: ONERR GOTO n.
func cmdOnErr(b *TinyBASIC) error {
	if err := b.expect(KindGoto); err != nil {
		return err
	}
	target, ok := b.ParseLineNumber()
	if !ok {
		return NewBASICError(SyntaxError)
	}
	b.onErrLine, b.onErrSet = target, true
	return nil
}

// cmdResume retries the statement that raised the trapped error. Frames
// pushed after the error are dropped.
func cmdResume(b *TinyBASIC) error {
	if b.line.IsImmediate() {
		return NewBASICError(IllegalDirect)
	}
	if !b.lastError.resumable {
		return NewBASICError(UndefinedStatement)
	}
	e := b.lastError
	b.lastError.resumable = false
	b.stack.Truncate(e.StackCount)
	b.resumeAt(e.line, e.pos)
	return nil
}

func cmdEnd(b *TinyBASIC) error {
	return NewBASICError(End)
}

func cmdStop(b *TinyBASIC) error {
	return NewBASICError(Stop)
}

// cmdCont resumes a program stopped by STOP, END or a break.
func cmdCont(b *TinyBASIC) error {
	if !b.line.IsImmediate() {
		return NewBASICError(IllegalDeferred)
	}
	if !b.cont.valid {
		return NewBASICError(CantContinue)
	}
	b.resumeAt(b.cont.line, b.cont.pos)
	return nil
}
