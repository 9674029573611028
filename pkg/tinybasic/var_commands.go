package tinybasic

// cmdLet assigns a value: [LET] v = expr. The executor substitutes LET for
// statements that start with a variable.
func cmdLet(b *TinyBASIC) error {
	ref, err := b.ParseLeftValue()
	if err != nil {
		return err
	}
	if err := b.expect(KindEqual); err != nil {
		return err
	}
	v, err := b.EvaluateExpression()
	if err != nil {
		return err
	}
	return ref.Set(v)
}

// cmdDim declares arrays: DIM A(10), B$(3,4), ...
func cmdDim(b *TinyBASIC) error {
	for {
		name, err := b.parseName()
		if err != nil {
			return err
		}
		if err := b.expect(KindOpenBracket); err != nil {
			return err
		}
		bounds, err := b.parseSubscripts()
		if err != nil {
			return err
		}
		if _, err := b.vars.DimensionArray(name, bounds); err != nil {
			return err
		}
		if !b.accept(KindComma) {
			return nil
		}
	}
}

// cmdClear forgets every variable, loop and subroutine.
func cmdClear(b *TinyBASIC) error {
	b.vars.Clear()
	b.stack.Clear()
	clear(b.functions)
	b.data.reset()
	return nil
}

// cmdDef defines a function: DEF FN name(param) = expr. Only the position of
// the body is recorded; it is evaluated on every call.
func cmdDef(b *TinyBASIC) error {
	if b.line.IsImmediate() {
		return NewBASICError(IllegalDirect)
	}
	if err := b.expect(KindFn); err != nil {
		return err
	}
	name, err := b.parseName()
	if err != nil {
		return err
	}
	if err := b.expect(KindOpenBracket); err != nil {
		return err
	}
	param, err := b.parseName()
	if err != nil {
		return err
	}
	if err := b.expect(KindCloseBracket); err != nil {
		return err
	}
	if err := b.expect(KindEqual); err != nil {
		return err
	}
	if typeForName(param) == TypeString {
		return NewBASICError(TypeMismatch)
	}

	b.functions[CanonicalName(name)] = &userFunction{
		param: CanonicalName(param),
		line:  b.line,
		pos:   b.line.Position(),
	}
	for !b.atStatementEnd() {
		b.line.NextToken()
	}
	return nil
}
