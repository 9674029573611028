package tinybasic

// ScreenClearer is implemented by teletypes that can clear the screen.
type ScreenClearer interface {
	ClearScreen() error
}

// ansiClearScreen is written for HOME when the teletype cannot clear itself.
const ansiClearScreen = "\x1b[2J\x1b[H"

// cmdPrint prints values. ';' joins items, ',' moves to the next zone, TAB(n)
// and SPC(n) position the cursor. A trailing separator suppresses the newline.
func cmdPrint(b *TinyBASIC) error {
	newline := true
	for {
		t := b.line.NextToken()
		switch {
		case t.IsEndOfLine(), t.Is(KindColon), t.Is(KindElse):
			b.line.PushToken(t)
			if newline {
				return b.out.NewLine()
			}
			return nil

		case t.Is(KindSemicolon):
			newline = false

		case t.Is(KindComma):
			newline = false
			if err := b.out.NextZone(); err != nil {
				return err
			}

		case t.Is(KindTab), t.Is(KindSpc):
			n, err := b.evaluateInt()
			if err != nil {
				return err
			}
			if err := b.expect(KindCloseBracket); err != nil {
				return err
			}
			if n < 0 || n > 255 {
				return NewBASICError(IllegalQuantity)
			}
			if t.Is(KindTab) {
				err = b.out.Tab(n - 1)
			} else {
				err = b.out.Space(n)
			}
			if err != nil {
				return err
			}
			newline = true

		default:
			b.line.PushToken(t)
			v, err := b.EvaluateExpression()
			if err != nil {
				return err
			}
			if err := b.out.Write(v.String()); err != nil {
				return err
			}
			newline = true
		}
	}
}

// cmdInput reads values: INPUT ["prompt";] v [, w ...]. A malformed number
// asks for the whole entry again; missing items are asked for with "??".
func cmdInput(b *TinyBASIC) error {
	if b.line.IsImmediate() {
		return NewBASICError(IllegalDirect)
	}
	prompt := "?"
	if t := b.line.NextToken(); t.Class == ClassString {
		prompt = t.Text
		if !b.accept(KindSemicolon) && !b.accept(KindComma) {
			return NewBASICError(SyntaxError)
		}
	} else {
		b.line.PushToken(t)
	}

	var refs []*VariableReference
	for {
		ref, err := b.ParseLeftValue()
		if err != nil {
			return err
		}
		refs = append(refs, ref)
		if !b.accept(KindComma) {
			break
		}
	}

	var items []string
	current, p := 0, prompt
	for i := 0; i < len(refs); {
		if current >= len(items) {
			text, err := b.out.ReadLine(p)
			if err != nil {
				return err
			}
			if b.out.Cancellation().Consume() {
				return NewBASICError(Break)
			}
			items, current, p = SplitDataItems(text), 0, "??"
		}
		if err := assignItem(refs[i], items[current]); err != nil {
			if IsKind(err, SyntaxError) {
				if err := b.out.Write("?REENTER\n"); err != nil {
					return err
				}
				items, current, p, i = nil, 0, prompt, 0
				continue
			}
			return err
		}
		i++
		current++
	}
	if current < len(items) {
		return b.out.Write("?EXTRA IGNORED\n")
	}
	return nil
}

// cmdHome clears the screen.
func cmdHome(b *TinyBASIC) error {
	var err error
	if c, ok := b.out.Teletype.(ScreenClearer); ok {
		err = c.ClearScreen()
	} else {
		err = b.out.Teletype.Write(ansiClearScreen)
	}
	b.out.column = 0
	return err
}
