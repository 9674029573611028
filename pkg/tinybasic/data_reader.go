package tinybasic

import (
	"strconv"
	"strings"
)

// dataReader walks the DATA statements of the program in line order. It
// reads through clones so the executing line's cursor is never touched.
type dataReader struct {
	line    *ProgramLine
	items   []string
	started bool
}

func (d *dataReader) reset() {
	*d = dataReader{}
}

// next returns the next DATA item.
func (d *dataReader) next(program *ProgramRepository) (string, error) {
	for len(d.items) == 0 {
		if err := d.advance(program); err != nil {
			return "", err
		}
	}
	item := d.items[0]
	d.items = d.items[1:]
	return item, nil
}

// advance loads the items of the next DATA token.
func (d *dataReader) advance(program *ProgramRepository) error {
	if !d.started {
		d.started = true
		first, ok := program.lines.Min()
		if !ok {
			return NewBASICError(OutOfData)
		}
		d.line = first.Clone()
	}
	for d.line != nil {
		t := d.line.NextToken()
		if t.IsEndOfLine() {
			number, _ := d.line.Number()
			next, ok := program.lineAfter(number)
			if !ok {
				d.line = nil
				break
			}
			d.line = next.Clone()
			continue
		}
		if !t.Is(KindData) {
			continue
		}
		body := d.line.PeekToken()
		if body.Class == ClassData {
			d.line.NextToken()
			d.items = SplitDataItems(body.Text)
		} else {
			d.items = []string{""}
		}
		return nil
	}
	return NewBASICError(OutOfData)
}

// SplitDataItems splits DATA or INPUT text at commas outside quotes. Unquoted
// items are trimmed; quoted items keep their content verbatim.
func SplitDataItems(text string) []string {
	var items []string
	var sb strings.Builder
	inQuote, quoted := false, false
	flush := func() {
		item := sb.String()
		if !quoted {
			item = strings.TrimSpace(item)
		}
		items = append(items, item)
		sb.Reset()
		quoted = false
	}
	for _, r := range text {
		switch {
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case r == ',' && !inQuote:
			flush()
		case quoted && !inQuote:
			// text after a closing quote is ignored
		default:
			if !inQuote && sb.Len() == 0 && r == ' ' {
				continue
			}
			sb.WriteRune(r)
		}
	}
	flush()
	return items
}

// assignItem stores a DATA or INPUT item into ref.
func assignItem(ref *VariableReference, item string) error {
	if ref.Type() == TypeString {
		v, err := StringValue(item)
		if err != nil {
			return err
		}
		return ref.Set(v)
	}
	item = strings.TrimSpace(item)
	if item == "" {
		return ref.Set(FloatValue(0))
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(item, " ", ""), 64)
	if err != nil || strings.ContainsAny(item, "xXpP_iInN") {
		return NewBASICError(SyntaxError)
	}
	return ref.Set(FloatValue(f))
}

// cmdData skips the DATA body at run time.
func cmdData(b *TinyBASIC) error {
	if b.line.PeekToken().Class == ClassData {
		b.line.NextToken()
	}
	return nil
}

// cmdRead assigns the next DATA items: READ a, b$, c(1).
func cmdRead(b *TinyBASIC) error {
	for {
		ref, err := b.ParseLeftValue()
		if err != nil {
			return err
		}
		item, err := b.data.next(b.program)
		if err != nil {
			return err
		}
		if err := assignItem(ref, item); err != nil {
			return err
		}
		if !b.accept(KindComma) {
			return nil
		}
	}
}

// cmdRestore rewinds READ to the first DATA item.
func cmdRestore(b *TinyBASIC) error {
	b.data.reset()
	return nil
}
