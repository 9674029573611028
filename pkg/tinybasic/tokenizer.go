package tinybasic

import (
	"strings"
	"unicode"
)

// MaxLineNumber is the highest line number a program may use.
const MaxLineNumber = 65535

// Tokenizer turns one line of raw text into a ProgramLine.
type Tokenizer struct {
	catalog *Catalog
}

// NewTokenizer creates a tokenizer over the given catalog.
func NewTokenizer(catalog *Catalog) *Tokenizer {
	return &Tokenizer{catalog: catalog}
}

type scanMode int

const (
	scanPlain scanMode = iota
	scanQuoted
	scanRemark
	scanData
)

// lineScanner holds the state of one Tokenize call.
type lineScanner struct {
	catalog *Catalog
	tokens  []*Token
	pending string
	mode    scanMode
	capture strings.Builder

	// DATA capture: a colon only ends the capture after an unquoted comma.
	sawComma bool
	inQuote  bool
}

// Tokenize splits text into an optional line number and a token sequence.
func (tz *Tokenizer) Tokenize(text string) (*ProgramLine, error) {
	runes := []rune(text)
	i := 0

	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	// The first non-digit ends the line number.
	number, numbered := 0, false
	for ; i < len(runes) && runes[i] >= '0' && runes[i] <= '9'; i++ {
		number = number*10 + int(runes[i]-'0')
		if number > MaxLineNumber {
			return nil, NewBASICError(SyntaxError).WithDetail("line number out of range")
		}
		numbered = true
	}

	s := &lineScanner{catalog: tz.catalog}
	for ; i < len(runes); i++ {
		s.feed(runes[i])
	}
	s.flush()

	if numbered {
		return NewNumberedLine(uint16(number), s.tokens), nil
	}
	return NewProgramLine(s.tokens), nil
}

func (s *lineScanner) feed(r rune) {
	switch s.mode {
	case scanRemark:
		s.capture.WriteRune(r)

	case scanData:
		switch {
		case r == '"':
			s.inQuote = !s.inQuote
		case r == ',' && !s.inQuote:
			s.sawComma = true
		case r == ':' && !s.inQuote && s.sawComma:
			s.endCapture()
			s.feed(r)
			return
		}
		s.capture.WriteRune(r)

	case scanQuoted:
		if r == '"' {
			s.tokens = append(s.tokens, NewStringToken(s.capture.String()))
			s.capture.Reset()
			s.mode = scanPlain
			return
		}
		s.capture.WriteRune(r)

	default:
		if unicode.IsSpace(r) {
			return
		}
		if r == '"' {
			s.resolve(true)
			if s.mode == scanPlain {
				s.mode = scanQuoted
				return
			}
			// A keyword resolved just now switched to capture mode.
			s.feed(r)
			return
		}
		s.pending += string(unicode.ToUpper(r))
		s.resolve(false)
	}
}

// resolve tries to emit tokens from the pending text. With final set no more
// characters will follow, so ambiguous prefixes are settled immediately.
func (s *lineScanner) resolve(final bool) {
	for s.pending != "" {
		text := s.pending
		candidates := s.catalog.prefixMatches(text)
		if len(candidates) == 1 && candidates[0].Text == text {
			s.pending = ""
			s.emit(candidates[0])
			return
		}
		if len(candidates) > 0 && !final {
			return
		}
		if final {
			if t, ok := s.catalog.Lookup(text); ok {
				s.pending = ""
				s.emit(t)
				return
			}
		}

		pos, t := s.catalog.longestWithin(text)
		if t == nil {
			if final {
				s.pending = ""
				s.tokens = append(s.tokens, NewTextToken(text))
			}
			return
		}
		if pos > 0 {
			s.tokens = append(s.tokens, NewTextToken(text[:pos]))
		}
		s.pending = text[pos+len(t.Text):]
		s.emit(t)
		if s.mode != scanPlain {
			s.capture.WriteString(s.pending)
			s.pending = ""
			return
		}
	}
}

func (s *lineScanner) emit(t *Token) {
	t = canonical(t)
	s.tokens = append(s.tokens, t)
	switch t.Kind {
	case KindRem:
		s.mode = scanRemark
		s.capture.Reset()
	case KindData:
		s.mode = scanData
		s.capture.Reset()
		s.sawComma, s.inQuote = false, false
	}
}

// endCapture closes a REM or DATA capture. One separating blank after the
// keyword is dropped so that listing and re-entering a line is stable.
func (s *lineScanner) endCapture() {
	text := strings.TrimPrefix(s.capture.String(), " ")
	s.capture.Reset()
	if text != "" {
		if s.mode == scanRemark {
			s.tokens = append(s.tokens, NewRemarkToken(text))
		} else {
			s.tokens = append(s.tokens, NewDataToken(text))
		}
	}
	s.mode = scanPlain
}

func (s *lineScanner) flush() {
	switch s.mode {
	case scanRemark, scanData:
		s.endCapture()
	case scanQuoted:
		s.tokens = append(s.tokens, NewStringToken(s.capture.String()))
		s.capture.Reset()
		s.mode = scanPlain
	default:
		s.resolve(true)
		if s.mode != scanPlain {
			s.endCapture()
		}
	}
}
