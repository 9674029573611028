package tinybasic

import (
	"github.com/google/btree"
)

// btreeDegree is the branching factor of the line index.
const btreeDegree = 8

// ProgramRepository stores the numbered lines of the current program in
// ascending order.
type ProgramRepository struct {
	lines *btree.BTreeG[*ProgramLine]
}

func lineLess(a, b *ProgramLine) bool {
	return a.number < b.number
}

// NewProgramRepository returns an empty program.
func NewProgramRepository() *ProgramRepository {
	return &ProgramRepository{lines: btree.NewG(btreeDegree, lineLess)}
}

func lineKey(number uint16) *ProgramLine {
	return &ProgramLine{number: number, numbered: true}
}

// SetProgramLine stores a numbered line, replacing any line with the same
// number. A line without tokens deletes the stored one.
func (r *ProgramRepository) SetProgramLine(line *ProgramLine) {
	if line.Len() == 0 {
		r.lines.Delete(line)
		return
	}
	r.lines.ReplaceOrInsert(line)
}

// GetLine returns the line with the given number with its cursor at zero.
func (r *ProgramRepository) GetLine(number uint16) (*ProgramLine, error) {
	line, ok := r.lines.Get(lineKey(number))
	if !ok {
		return nil, NewBASICError(UndefinedStatement)
	}
	line.Reset()
	return line, nil
}

// HasLine reports whether a line with the given number exists.
func (r *ProgramRepository) HasLine(number uint16) bool {
	return r.lines.Has(lineKey(number))
}

// GetFirstLine returns the lowest numbered line with its cursor at zero.
func (r *ProgramRepository) GetFirstLine() (*ProgramLine, bool) {
	line, ok := r.lines.Min()
	if ok {
		line.Reset()
	}
	return line, ok
}

// GetNextLine returns the first line numbered higher than number with its
// cursor at zero.
func (r *ProgramRepository) GetNextLine(number uint16) (*ProgramLine, bool) {
	next, ok := r.lineAfter(number)
	if ok {
		next.Reset()
	}
	return next, ok
}

// lineAfter finds the successor of number without touching its cursor.
// Readers that must not disturb the executing line use it with Clone.
func (r *ProgramRepository) lineAfter(number uint16) (*ProgramLine, bool) {
	if number == MaxLineNumber {
		return nil, false
	}
	var next *ProgramLine
	r.lines.AscendGreaterOrEqual(lineKey(number+1), func(l *ProgramLine) bool {
		next = l
		return false
	})
	return next, next != nil
}

// DeleteProgramLines removes every line in the inclusive range [from, to].
func (r *ProgramRepository) DeleteProgramLines(from, to uint16) int {
	var doomed []*ProgramLine
	r.Ascend(from, to, func(l *ProgramLine) bool {
		doomed = append(doomed, l)
		return true
	})
	for _, l := range doomed {
		r.lines.Delete(l)
	}
	return len(doomed)
}

// Ascend calls fn for every line in [from, to] in order until fn returns false.
func (r *ProgramRepository) Ascend(from, to uint16, fn func(*ProgramLine) bool) {
	r.lines.AscendGreaterOrEqual(lineKey(from), func(l *ProgramLine) bool {
		if l.number > to {
			return false
		}
		return fn(l)
	})
}

// Len returns the number of stored lines.
func (r *ProgramRepository) Len() int {
	return r.lines.Len()
}

// Clear removes all lines.
func (r *ProgramRepository) Clear() {
	r.lines.Clear(false)
}
