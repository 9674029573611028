package tinybasic

// DefaultMaxStackDepth is used when no depth is configured.
const DefaultMaxStackDepth = 256

// StackEntry is one frame of the control stack. FOR frames carry the loop
// variable; GOSUB frames leave it empty. Line and Position mark where
// execution resumes.
type StackEntry struct {
	Variable string
	Target   float64
	Step     float64
	Line     *ProgramLine
	Position int
}

// IsGosub reports whether the frame belongs to GOSUB or ON ... GOSUB.
func (e *StackEntry) IsGosub() bool {
	return e.Variable == ""
}

// Finished reports whether a loop with this frame's target and step is done
// once its variable holds value.
func (e *StackEntry) Finished(value float64) bool {
	if e.Step > 0 {
		return value > e.Target
	}
	return value < e.Target
}

// ControlStack is the shared LIFO of FOR and GOSUB frames.
type ControlStack struct {
	entries  []*StackEntry
	maxDepth int
}

// NewControlStack creates a stack that holds at most maxDepth frames.
func NewControlStack(maxDepth int) *ControlStack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxStackDepth
	}
	return &ControlStack{maxDepth: maxDepth}
}

// Push adds a frame. A full stack is a StackOverflow, reported as OUT OF
// MEMORY.
func (s *ControlStack) Push(e *StackEntry) error {
	if len(s.entries) >= s.maxDepth {
		return NewBASICError(StackOverflow).WithDetail("control stack overflow")
	}
	s.entries = append(s.entries, e)
	return nil
}

// Top returns the newest frame.
func (s *ControlStack) Top() (*StackEntry, bool) {
	if len(s.entries) == 0 {
		return nil, false
	}
	return s.entries[len(s.entries)-1], true
}

// Pop removes the newest frame.
func (s *ControlStack) Pop() (*StackEntry, bool) {
	e, ok := s.Top()
	if ok {
		s.entries = s.entries[:len(s.entries)-1]
	}
	return e, ok
}

// PopGosub discards FOR frames down to the nearest GOSUB frame and removes
// it too. An exhausted stack is RETURN WITHOUT GOSUB.
func (s *ControlStack) PopGosub() (*StackEntry, error) {
	for {
		e, ok := s.Pop()
		if !ok {
			return nil, NewBASICError(ReturnWithoutGosub)
		}
		if e.IsGosub() {
			return e, nil
		}
	}
}

// FindFor returns the FOR frame for variable, discarding FOR frames of other
// variables above it. An empty name selects the top frame. The frame stays on
// the stack.
func (s *ControlStack) FindFor(variable string) (*StackEntry, error) {
	for {
		e, ok := s.Top()
		if !ok || e.IsGosub() {
			return nil, NewBASICError(NextWithoutFor)
		}
		if variable == "" || e.Variable == variable {
			return e, nil
		}
		s.entries = s.entries[:len(s.entries)-1]
	}
}

// Len returns the number of frames.
func (s *ControlStack) Len() int {
	return len(s.entries)
}

// Truncate drops frames until at most n remain.
func (s *ControlStack) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(s.entries) {
		clear(s.entries[n:])
		s.entries = s.entries[:n]
	}
}

// Clear removes every frame.
func (s *ControlStack) Clear() {
	s.Truncate(0)
}
