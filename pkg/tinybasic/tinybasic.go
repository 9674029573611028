package tinybasic

import (
	"math/rand"
	"time"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
)

// Helper function for TinyBASIC debug logging that respects configuration
func tinyBasicDebugLog(format string, args ...interface{}) {
	logger.Debug(logger.AreaTinyBasic, format, args...)
}

// Options are the interpreter limits and console settings.
type Options struct {
	MaxStackDepth int
	Prompt        string
	RandomSeed    int64 // 0 seeds from the clock
	ZoneWidth     int
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		MaxStackDepth: DefaultMaxStackDepth,
		Prompt:        "]",
		ZoneWidth:     DefaultZoneWidth,
	}
}

// LoadOptions reads the [Interpreter] section of the configuration.
func LoadOptions() Options {
	d := DefaultOptions()
	return Options{
		MaxStackDepth: configuration.GetInt("Interpreter", "max_stack_depth", d.MaxStackDepth),
		Prompt:        configuration.GetString("Interpreter", "prompt", d.Prompt),
		RandomSeed:    int64(configuration.GetInt("Interpreter", "random_seed", 0)),
		ZoneWidth:     configuration.GetInt("Interpreter", "zone_width", d.ZoneWidth),
	}
}

// continuation is a resume point for CONT.
type continuation struct {
	line  *ProgramLine
	pos   int
	valid bool
}

// errorState is the snapshot taken when ONERR catches an error.
type errorState struct {
	valid      bool
	resumable  bool
	Line       uint16
	Number     int
	StackCount int
	line       *ProgramLine
	pos        int
}

// userFunction is a DEF FN definition.
type userFunction struct {
	param string
	line  *ProgramLine
	pos   int
}

// TinyBASIC is the interpreter context. Every component works on it; there
// is no global interpreter state.
type TinyBASIC struct {
	options   Options
	tokenizer *Tokenizer
	program   *ProgramRepository
	vars      *VariableRepository
	stack     *ControlStack
	commands  map[TokenKind]Command
	out       *PositionedTeletype
	fs        FileSystem
	owner     string

	// Executor state
	line        *ProgramLine
	stmtLine    *ProgramLine
	stmtPos     int
	transferred bool
	cont        continuation
	depth       int

	// ONERR
	onErrLine uint16
	onErrSet  bool
	lastError errorState

	functions map[string]*userFunction
	data      dataReader

	rng     *rand.Rand
	lastRnd float64
}

// NewTinyBASIC creates an interpreter talking to tty. fs may be nil, in which
// case LOAD, SAVE and CATALOG fail.
func NewTinyBASIC(tty Teletype, fs FileSystem, options Options) *TinyBASIC {
	seed := options.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	b := &TinyBASIC{
		options:   options,
		tokenizer: NewTokenizer(DefaultCatalog()),
		program:   NewProgramRepository(),
		vars:      NewVariableRepository(),
		stack:     NewControlStack(options.MaxStackDepth),
		out:       NewPositionedTeletype(tty, options.ZoneWidth),
		fs:        fs,
		functions: make(map[string]*userFunction),
		rng:       rand.New(rand.NewSource(seed)),
	}
	b.commands = defaultCommands()
	b.data.reset()
	return b
}

// SetOwner sets the owner passed to the file system.
func (b *TinyBASIC) SetOwner(owner string) {
	b.owner = owner
}

// Program returns the stored program.
func (b *TinyBASIC) Program() *ProgramRepository {
	return b.program
}

// Variables returns the variable repository.
func (b *TinyBASIC) Variables() *VariableRepository {
	return b.vars
}

// Stack returns the control stack.
func (b *TinyBASIC) Stack() *ControlStack {
	return b.stack
}

// Tokenizer returns the tokenizer used for program text.
func (b *TinyBASIC) Tokenizer() *Tokenizer {
	return b.tokenizer
}

// LastError returns the snapshot of the most recent error caught by ONERR.
func (b *TinyBASIC) LastError() (line uint16, number, stackCount int, ok bool) {
	e := b.lastError
	return e.Line, e.Number, e.StackCount, e.valid
}

// CanContinue reports whether CONT has a resume point.
func (b *TinyBASIC) CanContinue() bool {
	return b.cont.valid
}

// Cancel raises the break token of the teletype.
func (b *TinyBASIC) Cancel() {
	b.out.Cancellation().Cancel()
}

// clearState resets variables, stacks and pointers. The program is kept.
func (b *TinyBASIC) clearState() {
	b.vars.Clear()
	b.stack.Clear()
	clear(b.functions)
	b.data.reset()
	b.onErrSet = false
	b.lastError = errorState{}
	b.cont = continuation{}
}

// halt stops the running program after the current statement.
func (b *TinyBASIC) halt() {
	b.line = NewProgramLine(nil)
	b.transferred = true
}
