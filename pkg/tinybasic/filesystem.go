package tinybasic

import (
	"strings"
)

// FileSystem stores program files. The owner separates the files of
// different sessions; console backends ignore it.
type FileSystem interface {
	ReadFile(path string, owner string) (string, error)
	WriteFile(path, content string, owner string) error
	Exists(path string, owner string) bool
	ListDirProgramFiles(owner string) ([]string, error)
}

// ProgramExtension is appended to program names without an extension.
const ProgramExtension = ".bas"

// NormalizeProgramName trims blanks and adds the program extension.
func NormalizeProgramName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if !strings.Contains(name, ".") {
		name += ProgramExtension
	}
	return name
}

// renderProgram returns the listing of every stored line, one per line.
func (b *TinyBASIC) renderProgram() string {
	var sb strings.Builder
	b.program.Ascend(0, MaxLineNumber, func(l *ProgramLine) bool {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}

// loadProgram replaces the current program with the lines of content.
// Unnumbered lines are rejected.
func (b *TinyBASIC) loadProgram(tz *Tokenizer, content string) error {
	program := NewProgramRepository()
	for _, text := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(text) == "" {
			continue
		}
		line, err := tz.Tokenize(text)
		if err != nil {
			return err
		}
		if line.IsImmediate() {
			return NewBASICError(SyntaxError).WithDetail("program line without number")
		}
		program.SetProgramLine(line)
	}
	b.program = program
	return nil
}
