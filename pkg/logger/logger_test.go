package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger builds a logger writing to a temp file with every area on.
func testLogger(t *testing.T, level LogLevel, maxSize int64) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	l := &Logger{
		areaEnabled:   make(map[LogArea]*atomic.Bool),
		logPath:       path,
		maxSize:       maxSize,
		rotationCount: 2,
	}
	for _, a := range allAreas {
		l.areaEnabled[a] = new(atomic.Bool)
		l.areaEnabled[a].Store(true)
	}
	l.enabled.Store(true)
	l.level.Store(int32(level))
	if err := l.openLogFile(); err != nil {
		t.Fatal(err)
	}
	old := globalLogger
	globalLogger = l
	t.Cleanup(func() {
		Close()
		globalLogger = old
	})
	return l, path
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warning": WARN,
		" error ": ERROR,
		"FATAL":   FATAL,
		"bogus":   INFO,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelAndAreaFiltering(t *testing.T) {
	l, path := testLogger(t, INFO, 0)
	var mirrored []string
	l.mirror = func(format string, args ...interface{}) {
		mirrored = append(mirrored, fmt.Sprintf(format, args...))
	}

	Debug(AreaTinyBasic, "hidden %d", 1)
	Info(AreaTinyBasic, "stored line %d", 10)
	DisableArea(AreaDatabase)
	Error(AreaDatabase, "hidden too")
	Warn(AreaAuth, "bad token")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Contains(text, "hidden") {
		t.Errorf("filtered entries were written:\n%s", text)
	}
	if !strings.Contains(text, "INFO") || !strings.Contains(text, "[TINYBASIC] stored line 10") {
		t.Errorf("info entry missing:\n%s", text)
	}
	if len(mirrored) != 1 || mirrored[0] != "[WARN] [AUTH] bad token" {
		t.Errorf("mirrored = %q", mirrored)
	}
	if GetAreaStatus(AreaDatabase) {
		t.Errorf("database area still enabled")
	}
	EnableArea(AreaDatabase)
	if !GetAreaStatus(AreaDatabase) {
		t.Errorf("database area not re-enabled")
	}
}

func TestRotation(t *testing.T) {
	_, path := testLogger(t, DEBUG, 200)
	for i := 0; i < 20; i++ {
		Info(AreaGeneral, "entry number %02d with some padding text", i)
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("no rotated file: %v", err)
	}
	if _, err := os.Stat(path + ".3"); err == nil {
		t.Errorf("more rotated files than configured")
	}
}

func TestFormatEntry(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	got := formatEntry(at, WARN, AreaSession, "x.go", 7, "hello")
	want := "[2024-05-01 12:30:00.000] WARN [x.go:7] [SESSION] hello\n"
	if got != want {
		t.Errorf("formatEntry = %q, want %q", got, want)
	}
}

func TestUninitializedIsNoop(t *testing.T) {
	old := globalLogger
	globalLogger = nil
	defer func() { globalLogger = old }()

	Debug(AreaGeneral, "nothing")
	Error(AreaGeneral, "nothing")
	if err := ReloadConfig(); err == nil {
		t.Errorf("ReloadConfig without logger succeeded")
	}
	if len(ListAreas()) != len(allAreas) {
		t.Errorf("ListAreas returned %d areas", len(ListAreas()))
	}
}
