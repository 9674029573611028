package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antibyte/retrobasic/pkg/configuration"
)

// LogLevel definiert die verschiedenen Log-Level
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var logLevelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// LogArea definiert die verschiedenen Log-Bereiche
type LogArea string

const (
	AreaTinyBasic  LogArea = "tinybasic"
	AreaFileSystem LogArea = "filesystem"
	AreaDatabase   LogArea = "database"
	AreaWebSocket  LogArea = "websocket"
	AreaTerminal   LogArea = "terminal"
	AreaAuth       LogArea = "auth"
	AreaSecurity   LogArea = "security"
	AreaSession    LogArea = "session"
	AreaConfig     LogArea = "config"
	AreaGeneral    LogArea = "general"
)

var allAreas = []LogArea{
	AreaTinyBasic, AreaFileSystem, AreaDatabase, AreaWebSocket, AreaTerminal,
	AreaAuth, AreaSecurity, AreaSession, AreaConfig, AreaGeneral,
}

// Logger ist das Hauptlogging-System
type Logger struct {
	enabled     atomic.Bool
	level       atomic.Int32
	areaEnabled map[LogArea]*atomic.Bool // fixed after construction

	mutex         sync.Mutex
	file          *os.File
	logPath       string
	maxSize       int64
	rotationCount int
	currentSize   int64

	// mirror receives WARN and above in addition to the file
	mirror func(format string, args ...interface{})
}

var (
	globalLogger *Logger
	initOnce     sync.Once
)

// Initialize initialisiert das globale Logging-System aus der [Debug]
// Sektion der Konfiguration.
func Initialize() error {
	var err error
	initOnce.Do(func() {
		var l *Logger
		l, err = newLogger()
		if err == nil {
			globalLogger = l
		}
	})
	return err
}

// newLogger erstellt einen Logger und öffnet seine Datei
func newLogger() (*Logger, error) {
	l := &Logger{
		areaEnabled: make(map[LogArea]*atomic.Bool, len(allAreas)),
		mirror:      log.Printf,
	}
	for _, area := range allAreas {
		l.areaEnabled[area] = new(atomic.Bool)
	}
	l.loadConfig()

	if err := l.openLogFile(); err != nil {
		return nil, fmt.Errorf("open log file %s: %w", l.logPath, err)
	}
	return l, nil
}

// loadConfig lädt die Logging-Konfiguration
func (l *Logger) loadConfig() {
	l.enabled.Store(configuration.GetBool("Debug", "enable_debug_logging", false))
	l.level.Store(int32(parseLogLevel(configuration.GetString("Debug", "log_level", "INFO"))))

	l.mutex.Lock()
	l.logPath = configuration.GetString("Debug", "log_file", "retrobasic.log")
	l.maxSize = int64(configuration.GetInt("Debug", "max_log_size_mb", 10)) * 1024 * 1024
	l.rotationCount = configuration.GetInt("Debug", "log_rotation_count", 3)
	l.mutex.Unlock()

	// Bereichs-spezifische Konfiguration
	for area, flag := range l.areaEnabled {
		flag.Store(configuration.GetBool("Debug", "log_"+string(area), false))
	}
}

// openLogFile öffnet die Log-Datei
func (l *Logger) openLogFile() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file != nil {
		l.file.Close()
	}

	if err := os.MkdirAll(filepath.Dir(l.logPath), 0755); err != nil {
		return err
	}
	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.currentSize = 0
	if stat, err := file.Stat(); err == nil {
		l.currentSize = stat.Size()
	}
	return nil
}

// rotateLocked shifts log, log.1, ... one slot up and starts a new file.
// The caller holds the mutex.
func (l *Logger) rotateLocked() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.rotationCount > 0 {
		os.Remove(fmt.Sprintf("%s.%d", l.logPath, l.rotationCount))
		for i := l.rotationCount - 1; i >= 1; i-- {
			os.Rename(fmt.Sprintf("%s.%d", l.logPath, i), fmt.Sprintf("%s.%d", l.logPath, i+1))
		}
		os.Rename(l.logPath, l.logPath+".1")
	}

	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.currentSize = 0
	return nil
}

// shouldLog prüft ob ein Log-Eintrag geschrieben werden soll
func (l *Logger) shouldLog(level LogLevel, area LogArea) bool {
	if !l.enabled.Load() || LogLevel(l.level.Load()) > level {
		return false
	}
	flag, exists := l.areaEnabled[area]
	return exists && flag.Load()
}

// formatEntry builds one log line.
func formatEntry(now time.Time, level LogLevel, area LogArea, file string, line int, message string) string {
	return fmt.Sprintf("[%s] %s [%s:%d] [%s] %s\n",
		now.Format("2006-01-02 15:04:05.000"),
		logLevelNames[level],
		file,
		line,
		strings.ToUpper(string(area)),
		message)
}

// writeLog schreibt den Log-Eintrag
func (l *Logger) writeLog(level LogLevel, area LogArea, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	_, file, line, _ := runtime.Caller(3)
	entry := formatEntry(time.Now(), level, area, filepath.Base(file), line, message)

	l.mutex.Lock()
	if l.file != nil {
		if n, err := l.file.WriteString(entry); err == nil {
			l.currentSize += int64(n)
			if l.maxSize > 0 && l.currentSize > l.maxSize {
				l.rotateLocked()
			}
		}
	}
	l.mutex.Unlock()

	if level >= WARN && l.mirror != nil {
		l.mirror("[%s] [%s] %s", logLevelNames[level], strings.ToUpper(string(area)), message)
	}
}

func logAt(level LogLevel, area LogArea, format string, args ...interface{}) {
	if l := globalLogger; l != nil && l.shouldLog(level, area) {
		l.writeLog(level, area, format, args...)
	}
}

// Debug schreibt Debug-Logs
func Debug(area LogArea, format string, args ...interface{}) {
	logAt(DEBUG, area, format, args...)
}

// Info schreibt Info-Logs
func Info(area LogArea, format string, args ...interface{}) {
	logAt(INFO, area, format, args...)
}

// Warn schreibt Warning-Logs
func Warn(area LogArea, format string, args ...interface{}) {
	logAt(WARN, area, format, args...)
}

// Error schreibt Error-Logs
func Error(area LogArea, format string, args ...interface{}) {
	logAt(ERROR, area, format, args...)
}

// Fatal schreibt Fatal-Logs und beendet das Programm
func Fatal(area LogArea, format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.writeLog(FATAL, area, format, args...)
	}
	log.Fatalf("[FATAL] [%s] %s", strings.ToUpper(string(area)), fmt.Sprintf(format, args...))
}

// Convenience-Funktionen für häufig verwendete Bereiche

func WebSocketDebug(format string, args ...interface{}) { Debug(AreaWebSocket, format, args...) }
func WebSocketInfo(format string, args ...interface{})  { Info(AreaWebSocket, format, args...) }
func WebSocketWarn(format string, args ...interface{})  { Warn(AreaWebSocket, format, args...) }
func WebSocketError(format string, args ...interface{}) { Error(AreaWebSocket, format, args...) }

func AuthDebug(format string, args ...interface{}) { Debug(AreaAuth, format, args...) }
func AuthInfo(format string, args ...interface{})  { Info(AreaAuth, format, args...) }
func AuthWarn(format string, args ...interface{})  { Warn(AreaAuth, format, args...) }
func AuthError(format string, args ...interface{}) { Error(AreaAuth, format, args...) }

func SecurityWarn(format string, args ...interface{}) { Warn(AreaSecurity, format, args...) }

func ConfigInfo(format string, args ...interface{}) { Info(AreaConfig, format, args...) }

// ReloadConfig lädt die Konfiguration neu
func ReloadConfig() error {
	if globalLogger == nil {
		return fmt.Errorf("logger not initialized")
	}
	globalLogger.loadConfig()
	return nil
}

// EnableArea aktiviert Logging für einen Bereich
func EnableArea(area LogArea) {
	setArea(area, true)
}

// DisableArea deaktiviert Logging für einen Bereich
func DisableArea(area LogArea) {
	setArea(area, false)
}

func setArea(area LogArea, on bool) {
	if globalLogger == nil {
		return
	}
	if flag, exists := globalLogger.areaEnabled[area]; exists {
		flag.Store(on)
	}
}

// GetAreaStatus gibt den Status eines Bereichs zurück
func GetAreaStatus(area LogArea) bool {
	if globalLogger == nil {
		return false
	}
	flag, exists := globalLogger.areaEnabled[area]
	return exists && flag.Load()
}

// ListAreas gibt alle verfügbaren Bereiche zurück
func ListAreas() []LogArea {
	return append([]LogArea(nil), allAreas...)
}

func parseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Close schließt das Logging-System
func Close() {
	if globalLogger == nil {
		return
	}
	globalLogger.mutex.Lock()
	defer globalLogger.mutex.Unlock()

	if globalLogger.file != nil {
		globalLogger.file.Close()
		globalLogger.file = nil
	}
}
