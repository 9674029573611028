package configuration

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LocalOverrideFile is read after the main file if it exists. Its values win.
const LocalOverrideFile = "settings.local.cfg"

// Config verwaltet die Anwendungskonfiguration
type Config struct {
	settings map[string]map[string]string
	filePath string
	mu       sync.RWMutex
}

var (
	globalConfig *Config
	once         sync.Once
)

// Initialize initialisiert die globale Konfiguration. A missing file is
// created with the defaults.
func Initialize(configPath string) error {
	var err error
	once.Do(func() {
		var cfg *Config
		cfg, err = loadConfig(configPath)
		if err != nil {
			return
		}
		if _, statErr := os.Stat(LocalOverrideFile); statErr == nil {
			// Silent error - config loading continues with base config
			_ = cfg.mergeFile(LocalOverrideFile)
		}
		globalConfig = cfg
	})
	return err
}

// loadConfig lädt die Konfiguration aus einer Datei
func loadConfig(filePath string) (*Config, error) {
	config := &Config{
		settings: make(map[string]map[string]string),
		filePath: filePath,
	}
	config.createDefaultConfig()

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := config.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}
	if err := config.mergeFile(filePath); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile liest eine Datei und überschreibt vorhandene Werte
func (c *Config) mergeFile(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parse(file)
}

// parse reads "[Section]" headers and "key = value" pairs. Blank lines and
// lines starting with ';' or '#' are skipped, as are pairs outside a section.
func (c *Config) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	currentSection := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		// Sektion
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			if c.settings[currentSection] == nil {
				c.settings[currentSection] = make(map[string]string)
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok || currentSection == "" {
			continue
		}
		c.settings[currentSection][strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return scanner.Err()
}

// sectionOrder is the order sections are written in.
var sectionOrder = []string{"Interpreter", "Storage", "Network", "Auth", "TLS", "Debug"}

// createDefaultConfig erstellt die Standard-Konfiguration
func (c *Config) createDefaultConfig() {
	c.settings["Interpreter"] = map[string]string{
		"max_stack_depth": "256",
		"prompt":          "]",
		"random_seed":     "0",
		"zone_width":      "16",
	}

	// sqlite für den Server, disk für die Konsole
	c.settings["Storage"] = map[string]string{
		"backend":             "disk",
		"database":            "retrobasic.db",
		"program_dir":         "programs",
		"max_program_size_kb": "256",
	}

	c.settings["Network"] = map[string]string{
		"listen_address":      ":8080",
		"pong_timeout":        "60s",
		"write_wait_timeout":  "10s",
		"max_message_size_kb": "64",
		"input_buffer":        "16",
		"max_clients":         "100",
		"idle_timeout":        "30m",
		"allowed_origins":     "",
		"banner_file":         "",
	}

	c.settings["Auth"] = map[string]string{
		"secret_key":             "",
		"token_expiration_hours": "24",
		"password_hash":          "",
		"enable_guest_access":    "true",
	}

	c.settings["TLS"] = map[string]string{
		"enable_tls":         "false",
		"enable_letsencrypt": "false",
		"domain":             "",
		"letsencrypt_email":  "",
		"cert_cache_dir":     "certs",
		"challenge_address":  ":80",
		"cert_file":          "",
		"key_file":           "",
	}

	c.settings["Debug"] = map[string]string{
		"enable_debug_logging": "false",
		"log_level":            "INFO",
		"log_file":             "retrobasic.log",
		"max_log_size_mb":      "10",
		"log_rotation_count":   "3",
		// Selektive Logging-Bereiche
		"log_tinybasic":  "false",
		"log_filesystem": "true",
		"log_database":   "true",
		"log_websocket":  "false",
		"log_terminal":   "false",
		"log_auth":       "true",
		"log_security":   "true",
		"log_session":    "false",
		"log_config":     "true",
		"log_general":    "true",
	}
}

// saveToFile speichert die aktuelle Konfiguration in die Datei
func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(c.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	c.write(w)
	return w.Flush()
}

// write renders every section, known sections first, keys sorted.
func (c *Config) write(w io.Writer) {
	fmt.Fprint(w, "; retrobasic configuration\n")
	fmt.Fprint(w, "; Generated automatically - modify with care\n;\n\n")

	sections := append([]string(nil), sectionOrder...)
	var extra []string
	for name := range c.settings {
		known := false
		for _, s := range sectionOrder {
			if s == name {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	sections = append(sections, extra...)

	for _, section := range sections {
		settings, exists := c.settings[section]
		if !exists {
			continue
		}
		fmt.Fprintf(w, "[%s]\n", section)
		keys := make([]string, 0, len(settings))
		for key := range settings {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "%s = %s\n", key, settings[key])
		}
		fmt.Fprint(w, "\n")
	}
}

// lookup reads one value from the global configuration.
func lookup(section, key string) (string, bool) {
	if globalConfig == nil {
		return "", false
	}

	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()

	value, exists := globalConfig.settings[section][key]
	return value, exists
}

// GetString gibt einen String-Wert aus der Konfiguration zurück
func GetString(section, key, defaultValue string) string {
	if value, ok := lookup(section, key); ok {
		return value
	}
	return defaultValue
}

// GetInt gibt einen Integer-Wert aus der Konfiguration zurück
func GetInt(section, key string, defaultValue int) int {
	if value, err := strconv.Atoi(GetString(section, key, "")); err == nil {
		return value
	}
	return defaultValue
}

// GetFloat gibt einen Float-Wert aus der Konfiguration zurück
func GetFloat(section, key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(GetString(section, key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

// GetBool gibt einen Boolean-Wert aus der Konfiguration zurück
func GetBool(section, key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(GetString(section, key, "")); err == nil {
		return value
	}
	return defaultValue
}

// GetDuration gibt einen Duration-Wert aus der Konfiguration zurück
func GetDuration(section, key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(GetString(section, key, "")); err == nil {
		return value
	}
	return defaultValue
}

// GetSection returns a copy of all key-value pairs of a section.
func GetSection(sectionName string) map[string]string {
	result := make(map[string]string)
	if globalConfig == nil {
		return result
	}

	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()

	for key, value := range globalConfig.settings[sectionName] {
		result[key] = value
	}
	return result
}

// SetString setzt einen String-Wert in der Konfiguration
func SetString(section, key, value string) {
	if globalConfig == nil {
		return
	}

	globalConfig.mu.Lock()
	defer globalConfig.mu.Unlock()

	if globalConfig.settings[section] == nil {
		globalConfig.settings[section] = make(map[string]string)
	}
	globalConfig.settings[section][key] = value
}

// Save speichert die aktuelle Konfiguration in die Datei
func Save() error {
	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}

	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()

	return globalConfig.saveToFile()
}
