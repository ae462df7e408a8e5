package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config represents the application configuration.
type Config struct {
	// Global options that apply to all commands
	Global map[string]string
	// Section options, e.g. [planner] and [sim], keyed by section name
	Sections map[string]map[string]string
	// Warnings contains any warnings generated during config loading
	Warnings []string
}

// NewConfig creates a new empty configuration.
func NewConfig() *Config {
	return &Config{
		Global:   make(map[string]string),
		Sections: make(map[string]map[string]string),
		Warnings: make([]string, 0),
	}
}

// Load loads configuration from the default config file path.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads configuration from the specified file path.
// The file uses dnsmasq-style format: optionName remainingLineIsTheValue
//
// A missing file yields an empty configuration. Symlinks are rejected.
func LoadFromPath(path string) (*Config, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}

	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	config := NewConfig()
	scanner := bufio.NewScanner(r)

	var section string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Check for section header [section_name]
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(strings.Trim(line, "[]"))
			if section != "" && config.Sections[section] == nil {
				config.Sections[section] = make(map[string]string)
			}
			continue
		}

		// Parse option line: optionName remainingLineIsTheValue
		name, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)

		if section == "" {
			config.Global[name] = value
		} else {
			config.Sections[section][name] = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	for _, issue := range ValidateConfig(config, DefaultSchema()) {
		config.addWarning("%s", issue)
	}

	return config, nil
}

// addWarning adds a warning to the config's warnings list.
func (c *Config) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
	slog.Warn("[Config] " + msg)
}

// parseBool parses a boolean value from string.
// Accepts: true, false, 1, 0, yes, no, on, off (case-insensitive)
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

// GetGlobalOption returns a global configuration option.
func (c *Config) GetGlobalOption(name string) (string, bool) {
	value, exists := c.Global[name]
	return value, exists
}

// GetSectionOption returns an option from section, falling back to the
// global options. An empty section reads the global options only.
func (c *Config) GetSectionOption(section, name string) (string, bool) {
	if opts, exists := c.Sections[section]; exists {
		if value, exists := opts[name]; exists {
			return value, true
		}
	}

	return c.GetGlobalOption(name)
}

// SetGlobalOption sets a global configuration option.
func (c *Config) SetGlobalOption(name, value string) {
	c.Global[name] = value
}

// SetSectionOption sets an option in section; an empty section is global.
func (c *Config) SetSectionOption(section, name, value string) {
	if section == "" {
		c.SetGlobalOption(name, value)
		return
	}
	if c.Sections[section] == nil {
		c.Sections[section] = make(map[string]string)
	}
	c.Sections[section][name] = value
}

// GetWarnings returns any warnings generated during config loading.
func (c *Config) GetWarnings() []string {
	return c.Warnings
}

// HasWarnings returns true if there are any warnings.
func (c *Config) HasWarnings() bool {
	return len(c.Warnings) > 0
}

// SplitKey splits a dotted "section.key" reference into its section and
// key, for section names the schema declares; other keys are global.
// "planner.trace" is ("planner", "trace") but "log.level" is ("", "log.level").
func SplitKey(s *ConfigSchema, ref string) (section, key string) {
	if sec, rest, ok := strings.Cut(ref, "."); ok {
		if _, known := s.bySection[sec]; known {
			return sec, rest
		}
	}
	return "", ref
}
