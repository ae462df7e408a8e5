package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeDuration is a Go time.Duration value (e.g. "50ms", "1s").
	TypeDuration OptionType = "duration"
	// TypeFloat is a decimal value (e.g. "1.5").
	TypeFloat OptionType = "float"
)

// Section names.
const (
	SectionPlanner = "planner"
	SectionSim     = "sim"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file (kebab-case).
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Default is the default value as a string, or "" for no default.
	Default string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a section name.
	Section string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
	// Choices, when set, lists the only accepted values.
	Choices []string
}

// ConfigSchema declares the expected configuration options for the application.
// It is used for validation, documentation, typed getters, and env var mapping.
type ConfigSchema struct {
	options []*ConfigOption
	// byKey indexes global options by key for fast lookup.
	byKey map[string]*ConfigOption
	// bySection indexes section options by section then key.
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds a ConfigOption to the schema. Duplicate keys within the same
// section are silently overwritten (last registration wins).
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
	} else {
		if s.bySection[opt.Section] == nil {
			s.bySection[opt.Section] = make(map[string]*ConfigOption)
		}
		s.bySection[opt.Section][opt.Key] = ref
	}
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the ConfigOption for a key in a given section ("" for global).
// Returns nil if the key is not registered.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	if sec, ok := s.bySection[section]; ok {
		return sec[key]
	}
	return nil
}

// GlobalOptions returns all registered global options (Section == "").
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	return s.SectionOptions("")
}

// SectionOptions returns all registered options for a specific section.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns a sorted list of all registered non-empty section names.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value for an option by checking, in order:
// (1) the environment variable declared in the schema for this option,
// (2) the config value, (3) the schema default. Returns "" if the option is
// not found anywhere. Values that fail validation are skipped.
func (s *ConfigSchema) Resolve(c *Config, section, key string) string {
	opt := s.Lookup(section, key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok && validate(opt, v) == nil {
			return v
		}
	}
	if c != nil {
		var (
			v  string
			ok bool
		)
		if section == "" {
			v, ok = c.GetGlobalOption(key)
		} else {
			v, ok = c.Sections[section][key]
		}
		if ok && (opt == nil || validate(opt, v) == nil) {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// GetString resolves a string option.
func (s *ConfigSchema) GetString(c *Config, section, key string) string {
	return s.Resolve(c, section, key)
}

// GetBool resolves a boolean option. Returns false if the value cannot be
// parsed.
func (s *ConfigSchema) GetBool(c *Config, section, key string) bool {
	b, err := parseBool(s.Resolve(c, section, key))
	if err != nil {
		return false
	}
	return b
}

// GetInt resolves an integer option. Returns 0 if the value cannot be parsed.
func (s *ConfigSchema) GetInt(c *Config, section, key string) int {
	i, err := strconv.Atoi(s.Resolve(c, section, key))
	if err != nil {
		return 0
	}
	return i
}

// GetDuration resolves a time.Duration option. Returns 0 if the value cannot
// be parsed.
func (s *ConfigSchema) GetDuration(c *Config, section, key string) time.Duration {
	d, err := time.ParseDuration(s.Resolve(c, section, key))
	if err != nil {
		return 0
	}
	return d
}

// GetFloat resolves a float option. Returns 0 if the value cannot be parsed.
func (s *ConfigSchema) GetFloat(c *Config, section, key string) float64 {
	f, err := strconv.ParseFloat(s.Resolve(c, section, key), 64)
	if err != nil {
		return 0
	}
	return f
}

// ValidateConfig checks a loaded Config against the schema and returns a list
// of human-readable issues (empty if the config is valid). Validation includes:
//   - Unknown global options (not in schema)
//   - Unknown sections, and unknown options within known sections
//   - Type mismatches and values outside an option's choices
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validate(opt, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Sections {
		if _, ok := s.bySection[section]; !ok {
			issues = append(issues, fmt.Sprintf("unknown section: [%s]", section))
			continue
		}
		for key, value := range opts {
			opt := s.Lookup(section, key)
			if opt == nil {
				issues = append(issues, fmt.Sprintf("unknown option in [%s]: %q (value: %q)", section, key, value))
				continue
			}
			if err := validate(opt, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

func validate(opt *ConfigOption, value string) error {
	if err := validateType(opt.Type, value); err != nil {
		return err
	}
	if len(opt.Choices) != 0 {
		for _, c := range opt.Choices {
			if value == c {
				return nil
			}
		}
		return fmt.Errorf("expected one of %s, got %q", strings.Join(opt.Choices, ", "), value)
	}
	return nil
}

// validateType checks that a string value matches the expected OptionType.
func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	case TypeFloat:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("expected float, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// --- Help text generation ---

// FormatHelp returns a formatted, human-readable reference of all registered
// options in the schema, grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	globals := s.GlobalOptions()
	if len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-25s %s", o.Key, o.Description)
	parts := make([]string, 0, 3)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %s", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// --- Default schema for goap ---

// DefaultSchema returns the canonical schema declaring all known goap
// configuration options. This is the single source of truth for option names,
// types, defaults, descriptions, and environment variable overrides.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll(defaultGlobalOptions())
	s.RegisterAll(defaultSectionOptions())
	return s
}

func defaultGlobalOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "color", Type: TypeString, Default: "auto", Description: "Color mode", EnvVar: "GOAP_COLOR", Choices: []string{"auto", "always", "never"}},

		// Logging options
		{Key: "log.level", Type: TypeString, Default: "info", Description: "Log level", EnvVar: "GOAP_LOG_LEVEL", Choices: []string{"debug", "info", "warn", "error"}},
		{Key: "log.file", Type: TypeString, Default: "", Description: "Log file path; logs go to stderr when unset", EnvVar: "GOAP_LOG_FILE"},
		{Key: "log.format", Type: TypeString, Default: "text", Description: "Log format", EnvVar: "GOAP_LOG_FORMAT", Choices: []string{"text", "json"}},
		{Key: "log.max-size-mb", Type: TypeInt, Default: "10", Description: "Max log file size in MB before rotation"},
		{Key: "log.max-files", Type: TypeInt, Default: "5", Description: "Max number of rotated log backup files"},
	}
}

func defaultSectionOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "assessment-period", Section: SectionPlanner, Type: TypeDuration, Default: "400ms", Description: "How often an idle agent looks for a plan"},
		{Key: "recheck-preconditions", Section: SectionPlanner, Type: TypeBool, Default: "true", Description: "Recheck symbolic preconditions before each action"},
		{Key: "unmet-frontier", Section: SectionPlanner, Type: TypeBool, Default: "false", Description: "Regress only facts the agent does not already hold"},
		{Key: "trace", Section: SectionPlanner, Type: TypeBool, Default: "false", Description: "Record plans as OpenTelemetry spans", EnvVar: "GOAP_TRACE"},
		{Key: "max-replans-per-tick", Section: SectionPlanner, Type: TypeInt, Default: "1", Description: "Replans allowed per update after a cancellation"},

		{Key: "tick", Section: SectionSim, Type: TypeDuration, Default: "50ms", Description: "Simulated time per tick"},
		{Key: "max-ticks", Section: SectionSim, Type: TypeInt, Default: "2000", Description: "Ticks before a run stops; 0 runs until interrupted"},
		{Key: "sensor-range", Section: SectionSim, Type: TypeFloat, Default: "50", Description: "Default agent consideration range"},
		{Key: "agent-speed", Section: SectionSim, Type: TypeFloat, Default: "5", Description: "Default agent speed in units per second"},
		{Key: "interaction-range", Section: SectionSim, Type: TypeFloat, Default: "1.5", Description: "Default range of actions that act on objects"},
	}
}
