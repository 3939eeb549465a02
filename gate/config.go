package gate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tipee-sa/canary"
)

// Config decides what a Canary writes and where.
type Config struct {
	// Output is written at this level. Off mutes the canary entirely: the
	// console stays silent too, even with WriteToStandardOutput set.
	Level Level `yaml:"level"`

	// Write to the application logs, when they admit Level.
	WriteToApplicationLogs bool `yaml:"writeToApplicationLogs"`

	// Write to the console.
	WriteToStandardOutput bool `yaml:"writeToStandardOutput"`

	// Longest line written, in characters, before the trailing ellipsis.
	MaxLength int `yaml:"maximumRepresentationCharacters"`
}

func DefaultConfig() Config {
	return Config{
		Level:                  LevelTrace,
		WriteToApplicationLogs: true,
		WriteToStandardOutput:  true,
		MaxLength:              canary.DefaultMaxLength,
	}
}

// MutedConfig is used when no configuration file exists.
func MutedConfig() Config {
	return Config{
		Level:     LevelOff,
		MaxLength: canary.DefaultMaxLength,
	}
}

// rawConfig keeps every entry as text so that invalid entries can fall back
// to their default instead of failing the whole file.
type rawConfig struct {
	Level                  *string `yaml:"level"`
	WriteToApplicationLogs *string `yaml:"writeToApplicationLogs"`
	WriteToStandardOutput  *string `yaml:"writeToStandardOutput"`
	MaxLength              *string `yaml:"maximumRepresentationCharacters"`
}

// LoadConfig reads a YAML configuration file. A missing file yields
// MutedConfig. Entries that are missing or invalid fall back to their
// default and are reported in the returned warnings.
func LoadConfig(path string) (Config, []string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return MutedConfig(), nil, nil
	}
	if err != nil {
		return Config{}, nil, fmt.Errorf("error reading canary config: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, []string, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, nil, fmt.Errorf("error parsing canary config: %w", err)
	}

	cfg := DefaultConfig()
	var warnings []string

	if raw.Level == nil {
		warnings = append(warnings, "level must be one of ["+levelList()+"] - defaulted to trace")
	} else if level, err := ParseLevel(*raw.Level); err != nil {
		warnings = append(warnings, "level must be one of ["+levelList()+"] - defaulted to trace")
	} else {
		cfg.Level = level
	}

	var ok bool
	if cfg.WriteToApplicationLogs, ok = parseBool(raw.WriteToApplicationLogs, true); !ok {
		warnings = append(warnings, "writeToApplicationLogs must be one of [true, false] - defaulted to true")
	}
	if cfg.WriteToStandardOutput, ok = parseBool(raw.WriteToStandardOutput, true); !ok {
		warnings = append(warnings, "writeToStandardOutput must be one of [true, false] - defaulted to true")
	}

	if raw.MaxLength != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(*raw.MaxLength)); err == nil && n > 0 {
			cfg.MaxLength = n
		} else {
			raw.MaxLength = nil
		}
	}
	if raw.MaxLength == nil {
		warnings = append(warnings, fmt.Sprintf("maximumRepresentationCharacters must be a positive integer such as 100 or 1000 - defaulted to %d", canary.DefaultMaxLength))
	}

	return cfg, warnings, nil
}

func parseBool(text *string, def bool) (bool, bool) {
	if text == nil {
		return def, false
	}
	switch strings.ToLower(strings.TrimSpace(*text)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return def, false
}

func levelList() string {
	return strings.Join(levelNames[:], ", ")
}
