package gate

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Level is the severity canary output is written at. Levels are ordered from
// the least to the most severe.
type Level int8

const (
	LevelAll Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelOff
)

var ErrUnknownLevel = errors.New("unknown level")

var levelNames = [...]string{
	LevelAll:   "all",
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
	LevelOff:   "off",
}

// Levels returns every level, least severe first.
func Levels() []Level {
	levels := make([]Level, 0, len(levelNames))
	for l := LevelAll; l <= LevelOff; l++ {
		levels = append(levels, l)
	}
	return levels
}

func ParseLevel(text string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(text))
	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}
	return LevelTrace, fmt.Errorf("%w %q: must be one of [%s]", ErrUnknownLevel, text, strings.Join(levelNames[:], ", "))
}

func (l Level) String() string {
	if l < LevelAll || l > LevelOff {
		return fmt.Sprintf("Level(%d)", int8(l))
	}
	return levelNames[l]
}

// ZapLevel maps l onto zap. zap has no trace level, and fatal is logged as
// an error so that canary output never exits the process.
func (l Level) ZapLevel() zapcore.Level {
	switch l {
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError, LevelFatal:
		return zapcore.ErrorLevel
	default:
		return zapcore.DebugLevel
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l *Level) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: level must be a scalar", value.Line)
	}
	return l.UnmarshalText([]byte(value.Value))
}
