package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelDriver       // command boundaries only
	LevelStage        // driver + stage boundaries
	LevelModule       // everything, including per-module spans
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelDriver:
		return "driver"
	case LevelStage:
		return "stage"
	case LevelModule:
		return "module"
	default:
		return "unknown"
	}
}

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff, nil
	case "driver":
		return LevelDriver, nil
	case "stage":
		return LevelStage, nil
	case "module", "debug":
		return LevelModule, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|driver|stage|module)", s)
	}
}

// ShouldEmit reports whether events of scope pass at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if l == LevelOff {
		return false
	}
	return uint8(scope) <= uint8(l)
}
