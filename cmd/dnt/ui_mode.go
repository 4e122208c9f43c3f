package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// triState is the value of an auto|on|off flag such as --ui or --color.
type triState uint8

const (
	stateAuto triState = iota
	stateOn
	stateOff
)

func parseTriState(flag, value string) (triState, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return stateAuto, nil
	case "on":
		return stateOn, nil
	case "off":
		return stateOff, nil
	default:
		return stateAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// enabled decides auto against whether stdout is a terminal.
func (s triState) enabled(tty bool) bool {
	switch s {
	case stateOn:
		return true
	case stateOff:
		return false
	default:
		return tty
	}
}

// applyColorMode sets the global color switch from --color.
func applyColorMode(value string) error {
	state, err := parseTriState("color", value)
	if err != nil {
		return err
	}
	color.NoColor = !state.enabled(isTerminal(os.Stdout))
	return nil
}
