package main

import (
	"fmt"
	"strings"

	"github.com/itohio/gotec/pkg/config"
)

// scheduleOverride builds the single-step schedule requested on the command line.
func scheduleOverride(mode string, duty, cycles int) ([]config.Step, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != "heat" && mode != "cool" {
		return nil, fmt.Errorf("invalid -mode %q (allowed: heat, cool)", mode)
	}
	if duty < 0 || duty > 255 {
		return nil, fmt.Errorf("-duty must be in 0..255, got %d", duty)
	}
	if cycles < 0 {
		return nil, fmt.Errorf("-cycles must not be negative, got %d", cycles)
	}
	return []config.Step{{Mode: mode, Duty: uint8(duty), Cycles: cycles}}, nil
}
