package scanner

import (
	"fmt"
	"strings"
)

// Sensitivity is a named preset for the similarity distance threshold
type Sensitivity string

const (
	SensitivityStrict Sensitivity = "strict"
	SensitivityMedium Sensitivity = "medium"
	SensitivityLoose  Sensitivity = "loose"
)

// Threshold returns the distance threshold for the preset
func (s Sensitivity) Threshold() float64 {
	switch s {
	case SensitivityStrict:
		return 0.3
	case SensitivityLoose:
		return 1.0
	default:
		return 0.5
	}
}

// ParseSensitivity maps a preset name to a Sensitivity. Empty means medium.
func ParseSensitivity(name string) (Sensitivity, error) {
	switch Sensitivity(strings.ToLower(strings.TrimSpace(name))) {
	case "", SensitivityMedium:
		return SensitivityMedium, nil
	case SensitivityStrict:
		return SensitivityStrict, nil
	case SensitivityLoose:
		return SensitivityLoose, nil
	default:
		return "", fmt.Errorf("unknown sensitivity %q (want strict, medium or loose)", name)
	}
}
