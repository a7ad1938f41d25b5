package model

import (
	"fmt"
	"strings"
)

// Severity is the ordered risk level of an annotation: Safe < Warning < Danger.
type Severity int

const (
	SeveritySafe Severity = iota
	SeverityWarning
	SeverityDanger
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeveritySafe:
		return "safe"
	case SeverityWarning:
		return "warning"
	case SeverityDanger:
		return "danger"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText encodes the severity as its name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses a case-insensitive severity name.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "safe":
		return SeveritySafe, nil
	case "warning":
		return SeverityWarning, nil
	case "danger":
		return SeverityDanger, nil
	default:
		return SeveritySafe, fmt.Errorf("unknown severity %q, expected safe, warning or danger", name)
	}
}

// RiskAnnotation is one finding of a risk rule.
type RiskAnnotation struct {
	Severity Severity `json:"level"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Path     string   `json:"path"` // Empty for record-level findings
}

// MaxSeverity returns the highest severity among annotations, or SeveritySafe.
func MaxSeverity(annotations []RiskAnnotation) Severity {
	highest := SeveritySafe
	for _, a := range annotations {
		if a.Severity > highest {
			highest = a.Severity
		}
	}
	return highest
}
