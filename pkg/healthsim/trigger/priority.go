package trigger

import (
	"fmt"
	"strings"
)

// Priority is a tie-break hint carried on triggers and their records.
// Lower values are more urgent. It never changes firing order or dates.
type Priority int

const (
	PriorityImmediate Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

var priorityNames = [...]string{"immediate", "high", "normal", "low"}

func (p Priority) String() string {
	if p < PriorityImmediate || p > PriorityLow {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

// ParsePriority converts a name like "high" to a Priority.
// The empty string parses as PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityNormal, nil
	}
	for i, name := range priorityNames {
		if name == s {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) MarshalText() ([]byte, error) {
	if p < PriorityImmediate || p > PriorityLow {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	v, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
