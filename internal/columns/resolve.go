package columns

import "strings"

// timeKeys are tried in order; the first key present wins.
var timeKeys = []string{"time", "t"}

// Status tags the outcome of heuristic resolution.
type Status int

const (
	Resolved Status = iota
	NeedsManualInput
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case NeedsManualInput:
		return "needs_manual_input"
	default:
		return "unknown"
	}
}

// Resolution is the tagged result of ResolveTagged.
type Resolution struct {
	Status     Status
	Assignment Assignment
	Fields     []string
}

// Resolve infers role assignments from header names. needsManualInput is
// true when time is unresolved or no thrust column was found.
//
// Time matches exactly (trimmed, case-insensitive) against "time" then "t".
// When neither key matches a whole header, the same keys are tried against
// headers with a trailing unit suffix removed, so "Time (s)" resolves.
func Resolve(fields []string) (Assignment, bool) {
	var a Assignment

	a.Time = matchTime(fields)

	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), "thrust") {
			a.Thrust = append(a.Thrust, f)
		}
	}

	a.ChamberPressure = firstContaining(fields, func(l string) bool {
		return strings.Contains(l, "chamber") && strings.Contains(l, "press")
	})
	a.FuelWeight = firstContaining(fields, func(l string) bool {
		return strings.Contains(l, "fuel") && strings.Contains(l, "weight")
	})
	a.OxidizerWeight = firstContaining(fields, func(l string) bool {
		return (strings.Contains(l, "ox") || strings.Contains(l, "oxidizer")) && strings.Contains(l, "weight")
	})

	return a, !a.Complete()
}

// ResolveTagged wraps Resolve in a Resolution.
func ResolveTagged(fields []string) Resolution {
	a, needs := Resolve(fields)
	status := Resolved
	if needs {
		status = NeedsManualInput
	}
	return Resolution{
		Status:     status,
		Assignment: a,
		Fields:     append([]string(nil), fields...),
	}
}

// Manual validates an operator-supplied assignment against fields and
// returns it unchanged. The heuristic is never consulted.
func Manual(fields []string, a Assignment) (Assignment, error) {
	if !a.Complete() {
		return Assignment{}, ErrIncomplete
	}
	if err := a.Validate(fields); err != nil {
		return Assignment{}, err
	}
	return a.Clone(), nil
}

func matchTime(fields []string) string {
	exact := make(map[string]string, len(fields))
	stripped := make(map[string]string, len(fields))
	for _, f := range fields {
		l := strings.ToLower(strings.TrimSpace(f))
		if _, ok := exact[l]; !ok {
			exact[l] = f
		}
		base, _ := SplitUnit(f)
		base = strings.ToLower(base)
		if _, ok := stripped[base]; !ok {
			stripped[base] = f
		}
	}

	for _, key := range timeKeys {
		if f, ok := exact[key]; ok {
			return f
		}
	}
	for _, key := range timeKeys {
		if f, ok := stripped[key]; ok {
			return f
		}
	}
	return ""
}

func firstContaining(fields []string, match func(lower string) bool) string {
	for _, f := range fields {
		if match(strings.ToLower(f)) {
			return f
		}
	}
	return ""
}
