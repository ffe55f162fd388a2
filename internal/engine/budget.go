package engine

import (
	"strconv"
	"strings"
)

// ParseBudget extracts an optional leading "$N " price tag from a task
// description. The parsed budget is clamped to [min, max]; when no tag is
// present (or it does not parse) the default applies. The returned
// description has the tag stripped.
func ParseBudget(description string, def, min, max float64) (float64, string) {
	trimmed := strings.TrimSpace(description)
	if !strings.HasPrefix(trimmed, "$") {
		return clamp(def, min, max), trimmed
	}

	rest := trimmed[1:]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if end == 0 {
		// "$" followed by non-numeric text is part of the description.
		return clamp(def, min, max), trimmed
	}
	numeric := rest
	if end > 0 {
		numeric = rest[:end]
	}

	budget, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return clamp(def, min, max), trimmed
	}
	return clamp(budget, min, max), strings.TrimSpace(rest[len(numeric):])
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
