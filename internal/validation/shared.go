package validation

import (
	"sort"
	"strings"
)

// Error maps JSON field names to what was wrong with them, covering every
// failing field of a request in one round trip.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
