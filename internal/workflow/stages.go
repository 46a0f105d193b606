package workflow

import "fmt"

// RejectionError is a business-rule rejection. The server maps it to a 400
// with the reason string; callers fix their request and retry.
type RejectionError struct {
	Reason string
}

func (e RejectionError) Error() string { return e.Reason }

func reject(format string, args ...any) error {
	return RejectionError{Reason: fmt.Sprintf(format, args...)}
}

// Legal forward transitions per entity. Anything absent is rejected, which
// also blocks stage regression.
var (
	leadTransitions = map[string][]string{
		"new":       {"contacted"},
		"contacted": {"qualified"},
		"qualified": {"converted"},
	}
	requestTransitions = map[string][]string{
		"draft": {"submitted"},
	}
	commitTransitions = map[string][]string{
		"pending_approval": {"approved"},
	}
	contractTransitions = map[string][]string{
		"draft": {"signed"},
	}
)

func ensureTransition(table map[string][]string, entity, from, to string) error {
	for _, next := range table[from] {
		if next == to {
			return nil
		}
	}
	return reject("invalid %s transition %s -> %s", entity, from, to)
}
