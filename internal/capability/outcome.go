package capability

import "fmt"

// Status is the terminal result of one capability on one subproject.
type Status int

const (
	// Skipped means no value was resolved, so nothing was attempted.
	Skipped Status = iota
	// Unavailable means the object model does not expose the capability.
	Unavailable
	// Unchanged means the resolved value was already in place.
	Unchanged
	// Applied means the value was written.
	Applied
	// Failed means the accessor rejected the write.
	Failed
)

func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Unavailable:
		return "unavailable"
	case Unchanged:
		return "unchanged"
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome records what happened to one capability.
type Outcome struct {
	Capability Name
	Status     Status
	// Value is the resolved value in display form, empty when none.
	Value    string
	Strategy string
	Err      error
}

// Changed reports whether the outcome mutated the configuration object.
func (o Outcome) Changed() bool {
	return o.Status == Applied
}
