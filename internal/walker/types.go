package walker

import (
	"fmt"

	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/resolver"
)

// State is a step of the per-subproject state machine.
type State int

const (
	Pending State = iota
	Probed
	Resolved
	Patched
	Done
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Probed:
		return "probed"
	case Resolved:
		return "resolved"
	case Patched:
		return "patched"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result is what happened to one subproject.
type Result struct {
	Subproject string
	// Platform is true when the subproject carries the configuration handle.
	Platform bool
	// Model names the plugin object model the handle was bound with.
	Model string
	// Trace lists the states visited, ending in Done.
	Trace    []State
	Planned  []resolver.Patch
	Outcomes []capability.Outcome
	// Err is set when no object model could be bound.
	Err error
}

// State returns the last state reached.
func (r Result) State() State {
	if len(r.Trace) == 0 {
		return Pending
	}
	return r.Trace[len(r.Trace)-1]
}

// Changed reports whether any capability was written.
func (r Result) Changed() bool {
	for _, o := range r.Outcomes {
		if o.Changed() {
			return true
		}
	}
	return false
}

// Outcome returns the outcome recorded for n.
func (r Result) Outcome(n capability.Name) (capability.Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Capability == n {
			return o, true
		}
	}
	return capability.Outcome{}, false
}

// Report collects the results of one walk in visiting order.
type Report struct {
	DryRun  bool
	Results []Result
}

// Result finds the result of a subproject by name.
func (r *Report) Result(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Subproject == name {
			return res, true
		}
	}
	return Result{}, false
}

// Count returns how many outcomes across all subprojects have status s.
func (r *Report) Count(s capability.Status) int {
	n := 0
	for _, res := range r.Results {
		for _, o := range res.Outcomes {
			if o.Status == s {
				n++
			}
		}
	}
	return n
}

// Recorder observes finished subprojects.
type Recorder interface {
	Record(res Result)
}
