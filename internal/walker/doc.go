// Package walker runs the one-shot reconciliation pass over a build graph.
//
// Every subproject is visited exactly once, in declaration order, and moves
// through Pending → Probed → Resolved → Patched → Done. A subproject without
// the configured extension stops at Probed and goes straight to Done. No
// failure while probing, resolving or patching leaves the walk: the affected
// capability is recorded with its Outcome and the walk moves on.
package walker
