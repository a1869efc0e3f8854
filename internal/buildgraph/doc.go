// Package buildgraph defines the format-agnostic model of a root build graph:
// its ordered, uniquely named subprojects, the optional extension objects a
// subproject registers (the configuration handles a platform plugin attaches),
// and the toolchain constants supplied at build time.
//
// Concrete loaders (HCL today) translate their source format into this model.
// The reconciliation engine only reads it, apart from the attribute writes it
// performs through extension blocks, which are tracked so that a writer can
// persist exactly what changed.
package buildgraph
