// Package capability describes the settings a platform plugin's configuration
// object may expose, and how to discover at runtime which of them a given
// object actually exposes.
//
// Different plugin versions present different object shapes. Instead of
// scattering lookups and recovery throughout the reconciliation logic, every
// setting is reached through a narrow Accessor obtained from a Handle; a
// Handle answers Lookup with ErrUnsupported for settings its object model
// does not have. Probe turns that into the set of available capabilities.
//
// Nothing in this package is fatal: every attempt ends in an Outcome.
package capability
