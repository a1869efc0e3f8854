// Package resolver decides, without touching any configuration object, which
// value each available capability of a subproject should end up with.
//
// Every capability has an ordered list of strategies. The first strategy
// whose precondition holds supplies the value; strategies are never combined.
// For the module identifier the order is: keep the existing value, the
// sidecar manifest's package, the subproject group label, and finally a name
// synthesized from the organization prefix, which always succeeds. Version
// capabilities resolve to the configured toolchain constant.
//
// Plan turns the resolutions of one subproject into a list of Patches, which
// the patch package applies in a separate step.
package resolver
