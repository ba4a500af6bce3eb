// Package registry holds the in-memory authoritative snapshot of devices and
// scenes the bridge knows about. It detects semantically meaningful changes,
// emits change events for them, and persists the whole snapshot to disk on a
// debounced timer using an atomic write-temp-then-rename sequence.
//
// The registry is the single owner of its maps; callers never receive a
// pointer into registry-owned state, only copies.
package registry
