// Package daemon orchestrates the bridge runtime: it wires the registry,
// the GW session, and the BUS client together, runs the startup and
// shutdown sequences from spec.md §4.E, translates BUS commands into GW
// calls, and drives the periodic poll loop.
package daemon
