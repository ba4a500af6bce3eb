// Package codec holds the pure, stateless functions that translate between
// the gateway's wire-level representations and the public values the rest of
// the bridge works with: raw [0,1] actuator positions, numeric actuator-type
// and status codes.
//
// Nothing in this package touches the network, the registry, or the bus —
// it exists so the conversion rules can be tested in isolation and reused by
// every component that needs them.
package codec
