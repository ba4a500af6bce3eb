// Package gwsession owns the single authenticated session to the household
// gateway: TLS connect with optional certificate pinning, login, event
// subscription, keepalive, exponential-backoff reconnect, and per-node
// command serialization.
//
// No published client library exists for this protocol, so the package
// speaks the wire contract directly — a length-prefixed binary frame over
// crypto/tls, dispatched by a dedicated receive loop and a bounded pool of
// callback workers.
package gwsession
