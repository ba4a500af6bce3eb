package codec

import "fmt"

// Status is a decoded GW status code: whether it represents an error
// condition and the human-readable text to report alongside it.
type Status struct {
	IsError bool
	Message string
}

// statusTable holds the known, documented status codes other than the two
// codes spec.md §4.A special-cases (0x00 "unknown", 0x01 "ok").
var statusTable = map[int]Status{
	0x02: {IsError: false, Message: "manual operation detected"},
	0x03: {IsError: true, Message: "actuator blocked by rain sensor"},
	0x04: {IsError: true, Message: "actuator blocked by wind sensor"},
	0x05: {IsError: false, Message: "click/impulse actuation"},
	0x06: {IsError: true, Message: "target reached but position uncertain"},
	0x07: {IsError: true, Message: "actuator reports failure"},
	0x08: {IsError: true, Message: "obstacle detected, motion reversed"},
	0x09: {IsError: true, Message: "thermal protection triggered"},
	0x0A: {IsError: true, Message: "timeout waiting for actuator response"},
	0x0B: {IsError: true, Message: "actuator power supply fault"},
	0x0C: {IsError: true, Message: "lock jammed"},
	0x0D: {IsError: false, Message: "user limitation active"},
	0x0E: {IsError: false, Message: "configuration change pending"},
}

// StatusText decodes a GW status code.
//
// Codes 0x00 (unknown) and 0x01 (OK) carry no information worth surfacing
// and return nil, per spec.md §4.A. Other known codes return their recorded
// text and error flag. Codes absent from both the special cases and the
// table return a generic, non-error message — never an error from this
// function itself.
func StatusText(code int) *Status {
	switch code {
	case 0x00, 0x01:
		return nil
	}
	if s, ok := statusTable[code]; ok {
		cpy := s
		return &cpy
	}
	return &Status{IsError: false, Message: fmt.Sprintf("Unknown status(%d)", code)}
}
