package gwsession

import "errors"

// ErrNotConnected is returned by any command issued while the session is
// not in the Connected state.
var ErrNotConnected = errors.New("gwsession: not connected")

// ErrUnknownNode is returned when a command names a nodeId the session has
// no record of from the last discovery.
var ErrUnknownNode = errors.New("gwsession: unknown node")

// ErrDeviceError is returned when the GW accepts a command but the
// actuator itself reports an error status in response.
var ErrDeviceError = errors.New("gwsession: device reported an error")

// ErrAuthFailed is returned when login is rejected by the GW.
var ErrAuthFailed = errors.New("gwsession: authentication failed")

// ErrProtocolDesync is returned by the frame reader when a declared frame
// length exceeds maxFrameSize. It is always fatal to the
// connection: the stream position can no longer be trusted.
var ErrProtocolDesync = errors.New("gwsession: protocol desync")

// ErrFingerprintMismatch is returned when a configured tlsFingerprint does
// not match the certificate presented by the GW.
var ErrFingerprintMismatch = errors.New("gwsession: certificate fingerprint mismatch")

// ErrClosed is returned to a command still waiting for its response when
// Close is called. Commands issued after Close get ErrNotConnected.
var ErrClosed = errors.New("gwsession: session closed")
