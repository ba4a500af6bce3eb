package bus

import "errors"

// ErrNotConnected is returned by Publish calls made while the client has
// not completed a broker connection.
var ErrNotConnected = errors.New("bus: not connected")

// ErrPublishFailed wraps a broker-reported publish failure.
var ErrPublishFailed = errors.New("bus: publish failed")

// ErrSubscribeFailed wraps a broker-reported subscribe failure.
var ErrSubscribeFailed = errors.New("bus: subscribe failed")

// ErrInvalidTopic is returned for an empty or malformed topic string.
var ErrInvalidTopic = errors.New("bus: invalid topic")
