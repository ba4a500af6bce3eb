package gwsession

import "sync"

// closeOnce wraps a channel that is closed exactly once, regardless of how
// many goroutines call Close concurrently. Grounded on the teacher's
// knxd.go shutdown-signal pattern.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

func (c *closeOnce) isClosed() bool {
	select {
	case <-c.ch:
		return true
	default:
		return false
	}
}
