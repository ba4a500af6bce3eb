package gwsession

import (
	"context"
	"math"
	"time"
)

// backoffDelay implements spec.md §4.C's reconnect policy exactly:
// delay = min(base * 2^(n-1), max), n is the 1-based attempt counter.
func backoffDelay(base, max time.Duration, n int) time.Duration {
	if n < 1 {
		n = 1
	}
	multiplier := math.Pow(2, float64(n-1))
	d := time.Duration(float64(base) * multiplier)
	if d > max || d <= 0 {
		return max
	}
	return d
}

func (s *Session) keepaliveLoop(stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.KeepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			_, err := s.request(ctx, cmdGetState, nil)
			cancel()
			if err != nil {
				s.log().Warn("keepalive probe failed", "error", err)
				s.handleDisconnect(err)
				return
			}
		}
	}
}

// handleDisconnect moves the session into Reconnecting exactly once per
// failure episode and starts the background backoff loop. Concurrent
// callers (the receive loop and the keepalive loop can both observe the
// same failure) are deduplicated by the reconnecting flag.
func (s *Session) handleDisconnect(err error) {
	if s.done.isClosed() {
		return
	}
	if !s.reconnecting.CompareAndSwap(false, true) {
		return
	}

	s.setState(Reconnecting)
	s.closeCurrentConnection()
	s.stopKeepalive()

	s.callbacksMu.RLock()
	onDisconnected := s.onDisconnected
	s.callbacksMu.RUnlock()
	if onDisconnected != nil {
		onDisconnected(err)
	}

	s.wg.Add(1)
	go s.reconnectLoop()
}

func (s *Session) reconnectLoop() {
	defer s.wg.Done()
	n := 0
	for {
		select {
		case <-s.done.Done():
			s.reconnecting.Store(false)
			return
		default:
		}

		n++
		s.reconnectCount.Store(int32(n))
		delay := backoffDelay(s.cfg.ReconnectBase, s.cfg.ReconnectMax, n)

		select {
		case <-s.done.Done():
			s.reconnecting.Store(false)
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ConnectTimeout)
		err := s.Connect(ctx)
		cancel()
		if err == nil {
			s.reconnecting.Store(false)
			return
		}
		s.log().Warn("gw reconnect attempt failed", "attempt", n, "delay", delay, "error", err)
	}
}

// Reconnect closes the current session and re-enters Connecting
// immediately, bypassing the backoff schedule (spec.md §4.C). If this
// first attempt also fails, the normal backoff loop takes over from here.
func (s *Session) Reconnect(ctx context.Context) error {
	s.closeCurrentConnection()
	s.stopKeepalive()
	s.setState(Connecting)

	err := s.Connect(ctx)
	if err != nil {
		if s.reconnecting.CompareAndSwap(false, true) {
			s.wg.Add(1)
			go s.reconnectLoop()
		}
	}
	return err
}

func (s *Session) closeCurrentConnection() {
	s.connMu.Lock()
	c := s.conn
	s.conn = nil
	s.connMu.Unlock()
	if c != nil {
		c.Close()
	}
}

func (s *Session) stopKeepalive() {
	if s.keepaliveStop != nil {
		select {
		case <-s.keepaliveStop:
		default:
			close(s.keepaliveStop)
		}
	}
}

// Close transitions to Closed, cancels all timers and background loops,
// logs out best-effort, and never returns an error.
func (s *Session) Close() error {
	s.done.Close()
	s.stopKeepalive()

	s.connMu.Lock()
	c := s.conn
	s.connMu.Unlock()
	if c != nil {
		s.sendOn(c, frame{cmd: cmdLogout})
		c.Close()
	}

	s.setState(Closed)
	s.wg.Wait()
	return nil
}
