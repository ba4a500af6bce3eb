package gwsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tobsch/loxberry-velux/internal/codec"
	"github.com/tobsch/loxberry-velux/internal/registry"
)

// nodeLock returns the per-nodeId mutex, creating it if necessary, so
// commands for the same actuator serialize while unrelated actuators never
// block on each other (spec.md §4.C concurrency).
func (s *Session) nodeLock(nodeID int) *sync.Mutex {
	s.nodeLocksMu.Lock()
	defer s.nodeLocksMu.Unlock()
	l, ok := s.nodeLocks[nodeID]
	if !ok {
		l = &sync.Mutex{}
		s.nodeLocks[nodeID] = l
	}
	return l
}

// request sends cmd with payload and waits for the correlated response, or returns
// ErrNotConnected if the session is not in the Connected state.
func (s *Session) request(ctx context.Context, cmd commandID, payload []byte) (frame, error) {
	if s.State() != Connected {
		return frame{}, ErrNotConnected
	}

	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()
	if conn == nil {
		return frame{}, ErrNotConnected
	}

	txID := uint16(s.nextTxID.Add(1))
	ch := make(chan frame, 1)
	s.pendingMu.Lock()
	s.pending[txID] = ch
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, txID)
		s.pendingMu.Unlock()
	}()

	out := encodeFrame(frame{cmd: cmd, payload: transactionPayload(txID, payload)})
	conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	if _, err := conn.Write(out); err != nil {
		return frame{}, fmt.Errorf("gwsession: write: %w", err)
	}

	timeout := requestTimeout
	if d, ok := ctx.Deadline(); ok {
		if remain := time.Until(d); remain < timeout {
			timeout = remain
		}
	}
	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return frame{}, ctx.Err()
	case <-s.done.Done():
		return frame{}, ErrClosed
	case <-time.After(timeout):
		return frame{}, fmt.Errorf("gwsession: command %v timed out", cmd)
	}
}

// DiscoverDevices requests the full actuator list, translates each entry
// through the codec, and caches it for later property-change callbacks.
// Only permitted while Connected.
func (s *Session) DiscoverDevices(ctx context.Context) ([]*registry.Device, error) {
	resp, err := s.request(ctx, cmdListProducts, nil)
	if err != nil {
		return nil, err
	}
	_, body, err := splitTransaction(resp.payload)
	if err != nil {
		return nil, err
	}
	products, err := decodeListProductsConfirm(body)
	if err != nil {
		return nil, err
	}

	s.productsMu.Lock()
	s.products = make(map[int]productInfo, len(products))
	for _, p := range products {
		s.products[p.NodeID] = p
	}
	s.productsMu.Unlock()

	out := make([]*registry.Device, 0, len(products))
	for _, p := range products {
		out = append(out, deviceFromProduct(p))
	}
	return out, nil
}

// DiscoverScenes requests the full scene list.
func (s *Session) DiscoverScenes(ctx context.Context) ([]*registry.Scene, error) {
	resp, err := s.request(ctx, cmdListScenes, nil)
	if err != nil {
		return nil, err
	}
	_, body, err := splitTransaction(resp.payload)
	if err != nil {
		return nil, err
	}
	scenes, err := decodeListScenesConfirm(body)
	if err != nil {
		return nil, err
	}

	out := make([]*registry.Scene, 0, len(scenes))
	for _, sc := range scenes {
		out = append(out, &registry.Scene{
			SceneID:      sc.SceneID,
			Name:         sc.Name,
			ProductCount: sc.ProductCount,
		})
	}
	return out, nil
}

// SetPosition clamps pct to [0,100], translates it via the codec, and
// issues the set-target-position command for nodeID.
func (s *Session) SetPosition(ctx context.Context, nodeID, pct int) error {
	if !s.knownNode(nodeID) {
		return ErrUnknownNode
	}
	lock := s.nodeLock(nodeID)
	lock.Lock()
	defer lock.Unlock()

	pct = codec.ClampPercent(pct)
	raw := codec.ToRaw(pct)
	resp, err := s.request(ctx, cmdSetTargetPosition, encodeSetTargetPosition(nodeID, raw))
	if err != nil {
		return err
	}
	return s.checkCommandConfirm(resp)
}

// Stop issues the stop command for nodeID.
func (s *Session) Stop(ctx context.Context, nodeID int) error {
	if !s.knownNode(nodeID) {
		return ErrUnknownNode
	}
	lock := s.nodeLock(nodeID)
	lock.Lock()
	defer lock.Unlock()

	resp, err := s.request(ctx, cmdStop, encodeStop(nodeID))
	if err != nil {
		return err
	}
	return s.checkCommandConfirm(resp)
}

// RunScene triggers execution of sceneID.
func (s *Session) RunScene(ctx context.Context, sceneID int) error {
	resp, err := s.request(ctx, cmdRunScene, encodeRunScene(sceneID))
	if err != nil {
		return err
	}
	return s.checkCommandConfirm(resp)
}

// Refresh re-runs discovery for both devices and scenes.
func (s *Session) Refresh(ctx context.Context) ([]*registry.Device, []*registry.Scene, error) {
	devices, err := s.DiscoverDevices(ctx)
	if err != nil {
		return nil, nil, err
	}
	scenes, err := s.DiscoverScenes(ctx)
	if err != nil {
		return devices, nil, err
	}
	return devices, scenes, nil
}

func (s *Session) knownNode(nodeID int) bool {
	s.productsMu.RLock()
	defer s.productsMu.RUnlock()
	_, ok := s.products[nodeID]
	return ok
}

func (s *Session) checkCommandConfirm(resp frame) error {
	if resp.cmd != cmdCommandConfirm {
		return fmt.Errorf("gwsession: unexpected response frame %v", resp.cmd)
	}
	_, body, err := splitTransaction(resp.payload)
	if err != nil {
		return err
	}
	if len(body) < 1 {
		return fmt.Errorf("gwsession: empty command confirm")
	}
	if body[0] != 1 {
		return ErrDeviceError
	}
	return nil
}
