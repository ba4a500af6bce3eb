package gwsession

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tobsch/loxberry-velux/internal/codec"
	"github.com/tobsch/loxberry-velux/internal/registry"
)

func nowUTC() time.Time { return time.Now().UTC() }

const (
	readBufferSize     = 4096
	callbackQueueSize  = 128
	callbackShardCount = 4
	requestTimeout     = 5 * time.Second
)

// Logger is the minimal logging surface the session needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Session owns the single authenticated connection to the GW. See
// spec.md §4.C for the full state machine and contract.
type Session struct {
	cfg Config

	connMu sync.Mutex
	conn   net.Conn

	stateMu sync.Mutex
	state   State

	reconnecting   atomic.Bool
	reconnectCount atomic.Int32

	productsMu sync.RWMutex
	products   map[int]productInfo

	pendingMu sync.Mutex
	pending   map[uint16]chan frame
	nextTxID  atomic.Uint32

	nodeLocksMu sync.Mutex
	nodeLocks   map[int]*sync.Mutex

	// callbackShards fans property-change callbacks out by nodeId: all
	// events for a given node always land on the same shard, and each
	// shard has exactly one draining goroutine, so per-node delivery
	// order matches arrival order even though different nodes' callbacks
	// run concurrently (spec.md §5's ordering guarantee).
	callbackShards []chan *registry.Device
	workersStarted sync.Once
	done           *closeOnce
	wg             sync.WaitGroup

	keepaliveStop chan struct{}

	loggerMu sync.RWMutex
	logger   Logger

	callbacksMu          sync.RWMutex
	onConnected          func()
	onDisconnected       func(error)
	onDeviceStateChanged func(*registry.Device)
}

// New creates a Session. Connect must be called before any other operation.
func New(cfg Config) *Session {
	return &Session{
		cfg:       cfg.withDefaults(),
		state:     Disconnected,
		products:  make(map[int]productInfo),
		pending:   make(map[uint16]chan frame),
		nodeLocks: make(map[int]*sync.Mutex),
		done:      newCloseOnce(),
		logger:    noopLogger{},
	}
}

func (s *Session) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.loggerMu.Lock()
	s.logger = l
	s.loggerMu.Unlock()
}

func (s *Session) log() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

// SetOnConnected registers the callback fired after a successful connect
// (initial or reconnect).
func (s *Session) SetOnConnected(fn func()) {
	s.callbacksMu.Lock()
	s.onConnected = fn
	s.callbacksMu.Unlock()
}

// SetOnDisconnected registers the callback fired when the session leaves
// Connected involuntarily (keepalive failure or transport error).
func (s *Session) SetOnDisconnected(fn func(error)) {
	s.callbacksMu.Lock()
	s.onDisconnected = fn
	s.callbacksMu.Unlock()
}

// SetOnDeviceStateChanged registers the per-actuator property-change
// callback named in spec.md §4.C's discoverDevices contract.
func (s *Session) SetOnDeviceStateChanged(fn func(*registry.Device)) {
	s.callbacksMu.Lock()
	s.onDeviceStateChanged = fn
	s.callbacksMu.Unlock()
}

// State returns the session's current state.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// ---- connect ----

// Connect establishes a TLS session, authenticates, and enables the house
// status event subscription. On success the session is Connected and the
// keepalive timer is running. On failure the session enters Reconnecting
// and, unless a reconnect loop is already running, starts one.
func (s *Session) Connect(ctx context.Context) error {
	s.setState(Connecting)

	conn, err := s.dial(ctx)
	if err == nil {
		if err = s.handshake(ctx, conn); err != nil {
			conn.Close()
		}
	}
	if err != nil {
		s.setState(Reconnecting)
		if !s.done.isClosed() && s.reconnecting.CompareAndSwap(false, true) {
			s.wg.Add(1)
			go s.reconnectLoop()
		}
		return err
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.workersStarted.Do(func() {
		s.callbackShards = make([]chan *registry.Device, callbackShardCount)
		for i := range s.callbackShards {
			s.callbackShards[i] = make(chan *registry.Device, callbackQueueSize)
			s.wg.Add(1)
			go s.callbackWorker(s.callbackShards[i])
		}
	})

	s.wg.Add(1)
	go s.receiveLoop()

	s.keepaliveStop = make(chan struct{})
	s.wg.Add(1)
	go s.keepaliveLoop(s.keepaliveStop)

	s.setState(Connected)
	s.reconnectCount.Store(0)

	s.callbacksMu.RLock()
	onConnected := s.onConnected
	s.callbacksMu.RUnlock()
	if onConnected != nil {
		onConnected()
	}
	return nil
}

func (s *Session) dial(ctx context.Context) (net.Conn, error) {
	address := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	tlsConf := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if s.cfg.TLSFingerprint != "" {
		tlsConf.InsecureSkipVerify = true
		tlsConf.VerifyPeerCertificate = s.verifyFingerprint
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    tlsConf,
	}
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("gwsession: dial %s: %w", address, err)
	}
	return conn, nil
}

// verifyFingerprint pins the leaf certificate's SHA-256 digest against the
// configured tlsFingerprint, bypassing normal chain verification the way
// InsecureSkipVerify+VerifyPeerCertificate is meant to be used.
func (s *Session) verifyFingerprint(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return ErrFingerprintMismatch
	}
	sum := sha256.Sum256(rawCerts[0])
	got := hex.EncodeToString(sum[:])
	want := strings.ToLower(strings.ReplaceAll(s.cfg.TLSFingerprint, ":", ""))
	if !strings.EqualFold(got, want) {
		return ErrFingerprintMismatch
	}
	return nil
}

func (s *Session) handshake(ctx context.Context, conn net.Conn) error {
	if err := s.sendOn(conn, frame{cmd: cmdLogin, payload: encodeLogin(s.cfg.Password)}); err != nil {
		return err
	}
	resp, err := s.readOn(ctx, conn)
	if err != nil {
		return err
	}
	if resp.cmd != cmdLoginConfirm {
		return fmt.Errorf("gwsession: unexpected frame %v during login", resp.cmd)
	}
	ok, err := decodeLoginConfirm(resp.payload)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuthFailed
	}

	if err := s.sendOn(conn, frame{cmd: cmdEnableStatusMonitor}); err != nil {
		return err
	}
	return nil
}

// sendOn/readOn are used only during the handshake, before the receive
// loop and pending-response map exist.
func (s *Session) sendOn(conn net.Conn, f frame) error {
	conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	_, err := conn.Write(encodeFrame(f))
	return err
}

func (s *Session) readOn(ctx context.Context, conn net.Conn) (frame, error) {
	deadline := time.Now().Add(defaultReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetReadDeadline(deadline)

	var lenBuf [2]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return frame{}, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	if int(n) > maxFrameSize {
		return frame{}, ErrProtocolDesync
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(conn, body); err != nil {
		return frame{}, err
	}
	return decodeFrame(body)
}

// ---- receive loop ----

func (s *Session) receiveLoop() {
	defer s.wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-s.done.Done():
			return
		default:
		}

		f, err := s.readFrame(buf)
		if err != nil {
			if s.handleReadError(err) {
				return
			}
			continue
		}
		s.dispatch(f)
	}
}

func (s *Session) readFrame(buf []byte) (frame, error) {
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()
	if conn == nil {
		return frame{}, net.ErrClosed
	}

	conn.SetReadDeadline(time.Now().Add(defaultReadTimeout))

	var lenBuf [2]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return frame{}, err
	}
	n := int(binary.BigEndian.Uint16(lenBuf[:]))
	if n > len(buf) {
		if n > maxFrameSize {
			return frame{}, ErrProtocolDesync
		}
		buf = make([]byte, n)
	}
	if _, err := io.ReadFull(conn, buf[:n]); err != nil {
		return frame{}, err
	}
	return decodeFrame(buf[:n])
}

// handleReadError reports whether the receive loop must stop.
func (s *Session) handleReadError(err error) bool {
	if s.done.isClosed() {
		return true
	}
	if errors.Is(err, ErrProtocolDesync) {
		s.log().Error("gw protocol desync, forcing reconnect", "error", err)
		s.handleDisconnect(err)
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}
	s.log().Warn("gw read error", "error", err)
	s.handleDisconnect(err)
	return true
}

func (s *Session) dispatch(f frame) {
	if f.cmd == cmdPropertyChanged {
		s.handlePropertyChanged(f.payload)
		return
	}
	txID, _, err := splitTransaction(f.payload)
	if err != nil {
		s.log().Warn("gw frame missing transaction id", "cmd", f.cmd, "error", err)
		return
	}
	s.pendingMu.Lock()
	ch, ok := s.pending[txID]
	if ok {
		delete(s.pending, txID)
	}
	s.pendingMu.Unlock()
	if !ok {
		s.log().Warn("gw response for unknown transaction", "txId", txID)
		return
	}
	select {
	case ch <- f:
	default:
	}
}

func (s *Session) handlePropertyChanged(payload []byte) {
	pc, err := decodePropertyChanged(payload)
	if err != nil {
		s.log().Warn("malformed property-changed frame", "error", err)
		return
	}

	s.productsMu.Lock()
	p, known := s.products[pc.NodeID]
	if known {
		p.Raw = pc.Raw
		p.TargetRaw = pc.TargetRaw
		p.RunStatus = pc.RunStatus
		p.State = pc.State
		p.StatusReply = pc.StatusReply
		s.products[pc.NodeID] = p
	}
	s.productsMu.Unlock()
	if !known {
		s.log().Warn("property change for unknown node", "nodeId", pc.NodeID)
		return
	}

	d := deviceFromProduct(p)
	shard := s.callbackShards[pc.NodeID%callbackShardCount]
	select {
	case shard <- d:
	default:
		s.log().Warn("callback queue full, dropping property change", "nodeId", pc.NodeID)
	}
}

func (s *Session) callbackWorker(queue chan *registry.Device) {
	defer s.wg.Done()
	for {
		select {
		case <-s.done.Done():
			return
		case d, ok := <-queue:
			if !ok {
				return
			}
			s.callbacksMu.RLock()
			fn := s.onDeviceStateChanged
			s.callbacksMu.RUnlock()
			if fn == nil {
				continue
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.log().Error("device state callback panicked", "panic", r)
					}
				}()
				fn(d)
			}()
		}
	}
}

func deviceFromProduct(p productInfo) *registry.Device {
	var errPtr *string
	if st := codec.StatusText(p.StatusReply); st != nil && st.IsError {
		msg := st.Message
		errPtr = &msg
	}
	return &registry.Device{
		NodeID:         p.NodeID,
		Name:           p.Name,
		Type:           codec.Classify(p.ProductType),
		SerialNumber:   p.SerialNumber,
		ProductType:    p.ProductType,
		Position:       codec.ToPublic(p.Raw),
		TargetPosition: codec.ToPublic(p.TargetRaw),
		Moving:         p.RunStatus != 0,
		Online:         p.State == 1,
		Error:          errPtr,
		LimitationMin:  p.LimitationMin,
		LimitationMax:  p.LimitationMax,
		LastUpdate:     nowUTC(),
	}
}
