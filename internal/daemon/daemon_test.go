package daemon

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tobsch/loxberry-velux/internal/bus"
	"github.com/tobsch/loxberry-velux/internal/gwsession"
	"github.com/tobsch/loxberry-velux/internal/registry"
)

type fakeGW struct {
	state            gwsession.State
	devices          []*registry.Device
	scenes           []*registry.Scene
	connectErr       error
	onConnected      func()
	onDisconnected   func(error)
	onDeviceChanged  func(*registry.Device)
	setPositionCalls []int
	stopCalls        []int
	runSceneCalls    []int
	reconnectCalls   int
}

func newFakeGW() *fakeGW {
	return &fakeGW{state: gwsession.Disconnected}
}

func (f *fakeGW) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.state = gwsession.Connected
	if f.onConnected != nil {
		f.onConnected()
	}
	return nil
}
func (f *fakeGW) DiscoverDevices(ctx context.Context) ([]*registry.Device, error) { return f.devices, nil }
func (f *fakeGW) DiscoverScenes(ctx context.Context) ([]*registry.Scene, error)    { return f.scenes, nil }
func (f *fakeGW) SetPosition(ctx context.Context, nodeID, pct int) error {
	f.setPositionCalls = append(f.setPositionCalls, pct)
	return nil
}
func (f *fakeGW) Stop(ctx context.Context, nodeID int) error {
	f.stopCalls = append(f.stopCalls, nodeID)
	return nil
}
func (f *fakeGW) RunScene(ctx context.Context, sceneID int) error {
	f.runSceneCalls = append(f.runSceneCalls, sceneID)
	return nil
}
func (f *fakeGW) Refresh(ctx context.Context) ([]*registry.Device, []*registry.Scene, error) {
	return f.devices, f.scenes, nil
}
func (f *fakeGW) Reconnect(ctx context.Context) error {
	f.reconnectCalls++
	return nil
}
func (f *fakeGW) Close() error {
	f.state = gwsession.Closed
	return nil
}
func (f *fakeGW) State() gwsession.State                            { return f.state }
func (f *fakeGW) SetOnConnected(fn func())                          { f.onConnected = fn }
func (f *fakeGW) SetOnDisconnected(fn func(error))                  { f.onDisconnected = fn }
func (f *fakeGW) SetOnDeviceStateChanged(fn func(*registry.Device)) { f.onDeviceChanged = fn }
func (f *fakeGW) SetLogger(gwsession.Logger)                        {}

type fakeBUS struct {
	connected      bool
	onEvent        func(bus.Event)
	statusHistory  []string
	publishedDev   []*registry.Device
	publishedScene []*registry.Scene
	errorRecords   []bus.ErrorRecord
}

func newFakeBUS() *fakeBUS { return &fakeBUS{} }

func (b *fakeBUS) Connect() error {
	b.connected = true
	return nil
}
func (b *fakeBUS) Close() error {
	b.statusHistory = append(b.statusHistory, "offline")
	b.connected = false
	return nil
}
func (b *fakeBUS) IsConnected() bool { return b.connected }
func (b *fakeBUS) PublishStatus(status string) error {
	b.statusHistory = append(b.statusHistory, status)
	return nil
}
func (b *fakeBUS) PublishDevice(d *registry.Device) error {
	b.publishedDev = append(b.publishedDev, d)
	return nil
}
func (b *fakeBUS) PublishScene(s *registry.Scene) error {
	b.publishedScene = append(b.publishedScene, s)
	return nil
}
func (b *fakeBUS) PublishError(rec bus.ErrorRecord) error {
	b.errorRecords = append(b.errorRecords, rec)
	return nil
}
func (b *fakeBUS) SetOnEvent(fn func(bus.Event)) { b.onEvent = fn }
func (b *fakeBUS) SetLogger(bus.Logger)          {}

type nullLogger struct{}

func (nullLogger) Debug(string, ...any) {}
func (nullLogger) Info(string, ...any)  {}
func (nullLogger) Warn(string, ...any)  {}
func (nullLogger) Error(string, ...any) {}

func newTestDaemon(t *testing.T, opts Options, gw *fakeGW, busc *fakeBUS) *Daemon {
	t.Helper()
	reg := registry.New(filepath.Join(t.TempDir(), "devices.json"))
	return New(opts, reg, gw, busc, nullLogger{})
}

// TestStartupPublishesInitialState exercises spec.md §8 scenario 1.
func TestStartupPublishesInitialState(t *testing.T) {
	gw := newFakeGW()
	gw.devices = []*registry.Device{{
		NodeID: 0, Name: "Kitchen", Position: 50, TargetPosition: 50, Online: true,
	}}
	busc := newFakeBUS()

	d := newTestDaemon(t, Options{AutoDiscovery: true, PublishOnStartup: true}, gw, busc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// Let the startup sequence run, then shut down.
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(busc.statusHistory) == 0 || busc.statusHistory[0] != "online" {
		t.Fatalf("statusHistory = %v, want first entry online", busc.statusHistory)
	}
	found := false
	for _, dev := range busc.publishedDev {
		if dev.NodeID == 0 && dev.Position == 50 {
			found = true
		}
	}
	if !found {
		t.Errorf("published devices = %v, want node 0 position 50", busc.publishedDev)
	}
}

// TestShutdownPublishesOffline exercises spec.md §8 scenario 6.
func TestShutdownPublishesOffline(t *testing.T) {
	gw := newFakeGW()
	busc := newFakeBUS()
	d := newTestDaemon(t, Options{}, gw, busc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	cancel()
	<-done

	last := busc.statusHistory[len(busc.statusHistory)-1]
	if last != "offline" {
		t.Errorf("last published status = %q, want offline", last)
	}
	if gw.state != gwsession.Closed {
		t.Errorf("gw.state = %v, want Closed", gw.state)
	}
}

// TestDeviceCommandTranslation exercises the BUS.deviceCommand table from
// spec.md §4.E.
func TestDeviceCommandTranslation(t *testing.T) {
	gw := newFakeGW()
	busc := newFakeBUS()
	d := newTestDaemon(t, Options{}, gw, busc)

	d.handleBusEvent(bus.Event{Kind: bus.EventDeviceCommand, NodeID: 0, Device: bus.DeviceCommand{Kind: bus.CommandOpen}})
	d.handleBusEvent(bus.Event{Kind: bus.EventDeviceCommand, NodeID: 0, Device: bus.DeviceCommand{Kind: bus.CommandClose}})
	d.handleBusEvent(bus.Event{Kind: bus.EventDeviceCommand, NodeID: 0, Device: bus.DeviceCommand{Kind: bus.CommandStop}})
	d.handleBusEvent(bus.Event{Kind: bus.EventDeviceCommand, NodeID: 0, Device: bus.DeviceCommand{Kind: bus.CommandPosition, Position: 37}})

	want := []int{100, 0, 37}
	if len(gw.setPositionCalls) != len(want) {
		t.Fatalf("setPositionCalls = %v, want %v", gw.setPositionCalls, want)
	}
	for i, w := range want {
		if gw.setPositionCalls[i] != w {
			t.Errorf("setPositionCalls[%d] = %d, want %d", i, gw.setPositionCalls[i], w)
		}
	}
	if len(gw.stopCalls) != 1 || gw.stopCalls[0] != 0 {
		t.Errorf("stopCalls = %v, want [0]", gw.stopCalls)
	}
}
