package daemon

import (
	"context"

	"github.com/tobsch/loxberry-velux/internal/bus"
	"github.com/tobsch/loxberry-velux/internal/gwsession"
	"github.com/tobsch/loxberry-velux/internal/registry"
)

// Logger is the minimal logging surface the daemon and its collaborators
// need.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// GW is the subset of *gwsession.Session the daemon depends on. Defined
// as an interface so tests can wire in a fake GW collaborator instead of
// a real TLS session, matching the teacher's bridge_test.go fake-based
// style.
type GW interface {
	Connect(ctx context.Context) error
	DiscoverDevices(ctx context.Context) ([]*registry.Device, error)
	DiscoverScenes(ctx context.Context) ([]*registry.Scene, error)
	SetPosition(ctx context.Context, nodeID, pct int) error
	Stop(ctx context.Context, nodeID int) error
	RunScene(ctx context.Context, sceneID int) error
	Refresh(ctx context.Context) ([]*registry.Device, []*registry.Scene, error)
	Reconnect(ctx context.Context) error
	Close() error
	State() gwsession.State
	SetOnConnected(fn func())
	SetOnDisconnected(fn func(error))
	SetOnDeviceStateChanged(fn func(*registry.Device))
	SetLogger(l gwsession.Logger)
}

// BUS is the subset of *bus.Client the daemon depends on.
type BUS interface {
	Connect() error
	Close() error
	IsConnected() bool
	PublishStatus(status string) error
	PublishDevice(d *registry.Device) error
	PublishScene(s *registry.Scene) error
	PublishError(rec bus.ErrorRecord) error
	SetOnEvent(fn func(bus.Event))
	SetLogger(l bus.Logger)
}

var _ GW = (*gwsession.Session)(nil)
var _ BUS = (*bus.Client)(nil)
