package daemon

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tobsch/loxberry-velux/internal/bus"
	"github.com/tobsch/loxberry-velux/internal/registry"
)

// Options carries the subset of the validated configuration the daemon
// needs for its startup sequence (spec.md §4.E). Configuration loading and
// validation (step 1) happen before a Daemon is constructed.
type Options struct {
	AutoDiscovery    bool
	PublishOnStartup bool
	PollingEnabled   bool
	PollingInterval  time.Duration
}

// Daemon wires the registry, the GW session, and the BUS client together
// and drives the startup/shutdown sequences and poll loop.
type Daemon struct {
	opts Options

	registry *registry.Registry
	gw       GW
	busc     BUS

	logger Logger

	pollStop chan struct{}
}

// New constructs a Daemon. registry, gw, and bus must already be
// constructed (but not yet connected); Run performs steps 3-7 of
// spec.md §4.E's startup sequence.
func New(opts Options, reg *registry.Registry, gw GW, busc BUS, logger Logger) *Daemon {
	d := &Daemon{
		opts:     opts,
		registry: reg,
		gw:       gw,
		busc:     busc,
		logger:   logger,
	}
	d.wireEvents()
	return d
}

// Run executes steps 3-7 of the startup sequence, then blocks serving the
// bridge until ctx is cancelled, at which point it runs the shutdown
// sequence and returns.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.busc.Connect(); err != nil {
		return fmt.Errorf("daemon: connect bus: %w", err)
	}

	connectErr := d.gw.Connect(ctx)
	if connectErr != nil {
		// spec.md §4.E step 4 treats a failed initial GW connect as a
		// transport error: the session itself enters Reconnecting and
		// retries on its own backoff schedule, so this is not fatal to
		// startup.
		d.logger.Warn("initial GW connect failed, session will retry", "error", connectErr)
		d.reportError(bus.SeverityError, "gw", "initial connection failed", connectErr.Error())
	}

	if connectErr == nil && d.opts.AutoDiscovery {
		d.runDiscovery(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	if d.opts.PollingEnabled {
		d.pollStop = make(chan struct{})
		g.Go(func() error {
			d.pollLoop(gctx, d.opts.PollingInterval, d.pollStop)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	_ = g.Wait()
	return d.shutdown()
}

// shutdown runs spec.md §4.E's shutdown sequence. Every step tolerates an
// already-closed collaborator; the sequence always completes.
func (d *Daemon) shutdown() error {
	if d.pollStop != nil {
		close(d.pollStop)
	}

	if err := d.gw.Close(); err != nil {
		d.logger.Warn("gw close returned an error", "error", err)
	}
	if err := d.busc.Close(); err != nil {
		d.logger.Warn("bus close returned an error", "error", err)
	}
	d.registry.Close()
	return nil
}

func (d *Daemon) reportError(severity, component, message, details string) {
	rec := bus.NewErrorRecord(severity, component, message, details)
	if err := d.busc.PublishError(rec); err != nil {
		d.logger.Warn("failed to publish error record", "error", err)
	}
}
