package daemon

import (
	"context"
	"time"

	"github.com/tobsch/loxberry-velux/internal/bus"
	"github.com/tobsch/loxberry-velux/internal/registry"
)

const commandTimeout = 10 * time.Second

// wireEvents sets up the event wiring table from spec.md §4.E. It runs
// once, at construction.
func (d *Daemon) wireEvents() {
	d.gw.SetOnConnected(func() {
		if err := d.busc.PublishStatus("online"); err != nil {
			d.logger.Warn("failed to publish online status after gw connect", "error", err)
		}
	})

	d.gw.SetOnDisconnected(func(err error) {
		details := ""
		if err != nil {
			details = err.Error()
		}
		d.reportError(bus.SeverityError, "klf", "Connection lost", details)
	})

	d.gw.SetOnDeviceStateChanged(func(dev *registry.Device) {
		d.registry.Update(dev)
	})

	d.registry.OnStateChanged(func(change registry.StateChange) {
		if change.Curr == nil {
			return
		}
		if err := d.busc.PublishDevice(change.Curr); err != nil {
			d.logger.Warn("failed to publish device", "nodeId", change.Curr.NodeID, "error", err)
		}
	})

	d.busc.SetOnEvent(d.handleBusEvent)
}

// handleBusEvent implements the BUS.* → GW.* translation table from
// spec.md §4.E.
func (d *Daemon) handleBusEvent(ev bus.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch ev.Kind {
	case bus.EventDeviceCommand:
		d.handleDeviceCommand(ctx, ev.NodeID, ev.Device)
	case bus.EventSceneCommand:
		if err := d.gw.RunScene(ctx, ev.SceneID); err != nil {
			d.reportCommandError("scene", err)
		}
	case bus.EventGlobalCommand:
		d.handleGlobalCommand(ctx, ev.Global)
	}
}

func (d *Daemon) handleDeviceCommand(ctx context.Context, nodeID int, cmd bus.DeviceCommand) {
	var err error
	switch cmd.Kind {
	case bus.CommandOpen:
		err = d.gw.SetPosition(ctx, nodeID, 100)
	case bus.CommandClose:
		err = d.gw.SetPosition(ctx, nodeID, 0)
	case bus.CommandStop:
		err = d.gw.Stop(ctx, nodeID)
	case bus.CommandPosition:
		err = d.gw.SetPosition(ctx, nodeID, cmd.Position)
	}
	if err != nil {
		d.reportCommandError("device", err)
	}
}

func (d *Daemon) handleGlobalCommand(ctx context.Context, cmd string) {
	switch cmd {
	case "refresh":
		d.runDiscovery(ctx)
	case "reconnect":
		// spec.md §9's second open question: no intermediate offline is
		// published here even though the session round-trips through
		// Reconnecting — only the LWT and the explicit shutdown path
		// flip the bus status to offline.
		if err := d.gw.Reconnect(ctx); err != nil {
			d.reportError(bus.SeverityError, "klf", "reconnect failed", err.Error())
			return
		}
		if d.opts.AutoDiscovery {
			d.runDiscovery(ctx)
		}
	}
}

func (d *Daemon) reportCommandError(component string, err error) {
	d.logger.Warn("command failed", "component", component, "error", err)
	d.reportError(bus.SeverityError, component, "command failed", err.Error())
}
