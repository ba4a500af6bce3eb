package daemon

import (
	"context"
	"time"

	"github.com/tobsch/loxberry-velux/internal/gwsession"
)

// pollLoop implements spec.md §4.E step 7: while the GW is connected,
// periodically re-query all device states and feed them through
// registry.ReplaceAll. Grounded on the teacher's health.go reportLoop
// ticker structure.
func (d *Daemon) pollLoop(ctx context.Context, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if d.gw.State() != gwsession.Connected {
				continue
			}
			devices, err := d.gw.DiscoverDevices(ctx)
			if err != nil {
				d.logger.Warn("poll: querying device states failed", "error", err)
				continue
			}
			d.registry.ReplaceAll(devices)
		}
	}
}
