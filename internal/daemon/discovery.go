package daemon

import (
	"context"

	"github.com/tobsch/loxberry-velux/internal/bus"
)

// runDiscovery re-runs discovery for both devices and scenes and stores the
// results in the registry. Used both at startup (step 5/6) and on a
// BUS.globalCommand("refresh"/"reconnect") per spec.md §4.E.
//
// Devices are published only through ReplaceAll's wired OnStateChanged
// callback, which fires for every device whose semantic fields changed —
// on an empty registry's first discovery that is every device (spec.md
// §4.B). A device restored from the snapshot whose semantic fields are
// unchanged is not republished here, PublishOnStartup or not. SceneReplaceAll has no such
// change-detection or publish callback — scenes are stored unconditionally
// — so publishScenes is the only path that ever puts a scene on the bus.
func (d *Daemon) runDiscovery(ctx context.Context) {
	devices, scenes, err := d.gw.Refresh(ctx)
	if err != nil {
		d.logger.Warn("discovery failed", "error", err)
		d.reportError(bus.SeverityError, "klf", "discovery failed", err.Error())
		return
	}

	d.registry.ReplaceAll(devices)
	d.registry.SceneReplaceAll(scenes)

	if d.opts.PublishOnStartup {
		d.publishScenes()
	}
}

// publishScenes publishes every scene currently in the registry.
func (d *Daemon) publishScenes() {
	for _, sc := range d.registry.ListScenes() {
		if err := d.busc.PublishScene(sc); err != nil {
			d.logger.Warn("failed to publish scene", "sceneId", sc.SceneID, "error", err)
		}
	}
}
