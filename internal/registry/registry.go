package registry

import (
	"sort"
	"sync"
	"time"
)

// Logger is the minimal logging surface the registry needs.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// debounceInterval is the persistence debounce window from spec.md §3/§4.B.
const debounceInterval = 1 * time.Second

// Registry is the in-memory authoritative snapshot of devices and scenes.
// It owns its maps exclusively; Get/List/etc. return copies.
//
// Thread Safety: all methods are safe for concurrent use. Mutations
// serialize internally, matching spec.md §4.B's "concurrent writers do not
// exist" invariant — Registry itself provides that serialization.
type Registry struct {
	mu      sync.Mutex
	devices map[int]*Device
	scenes  map[int]*Scene

	lastRefresh time.Time
	dirty       bool

	store *snapshotStore

	debounceMu sync.Mutex
	timer      *time.Timer
	closed     bool

	onStateChanged   func(StateChange)
	onDevicesUpdated func([]*Device)

	logger Logger
}

// New creates a Registry that persists its snapshot to snapshotPath.
func New(snapshotPath string) *Registry {
	return &Registry{
		devices: make(map[int]*Device),
		scenes:  make(map[int]*Scene),
		store:   newSnapshotStore(snapshotPath),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger used for persistence failures (spec.md §7
// PersistenceError: logged, never propagated).
func (r *Registry) SetLogger(l Logger) {
	if l != nil {
		r.logger = l
	}
}

// OnStateChanged registers the callback invoked whenever Update/ReplaceAll
// accepts a semantically changed device.
func (r *Registry) OnStateChanged(fn func(StateChange)) {
	r.mu.Lock()
	r.onStateChanged = fn
	r.mu.Unlock()
}

// OnDevicesUpdated registers the callback invoked once per ReplaceAll call,
// after all individual StateChange callbacks have fired.
func (r *Registry) OnDevicesUpdated(fn func([]*Device)) {
	r.mu.Lock()
	r.onDevicesUpdated = fn
	r.mu.Unlock()
}

// Get returns a copy of the device with the given nodeId, or nil.
func (r *Registry) Get(nodeID int) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.devices[nodeID].DeepCopy()
}

// List returns copies of every known device, ordered by nodeId.
func (r *Registry) List() []*Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d.DeepCopy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Scene returns a copy of the scene with the given sceneId, or nil.
func (r *Registry) Scene(sceneID int) *Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.scenes[sceneID]; ok {
		cpy := *s
		return &cpy
	}
	return nil
}

// ListScenes returns copies of every known scene, ordered by sceneId.
func (r *Registry) ListScenes() []*Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Scene, 0, len(r.scenes))
	for _, s := range r.scenes {
		cpy := *s
		out = append(out, &cpy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SceneID < out[j].SceneID })
	return out
}

// Update applies d. If no previous entry exists it is stored and
// StateChange{nil, d} fires. If a previous entry exists, its semantic
// fields {position, targetPosition, moving, online, error, name} are
// compared against d's; on equality this is a no-op (no event, no dirty
// flag); on any difference d is stored and StateChange{prev, d} fires.
func (r *Registry) Update(d *Device) {
	r.mu.Lock()
	change, changed := r.applyLocked(d)
	cb := r.onStateChanged
	r.mu.Unlock()

	if changed {
		r.markDirty()
		if cb != nil {
			cb(change)
		}
	}
}

// applyLocked must be called with r.mu held.
func (r *Registry) applyLocked(d *Device) (StateChange, bool) {
	cpy := d.DeepCopy()
	prev, exists := r.devices[d.NodeID]
	if exists && prev.semanticEqual(cpy) {
		// Fields outside the semantic set are still stored, per spec.md §4.B.
		r.devices[d.NodeID] = cpy
		return StateChange{}, false
	}
	r.devices[d.NodeID] = cpy
	if !exists {
		return StateChange{Prev: nil, Curr: cpy.DeepCopy()}, true
	}
	return StateChange{Prev: prev.DeepCopy(), Curr: cpy.DeepCopy()}, true
}

// ReplaceAll bulk-updates every device in ds, firing one StateChange per
// changed device followed by a single devicesUpdated summary.
func (r *Registry) ReplaceAll(ds []*Device) {
	r.mu.Lock()
	var changes []StateChange
	for _, d := range ds {
		change, changed := r.applyLocked(d)
		if changed {
			changes = append(changes, change)
		}
	}
	cb := r.onStateChanged
	summary := r.onDevicesUpdated
	r.mu.Unlock()

	if len(changes) > 0 {
		r.markDirty()
	}
	if cb != nil {
		for _, c := range changes {
			cb(c)
		}
	}
	if summary != nil {
		summary(r.List())
	}
}

// SceneUpdate stores s unconditionally. Scenes have no change-detection
// semantics per spec.md §4.B.
func (r *Registry) SceneUpdate(s *Scene) {
	r.mu.Lock()
	cpy := *s
	r.scenes[s.SceneID] = &cpy
	r.mu.Unlock()
	r.markDirty()
}

// SceneReplaceAll replaces the scene set wholesale.
func (r *Registry) SceneReplaceAll(ss []*Scene) {
	r.mu.Lock()
	for _, s := range ss {
		cpy := *s
		r.scenes[s.SceneID] = &cpy
	}
	r.mu.Unlock()
	r.markDirty()
}

// markDirty sets the dirty bit and (re)arms the debounce timer.
func (r *Registry) markDirty() {
	r.mu.Lock()
	r.dirty = true
	r.lastRefresh = time.Now().UTC()
	r.mu.Unlock()

	r.debounceMu.Lock()
	defer r.debounceMu.Unlock()
	if r.closed {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(debounceInterval, r.persistIfDirty)
}

// persistIfDirty is invoked by the debounce timer. Persistence failures are
// logged and never propagated; the registry remains dirty and the next
// mutation re-arms the timer (spec.md §4.B, §7 PersistenceError).
func (r *Registry) persistIfDirty() {
	snap, dirty := r.snapshotLocked()
	if !dirty {
		return
	}
	if err := r.store.write(snap); err != nil {
		r.logger.Error("persist registry snapshot", "error", err)
		return
	}
	r.mu.Lock()
	r.dirty = false
	r.mu.Unlock()
}

func (r *Registry) snapshotLocked() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return Snapshot{}, false
	}
	snap := Snapshot{
		Devices:     make(map[int]*Device, len(r.devices)),
		Scenes:      make(map[int]*Scene, len(r.scenes)),
		LastRefresh: r.lastRefresh,
	}
	for id, d := range r.devices {
		snap.Devices[id] = d.DeepCopy()
	}
	for id, s := range r.scenes {
		cpy := *s
		snap.Scenes[id] = &cpy
	}
	return snap, true
}

// Flush forces immediate persistence regardless of the debounce timer.
func (r *Registry) Flush() {
	r.debounceMu.Lock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.debounceMu.Unlock()
	r.persistIfDirty()
}

// Close flushes and stops the debounce timer. Safe to call once; the
// registry must not be used afterwards.
func (r *Registry) Close() {
	r.Flush()
	r.debounceMu.Lock()
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
	}
	r.debounceMu.Unlock()
}

// Load restores a previously persisted snapshot, if one exists. A missing
// file is not an error — the registry starts empty.
func (r *Registry) Load() error {
	snap, err := r.store.read()
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = snap.Devices
	if r.devices == nil {
		r.devices = make(map[int]*Device)
	}
	r.scenes = snap.Scenes
	if r.scenes == nil {
		r.scenes = make(map[int]*Scene)
	}
	r.lastRefresh = snap.LastRefresh
	return nil
}
