package registry

import (
	"path/filepath"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.json")
	return New(path)
}

func baseDevice(nodeID int) *Device {
	return &Device{
		NodeID:         nodeID,
		Name:           "Kitchen Window",
		Position:       50,
		TargetPosition: 50,
		Moving:         false,
		Online:         true,
	}
}

func TestUpdateNewDeviceEmitsChangeWithNilPrev(t *testing.T) {
	r := newTestRegistry(t)

	var got *StateChange
	r.OnStateChanged(func(c StateChange) { got = &c })

	r.Update(baseDevice(1))

	if got == nil {
		t.Fatal("expected a StateChange event")
	}
	if got.Prev != nil {
		t.Errorf("Prev = %+v, want nil for a newly discovered device", got.Prev)
	}
	if got.Curr == nil || got.Curr.NodeID != 1 {
		t.Errorf("Curr = %+v, want nodeId 1", got.Curr)
	}
}

func TestUpdateIdenticalSemanticsIsNoOp(t *testing.T) {
	r := newTestRegistry(t)
	r.Update(baseDevice(1))

	calls := 0
	r.OnStateChanged(func(StateChange) { calls++ })

	// Same semantic fields, differing only in a non-semantic field.
	d := baseDevice(1)
	d.ProductType = 4
	r.Update(d)

	if calls != 0 {
		t.Errorf("got %d StateChange events, want 0 for a semantically identical update", calls)
	}
}

func TestUpdateSemanticChangeEmitsEventWithPrev(t *testing.T) {
	r := newTestRegistry(t)
	r.Update(baseDevice(1))

	var got *StateChange
	r.OnStateChanged(func(c StateChange) { got = &c })

	d := baseDevice(1)
	d.Position = 75
	d.Moving = true
	r.Update(d)

	if got == nil {
		t.Fatal("expected a StateChange event")
	}
	if got.Prev == nil || got.Prev.Position != 50 {
		t.Errorf("Prev.Position = %+v, want 50", got.Prev)
	}
	if got.Curr == nil || got.Curr.Position != 75 {
		t.Errorf("Curr.Position = %+v, want 75", got.Curr)
	}
}

func TestUpdateErrorFieldParticipatesInSemanticEquality(t *testing.T) {
	r := newTestRegistry(t)
	r.Update(baseDevice(1))

	events := 0
	r.OnStateChanged(func(StateChange) { events++ })

	errMsg := "actuator blocked by rain sensor"
	d := baseDevice(1)
	d.Error = &errMsg
	r.Update(d)

	if events != 1 {
		t.Fatalf("got %d events, want 1 after introducing an error", events)
	}

	// Re-applying the same error text is a no-op.
	d2 := baseDevice(1)
	msg2 := errMsg
	d2.Error = &msg2
	r.Update(d2)

	if events != 1 {
		t.Errorf("got %d events, want 1 after re-applying an identical error", events)
	}
}

func TestReplaceAllEmitsOneChangePerDeviceThenSummary(t *testing.T) {
	r := newTestRegistry(t)
	r.Update(baseDevice(1))

	var changes []StateChange
	var summary []*Device
	r.OnStateChanged(func(c StateChange) { changes = append(changes, c) })
	r.OnDevicesUpdated(func(ds []*Device) { summary = ds })

	unchanged := baseDevice(1)
	moved := baseDevice(2)
	moved.Position = 10

	r.ReplaceAll([]*Device{unchanged, moved})

	if len(changes) != 1 {
		t.Fatalf("got %d StateChange events, want 1 (only device 2 changed)", len(changes))
	}
	if changes[0].Curr.NodeID != 2 {
		t.Errorf("changed device = %d, want 2", changes[0].Curr.NodeID)
	}
	if len(summary) != 2 {
		t.Fatalf("summary has %d devices, want 2", len(summary))
	}
}

func TestListIsOrderedByNodeID(t *testing.T) {
	r := newTestRegistry(t)
	r.Update(baseDevice(3))
	r.Update(baseDevice(1))
	r.Update(baseDevice(2))

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("got %d devices, want 3", len(list))
	}
	for i, d := range list {
		if d.NodeID != i+1 {
			t.Errorf("list[%d].NodeID = %d, want %d", i, d.NodeID, i+1)
		}
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	r := newTestRegistry(t)
	r.Update(baseDevice(1))

	got := r.Get(1)
	got.Name = "mutated"

	again := r.Get(1)
	if again.Name == "mutated" {
		t.Error("mutating a Get() result leaked into registry state")
	}
}

func TestFlushPersistsAndLoadRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	r := New(path)
	r.Update(baseDevice(1))
	r.Flush()

	r2 := New(path)
	if err := r2.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := r2.Get(1)
	if got == nil || got.Name != "Kitchen Window" {
		t.Fatalf("Get(1) after Load = %+v, want restored device", got)
	}
}

func TestLoadWithNoPriorSnapshotIsNotAnError(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing snapshot file", err)
	}
	if len(r.List()) != 0 {
		t.Errorf("List() = %v, want empty registry", r.List())
	}
}
