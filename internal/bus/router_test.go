package bus

import "testing"

func TestRouteDeviceCmdOpen(t *testing.T) {
	r := NewRouter("klf200")
	ev := r.Route("klf200/devices/0/cmd", []byte("open"))
	if ev.Kind != EventDeviceCommand || ev.NodeID != 0 || ev.Device.Kind != CommandOpen {
		t.Fatalf("Route() = %+v, want device command open on node 0", ev)
	}
}

func TestRoutePositionSet(t *testing.T) {
	r := NewRouter("klf200")
	ev := r.Route("klf200/devices/0/position/set", []byte("50"))
	if ev.Kind != EventDeviceCommand || ev.Device.Kind != CommandPosition || ev.Device.Position != 50 {
		t.Fatalf("Route() = %+v, want position command 50", ev)
	}

	// Out-of-range payloads produce no event, per spec.md §4.D/§8.
	ev = r.Route("klf200/devices/0/position/set", []byte("150"))
	if ev.Kind != EventNone {
		t.Fatalf("Route() = %+v, want EventNone for an out-of-range position", ev)
	}
}

func TestRouteSceneCmdRunIsCaseInsensitive(t *testing.T) {
	r := NewRouter("klf200")
	for _, payload := range []string{"run", "RUN", " Run "} {
		ev := r.Route("klf200/scenes/3/cmd", []byte(payload))
		if ev.Kind != EventSceneCommand || ev.SceneID != 3 {
			t.Errorf("Route(%q) = %+v, want scene command on 3", payload, ev)
		}
	}
	if ev := r.Route("klf200/scenes/3/cmd", []byte("stop")); ev.Kind != EventNone {
		t.Errorf("Route(stop) = %+v, want EventNone", ev)
	}
}

func TestRouteGlobalCommand(t *testing.T) {
	r := NewRouter("klf200")
	ev := r.Route("klf200/cmd", []byte("refresh"))
	if ev.Kind != EventGlobalCommand || ev.Global != "refresh" {
		t.Fatalf("Route() = %+v, want global refresh", ev)
	}
	ev = r.Route("klf200/cmd", []byte("banana"))
	if ev.Kind != EventNone {
		t.Fatalf("Route() = %+v, want EventNone for an unrecognized global command", ev)
	}
}

func TestRouteDoesNotMatchUnrelatedTopics(t *testing.T) {
	r := NewRouter("klf200")
	for _, topic := range []string{"klf200/devices/0/state", "other/devices/0/cmd", "klf200/devices/abc/cmd"} {
		if ev := r.Route(topic, []byte("open")); ev.Kind != EventNone {
			t.Errorf("Route(%q) = %+v, want EventNone", topic, ev)
		}
	}
}

// TestParseDeviceCommandOnlyEmitsDocumentedValues is the universal property
// from spec.md §8: a successfully parsed device command is always exactly
// open, close, stop, or an integer in [0,100].
func TestParseDeviceCommandOnlyEmitsDocumentedValues(t *testing.T) {
	r := NewRouter("klf200")
	payloads := []string{"open", "OPEN", " close ", "Stop", "0", "100", "50", "-1", "101", "abc", ""}
	for _, payload := range payloads {
		ev := r.Route("klf200/devices/0/cmd", []byte(payload))
		if ev.Kind == EventNone {
			continue
		}
		switch ev.Device.Kind {
		case CommandOpen, CommandClose, CommandStop:
			// fine
		case CommandPosition:
			if ev.Device.Position < 0 || ev.Device.Position > 100 {
				t.Errorf("payload %q produced out-of-range position %d", payload, ev.Device.Position)
			}
		default:
			t.Errorf("payload %q produced unexpected command kind %v", payload, ev.Device.Kind)
		}
	}
}
