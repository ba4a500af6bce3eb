package bus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CommandKind distinguishes the three shapes a device command can take,
// per spec.md §4.D's parseDeviceCommand.
type CommandKind int

const (
	CommandOpen CommandKind = iota
	CommandClose
	CommandStop
	CommandPosition
)

// DeviceCommand is the parsed form of a payload on
// {prefix}/devices/<n>/cmd or {prefix}/devices/<n>/position/set.
type DeviceCommand struct {
	Kind     CommandKind
	Position int // valid only when Kind == CommandPosition
}

// Event is the result of routing one incoming message. Exactly one of its
// fields is meaningful, selected by Kind.
type EventKind int

const (
	EventNone EventKind = iota
	EventDeviceCommand
	EventSceneCommand
	EventGlobalCommand
)

type Event struct {
	Kind    EventKind
	NodeID  int
	SceneID int
	Device  DeviceCommand
	Global  string // "refresh" or "reconnect"
}

// Router matches incoming topics against the exact anchored patterns named
// in spec.md §4.D, built from a single configured prefix.
type Router struct {
	deviceCmd   *regexp.Regexp
	positionSet *regexp.Regexp
	sceneCmd    *regexp.Regexp
	globalCmd   string
}

// NewRouter compiles the topic patterns for prefix. Prefix is quoted, so any
// regexp metacharacters in it match literally.
func NewRouter(prefix string) *Router {
	quoted := regexp.QuoteMeta(prefix)
	return &Router{
		deviceCmd:   regexp.MustCompile(`^` + quoted + `/devices/(\d+)/cmd$`),
		positionSet: regexp.MustCompile(`^` + quoted + `/devices/(\d+)/position/set$`),
		sceneCmd:    regexp.MustCompile(`^` + quoted + `/scenes/(\d+)/cmd$`),
		globalCmd:   prefix + "/cmd",
	}
}

// Route matches topic against every known pattern and parses payload.
// Unmatched topics and unparseable payloads both return EventNone — the
// caller logs and discards, per spec.md §7's ParseError handling.
func (r *Router) Route(topic string, payload []byte) Event {
	if m := r.deviceCmd.FindStringSubmatch(topic); m != nil {
		nodeID, err := strconv.Atoi(m[1])
		if err != nil {
			return Event{}
		}
		cmd, ok := parseDeviceCommand(payload)
		if !ok {
			return Event{}
		}
		return Event{Kind: EventDeviceCommand, NodeID: nodeID, Device: cmd}
	}

	if m := r.positionSet.FindStringSubmatch(topic); m != nil {
		nodeID, err := strconv.Atoi(m[1])
		if err != nil {
			return Event{}
		}
		pos, ok := parsePositionOnly(payload)
		if !ok {
			return Event{}
		}
		return Event{Kind: EventDeviceCommand, NodeID: nodeID, Device: DeviceCommand{Kind: CommandPosition, Position: pos}}
	}

	if m := r.sceneCmd.FindStringSubmatch(topic); m != nil {
		sceneID, err := strconv.Atoi(m[1])
		if err != nil {
			return Event{}
		}
		if !strings.EqualFold(strings.TrimSpace(string(payload)), "run") {
			return Event{}
		}
		return Event{Kind: EventSceneCommand, SceneID: sceneID}
	}

	if topic == r.globalCmd {
		cmd := strings.ToLower(strings.TrimSpace(string(payload)))
		if cmd != "refresh" && cmd != "reconnect" {
			return Event{}
		}
		return Event{Kind: EventGlobalCommand, Global: cmd}
	}

	return Event{}
}

// parseDeviceCommand implements spec.md §4.D exactly: case-insensitive
// trim; "open"/"close"/"stop" map to their kinds; otherwise the payload
// must parse as an integer in [0,100].
func parseDeviceCommand(payload []byte) (DeviceCommand, bool) {
	s := strings.ToLower(strings.TrimSpace(string(payload)))
	switch s {
	case "open":
		return DeviceCommand{Kind: CommandOpen}, true
	case "close":
		return DeviceCommand{Kind: CommandClose}, true
	case "stop":
		return DeviceCommand{Kind: CommandStop}, true
	}
	pos, ok := parsePositionOnly(payload)
	if !ok {
		return DeviceCommand{}, false
	}
	return DeviceCommand{Kind: CommandPosition, Position: pos}, true
}

// parsePositionOnly accepts only an integer in [0,100], trimmed.
func parsePositionOnly(payload []byte) (int, bool) {
	s := strings.TrimSpace(string(payload))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

func (k CommandKind) String() string {
	switch k {
	case CommandOpen:
		return "open"
	case CommandClose:
		return "close"
	case CommandStop:
		return "stop"
	case CommandPosition:
		return "position"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}
