package bus

import "fmt"

// Topics builds the bridge's topic names from a configured prefix, per
// spec.md §6's bus topic map.
type Topics struct {
	Prefix string
}

func (t Topics) Status() string { return t.Prefix + "/status" }
func (t Topics) Cmd() string    { return t.Prefix + "/cmd" }
func (t Topics) Errors() string { return t.Prefix + "/errors" }

func (t Topics) DeviceState(nodeID int) string    { return fmt.Sprintf("%s/devices/%d/state", t.Prefix, nodeID) }
func (t Topics) DevicePosition(nodeID int) string { return fmt.Sprintf("%s/devices/%d/position", t.Prefix, nodeID) }
func (t Topics) DeviceMoving(nodeID int) string   { return fmt.Sprintf("%s/devices/%d/moving", t.Prefix, nodeID) }
func (t Topics) DeviceCmd(nodeID int) string      { return fmt.Sprintf("%s/devices/%d/cmd", t.Prefix, nodeID) }
func (t Topics) DevicePositionSet(nodeID int) string {
	return fmt.Sprintf("%s/devices/%d/position/set", t.Prefix, nodeID)
}

func (t Topics) SceneState(sceneID int) string { return fmt.Sprintf("%s/scenes/%d/state", t.Prefix, sceneID) }
func (t Topics) SceneCmd(sceneID int) string    { return fmt.Sprintf("%s/scenes/%d/cmd", t.Prefix, sceneID) }

// AllDeviceCmds and AllSceneCmds are the wildcard subscription filters the
// client subscribes to on every connect.
func (t Topics) AllDeviceCmds() string      { return t.Prefix + "/devices/+/cmd" }
func (t Topics) AllDevicePositionSets() string { return t.Prefix + "/devices/+/position/set" }
func (t Topics) AllSceneCmds() string       { return t.Prefix + "/scenes/+/cmd" }
