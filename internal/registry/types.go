package registry

import (
	"time"

	"github.com/tobsch/loxberry-velux/internal/codec"
)

// Device mirrors spec.md §3's Device record.
type Device struct {
	NodeID int `json:"nodeId"`

	Name         string          `json:"name"`
	Type         codec.DeviceType `json:"type"`
	SerialNumber string          `json:"serialNumber"`
	ProductType  int             `json:"productType"`

	Position       int  `json:"position"`
	TargetPosition int  `json:"targetPosition"`

	Moving bool    `json:"moving"`
	Online bool    `json:"online"`
	Error  *string `json:"error"`

	LimitationMin int `json:"limitationMin"`
	LimitationMax int `json:"limitationMax"`

	LastUpdate time.Time `json:"lastUpdate"`
}

// DeepCopy returns an independent copy of d. All pointer fields are cloned
// so mutating the copy never touches registry-owned state.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	if d.Error != nil {
		e := *d.Error
		cpy.Error = &e
	}
	return &cpy
}

// semanticEqual reports whether the fields spec.md §4.B names as semantic
// are identical between d and other: position, targetPosition, moving,
// online, error, name.
func (d *Device) semanticEqual(other *Device) bool {
	if d.Name != other.Name ||
		d.Position != other.Position ||
		d.TargetPosition != other.TargetPosition ||
		d.Moving != other.Moving ||
		d.Online != other.Online {
		return false
	}
	switch {
	case d.Error == nil && other.Error == nil:
		return true
	case d.Error == nil || other.Error == nil:
		return false
	default:
		return *d.Error == *other.Error
	}
}

// Scene mirrors spec.md §3's Scene record. Scenes are externally managed:
// the bridge reads them but never writes them back to the GW.
type Scene struct {
	SceneID      int    `json:"sceneId"`
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}

// Snapshot is the on-disk shape of the registry, written to
// {dataDir}/devices.json per spec.md §6.
type Snapshot struct {
	Devices     map[int]*Device `json:"devices"`
	Scenes      map[int]*Scene  `json:"scenes"`
	LastRefresh time.Time       `json:"lastRefresh"`
}

// StateChange is emitted by Registry.Update/ReplaceAll when a device's
// semantic fields change. Prev is nil for newly discovered devices.
type StateChange struct {
	Prev *Device
	Curr *Device
}
