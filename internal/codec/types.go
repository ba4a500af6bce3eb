package codec

// DeviceType is the public enum a raw GW product-type code classifies to.
type DeviceType string

const (
	DeviceTypeWindow  DeviceType = "window"
	DeviceTypeBlind   DeviceType = "blind"
	DeviceTypeShutter DeviceType = "shutter"
	DeviceTypeAwning  DeviceType = "awning"
	DeviceTypeGarage  DeviceType = "garage"
	DeviceTypeGate    DeviceType = "gate"
	DeviceTypeLock    DeviceType = "lock"
	DeviceTypeUnknown DeviceType = "unknown"
)

// productTypeTable maps the GW's documented actuator-type codes to the
// public enum. It is fixed at build time; spec.md §4.A requires unknown
// codes to fall through to DeviceTypeUnknown rather than erroring.
var productTypeTable = map[int]DeviceType{
	0:  DeviceTypeBlind,   // Interior Venetian blind
	1:  DeviceTypeBlind,   // Roller shutter
	3:  DeviceTypeAwning,  // Awning
	4:  DeviceTypeWindow,  // Window opener
	5:  DeviceTypeWindow,  // Skylight window opener
	6:  DeviceTypeShutter, // Light
	7:  DeviceTypeShutter, // Exterior shutter
	8:  DeviceTypeShutter, // Exterior shutter
	9:  DeviceTypeShutter, // Slat rotation
	13: DeviceTypeGate,    // Swinging shutter
	14: DeviceTypeGarage,  // Garage door opener
	17: DeviceTypeWindow,  // Window opener
	18: DeviceTypeGarage,  // Garage door opener
	23: DeviceTypeLock,    // Door lock
	40: DeviceTypeGarage,  // Garage door opener
	51: DeviceTypeGate,    // Gate opener
	62: DeviceTypeLock,    // Door lock
}

// Classify looks up the public device type for a raw GW product-type code.
// Unknown codes classify as DeviceTypeUnknown, never an error.
func Classify(productTypeCode int) DeviceType {
	if t, ok := productTypeTable[productTypeCode]; ok {
		return t
	}
	return DeviceTypeUnknown
}
