package gwsession

import (
	"encoding/binary"
	"fmt"
	"math"
)

// productInfo is the wire shape of one entry in a listProducts response,
// before it is translated through internal/codec into a registry.Device.
type productInfo struct {
	NodeID        int
	Name          string
	ProductType   int
	SerialNumber  string
	Raw           float64
	TargetRaw     float64
	RunStatus     int
	State         int
	StatusReply   int
	LimitationMin int
	LimitationMax int
}

// sceneInfo is the wire shape of one entry in a listScenes response.
type sceneInfo struct {
	SceneID      int
	Name         string
	ProductCount int
}

// propertyChanged is an unsolicited notification frame describing one
// actuator's new state, matching the callback contract named in
// spec.md §9: (nodeId, current, target, runStatus, state, statusReply).
type propertyChanged struct {
	NodeID      int
	Raw         float64
	TargetRaw   float64
	RunStatus   int
	State       int
	StatusReply int
}

func encodeLogin(password string) []byte {
	pw := []byte(password)
	out := make([]byte, 1+len(pw))
	out[0] = byte(len(pw))
	copy(out[1:], pw)
	return out
}

func decodeLoginConfirm(payload []byte) (bool, error) {
	if len(payload) < 1 {
		return false, fmt.Errorf("gwsession: login confirm too short")
	}
	return payload[0] == 1, nil
}

func encodeSetTargetPosition(nodeID int, raw float64) []byte {
	out := make([]byte, 6)
	binary.BigEndian.PutUint16(out[0:2], uint16(nodeID))
	binary.BigEndian.PutUint32(out[2:6], math.Float32bits(float32(raw)))
	return out
}

func encodeStop(nodeID int) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out[0:2], uint16(nodeID))
	return out
}

func encodeRunScene(sceneID int) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out[0:2], uint16(sceneID))
	return out
}

func readUint8String(buf []byte) (string, []byte, error) {
	if len(buf) < 1 {
		return "", nil, fmt.Errorf("gwsession: string length missing")
	}
	n := int(buf[0])
	buf = buf[1:]
	if len(buf) < n {
		return "", nil, fmt.Errorf("gwsession: string truncated: want %d have %d", n, len(buf))
	}
	return string(buf[:n]), buf[n:], nil
}

func decodeProductInfo(buf []byte) (productInfo, []byte, error) {
	if len(buf) < 2 {
		return productInfo{}, nil, fmt.Errorf("gwsession: product record too short")
	}
	p := productInfo{NodeID: int(binary.BigEndian.Uint16(buf[0:2]))}
	buf = buf[2:]

	name, buf, err := readUint8String(buf)
	if err != nil {
		return productInfo{}, nil, err
	}
	p.Name = name

	if len(buf) < 2+8+4+4+1+1+1+1+1 {
		return productInfo{}, nil, fmt.Errorf("gwsession: product record truncated")
	}
	p.ProductType = int(binary.BigEndian.Uint16(buf[0:2]))
	buf = buf[2:]
	p.SerialNumber = fmt.Sprintf("%x", buf[0:8])
	buf = buf[8:]
	p.Raw = float64(math.Float32frombits(binary.BigEndian.Uint32(buf[0:4])))
	buf = buf[4:]
	p.TargetRaw = float64(math.Float32frombits(binary.BigEndian.Uint32(buf[0:4])))
	buf = buf[4:]
	p.RunStatus = int(buf[0])
	p.State = int(buf[1])
	p.StatusReply = int(buf[2])
	p.LimitationMin = int(buf[3])
	p.LimitationMax = int(buf[4])
	buf = buf[5:]
	return p, buf, nil
}

func decodeListProductsConfirm(payload []byte) ([]productInfo, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("gwsession: listProducts confirm too short")
	}
	count := int(binary.BigEndian.Uint16(payload[0:2]))
	buf := payload[2:]
	out := make([]productInfo, 0, count)
	for i := 0; i < count; i++ {
		p, rest, err := decodeProductInfo(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
		buf = rest
	}
	return out, nil
}

func decodeSceneInfo(buf []byte) (sceneInfo, []byte, error) {
	if len(buf) < 2 {
		return sceneInfo{}, nil, fmt.Errorf("gwsession: scene record too short")
	}
	s := sceneInfo{SceneID: int(binary.BigEndian.Uint16(buf[0:2]))}
	buf = buf[2:]

	name, buf, err := readUint8String(buf)
	if err != nil {
		return sceneInfo{}, nil, err
	}
	s.Name = name

	if len(buf) < 2 {
		return sceneInfo{}, nil, fmt.Errorf("gwsession: scene record truncated")
	}
	s.ProductCount = int(binary.BigEndian.Uint16(buf[0:2]))
	buf = buf[2:]
	return s, buf, nil
}

func decodeListScenesConfirm(payload []byte) ([]sceneInfo, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("gwsession: listScenes confirm too short")
	}
	count := int(binary.BigEndian.Uint16(payload[0:2]))
	buf := payload[2:]
	out := make([]sceneInfo, 0, count)
	for i := 0; i < count; i++ {
		s, rest, err := decodeSceneInfo(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		buf = rest
	}
	return out, nil
}

func decodePropertyChanged(payload []byte) (propertyChanged, error) {
	if len(payload) < 2+4+4+1+1+1 {
		return propertyChanged{}, fmt.Errorf("gwsession: property-changed frame too short")
	}
	pc := propertyChanged{
		NodeID: int(binary.BigEndian.Uint16(payload[0:2])),
	}
	payload = payload[2:]
	pc.Raw = float64(math.Float32frombits(binary.BigEndian.Uint32(payload[0:4])))
	payload = payload[4:]
	pc.TargetRaw = float64(math.Float32frombits(binary.BigEndian.Uint32(payload[0:4])))
	payload = payload[4:]
	pc.RunStatus = int(payload[0])
	pc.State = int(payload[1])
	pc.StatusReply = int(payload[2])
	return pc, nil
}
