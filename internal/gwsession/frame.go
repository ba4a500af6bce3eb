package gwsession

import (
	"encoding/binary"
	"fmt"
)

// commandID identifies the kind of frame on the wire, mirroring the
// contract surface named in spec.md §9.
type commandID byte

const (
	cmdLogin               commandID = 0x01
	cmdLoginConfirm        commandID = 0x02
	cmdLogout              commandID = 0x03
	cmdEnableStatusMonitor commandID = 0x04
	cmdGetState            commandID = 0x05
	cmdGetStateConfirm     commandID = 0x06
	cmdListProducts        commandID = 0x07
	cmdListProductsConfirm commandID = 0x08
	cmdListScenes          commandID = 0x09
	cmdListScenesConfirm   commandID = 0x0A
	cmdSetTargetPosition   commandID = 0x0B
	cmdStop                commandID = 0x0C
	cmdRunScene            commandID = 0x0D
	cmdCommandConfirm      commandID = 0x0E
	cmdPropertyChanged     commandID = 0x20 // unsolicited notification
)

// maxFrameSize bounds the read buffer. A declared length beyond this is
// always a desync, never a legitimate oversized frame.
const maxFrameSize = 64 * 1024

// frame is a single GW protocol message: a command byte plus an opaque
// payload. The transaction ID (for request/response correlation) lives in
// the first two bytes of payload for commands that need one.
type frame struct {
	cmd     commandID
	payload []byte
}

// encodeFrame serializes f as [2-byte big-endian length][cmd byte][payload].
// The length covers the cmd byte and payload, not itself — matching the
// size-prefixed framing the GW protocol documentation describes.
func encodeFrame(f frame) []byte {
	body := 1 + len(f.payload)
	out := make([]byte, 2+body)
	binary.BigEndian.PutUint16(out[0:2], uint16(body))
	out[2] = byte(f.cmd)
	copy(out[3:], f.payload)
	return out
}

// decodeFrame parses a [2-byte length][cmd][payload] record already read in
// full (without the leading length prefix); buf must be body-only, i.e.
// exactly what readFrame read past the size prefix.
func decodeFrame(buf []byte) (frame, error) {
	if len(buf) < 1 {
		return frame{}, fmt.Errorf("gwsession: frame body too short: %d bytes", len(buf))
	}
	return frame{cmd: commandID(buf[0]), payload: buf[1:]}, nil
}

// transactionPayload prefixes payload with a 2-byte big-endian transaction
// ID, used to correlate request/response pairs in Session.pending.
func transactionPayload(txID uint16, payload []byte) []byte {
	out := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(out[0:2], txID)
	copy(out[2:], payload)
	return out
}

func splitTransaction(payload []byte) (uint16, []byte, error) {
	if len(payload) < 2 {
		return 0, nil, fmt.Errorf("gwsession: payload too short for transaction id: %d bytes", len(payload))
	}
	return binary.BigEndian.Uint16(payload[0:2]), payload[2:], nil
}
