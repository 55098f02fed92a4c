package actuator

import "fmt"

// Command bytes sent to the subordinate controller.
const (
	CmdLock    byte = 'L'
	CmdUnlock  byte = 'U'
	CmdStatus  byte = 'S'
	CmdOnline  byte = 'O'
	CmdOffline byte = 'F'
)

// Response bytes in controller replies.
const (
	RespAck      byte = 'A'
	RespError    byte = 'E'
	RespLocked   byte = '1'
	RespUnlocked byte = '2'
)

// frameSize is the fixed length of a controller reply:
// [command][slotDigit][response]. Requests omit the response byte.
const frameSize = 3

// Frame is one decoded controller reply.
type Frame struct {
	Command  byte
	Slot     int
	Response byte
}

// encodeRequest builds the 2-byte request for a command and slot. Slot 0
// addresses all slots (status request, online/offline announcements).
func encodeRequest(command byte, slot int) ([]byte, error) {
	if slot < 0 || slot > 9 {
		return nil, fmt.Errorf("actuator: slot %d not encodable as a digit", slot)
	}
	return []byte{command, '0' + byte(slot)}, nil
}

// decodeFrame parses a complete 3-byte reply.
func decodeFrame(raw []byte) (Frame, error) {
	if len(raw) != frameSize {
		return Frame{}, fmt.Errorf("actuator: frame length %d, want %d", len(raw), frameSize)
	}
	slotDigit := raw[1]
	if slotDigit < '0' || slotDigit > '9' {
		return Frame{}, fmt.Errorf("actuator: invalid slot byte %q", slotDigit)
	}
	return Frame{
		Command:  raw[0],
		Slot:     int(slotDigit - '0'),
		Response: raw[2],
	}, nil
}
