// Package protocol speaks the trace dialect of the DOMES frame protocol:
// closed command-type and device-status enumerations plus a strictly
// half-duplex request/response client. The device-configuration dialect
// shares the framing layer but not this command set.
package protocol

import (
	"errors"
	"fmt"
)

// MsgType is a trace protocol command or reply type.
type MsgType byte

const (
	MsgStart  MsgType = 0x10
	MsgStop   MsgType = 0x11
	MsgDump   MsgType = 0x12
	MsgData   MsgType = 0x13
	MsgEnd    MsgType = 0x14
	MsgClear  MsgType = 0x15
	MsgStatus MsgType = 0x16
	MsgAck    MsgType = 0x17
)

func (t MsgType) String() string {
	switch t {
	case MsgStart:
		return "START"
	case MsgStop:
		return "STOP"
	case MsgDump:
		return "DUMP"
	case MsgData:
		return "DATA"
	case MsgEnd:
		return "END"
	case MsgClear:
		return "CLEAR"
	case MsgStatus:
		return "STATUS"
	case MsgAck:
		return "ACK"
	default:
		return fmt.Sprintf("0x%02X", byte(t))
	}
}

// Status is a device status code carried in ACK replies.
type Status byte

const (
	StatusOK          Status = 0x00
	StatusNotInit     Status = 0x01
	StatusAlreadyOn   Status = 0x02
	StatusAlreadyOff  Status = 0x03
	StatusBufferEmpty Status = 0x04
	StatusError       Status = 0xFF
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotInit:
		return "NOT_INIT"
	case StatusAlreadyOn:
		return "ALREADY_ON"
	case StatusAlreadyOff:
		return "ALREADY_OFF"
	case StatusBufferEmpty:
		return "BUFFER_EMPTY"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("0x%02X", byte(s))
	}
}

// ErrUnexpectedReply reports a reply frame whose type does not fit the
// command that was issued.
var ErrUnexpectedReply = errors.New("protocol: unexpected reply type")

// DeviceStatusError is a non-success status code the calling operation did
// not explicitly tolerate.
type DeviceStatusError struct {
	Op     string
	Status Status
}

func (e *DeviceStatusError) Error() string {
	return fmt.Sprintf("protocol: %s failed: device status %s", e.Op, e.Status)
}

// AckStatus extracts the status byte from an ACK payload. An empty ACK is
// treated as ERROR, matching the firmware's degenerate case.
func AckStatus(payload []byte) Status {
	if len(payload) == 0 {
		return StatusError
	}
	return Status(payload[0])
}
