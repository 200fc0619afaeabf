// Package frame implements the DOMES wire frame:
//
//	[0xAA][0x55][length:u16 LE][type:u8][payload][crc32:u32 LE]
//
// length counts the type byte plus the payload; the CRC uses the IEEE 802.3
// polynomial over type+payload. Encode and Decode are pure; Reader pulls one
// frame at a time off a byte transport, resynchronizing on the marker pair.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

const (
	Marker0 byte = 0xAA
	Marker1 byte = 0x55

	// MaxPayload is the largest payload the firmware will frame.
	MaxPayload = 1024

	// Overhead is the fixed per-frame cost: 2 marker + 2 length + 1 type + 4 CRC.
	Overhead = 9

	maxFrameSize = Overhead + MaxPayload
)

var (
	ErrPayloadTooLarge   = errors.New("frame: payload too large")
	ErrFrameTooShort     = errors.New("frame: frame too short")
	ErrInvalidStartBytes = errors.New("frame: invalid start bytes")
	ErrInvalidLength     = errors.New("frame: invalid length")
	ErrIncompleteFrame   = errors.New("frame: incomplete frame")
	ErrCrcMismatch       = errors.New("frame: crc mismatch")
)

// Encode builds one complete frame around the given type byte and payload.
func Encode(typ byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), MaxPayload)
	}
	length := uint16(1 + len(payload))
	buf := make([]byte, 0, Overhead+len(payload))
	buf = append(buf, Marker0, Marker1)
	buf = binary.LittleEndian.AppendUint16(buf, length)
	buf = append(buf, typ)
	buf = append(buf, payload...)
	crc := crc32.ChecksumIEEE(buf[4:])
	buf = binary.LittleEndian.AppendUint32(buf, crc)
	return buf, nil
}

// Decode validates a fully buffered frame and returns its type and payload.
// The payload aliases buf. Decode never blocks.
func Decode(buf []byte) (byte, []byte, error) {
	if len(buf) < Overhead {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(buf))
	}
	if buf[0] != Marker0 || buf[1] != Marker1 {
		return 0, nil, fmt.Errorf("%w: %02X %02X", ErrInvalidStartBytes, buf[0], buf[1])
	}
	length := binary.LittleEndian.Uint16(buf[2:4])
	if length == 0 || length > MaxPayload+1 {
		return 0, nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	total := totalSize(length)
	if len(buf) < total {
		return 0, nil, fmt.Errorf("%w: %d < %d", ErrIncompleteFrame, len(buf), total)
	}
	typ := buf[4]
	payload := buf[5 : 4+int(length)]
	want := binary.LittleEndian.Uint32(buf[4+int(length) : total])
	got := crc32.ChecksumIEEE(buf[4 : 4+int(length)])
	if got != want {
		return 0, nil, fmt.Errorf("%w: calculated 0x%08X, received 0x%08X", ErrCrcMismatch, got, want)
	}
	return typ, payload, nil
}

// totalSize is the on-wire frame size for a declared length field:
// marker+length header, type+payload, CRC.
func totalSize(length uint16) int {
	return 4 + int(length) + 4
}
