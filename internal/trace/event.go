// Package trace owns the host side of the device tracing subsystem: the
// dump session state machine, the 16-byte event record decoder, the Chrome
// Trace Format exporter, and the multi-device merge.
package trace

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// EventType is a firmware trace event code.
type EventType byte

const (
	EventTaskSwitchIn  EventType = 0x01
	EventTaskSwitchOut EventType = 0x02
	EventTaskCreate    EventType = 0x03
	EventTaskDelete    EventType = 0x04
	EventISREnter      EventType = 0x05
	EventISRExit       EventType = 0x06
	EventQueueSend     EventType = 0x07
	EventQueueReceive  EventType = 0x08
	EventMutexLock     EventType = 0x09
	EventMutexUnlock   EventType = 0x0A
	EventSpanBegin     EventType = 0x20
	EventSpanEnd       EventType = 0x21
	EventInstant       EventType = 0x22
	EventCounter       EventType = 0x23
	EventComplete      EventType = 0x24
)

// Category is the subsystem a trace event belongs to, carried in the upper
// nibble of the event flags.
type Category uint8

const (
	CategoryKernel Category = iota
	CategoryTransport
	CategoryOTA
	CategoryWifi
	CategoryLED
	CategoryAudio
	CategoryTouch
	CategoryGame
	CategoryUser
	CategoryHaptic
	CategoryBLE
	CategoryNVS
	CategoryEspNow
)

var categoryNames = map[Category]string{
	CategoryKernel:    "kernel",
	CategoryTransport: "transport",
	CategoryOTA:       "ota",
	CategoryWifi:      "wifi",
	CategoryLED:       "led",
	CategoryAudio:     "audio",
	CategoryTouch:     "touch",
	CategoryGame:      "game",
	CategoryUser:      "user",
	CategoryHaptic:    "haptic",
	CategoryBLE:       "ble",
	CategoryNVS:       "nvs",
	CategoryEspNow:    "espnow",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cat%d", uint8(c))
}

// EventRecordSize is the fixed on-wire size of one trace event record.
const EventRecordSize = 16

// ErrMalformedRecord reports an event record slice that is not exactly
// EventRecordSize bytes.
var ErrMalformedRecord = errors.New("trace: malformed event record")

// Event is one decoded trace record. Immutable once decoded.
type Event struct {
	Timestamp uint32 // microseconds since device boot
	TaskID    uint16
	Type      EventType
	Flags     byte
	Arg1      uint32 // span/counter/event identifier, meaning depends on Type
	Arg2      uint32 // auxiliary value, e.g. counter payload
}

// Category extracts the category from the upper nibble of the flags.
func (e Event) Category() Category {
	return Category(e.Flags >> 4)
}

// DecodeEvent unpacks one fixed-layout 16-byte record.
func DecodeEvent(b []byte) (Event, error) {
	if len(b) != EventRecordSize {
		return Event{}, fmt.Errorf("%w: %d bytes", ErrMalformedRecord, len(b))
	}
	return Event{
		Timestamp: binary.LittleEndian.Uint32(b[0:4]),
		TaskID:    binary.LittleEndian.Uint16(b[4:6]),
		Type:      EventType(b[6]),
		Flags:     b[7],
		Arg1:      binary.LittleEndian.Uint32(b[8:12]),
		Arg2:      binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}
