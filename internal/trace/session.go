package trace

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pcesar22/domesctl/internal/observability"
	"github.com/pcesar22/domesctl/internal/protocol"
	"github.com/pcesar22/domesctl/internal/protocol/frame"
	"github.com/pcesar22/domesctl/internal/transport"
)

const (
	statusRecordSize   = 14
	metadataHeaderSize = 17
	taskNameSize       = 18
	taskEntrySize      = 2 + taskNameSize
	chunkHeaderSize    = 6
	endRecordSize      = 8
)

// StatusInfo is the device's answer to a STATUS query.
type StatusInfo struct {
	Initialized  bool
	Enabled      bool
	EventCount   uint32
	DroppedCount uint32
	BufferSize   uint32
}

// Metadata describes one dump: what the device claims to hold plus the task
// name table. DroppedCount > 0 means the device-side ring overflowed.
type Metadata struct {
	EventCount     uint32
	DroppedCount   uint32
	StartTimestamp uint32
	EndTimestamp   uint32
	TaskNames      map[uint16]string
}

// PartialDumpError reports a dump that stalled past its deadline with fewer
// than the declared events. The events collected before the stall are
// attached, never discarded.
type PartialDumpError struct {
	Collected int
	Expected  int
	Meta      Metadata
	Events    []Event
}

func (e *PartialDumpError) Error() string {
	return fmt.Sprintf("trace: partial dump: collected %d of %d events before timeout", e.Collected, e.Expected)
}

// ErrChecksumMismatch reports that the byte-sum accumulated over received
// event records disagrees with the END frame's checksum field. Individual
// frame CRCs passing does not rule this out; the END checksum covers the
// whole event stream.
var ErrChecksumMismatch = errors.New("trace: dump checksum mismatch")

// Config tunes a Session's per-reply deadlines.
type Config struct {
	ReplyTimeout time.Duration // single command/reply exchange
	ChunkTimeout time.Duration // each DATA/END frame within a dump
}

func (c Config) withDefaults() Config {
	if c.ReplyTimeout <= 0 {
		c.ReplyTimeout = 5 * time.Second
	}
	if c.ChunkTimeout <= 0 {
		c.ChunkTimeout = 10 * time.Second
	}
	return c
}

// Session drives the trace protocol over one exclusively owned connection.
// It is not safe for concurrent use; run one Session per device instead.
type Session struct {
	client *protocol.Client
	cfg    Config
	log    zerolog.Logger
}

func NewSession(conn transport.Conn, cfg Config, log zerolog.Logger) *Session {
	return &Session{
		client: protocol.NewClient(conn, log),
		cfg:    cfg.withDefaults(),
		log:    log,
	}
}

// Status queries the tracing subsystem state.
func (s *Session) Status() (StatusInfo, error) {
	typ, payload, err := s.client.Call(protocol.MsgStatus, nil, s.cfg.ReplyTimeout)
	if err != nil {
		return StatusInfo{}, err
	}
	if typ == protocol.MsgAck {
		return StatusInfo{}, &protocol.DeviceStatusError{Op: "status", Status: protocol.AckStatus(payload)}
	}
	if typ != protocol.MsgStatus {
		return StatusInfo{}, fmt.Errorf("%w: got %s, want %s", protocol.ErrUnexpectedReply, typ, protocol.MsgStatus)
	}
	if len(payload) < statusRecordSize {
		return StatusInfo{}, fmt.Errorf("trace: status payload too short: %d bytes", len(payload))
	}
	return StatusInfo{
		Initialized:  payload[0] != 0,
		Enabled:      payload[1] != 0,
		EventCount:   binary.LittleEndian.Uint32(payload[2:6]),
		DroppedCount: binary.LittleEndian.Uint32(payload[6:10]),
		BufferSize:   binary.LittleEndian.Uint32(payload[10:14]),
	}, nil
}

// Start enables recording. An already-running recorder is success.
func (s *Session) Start() error {
	return s.simpleCommand("start", protocol.MsgStart, protocol.StatusAlreadyOn)
}

// Stop disables recording. An already-stopped recorder is success.
func (s *Session) Stop() error {
	return s.simpleCommand("stop", protocol.MsgStop, protocol.StatusAlreadyOff)
}

// Clear empties the device-side event buffer.
func (s *Session) Clear() error {
	return s.simpleCommand("clear", protocol.MsgClear)
}

func (s *Session) simpleCommand(op string, typ protocol.MsgType, tolerated ...protocol.Status) error {
	reply, payload, err := s.client.Call(typ, nil, s.cfg.ReplyTimeout)
	if err != nil {
		return err
	}
	if reply != protocol.MsgAck {
		return fmt.Errorf("%w: got %s, want %s", protocol.ErrUnexpectedReply, reply, protocol.MsgAck)
	}
	status := protocol.AckStatus(payload)
	if status == protocol.StatusOK {
		return nil
	}
	for _, ok := range tolerated {
		if status == ok {
			return nil
		}
	}
	return &protocol.DeviceStatusError{Op: op, Status: status}
}

// Dump pulls the whole event buffer off the device: a metadata frame, then
// DATA chunks until either the declared event count is collected or an END
// frame arrives. On a mid-stream timeout the collected events are returned
// inside a *PartialDumpError alongside the metadata.
func (s *Session) Dump() (Metadata, []Event, error) {
	started := time.Now()
	typ, payload, err := s.client.Call(protocol.MsgDump, nil, s.cfg.ReplyTimeout)
	if err != nil {
		return Metadata{}, nil, err
	}

	if typ == protocol.MsgAck {
		status := protocol.AckStatus(payload)
		if status == protocol.StatusBufferEmpty {
			return Metadata{TaskNames: map[uint16]string{}}, nil, nil
		}
		return Metadata{}, nil, &protocol.DeviceStatusError{Op: "dump", Status: status}
	}
	if typ != protocol.MsgData {
		return Metadata{}, nil, fmt.Errorf("%w: got %s, want %s", protocol.ErrUnexpectedReply, typ, protocol.MsgData)
	}

	meta, err := decodeMetadata(payload)
	if err != nil {
		return Metadata{}, nil, err
	}
	s.log.Info().
		Uint32("events", meta.EventCount).
		Uint32("dropped", meta.DroppedCount).
		Int("tasks", len(meta.TaskNames)).
		Msg("dump metadata")

	events := make([]Event, 0, meta.EventCount)
	var checksum uint32
	sawEnd := false
	var endChecksum uint32

collect:
	for uint32(len(events)) < meta.EventCount {
		typ, payload, err := s.client.Next(s.cfg.ChunkTimeout)
		if err != nil {
			if errors.Is(err, frame.ErrTimeout) {
				return meta, events, &PartialDumpError{
					Collected: len(events),
					Expected:  int(meta.EventCount),
					Meta:      meta,
					Events:    events,
				}
			}
			return meta, events, err
		}

		switch typ {
		case protocol.MsgEnd:
			if len(payload) >= endRecordSize {
				total := binary.LittleEndian.Uint32(payload[0:4])
				endChecksum = binary.LittleEndian.Uint32(payload[4:8])
				sawEnd = true
				s.log.Debug().Uint32("total", total).
					Str("checksum", fmt.Sprintf("0x%08X", endChecksum)).Msg("dump end")
			}
			break collect
		case protocol.MsgData:
			n := decodeChunk(payload, &events, &checksum, s.log)
			observability.RecordDumpChunk()
			s.log.Debug().Int("decoded", n).Int("collected", len(events)).Msg("dump chunk")
		default:
			return meta, events, fmt.Errorf("%w: got %s during dump", protocol.ErrUnexpectedReply, typ)
		}
	}

	observability.RecordDump(time.Since(started))
	if sawEnd {
		if err := verifyChecksum(checksum, endChecksum); err != nil {
			// Stream corruption signal; the events themselves stay usable.
			return meta, events, err
		}
	}
	return meta, events, nil
}

// verifyChecksum compares the locally accumulated byte-sum over event
// records against the device-reported END checksum.
func verifyChecksum(local, reported uint32) error {
	if local != reported {
		return fmt.Errorf("%w: local 0x%08X, device 0x%08X", ErrChecksumMismatch, local, reported)
	}
	return nil
}

func decodeMetadata(payload []byte) (Metadata, error) {
	if len(payload) < metadataHeaderSize {
		return Metadata{}, fmt.Errorf("trace: metadata payload too short: %d bytes", len(payload))
	}
	meta := Metadata{
		EventCount:     binary.LittleEndian.Uint32(payload[0:4]),
		DroppedCount:   binary.LittleEndian.Uint32(payload[4:8]),
		StartTimestamp: binary.LittleEndian.Uint32(payload[8:12]),
		EndTimestamp:   binary.LittleEndian.Uint32(payload[12:16]),
		TaskNames:      make(map[uint16]string),
	}
	taskCount := int(payload[16])
	offset := metadataHeaderSize
	for i := 0; i < taskCount; i++ {
		if offset+taskEntrySize > len(payload) {
			break
		}
		id := binary.LittleEndian.Uint16(payload[offset : offset+2])
		meta.TaskNames[id] = decodeTaskName(payload[offset+2 : offset+taskEntrySize])
		offset += taskEntrySize
	}
	return meta, nil
}

// decodeTaskName strips NUL padding and sanitizes invalid UTF-8 rather than
// rejecting it; task names come from firmware and are best-effort.
func decodeTaskName(b []byte) string {
	return strings.ToValidUTF8(string(bytes.TrimRight(b, "\x00")), "�")
}

// decodeChunk appends the chunk's packed records to events and folds their
// bytes into the running checksum. A trailing remainder that is not a whole
// record is dropped; decoding continues with the next chunk.
func decodeChunk(payload []byte, events *[]Event, checksum *uint32, log zerolog.Logger) int {
	if len(payload) < chunkHeaderSize {
		log.Warn().Int("len", len(payload)).Msg("data chunk too short, skipping")
		return 0
	}
	count := int(binary.LittleEndian.Uint16(payload[4:6]))
	data := payload[chunkHeaderSize:]
	decoded := 0
	for i := 0; i < count; i++ {
		start := i * EventRecordSize
		if start+EventRecordSize > len(data) {
			log.Warn().Int("remainder", len(data)-start).Msg("discarding malformed chunk remainder")
			break
		}
		record := data[start : start+EventRecordSize]
		event, err := DecodeEvent(record)
		if err != nil {
			break
		}
		for _, b := range record {
			*checksum += uint32(b)
		}
		*events = append(*events, event)
		decoded++
	}
	return decoded
}
