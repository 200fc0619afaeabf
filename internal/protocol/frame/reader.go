package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/pcesar22/domesctl/internal/observability"
	"github.com/pcesar22/domesctl/internal/transport"
)

// ErrTimeout reports that the deadline expired before a complete frame
// arrived, in whichever state the reader was in.
var ErrTimeout = errors.New("frame: timeout waiting for frame")

type readerState int

const (
	waitMarker0 readerState = iota
	waitMarker1
	readLength
	readBody
)

// Reader scans a byte stream for frames. Marker bytes can appear inside
// payload noise during line corruption, so the reader hunts byte at a time:
// a Marker0 followed by anything other than Marker1 restarts the scan at
// that second byte, which keeps an AA AA 55 sequence decodable from the
// second AA.
type Reader struct {
	conn transport.Conn
	buf  [maxFrameSize]byte
}

func NewReader(conn transport.Conn) *Reader {
	return &Reader{conn: conn}
}

// ReadFrame blocks until one complete frame decodes or the timeout elapses.
// The returned payload is owned by the caller.
func (r *Reader) ReadFrame(timeout time.Duration) (byte, []byte, error) {
	deadline := time.Now().Add(timeout)
	state := waitMarker0
	n := 0     // bytes accumulated in buf
	total := 0 // declared frame size, known once the length field is in

	for {
		if !time.Now().Before(deadline) {
			observability.RecordFrameError("timeout")
			return 0, nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}

		switch state {
		case waitMarker0:
			b, ok, err := r.readByte()
			if err != nil {
				return 0, nil, err
			}
			if ok && b == Marker0 {
				r.buf[0] = Marker0
				n = 1
				state = waitMarker1
			}

		case waitMarker1:
			b, ok, err := r.readByte()
			if err != nil {
				return 0, nil, err
			}
			if !ok {
				continue
			}
			switch b {
			case Marker1:
				r.buf[1] = Marker1
				n = 2
				state = readLength
			case Marker0:
				// This byte may itself start the real frame; stay here.
			default:
				n = 0
				state = waitMarker0
			}

		case readLength:
			m, err := r.read(r.buf[n:4])
			if err != nil {
				return 0, nil, err
			}
			n += m
			if n < 4 {
				continue
			}
			length := binary.LittleEndian.Uint16(r.buf[2:4])
			if length == 0 || length > MaxPayload+1 {
				observability.RecordFrameError("length")
				return 0, nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
			}
			total = totalSize(length)
			state = readBody

		case readBody:
			m, err := r.read(r.buf[n:total])
			if err != nil {
				return 0, nil, err
			}
			n += m
			if n < total {
				continue
			}
			typ, payload, err := Decode(r.buf[:total])
			if err != nil {
				observability.RecordFrameError(decodeErrorReason(err))
				return 0, nil, err
			}
			observability.RecordFrameDecoded()
			out := make([]byte, len(payload))
			copy(out, payload)
			return typ, out, nil
		}
	}
}

// readByte polls for a single byte; ok is false when the poll interval
// passed with nothing buffered.
func (r *Reader) readByte() (byte, bool, error) {
	var one [1]byte
	m, err := r.read(one[:])
	if err != nil {
		return 0, false, err
	}
	return one[0], m == 1, nil
}

// read is a single short-timeout poll of the transport. ErrNoData maps to
// a zero-byte success so the caller's deadline loop keeps spinning.
func (r *Reader) read(p []byte) (int, error) {
	m, err := r.conn.Read(p)
	if err != nil {
		if errors.Is(err, transport.ErrNoData) {
			return 0, nil
		}
		return m, fmt.Errorf("frame: read: %w", err)
	}
	return m, nil
}

func decodeErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrCrcMismatch):
		return "crc"
	case errors.Is(err, ErrInvalidLength):
		return "length"
	case errors.Is(err, ErrInvalidStartBytes):
		return "start"
	case errors.Is(err, ErrFrameTooShort):
		return "short"
	case errors.Is(err, ErrIncompleteFrame):
		return "incomplete"
	default:
		return "other"
	}
}
