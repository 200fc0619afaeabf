// Package transport provides byte-stream connections to a DOMES device.
//
// A Conn is half-duplex and exclusively owned by one protocol session; no
// concurrent readers or writers on the same connection are supported. Reads
// poll with a short timeout so callers can enforce their own deadlines, and
// a poll that yields no data reports ErrNoData rather than blocking.
package transport

import (
	"errors"
	"io"
	"time"
)

// DefaultBaud is the serial line rate the firmware console runs at.
const DefaultBaud = 115200

// ErrNoData reports a read poll that expired without receiving any bytes.
// It is not a failure; callers retry until their own deadline elapses.
var ErrNoData = errors.New("transport: no data within read timeout")

// Conn is one byte-oriented connection to a device.
type Conn interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds how long a single Read may wait for data.
	SetReadTimeout(d time.Duration) error
}
