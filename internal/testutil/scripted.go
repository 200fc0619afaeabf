// Package testutil provides an in-memory transport for exercising the
// frame reader and trace session against scripted device behavior.
package testutil

import (
	"errors"
	"sync"
	"time"

	"github.com/pcesar22/domesctl/internal/transport"
)

// ScriptedConn implements transport.Conn over canned reply bytes. Reads
// drain the queued script; an empty script reports transport.ErrNoData so
// the caller's deadline logic decides when to give up, exactly like a quiet
// serial line.
type ScriptedConn struct {
	mu     sync.Mutex
	script []byte
	tx     []byte
	closed bool
}

// NewScriptedConn queues the given chunks as the device's reply stream.
func NewScriptedConn(chunks ...[]byte) *ScriptedConn {
	c := &ScriptedConn{}
	for _, chunk := range chunks {
		c.script = append(c.script, chunk...)
	}
	return c
}

// Queue appends more reply bytes to the script.
func (c *ScriptedConn) Queue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, b...)
}

func (c *ScriptedConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, errors.New("testutil: read from closed conn")
	}
	if len(c.script) == 0 {
		return 0, transport.ErrNoData
	}
	n := copy(p, c.script)
	c.script = c.script[n:]
	return n, nil
}

func (c *ScriptedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, errors.New("testutil: write to closed conn")
	}
	c.tx = append(c.tx, p...)
	return len(p), nil
}

func (c *ScriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *ScriptedConn) SetReadTimeout(time.Duration) error { return nil }

// Written returns everything the code under test sent to the device.
func (c *ScriptedConn) Written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.tx))
	copy(out, c.tx)
	return out
}
