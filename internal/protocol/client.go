package protocol

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pcesar22/domesctl/internal/observability"
	"github.com/pcesar22/domesctl/internal/protocol/frame"
	"github.com/pcesar22/domesctl/internal/transport"
)

// Client issues one command frame at a time over an exclusively owned
// connection and awaits exactly one reply. It never retries; retry policy
// belongs to the caller.
type Client struct {
	conn   transport.Conn
	reader *frame.Reader
	log    zerolog.Logger
}

func NewClient(conn transport.Conn, log zerolog.Logger) *Client {
	return &Client{
		conn:   conn,
		reader: frame.NewReader(conn),
		log:    log,
	}
}

// Call writes one command frame and reads one reply frame within timeout.
func (c *Client) Call(typ MsgType, payload []byte, timeout time.Duration) (MsgType, []byte, error) {
	buf, err := frame.Encode(byte(typ), payload)
	if err != nil {
		return 0, nil, err
	}
	if _, err := c.conn.Write(buf); err != nil {
		return 0, nil, fmt.Errorf("protocol: write %s: %w", typ, err)
	}
	c.log.Debug().Stringer("type", typ).Int("payload_len", len(payload)).Msg("tx")
	return c.Next(timeout)
}

// Next reads one more reply frame without issuing a command. The dump
// transaction uses it to drain the DATA chunk stream.
func (c *Client) Next(timeout time.Duration) (MsgType, []byte, error) {
	typ, payload, err := c.reader.ReadFrame(timeout)
	if err != nil {
		if errors.Is(err, frame.ErrTimeout) {
			observability.RecordCommandTimeout()
		}
		return 0, nil, err
	}
	c.log.Debug().Stringer("type", MsgType(typ)).Int("payload_len", len(payload)).Msg("rx")
	return MsgType(typ), payload, nil
}
