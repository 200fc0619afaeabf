package transport

import (
	"fmt"
	"net"
	"time"
)

const defaultReadTimeout = 20 * time.Millisecond

type tcpConn struct {
	conn        net.Conn
	readTimeout time.Duration
}

// DialTCP connects to a device's TCP bridge at addr ("host:port").
func DialTCP(addr string, timeout time.Duration) (Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: connect %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// Nagle adds latency to small command frames.
		_ = tc.SetNoDelay(true)
	}
	return &tcpConn{conn: conn, readTimeout: defaultReadTimeout}, nil
}

func (t *tcpConn) Read(p []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		if n > 0 {
			return n, nil
		}
		return 0, ErrNoData
	}
	return n, err
}

func (t *tcpConn) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

func (t *tcpConn) Close() error {
	return t.conn.Close()
}

func (t *tcpConn) SetReadTimeout(d time.Duration) error {
	t.readTimeout = d
	return nil
}
