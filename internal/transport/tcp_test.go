package transport

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// echoListener accepts one connection and writes whatever it receives back.
func echoListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn)
	}()
	return ln
}

func TestDialTCPRoundTrip(t *testing.T) {
	ln := echoListener(t)
	conn, err := DialTCP(ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := []byte{0xAA, 0x55, 0x01, 0x00}
	if _, err := conn.Write(msg); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, len(msg))
	read := 0
	deadline := time.Now().Add(2 * time.Second)
	for read < len(msg) {
		if time.Now().After(deadline) {
			t.Fatalf("echo stalled after %d bytes", read)
		}
		n, err := conn.Read(buf[read:])
		if err != nil && !errors.Is(err, ErrNoData) {
			t.Fatalf("read: %v", err)
		}
		read += n
	}
	if string(buf) != string(msg) {
		t.Fatalf("echoed %x, want %x", buf, msg)
	}
}

func TestTCPReadReturnsErrNoDataOnSilence(t *testing.T) {
	ln := echoListener(t)
	conn, err := DialTCP(ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.SetReadTimeout(10 * time.Millisecond); err != nil {
		t.Fatalf("set read timeout: %v", err)
	}
	n, err := conn.Read(make([]byte, 16))
	if n != 0 || !errors.Is(err, ErrNoData) {
		t.Fatalf("silent read = %d, %v; want 0, ErrNoData", n, err)
	}
}

func TestDialTCPFailure(t *testing.T) {
	if _, err := DialTCP("127.0.0.1:1", 50*time.Millisecond); err == nil {
		t.Fatal("expected connection failure")
	}
}
