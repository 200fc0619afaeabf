package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

type serialConn struct {
	port serial.Port
}

// OpenSerial opens the named serial port. A baud of 0 selects DefaultBaud.
func OpenSerial(name string, baud int) (Conn, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("transport: open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(defaultReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("transport: set read timeout on %s: %w", name, err)
	}
	return &serialConn{port: port}, nil
}

// ListPorts enumerates the serial ports present on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: enumerate serial ports: %w", err)
	}
	return ports, nil
}

func (s *serialConn) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil {
		return n, err
	}
	if n == 0 {
		// The port read timeout expired with nothing buffered.
		return 0, ErrNoData
	}
	return n, nil
}

func (s *serialConn) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialConn) Close() error {
	return s.port.Close()
}

func (s *serialConn) SetReadTimeout(d time.Duration) error {
	return s.port.SetReadTimeout(d)
}
