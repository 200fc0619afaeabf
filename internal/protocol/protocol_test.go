package protocol

import (
	"errors"
	"testing"
)

func TestMsgTypeStrings(t *testing.T) {
	cases := map[MsgType]string{
		MsgStart:      "START",
		MsgStop:       "STOP",
		MsgDump:       "DUMP",
		MsgData:       "DATA",
		MsgEnd:        "END",
		MsgClear:      "CLEAR",
		MsgStatus:     "STATUS",
		MsgAck:        "ACK",
		MsgType(0x99): "0x99",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Fatalf("%d: got %q, want %q", typ, got, want)
		}
	}
}

func TestStatusStrings(t *testing.T) {
	cases := map[Status]string{
		StatusOK:          "OK",
		StatusNotInit:     "NOT_INIT",
		StatusAlreadyOn:   "ALREADY_ON",
		StatusAlreadyOff:  "ALREADY_OFF",
		StatusBufferEmpty: "BUFFER_EMPTY",
		StatusError:       "ERROR",
		Status(0x42):      "0x42",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Fatalf("%d: got %q, want %q", status, got, want)
		}
	}
}

func TestAckStatus(t *testing.T) {
	if got := AckStatus([]byte{byte(StatusAlreadyOn)}); got != StatusAlreadyOn {
		t.Fatalf("got %s", got)
	}
	if got := AckStatus(nil); got != StatusError {
		t.Fatalf("empty ack: got %s, want ERROR", got)
	}
}

func TestDeviceStatusErrorMessage(t *testing.T) {
	err := &DeviceStatusError{Op: "clear", Status: StatusNotInit}
	want := "protocol: clear failed: device status NOT_INIT"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
	var dse *DeviceStatusError
	if !errors.As(error(err), &dse) {
		t.Fatalf("errors.As failed")
	}
}
