package protocol

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pcesar22/domesctl/internal/protocol/frame"
	"github.com/pcesar22/domesctl/internal/testutil"
)

func TestCallWritesCommandAndReturnsReply(t *testing.T) {
	reply, _ := frame.Encode(byte(MsgAck), []byte{byte(StatusOK)})
	conn := testutil.NewScriptedConn(reply)
	client := NewClient(conn, zerolog.Nop())

	typ, payload, err := client.Call(MsgStart, nil, time.Second)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if typ != MsgAck {
		t.Fatalf("reply type: got %s", typ)
	}
	if AckStatus(payload) != StatusOK {
		t.Fatalf("reply status: got %s", AckStatus(payload))
	}

	wantWire, _ := frame.Encode(byte(MsgStart), nil)
	if !bytes.Equal(conn.Written(), wantWire) {
		t.Fatalf("wire mismatch:\n got %x\nwant %x", conn.Written(), wantWire)
	}
}

func TestCallTimesOutWithoutReply(t *testing.T) {
	client := NewClient(testutil.NewScriptedConn(), zerolog.Nop())
	_, _, err := client.Call(MsgStatus, nil, 50*time.Millisecond)
	if !errors.Is(err, frame.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCallRejectsOversizedPayload(t *testing.T) {
	client := NewClient(testutil.NewScriptedConn(), zerolog.Nop())
	_, _, err := client.Call(MsgDump, make([]byte, frame.MaxPayload+1), time.Second)
	if !errors.Is(err, frame.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestNextDrainsFollowOnFrames(t *testing.T) {
	first, _ := frame.Encode(byte(MsgData), []byte{1})
	second, _ := frame.Encode(byte(MsgEnd), []byte{2})
	client := NewClient(testutil.NewScriptedConn(first, second), zerolog.Nop())

	typ, _, err := client.Next(time.Second)
	if err != nil || typ != MsgData {
		t.Fatalf("first: type %s err %v", typ, err)
	}
	typ, _, err = client.Next(time.Second)
	if err != nil || typ != MsgEnd {
		t.Fatalf("second: type %s err %v", typ, err)
	}
}
