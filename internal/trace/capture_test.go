package trace

import (
	"context"
	"strings"
	"testing"

	"github.com/pcesar22/domesctl/internal/protocol"
	"github.com/pcesar22/domesctl/internal/testutil"
)

func TestDumpAllCollectsEveryDevice(t *testing.T) {
	podA := []Event{{Timestamp: 100, TaskID: 1, Type: EventInstant}}
	podB := []Event{
		{Timestamp: 200, TaskID: 2, Type: EventInstant},
		{Timestamp: 300, TaskID: 2, Type: EventInstant},
	}
	sessions := []*Session{
		newTestSession(testutil.NewScriptedConn(
			metadataFrame(t, 1, 0, 100, 100, []taskEntry{{1, "main"}}),
			chunkFrame(t, 0, podA),
			endFrame(t, 1, eventChecksum(podA...)),
		)),
		newTestSession(testutil.NewScriptedConn(
			metadataFrame(t, 2, 0, 200, 300, []taskEntry{{2, "wifi"}}),
			chunkFrame(t, 0, podB),
			endFrame(t, 2, eventChecksum(podB...)),
		)),
	}

	results, err := DumpAll(context.Background(), sessions)
	if err != nil {
		t.Fatalf("dump all: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results: %d", len(results))
	}
	if len(results[0].Events) != 1 || results[0].Meta.TaskNames[1] != "main" {
		t.Fatalf("device 0: %+v", results[0])
	}
	if len(results[1].Events) != 2 || results[1].Meta.TaskNames[2] != "wifi" {
		t.Fatalf("device 1: %+v", results[1])
	}
}

func TestDumpAllReportsFailingDevice(t *testing.T) {
	good := []Event{{Timestamp: 1, TaskID: 1, Type: EventInstant}}
	sessions := []*Session{
		newTestSession(testutil.NewScriptedConn(
			metadataFrame(t, 1, 0, 1, 1, nil),
			chunkFrame(t, 0, good),
			endFrame(t, 1, eventChecksum(good...)),
		)),
		newTestSession(testutil.NewScriptedConn(ackFrame(t, protocol.StatusError))),
	}

	_, err := DumpAll(context.Background(), sessions)
	if err == nil {
		t.Fatal("expected error from failing device")
	}
	if !strings.Contains(err.Error(), "device 1") {
		t.Fatalf("error does not name the device: %v", err)
	}
}

func TestDumpAllHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sessions := []*Session{
		newTestSession(testutil.NewScriptedConn()),
	}
	if _, err := DumpAll(ctx, sessions); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
