package trace

import (
	"fmt"
	"sort"
)

// Chrome Trace Event Format phase markers.
const (
	PhaseMetadata = "M"
	PhaseBegin    = "B"
	PhaseEnd      = "E"
	PhaseInstant  = "i"
	PhaseCounter  = "C"
)

// Instant-event scopes.
const (
	ScopeThread = "t"
	ScopeGlobal = "g"
)

// ISRLane is the reserved display thread for interrupt activity; task id 0
// never names a real task.
const ISRLane = 0

// ChromeEvent is one entry in a Chrome Trace Format document, as consumed
// by Perfetto and chrome://tracing.
type ChromeEvent struct {
	Name      string         `json:"name"`
	Category  string         `json:"cat,omitempty"`
	Phase     string         `json:"ph"`
	PID       int            `json:"pid"`
	TID       int            `json:"tid"`
	Timestamp int64          `json:"ts"`
	Scope     string         `json:"s,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
}

// Document is an exported trace: an ordered visualization event stream.
type Document struct {
	TraceEvents []ChromeEvent `json:"traceEvents"`
}

// Exporter renders dump output into a Document. The zero value exports with
// no span names and the default process name.
type Exporter struct {
	// Names optionally resolves span/counter/instant identifiers.
	Names *NameTable

	// ProcessName labels the device's process entry. Default "ESP32-S3".
	ProcessName string
}

// Export maps decoded metadata and events to visualization events. Event
// types outside the supported set produce nothing; that is not an error.
func (x Exporter) Export(meta Metadata, events []Event) *Document {
	processName := x.ProcessName
	if processName == "" {
		processName = "ESP32-S3"
	}

	doc := &Document{TraceEvents: make([]ChromeEvent, 0, len(events)+len(meta.TaskNames)+2)}
	doc.TraceEvents = append(doc.TraceEvents, ChromeEvent{
		Name:  "process_name",
		Phase: PhaseMetadata,
		PID:   1,
		Args:  map[string]any{"name": processName},
	})

	// Map iteration is randomized; emit thread entries in task-id order so
	// the document is deterministic for a given dump.
	taskIDs := make([]int, 0, len(meta.TaskNames))
	for id := range meta.TaskNames {
		taskIDs = append(taskIDs, int(id))
	}
	sort.Ints(taskIDs)
	for _, id := range taskIDs {
		doc.TraceEvents = append(doc.TraceEvents, ChromeEvent{
			Name:  "thread_name",
			Phase: PhaseMetadata,
			PID:   1,
			TID:   id,
			Args:  map[string]any{"name": meta.TaskNames[uint16(id)]},
		})
	}
	doc.TraceEvents = append(doc.TraceEvents, ChromeEvent{
		Name:  "thread_name",
		Phase: PhaseMetadata,
		PID:   1,
		TID:   ISRLane,
		Args:  map[string]any{"name": "ISR"},
	})

	for _, event := range events {
		if chromeEvent, ok := x.convert(event); ok {
			doc.TraceEvents = append(doc.TraceEvents, chromeEvent)
		}
	}
	return doc
}

func (x Exporter) convert(event Event) (ChromeEvent, bool) {
	out := ChromeEvent{
		Category:  event.Category().String(),
		PID:       1,
		TID:       int(event.TaskID),
		Timestamp: int64(event.Timestamp),
	}

	switch event.Type {
	case EventTaskSwitchIn:
		out.Name, out.Phase = "Running", PhaseBegin
	case EventTaskSwitchOut:
		out.Name, out.Phase = "Running", PhaseEnd
	case EventSpanBegin:
		out.Name, out.Phase = x.spanName(event.Arg1), PhaseBegin
	case EventSpanEnd:
		out.Name, out.Phase = x.spanName(event.Arg1), PhaseEnd
	case EventInstant:
		out.Name, out.Phase = x.idName("Event", event.Arg1), PhaseInstant
		out.Scope = ScopeThread
	case EventCounter:
		name := x.idName("Counter", event.Arg1)
		out.Name, out.Phase = name, PhaseCounter
		out.Args = map[string]any{name: event.Arg2}
	case EventISREnter:
		out.Name, out.Phase = fmt.Sprintf("ISR-%d", event.Arg1), PhaseBegin
		out.TID = ISRLane
	case EventISRExit:
		out.Name, out.Phase = fmt.Sprintf("ISR-%d", event.Arg1), PhaseEnd
		out.TID = ISRLane
	case EventTaskCreate:
		out.Name, out.Phase = fmt.Sprintf("TaskCreate-%d", event.Arg1), PhaseInstant
		out.Scope = ScopeGlobal
	case EventTaskDelete:
		out.Name, out.Phase = fmt.Sprintf("TaskDelete-%d", event.Arg1), PhaseInstant
		out.Scope = ScopeGlobal
	default:
		return ChromeEvent{}, false
	}
	return out, true
}

func (x Exporter) spanName(id uint32) string {
	if name, ok := x.Names.Lookup(id); ok {
		return name
	}
	return fmt.Sprintf("Span-%08x", id)
}

func (x Exporter) idName(kind string, id uint32) string {
	if name, ok := x.Names.Lookup(id); ok {
		return name
	}
	return fmt.Sprintf("%s-%08x", kind, id)
}
