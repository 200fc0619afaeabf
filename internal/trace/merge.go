package trace

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AlignMode selects how per-device time offsets are computed when merging.
type AlignMode string

const (
	// AlignZero shifts each device so its earliest event lands at t=0.
	AlignZero AlignMode = "zero"
	// AlignBeacon aligns devices on their first beacon span, using device 0
	// as the reference clock.
	AlignBeacon AlignMode = "beacon"
	// AlignRaw keeps raw device timestamps.
	AlignRaw AlignMode = "raw"
)

// ParseAlignMode validates a CLI/flag string as an alignment mode.
func ParseAlignMode(s string) (AlignMode, error) {
	switch AlignMode(s) {
	case AlignZero, AlignBeacon, AlignRaw:
		return AlignMode(s), nil
	default:
		return "", fmt.Errorf("trace: invalid align mode %q (want zero, beacon or raw)", s)
	}
}

// DefaultBeaconName is the span every pod emits when broadcasting over
// ESP-NOW, making it a shared time reference across device clocks.
const DefaultBeaconName = "EspNow.SendBeacon"

// categoryLanes is the closed category -> display-lane table. Categories
// outside it land on the overflow lane.
var categoryLanes = map[string]int{
	"kernel":    1,
	"transport": 2,
	"ota":       3,
	"wifi":      4,
	"led":       5,
	"audio":     6,
	"touch":     7,
	"game":      8,
	"user":      9,
	"haptic":    10,
	"ble":       11,
	"nvs":       12,
	"espnow":    13,
	"unknown":   14,
}

const overflowLane = 14

// laneOrder lists the lanes for per-device thread metadata, lowest first.
var laneOrder = []string{
	"kernel", "transport", "ota", "wifi", "led", "audio", "touch",
	"game", "user", "haptic", "ble", "nvs", "espnow", "unknown",
}

// MergeInput is one device's exported document plus its display name.
type MergeInput struct {
	Name string
	Doc  *Document
}

// MergeInfo reports how a merge aligned its inputs.
type MergeInfo struct {
	// Offsets holds the per-device timestamp offset that was applied.
	Offsets []int64
	// BeaconFallback is set when AlignBeacon was requested but at least one
	// device had no beacon event, forcing zero alignment for all devices.
	BeaconFallback bool
}

// Merger combines exported per-device documents into one timeline.
type Merger struct {
	// Names optionally resolves "span:<id>" references.
	Names *NameTable

	// Beacon is the span name used by AlignBeacon. Default DefaultBeaconName.
	Beacon string
}

// Merge tags every event with its device index, resolves categories to
// lanes and symbolic names to display names, applies alignment offsets, and
// stable-sorts the union by (timestamp, device index). Deterministic for
// the same inputs and mode.
func (m Merger) Merge(inputs []MergeInput, align AlignMode) (*Document, MergeInfo, error) {
	if len(inputs) == 0 {
		return nil, MergeInfo{}, errors.New("trace: merge needs at least one input")
	}
	for i, in := range inputs {
		if in.Doc == nil {
			return nil, MergeInfo{}, fmt.Errorf("trace: merge input %d (%s): nil document", i, in.Name)
		}
	}

	offsets, fallback, err := m.offsets(inputs, align)
	if err != nil {
		return nil, MergeInfo{}, err
	}
	info := MergeInfo{Offsets: offsets, BeaconFallback: fallback}

	merged := make([]ChromeEvent, 0, totalEvents(inputs)+len(inputs)*(len(laneOrder)+1))
	for i, in := range inputs {
		merged = append(merged, ChromeEvent{
			Name:  "process_name",
			Phase: PhaseMetadata,
			PID:   i,
			TID:   0,
			Args:  map[string]any{"name": in.Name},
		})
		for _, lane := range laneOrder {
			merged = append(merged, ChromeEvent{
				Name:  "thread_name",
				Phase: PhaseMetadata,
				PID:   i,
				TID:   categoryLanes[lane],
				Args:  map[string]any{"name": lane},
			})
		}
	}

	for device, in := range inputs {
		offset := offsets[device]
		for _, event := range in.Doc.TraceEvents {
			if event.Phase == PhaseMetadata {
				// Source documents carry their own process/thread metadata;
				// the merge emits its own lane layout instead.
				continue
			}
			out := event
			out.PID = device
			out.Name = m.Names.Resolve(event.Name)

			category := event.Category
			if category == "" || category == "unknown" {
				// Events recorded before the category nibble existed show up
				// as unknown; the beacon span names give them away.
				if strings.Contains(out.Name, "EspNow") {
					category = "espnow"
					out.Category = category
				}
			}
			lane, ok := categoryLanes[category]
			if !ok {
				lane = overflowLane
			}
			out.TID = lane
			out.Timestamp += offset
			merged = append(merged, out)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Timestamp != merged[j].Timestamp {
			return merged[i].Timestamp < merged[j].Timestamp
		}
		return merged[i].PID < merged[j].PID
	})
	return &Document{TraceEvents: merged}, info, nil
}

func (m Merger) offsets(inputs []MergeInput, align AlignMode) ([]int64, bool, error) {
	switch align {
	case AlignRaw:
		return make([]int64, len(inputs)), false, nil

	case AlignZero:
		return zeroOffsets(inputs), false, nil

	case AlignBeacon:
		beacon := m.Beacon
		if beacon == "" {
			beacon = DefaultBeaconName
		}
		times := make([]int64, len(inputs))
		found := make([]bool, len(inputs))
		for i, in := range inputs {
			for _, event := range in.Doc.TraceEvents {
				if event.Phase != PhaseBegin {
					continue
				}
				if m.Names.Resolve(event.Name) == beacon {
					times[i] = event.Timestamp
					found[i] = true
					break
				}
			}
		}
		for _, ok := range found {
			if !ok {
				// One missing beacon invalidates the shared reference for
				// everyone; fall back to zero alignment across the board.
				return zeroOffsets(inputs), true, nil
			}
		}
		offsets := make([]int64, len(inputs))
		for i := range inputs {
			offsets[i] = times[0] - times[i]
		}
		return offsets, false, nil

	default:
		return nil, false, fmt.Errorf("trace: invalid align mode %q", align)
	}
}

// zeroOffsets shifts each device so its earliest non-metadata event starts
// at t=0. Devices with no events keep offset 0.
func zeroOffsets(inputs []MergeInput) []int64 {
	offsets := make([]int64, len(inputs))
	for i, in := range inputs {
		first := true
		var min int64
		for _, event := range in.Doc.TraceEvents {
			if event.Phase == PhaseMetadata {
				continue
			}
			if first || event.Timestamp < min {
				min = event.Timestamp
				first = false
			}
		}
		if !first {
			offsets[i] = -min
		}
	}
	return offsets
}

func totalEvents(inputs []MergeInput) int {
	n := 0
	for _, in := range inputs {
		n += len(in.Doc.TraceEvents)
	}
	return n
}
