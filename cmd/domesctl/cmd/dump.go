package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pcesar22/domesctl/internal/trace"
)

var dumpOutput string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the trace buffer to a Chrome Trace Format file",
	Long: `Dump pulls the event buffer off each configured device and writes one
Chrome Trace Format JSON file per device, viewable in Perfetto
(https://ui.perfetto.dev) or chrome://tracing. With multiple devices the
dumps run concurrently and outputs are numbered trace-0.json, trace-1.json…`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eps, err := endpoints()
		if err != nil {
			return err
		}
		names, err := nameTable()
		if err != nil {
			return err
		}

		sessions := make([]*trace.Session, len(eps))
		for i, ep := range eps {
			conn, err := ep.open()
			if err != nil {
				return err
			}
			defer conn.Close()
			sessions[i] = trace.NewSession(conn, sessionConfig(), log.With().Str("device", ep.name).Logger())
		}

		results, err := dumpSessions(sessions)
		if err != nil {
			return err
		}

		exporter := trace.Exporter{Names: names}
		for i, result := range results {
			out := dumpOutput
			if len(results) > 1 {
				out = numberedOutput(dumpOutput, i)
			}
			doc := exporter.Export(result.Meta, result.Events)
			if err := writeDocument(out, doc); err != nil {
				return err
			}
			log.Info().Str("device", eps[i].name).Str("output", out).
				Int("events", len(result.Events)).Msg("trace written")
		}
		return nil
	},
}

// dumpSessions collects each device's buffer, keeping partial data usable:
// a partial dump is logged and exported rather than discarded.
func dumpSessions(sessions []*trace.Session) ([]trace.DumpResult, error) {
	if len(sessions) == 1 {
		meta, events, err := sessions[0].Dump()
		var partial *trace.PartialDumpError
		if errors.As(err, &partial) {
			log.Warn().Int("collected", partial.Collected).Int("expected", partial.Expected).
				Msg("partial dump, exporting collected events")
			return []trace.DumpResult{{Meta: partial.Meta, Events: partial.Events}}, nil
		}
		if err != nil {
			return nil, err
		}
		return []trace.DumpResult{{Meta: meta, Events: events}}, nil
	}
	return trace.DumpAll(context.Background(), sessions)
}

// numberedOutput derives trace-0.json, trace-1.json… from the base output.
func numberedOutput(base string, i int) string {
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), i, ext)
}

func writeDocument(path string, doc *trace.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "trace.json", "output file")
	rootCmd.AddCommand(dumpCmd)
}
