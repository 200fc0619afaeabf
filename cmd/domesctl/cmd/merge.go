package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pcesar22/domesctl/internal/trace"
)

var (
	mergeInputs []string
	mergePods   []string
	mergeAlign  string
	mergeOutput string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge per-device trace files into one aligned timeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		align, err := trace.ParseAlignMode(mergeAlign)
		if err != nil {
			return err
		}
		if len(mergePods) > 0 && len(mergePods) != len(mergeInputs) {
			return fmt.Errorf("need one --pod-name per --in, got %d for %d inputs", len(mergePods), len(mergeInputs))
		}
		names, err := nameTable()
		if err != nil {
			return err
		}

		inputs := make([]trace.MergeInput, len(mergeInputs))
		for i, path := range mergeInputs {
			doc, err := readDocument(path)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("Pod %d", i)
			if i < len(mergePods) {
				name = mergePods[i]
			}
			inputs[i] = trace.MergeInput{Name: name, Doc: doc}
		}

		merger := trace.Merger{Names: names, Beacon: cfg.Beacon}
		merged, info, err := merger.Merge(inputs, align)
		if err != nil {
			return err
		}
		if info.BeaconFallback {
			log.Warn().Msg("no beacon on every device, fell back to zero alignment")
		}
		if err := writeDocument(mergeOutput, merged); err != nil {
			return err
		}
		log.Info().Int("devices", len(inputs)).Int("events", len(merged.TraceEvents)).
			Str("output", mergeOutput).Msg("merged")
		return nil
	},
}

func readDocument(path string) (*trace.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc trace.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

func init() {
	mergeCmd.Flags().StringArrayVar(&mergeInputs, "in", nil, "per-device trace JSON file (repeatable)")
	mergeCmd.Flags().StringArrayVar(&mergePods, "pod-name", nil, "display name, one per --in")
	mergeCmd.Flags().StringVar(&mergeAlign, "align", "beacon", "alignment mode: zero, beacon or raw")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.json", "output file")
	_ = mergeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(mergeCmd)
}
