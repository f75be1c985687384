package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/datachat/internal"
	"github.com/iksnae/datachat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format       string
	outputDir    string
	sessionID    string
	exportTables bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived transcripts to file",
	Long: `Export archived chat transcripts to various formats (jsonl, md, yaml, json).

You can export every transcript or a specific one by ID. With --tables, each
result table is also written as a CSV file next to its transcript.
Use 'datachat history' to see available transcript IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Create exporter
		exporter, err := export.NewExporter(format, export.Options{BaseURL: cfg.APIBaseURL})
		if err != nil {
			return err
		}

		h, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer h.Close()

		ctx := cmd.Context()
		var transcripts []*internal.Transcript
		if sessionID != "" {
			tr, err := h.FindTranscript(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("transcript not found: %s (use 'datachat history' to see available transcripts): %w", sessionID, err)
			}
			transcripts = append(transcripts, tr)
		} else {
			summaries, err := h.ListTranscripts(ctx)
			if err != nil {
				return err
			}
			for _, s := range summaries {
				tr, err := h.LoadTranscript(ctx, s.ID)
				if err != nil {
					internal.LogWarn("Skipping transcript %s: %v", s.ID, err)
					continue
				}
				transcripts = append(transcripts, tr)
			}
		}

		if len(transcripts) == 0 {
			internal.PrintWarning("No transcripts to export")
			return nil
		}

		// Ensure output directory exists
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		steps := []internal.ProgressStep{{
			Message: fmt.Sprintf("Exporting %d transcript(s) to %s", len(transcripts), outputDir),
			Fn: func() error {
				for _, tr := range transcripts {
					if err := exportTranscript(exporter, tr, outputDir); err != nil {
						internal.LogError("%v", err)
						continue
					}
					exported++
				}
				return nil
			},
		}}
		if exportTables {
			steps = append(steps, internal.ProgressStep{
				Message: "Writing result tables as CSV",
				Fn: func() error {
					for _, tr := range transcripts {
						exportTranscriptTables(tr, outputDir)
					}
					return nil
				},
			})
		}
		if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d transcript(s) exported to %s", exported, outputDir))
		return nil
	},
}

func exportTranscript(exporter export.Exporter, tr *internal.Transcript, dir string) error {
	path := filepath.Join(dir, fmt.Sprintf("transcript_%s.%s", tr.ID, exporter.Extension()))

	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := exporter.Export(tr, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		internal.LogWarn("Failed to close file %s: %v", path, err)
	}
	return nil
}

func exportTranscriptTables(tr *internal.Transcript, dir string) {
	for _, msg := range tr.Messages {
		if len(msg.Table) == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("transcript_%s_table_%s.csv", tr.ID, msg.ID))
		if err := writeCSVFile(path, msg.Table); err != nil {
			internal.LogError("%v", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&sessionID, "session-id", "", "Export a specific transcript by ID")
	exportCmd.Flags().BoolVar(&exportTables, "tables", false, "Also write each result table as CSV")
}
