package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iksnae/datachat/internal"
	"github.com/iksnae/datachat/internal/export"
	"github.com/spf13/cobra"
)

var (
	askDataset string
	askCSV     string
	askMaxRows int
	askSave    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask a single question about a dataset",
	Long: `Send one question to the analysis service and print the answer.

The dataset must already exist on the service (see 'datachat datasets').
Use --csv to write the result table to a file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return internal.ErrBlankQuery
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		state, gw := newSession(cfg)

		if err := state.FetchKnownDatasets(cmd.Context()); err != nil {
			// fall back to the dataset as given
			internal.LogWarn("Dataset listing unavailable, using %s as given: %v", askDataset, err)
			state.RegisterDataset(askDataset)
		} else if err := state.SelectDataset(askDataset); err != nil {
			return err
		}

		var answer *internal.Message
		err = internal.ShowProgress(cmd.Context(), "Analyzing...", func() error {
			var askErr error
			answer, askErr = state.Ask(cmd.Context(), question)
			return askErr
		})
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		displayMessage(cmd.OutOrStdout(), 0, 0, *answer, renderOptions{
			BaseURL:      gw.BaseURL(),
			VizDir:       cfg.VisualizationDir,
			TranscriptID: state.ID(),
			MaxRows:      askMaxRows,
		})

		if askCSV != "" {
			if len(answer.Table) == 0 {
				internal.PrintWarning("The answer has no table; nothing written to " + askCSV)
			} else if err := writeCSVFile(askCSV, answer.Table); err != nil {
				return err
			} else {
				internal.PrintSuccess(fmt.Sprintf("Table written to %s", askCSV))
			}
		}

		if askSave {
			archiveTranscript(cmd.Context(), cfg, state.Transcript())
		}
		return nil
	},
}

// writeCSVFile writes table to path as CSV
func writeCSVFile(path string, table internal.Table) (err error) {
	if len(table) == 0 {
		return &internal.ExportError{Format: "csv", Path: path, Err: errors.New("no table to export")}
	}
	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: "csv", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &internal.ExportError{Format: "csv", Path: path, Err: cerr}
		}
	}()

	if err := export.WriteTableCSV(f, table); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// archiveTranscript saves tr to the configured archive; failures only warn
func archiveTranscript(ctx context.Context, cfg *internal.Config, tr *internal.Transcript) {
	if len(tr.Messages) == 0 {
		return
	}
	h, err := openHistory(cfg)
	if err != nil {
		internal.LogWarn("%v", err)
		return
	}
	defer h.Close()

	if err := h.SaveTranscript(ctx, tr); err != nil {
		internal.LogWarn("Failed to save transcript: %v", err)
	}
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askDataset, "dataset", "d", "", "Dataset to query (required)")
	askCmd.Flags().StringVar(&askCSV, "csv", "", "Write the result table to this CSV file")
	askCmd.Flags().IntVar(&askMaxRows, "max-rows", 20, "Maximum table rows to print (0 for all)")
	askCmd.Flags().BoolVar(&askSave, "save", false, "Save the exchange to the transcript archive")
	_ = askCmd.MarkFlagRequired("dataset")
}
