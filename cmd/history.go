package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/datachat/internal"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived chat transcripts",
	Long:  `List transcripts saved by 'datachat chat', most recently updated first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		h, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer h.Close()

		summaries, err := h.ListTranscripts(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list transcripts: %w", err)
		}
		displayTranscripts(cmd.OutOrStdout(), summaries, time.Now())
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <transcript-id>",
	Short: "Delete an archived transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		h, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer h.Close()

		tr, err := h.FindTranscript(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := h.DeleteTranscript(cmd.Context(), tr.ID); err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Deleted transcript %s", tr.ID))
		return nil
	},
}

func displayTranscripts(w io.Writer, summaries []internal.TranscriptSummary, now time.Time) {
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(w, headerStyle.Render("📋 No transcripts found"))
		return
	}

	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("📋 Found %d transcript(s)", len(summaries))))
	_, _ = fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("First question")+"\t"+titleStyle.Render("Dataset")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(tw, strings.Repeat("─", 100))

	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	for _, s := range summaries {
		question := s.FirstQuestion
		if question == "" {
			question = "Untitled"
		}
		question = truncate(question, 50)

		dataset := s.ActiveDataset
		if dataset == "" {
			dataset = "—"
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(s.ID)),
			nameStyle.Render(question),
			activeStyle.Render(dataset),
			countStyle.Render(strconv.Itoa(s.MessageCount)),
			dateStyle.Render(formatWhen(s.UpdatedAt, now)))
	}

	_ = tw.Flush()
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, idStyle.Render("💡 Tip: Use the ID (e.g., ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(shortID(summaries[0].ID))+
		idStyle.Render(") with `datachat show <id>`"))
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
