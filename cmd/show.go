package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/datachat/internal"
	"github.com/spf13/cobra"
)

var (
	limit       int
	since       string
	showMaxRows int
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <transcript-id>",
	Short: "Show an archived transcript",
	Long: `Display the messages of an archived chat transcript.

The ID may be abbreviated to any unique prefix (see 'datachat history').`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sinceTime time.Time
		if since != "" {
			parsed, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			sinceTime = parsed
		}

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

		out := cmd.OutOrStdout()
		displayTranscriptHeader(out, tr)

		messages := filterMessages(tr.Messages, sinceTime)
		total := len(messages)
		if limit > 0 && limit < len(messages) {
			messages = messages[:limit]
		}

		opts := renderOptions{
			BaseURL:      cfg.APIBaseURL,
			TranscriptID: tr.ID,
			MaxRows:      showMaxRows,
		}
		for i, msg := range messages {
			displayMessage(out, i+1, total, msg, opts)
		}

		if limit > 0 && limit < total {
			_, _ = fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d more message(s))", total-limit)))
		}
		return nil
	},
}

// filterMessages keeps messages created at or after since; a zero since keeps all
func filterMessages(messages []internal.Message, since time.Time) []internal.Message {
	if since.IsZero() {
		return messages
	}
	filtered := make([]internal.Message, 0, len(messages))
	for _, msg := range messages {
		if !msg.CreatedAt.Before(since) {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
	showCmd.Flags().IntVar(&showMaxRows, "max-rows", 20, "Maximum table rows to print (0 for all)")
}
