package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/datachat/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct {
	BaseURL string
}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(t *internal.Transcript, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# Transcript %s\n\n", t.ID)

	if t.ActiveDataset != "" {
		_, _ = fmt.Fprintf(w, "**Dataset:** %s  \n", t.ActiveDataset)
	}
	_, _ = fmt.Fprintf(w, "**Started:** %s  \n", t.StartedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(t.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range t.Messages {
		timestamp := ""
		if !msg.CreatedAt.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.CreatedAt.Format(time.RFC3339))
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, escapeMarkdown(msg.Content))

		if len(msg.Table) > 0 {
			writePipeTable(w, msg.Table)
		}
		if msg.VisualizationURL != "" {
			_, _ = fmt.Fprintf(w, "[Visualization](%s)\n\n", internal.ResolveVisualizationURL(e.BaseURL, msg.VisualizationURL))
		} else if msg.VisualizationHTML != "" {
			_, _ = fmt.Fprintf(w, "_Inline visualization (%d bytes of HTML)_\n\n", len(msg.VisualizationHTML))
		}

		// Add horizontal rule after each message (except the last one)
		if i < len(t.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func writePipeTable(w io.Writer, table internal.Table) {
	columns := table.Columns()
	if len(columns) == 0 {
		return
	}

	header := make([]string, len(columns))
	rule := make([]string, len(columns))
	for i, col := range columns {
		header[i] = escapeCell(col)
		rule[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(header, " | "))
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(rule, " | "))

	cells := make([]string, len(columns))
	for i := range table {
		for j, col := range columns {
			cells[j] = escapeCell(internal.FormatCell(table.Cell(i, col)))
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	_, _ = fmt.Fprintln(w)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			// Escape markdown syntax outside code blocks
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
