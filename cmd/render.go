package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/datachat/internal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)
)

// renderOptions controls how answers are printed
type renderOptions struct {
	BaseURL      string
	VizDir       string // inline visualizations are written here; empty skips saving
	TranscriptID string
	MaxRows      int // 0 prints every row
}

func displayTranscriptHeader(w io.Writer, tr *internal.Transcript) {
	if tr == nil {
		return
	}
	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("💬 Transcript %s", tr.ID)))

	metaParts := []string{fmt.Sprintf("Started: %s", tr.StartedAt.Local().Format("2006-01-02 15:04"))}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(tr.Messages)))
	if tr.ActiveDataset != "" {
		metaParts = append(metaParts, fmt.Sprintf("Dataset: %s", tr.ActiveDataset))
	}
	_, _ = fmt.Fprintln(w, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
}

func displayMessage(w io.Writer, index, total int, msg internal.Message, opts renderOptions) {
	var actorStyle lipgloss.Style
	var actorLabel string

	switch msg.Role {
	case internal.RoleUser:
		actorStyle = userMessageStyle
		actorLabel = "👤 You"
	case internal.RoleAssistant:
		actorStyle = assistantMessageStyle
		actorLabel = "📊 Analyst"
	default:
		actorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		actorLabel = string(msg.Role)
	}

	header := actorStyle.Render(actorLabel)
	if total > 0 {
		header += " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	}
	if !msg.CreatedAt.IsZero() {
		header += " " + timestampStyle.Render(msg.CreatedAt.Local().Format("15:04:05"))
	}
	_, _ = fmt.Fprintln(w, header)

	content := strings.TrimSpace(msg.Content)
	if content != "" {
		_, _ = fmt.Fprintln(w, messageContentStyle.Render(wrapText(content, 80)))
	} else {
		_, _ = fmt.Fprintln(w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}

	if len(msg.Table) > 0 {
		_, _ = fmt.Fprintln(w)
		renderTable(w, msg.Table, opts.MaxRows)
	}

	displayVisualization(w, msg, opts)
	_, _ = fmt.Fprintln(w)
}

func displayVisualization(w io.Writer, msg internal.Message, opts renderOptions) {
	if msg.VisualizationURL != "" {
		url := internal.ResolveVisualizationURL(opts.BaseURL, msg.VisualizationURL)
		_, _ = fmt.Fprintf(w, "  📈 %s\n", linkStyle.Render(url))
	}
	if msg.VisualizationHTML == "" {
		return
	}
	if opts.VizDir == "" {
		_, _ = fmt.Fprintln(w, timestampStyle.Render("  📈 Inline visualization (not saved)"))
		return
	}
	path, err := saveVisualization(opts.VizDir, opts.TranscriptID, msg)
	if err != nil {
		internal.LogWarn("Failed to save visualization: %v", err)
		return
	}
	_, _ = fmt.Fprintf(w, "  📈 %s\n", linkStyle.Render(path))
}

// saveVisualization writes the message's inline markup to an .html file in dir
func saveVisualization(dir, transcriptID string, msg internal.Message) (string, error) {
	if msg.VisualizationHTML == "" {
		return "", fmt.Errorf("message %s has no inline visualization", msg.ID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create visualization directory: %w", err)
	}
	prefix := transcriptID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	name := fmt.Sprintf("chart-%s-%s.html", msg.ID, prefix)
	if prefix == "" {
		name = fmt.Sprintf("chart-%s.html", msg.ID)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(msg.VisualizationHTML), 0644); err != nil {
		return "", fmt.Errorf("failed to write visualization: %w", err)
	}
	return path, nil
}

// renderTable prints rows with aligned columns, stopping after maxRows when positive
func renderTable(w io.Writer, table internal.Table, maxRows int) {
	columns := table.Columns()
	if len(columns) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  "+strings.Join(columns, "\t")+"\t")

	rules := make([]string, len(columns))
	for i, col := range columns {
		rules[i] = strings.Repeat("─", max(len(col), 3))
	}
	_, _ = fmt.Fprintln(tw, "  "+strings.Join(rules, "\t")+"\t")

	shown := len(table)
	if maxRows > 0 && maxRows < shown {
		shown = maxRows
	}
	cells := make([]string, len(columns))
	for i := 0; i < shown; i++ {
		for j, col := range columns {
			cells[j] = truncate(internal.FormatCell(table.Cell(i, col)), 40)
		}
		_, _ = fmt.Fprintln(tw, "  "+strings.Join(cells, "\t")+"\t")
	}
	_ = tw.Flush()

	if shown < len(table) {
		_, _ = fmt.Fprintln(w, timestampStyle.Render(fmt.Sprintf("  ... (%d more row(s))", len(table)-shown)))
	}
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 3 || len([]rune(s)) <= width {
		return s
	}
	return string([]rune(s)[:width-3]) + "..."
}

// formatWhen renders t relative to now the way listings show dates
func formatWhen(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		// Wrap long lines
		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
				}
				currentLine = word
			} else if currentLine == "" {
				currentLine = word
			} else {
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}
