package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/datachat/internal"
	"github.com/iksnae/datachat/internal/export"
	"github.com/spf13/cobra"
)

var (
	chatDataset   string
	chatNoHistory bool
	chatMaxRows   int
)

var promptStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("62")).
	Bold(true)

const chatHelp = `Commands:
  /datasets          list known datasets
  /use <id>          switch the active dataset
  /upload <file.zip> upload a dataset and make it active
  /csv [path]        export the latest result table (default data_export.csv)
  /viz               show or save the latest visualization
  /help              show this help
  /quit              leave the chat
Anything else is sent as a question about the active dataset.`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat about your datasets",
	Long: `Start an interactive session with the analysis service.

Known datasets are fetched at startup. Pick one with --dataset or /use, or
upload a new archive with /upload, then type questions. Each exchange is
saved to the transcript archive unless --no-history is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		state, gw := newSession(cfg)

		var history *internal.History
		if cfg.HistoryEnabled() && !chatNoHistory {
			if history, err = openHistory(cfg); err != nil {
				internal.PrintWarning(fmt.Sprintf("Transcripts will not be saved: %v", err))
				history = nil
			} else {
				defer history.Close()
			}
		}

		c := &chatSession{
			state:   state,
			history: history,
			out:     cmd.OutOrStdout(),
			opts: renderOptions{
				BaseURL:      gw.BaseURL(),
				VizDir:       cfg.VisualizationDir,
				TranscriptID: state.ID(),
				MaxRows:      chatMaxRows,
			},
		}
		c.start(cmd.Context(), chatDataset)
		return c.run(cmd.Context(), cmd.InOrStdin())
	},
}

// chatSession drives one REPL over a SessionState
type chatSession struct {
	state   *internal.SessionState
	history *internal.History
	out     io.Writer
	opts    renderOptions
}

func (c *chatSession) start(ctx context.Context, dataset string) {
	// a failed listing already raised a notice; the chat stays usable
	_ = c.state.FetchKnownDatasets(ctx)

	if dataset != "" {
		if err := c.state.SelectDataset(dataset); err != nil {
			internal.PrintWarning(fmt.Sprintf("Dataset %s is not known to the service", dataset))
		}
	}

	_, _ = fmt.Fprintln(c.out, headerStyle.Render("💬 datachat"))
	if active, ok := c.state.ActiveDataset(); ok {
		_, _ = fmt.Fprintf(c.out, "Active dataset: %s\n", activeStyle.Render(active))
	} else {
		_, _ = fmt.Fprintf(c.out, "%d dataset(s) available. Pick one with /use <id> or /upload a .zip.\n", len(c.state.Datasets()))
	}
	_, _ = fmt.Fprintln(c.out, idStyle.Render("Type /help for commands."))
	_, _ = fmt.Fprintln(c.out)
}

func (c *chatSession) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		_, _ = fmt.Fprint(c.out, promptStyle.Render("› "))
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if c.handleLine(ctx, scanner.Text()) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handleLine processes one input line and reports whether the chat should end
func (c *chatSession) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.ask(ctx, line)
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		_, _ = fmt.Fprintln(c.out, chatHelp)
	case "/datasets":
		active, _ := c.state.ActiveDataset()
		displayDatasets(c.out, c.state.Datasets(), active)
	case "/use":
		if arg == "" {
			internal.PrintWarning("Usage: /use <dataset-id>")
			return false
		}
		if err := c.state.SelectDataset(arg); err != nil {
			internal.PrintError(err.Error())
			return false
		}
		internal.PrintSuccess(fmt.Sprintf("Active dataset: %s", arg))
	case "/upload":
		if arg == "" {
			internal.PrintWarning("Usage: /upload <file.zip>")
			return false
		}
		if ds, err := c.state.UploadDataset(ctx, arg); err == nil {
			_, _ = fmt.Fprintf(c.out, "Active dataset: %s\n", activeStyle.Render(ds.ID))
		} else {
			internal.LogDebug("Upload failed: %v", err)
		}
	case "/csv":
		c.exportCSV(arg)
	case "/viz":
		c.showVisualization()
	default:
		internal.PrintWarning(fmt.Sprintf("Unknown command %s (try /help)", command))
	}
	return false
}

func (c *chatSession) ask(ctx context.Context, text string) {
	results, err := c.state.Submit(ctx, text)
	switch {
	case errors.Is(err, internal.ErrBlankQuery):
		return
	case errors.Is(err, internal.ErrNoDatasetSelected):
		// notice already printed
		return
	case err != nil:
		internal.PrintError(err.Error())
		return
	}

	var res internal.QueryResult
	waitErr := internal.ShowProgress(ctx, "Analyzing...", func() error {
		res = <-results
		return res.Err
	})
	if waitErr != nil && ctx.Err() != nil {
		internal.LogDebug("Stopped waiting for query: %v", waitErr)
		return
	}
	if res.Answer != nil {
		displayMessage(c.out, 0, 0, *res.Answer, c.opts)
	}
	c.save(ctx)
}

func (c *chatSession) save(ctx context.Context) {
	if c.history == nil {
		return
	}
	if err := c.history.SaveTranscript(ctx, c.state.Transcript()); err != nil {
		internal.LogWarn("Failed to save transcript: %v", err)
	}
}

func (c *chatSession) exportCSV(path string) {
	if path == "" {
		path = export.DefaultCSVFilename
	}
	table, ok := c.state.LastTable()
	if !ok {
		internal.PrintWarning("No result table to export yet")
		return
	}
	if err := writeCSVFile(path, table); err != nil {
		internal.PrintError(err.Error())
		return
	}
	internal.PrintSuccess(fmt.Sprintf("Table written to %s", path))
}

func (c *chatSession) showVisualization() {
	messages := c.state.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if !msg.HasVisualization() {
			continue
		}
		if msg.VisualizationURL != "" {
			_, _ = fmt.Fprintln(c.out, internal.ResolveVisualizationURL(c.opts.BaseURL, msg.VisualizationURL))
			return
		}
		path, err := saveVisualization(c.opts.VizDir, c.opts.TranscriptID, msg)
		if err != nil {
			internal.PrintError(err.Error())
			return
		}
		_, _ = fmt.Fprintln(c.out, path)
		return
	}
	internal.PrintWarning("No visualization in this chat yet")
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatDataset, "dataset", "d", "", "Dataset to activate at startup")
	chatCmd.Flags().BoolVar(&chatNoHistory, "no-history", false, "Do not save this chat to the transcript archive")
	chatCmd.Flags().IntVar(&chatMaxRows, "max-rows", 20, "Maximum table rows to print (0 for all)")
}
