package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/datachat/internal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	healthcheckDetails bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFailed
)

// checkResult is the outcome of one health probe
type checkResult struct {
	Name    string
	Status  checkStatus
	Summary string
	Details []string
}

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, service reachability and local storage",
	Long: `Check the health of datachat by verifying:
  • Configuration loading
  • Analysis service reachability (dataset listing)
  • Transcript archive access
  • Visualization directory is writable

The probes after configuration run concurrently.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, sectionStyle.Render("🔍 datachat Health Check"))
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, infoStyle.Render("Loading configuration..."))
		cfg, err := loadConfig()
		if err != nil {
			_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckDetails {
			_, _ = fmt.Fprintf(out, "   API: %s\n", cfg.APIBaseURL)
			_, _ = fmt.Fprintf(out, "   Archive: %s\n", cfg.HistoryPath)
			_, _ = fmt.Fprintf(out, "   Visualizations: %s\n", cfg.VisualizationDir)
			_, _ = fmt.Fprintf(out, "   Request timeout: %s\n", cfg.RequestTimeout)
		}
		_, _ = fmt.Fprintln(out)

		results := runHealthChecks(cmd.Context(), cfg)
		failed := printHealthResults(out, results, healthcheckDetails)

		_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		_, _ = fmt.Fprintln(out)
		if failed > 0 {
			_, _ = fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ Health check failed (%d problem(s))", failed)))
			return fmt.Errorf("health check failed: %d check(s) did not pass", failed)
		}
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

// runHealthChecks probes the service, the archive and the visualization directory concurrently
func runHealthChecks(ctx context.Context, cfg *internal.Config) []checkResult {
	probes := []struct {
		name string
		fn   func(context.Context, *internal.Config) checkResult
	}{
		{"Analysis service", checkGateway},
		{"Transcript archive", checkArchive},
		{"Visualization directory", checkVizDir},
	}

	results := make([]checkResult, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range probes {
		g.Go(func() error {
			res := probe.fn(gctx, cfg)
			res.Name = probe.name
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func checkGateway(ctx context.Context, cfg *internal.Config) checkResult {
	timeout := cfg.RequestTimeout
	if timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	gw := internal.NewHTTPGateway(cfg.APIBaseURL, timeout)

	ids, err := gw.ListDatasets(ctx)
	if err != nil {
		return checkResult{Status: checkFailed, Summary: "Service unreachable", Details: []string{err.Error()}}
	}
	res := checkResult{Status: checkOK, Summary: fmt.Sprintf("Service reachable, %d dataset(s)", len(ids))}
	for i, id := range ids {
		if i == 5 {
			res.Details = append(res.Details, fmt.Sprintf("... and %d more", len(ids)-5))
			break
		}
		res.Details = append(res.Details, fmt.Sprintf("[%d] %s", i+1, id))
	}
	if len(ids) == 0 {
		res.Status = checkWarn
		res.Summary = "Service reachable but has no datasets"
	}
	return res
}

func checkArchive(ctx context.Context, cfg *internal.Config) checkResult {
	if !cfg.HistoryEnabled() {
		return checkResult{Status: checkWarn, Summary: "Transcript archive disabled in configuration"}
	}
	h, err := internal.OpenHistory(cfg.HistoryPath)
	if err != nil {
		return checkResult{Status: checkFailed, Summary: "Cannot open transcript archive", Details: []string{err.Error()}}
	}
	defer h.Close()

	summaries, err := h.ListTranscripts(ctx)
	if err != nil {
		return checkResult{Status: checkFailed, Summary: "Cannot read transcript archive", Details: []string{err.Error()}}
	}
	return checkResult{
		Status:  checkOK,
		Summary: fmt.Sprintf("Transcript archive readable, %d transcript(s)", len(summaries)),
		Details: []string{cfg.HistoryPath},
	}
}

func checkVizDir(ctx context.Context, cfg *internal.Config) checkResult {
	if err := os.MkdirAll(cfg.VisualizationDir, 0755); err != nil {
		return checkResult{Status: checkFailed, Summary: "Cannot create visualization directory", Details: []string{err.Error()}}
	}
	f, err := os.CreateTemp(cfg.VisualizationDir, ".healthcheck-*")
	if err != nil {
		return checkResult{Status: checkFailed, Summary: "Visualization directory is not writable", Details: []string{err.Error()}}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return checkResult{Status: checkOK, Summary: "Visualization directory writable", Details: []string{cfg.VisualizationDir}}
}

// printHealthResults prints each result in probe order and returns the failure count
func printHealthResults(w io.Writer, results []checkResult, details bool) int {
	failed := 0
	for i, res := range results {
		_, _ = fmt.Fprintln(w, infoStyle.Render(fmt.Sprintf("Step %d: %s", i+1, res.Name)))
		switch res.Status {
		case checkOK:
			_, _ = fmt.Fprintln(w, successStyle.Render("✅ "+res.Summary))
		case checkWarn:
			_, _ = fmt.Fprintln(w, warningStyle.Render("⚠️  "+res.Summary))
		default:
			failed++
			_, _ = fmt.Fprintln(w, errorStyle.Render("❌ "+res.Summary))
		}
		if details || res.Status == checkFailed {
			for _, line := range res.Details {
				_, _ = fmt.Fprintf(w, "   %s\n", line)
			}
		}
		_, _ = fmt.Fprintln(w)
	}
	return failed
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckDetails, "details", false, "Show detailed diagnostic information")
}
