package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/iksnae/datachat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	apiURL     string
	configPath string
	historyDB  string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "datachat",
	Short: "Chat with your datasets through a data-analysis service",
	Long: `A terminal client for a conversational data-analysis service.

Upload a dataset archive, pick it, and ask questions in plain language.
Each answer carries a summary and, when the service provides them, a result
table (exportable as CSV) and a visualization.

Features:
  • Interactive chat with one active dataset at a time
  • Dataset upload (.zip archives) and listing
  • CSV export of result tables
  • Local transcript archive with export (JSONL, Markdown, YAML, JSON)

Quick Start:
  datachat upload sales.zip              # Upload a dataset
  datachat chat --dataset sales          # Start chatting
  datachat ask --dataset sales "total revenue by region?"

Configuration is read from ~/.config/datachat/config.yaml, DATACHAT_*
environment variables (or a .env file) and the flags below.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig resolves settings and applies the persistent flag overrides
func loadConfig() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if historyDB != "" {
		cfg.HistoryPath = historyDB
	}
	internal.LogDebug("Using API %s", cfg.APIBaseURL)
	return cfg, nil
}

// newSession builds a gateway-backed session that prints notices to the terminal
func newSession(cfg *internal.Config) (*internal.SessionState, *internal.HTTPGateway) {
	gw := internal.NewHTTPGateway(cfg.APIBaseURL, cfg.RequestTimeout)
	return internal.NewSessionState(gw, internal.WithNotifier(internal.TerminalNotifier{})), gw
}

// openHistory opens the transcript archive named by cfg
func openHistory(cfg *internal.Config) (*internal.History, error) {
	h, err := internal.OpenHistory(cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript archive: %w", err)
	}
	return h, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base address of the analysis service (default http://localhost:5000)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/datachat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&historyDB, "history-db", "", "Path to the transcript archive database")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
