package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/datachat/internal"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:     "datasets",
	Aliases: []string{"list"},
	Short:   "List datasets known to the analysis service",
	Long:    `List every dataset the analysis service has, in the order the service reports them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		state, _ := newSession(cfg)

		if err := state.FetchKnownDatasets(cmd.Context()); err != nil {
			return fmt.Errorf("failed to list datasets: %w", err)
		}

		displayDatasets(cmd.OutOrStdout(), state.Datasets(), "")
		return nil
	},
}

func displayDatasets(w io.Writer, datasets []internal.Dataset, active string) {
	if len(datasets) == 0 {
		_, _ = fmt.Fprintln(w, headerStyle.Render("📂 No datasets found"))
		_, _ = fmt.Fprintln(w, idStyle.Render("💡 Tip: Upload one with `datachat upload <file.zip>`"))
		return
	}

	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("📂 Found %d dataset(s)", len(datasets))))
	_, _ = fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("#")+"\t"+titleStyle.Render("Dataset")+"\t")
	_, _ = fmt.Fprintln(tw, strings.Repeat("─", 40))
	for i, ds := range datasets {
		name := ds.Name
		if ds.ID == active {
			name = activeStyle.Render(name + " (active)")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t\n", countStyle.Render(fmt.Sprintf("%d", i+1)), name)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, idStyle.Render("💡 Tip: Ask questions with `datachat chat --dataset "+datasets[0].ID+"`"))
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
