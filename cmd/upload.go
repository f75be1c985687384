package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.zip>",
	Short: "Upload a dataset archive",
	Long: `Upload a .zip archive containing a dataset to the analysis service.

The identifier assigned by the service is printed on success; pass it to
'datachat chat --dataset' or 'datachat ask --dataset'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		state, _ := newSession(cfg)

		ds, err := state.UploadDataset(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), ds.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
