package datapointexport

import (
	"errors"

	"github.com/lightup-data/lightup-tools/pkg/clients"
	"github.com/lightup-data/lightup-tools/pkg/export"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var (
		days    int
		workers int
		path    string
	)
	cmd := &cobra.Command{
		Use:   "datapoint-export",
		Short: "Export metric datapoints of the last days, joined with monitor evaluations",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case days <= 0:
				return errors.New("flag 'days' must be positive")
			default:
				return nil
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "datapoint-export")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			lightup, err := env.Lightup()
			if err != nil {
				return err
			}
			sink, err := export.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			return Job{Days: days, Workers: workers}.Do(cmd.Context(), lightup, sink, env.Logger)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Number of days to look back")
	cmd.Flags().StringVar(&path, "path", "/tmp/lightupexport", "Directory or s3://bucket/prefix to write the export to")
	cmd.Flags().IntVar(&workers, "workers", 1, "Number of metrics fetched concurrently")
	cmd.MarkFlagRequired("days")
	return cmd
}
