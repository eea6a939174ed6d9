package metricexport

import (
	"github.com/lightup-data/lightup-tools/pkg/clients"
	"github.com/lightup-data/lightup-tools/pkg/export"
	"github.com/spf13/cobra"
)

const DefaultPath = "/tmp/lightupexport"

func Command() *cobra.Command {
	var (
		path       string
		workspaces []string
	)
	cmd := &cobra.Command{
		Use:   "metric-export",
		Short: "Export configured metrics and their monitors to one CSV per workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "metric-export")
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
			return Job{Workspaces: workspaces}.Do(cmd.Context(), lightup, sink, env.Logger)
		},
	}
	cmd.Flags().StringVar(&path, "path", DefaultPath, "Directory or s3://bucket/prefix to write the export to")
	cmd.Flags().StringSliceVar(&workspaces, "workspace", nil, "Only export these workspaces")
	return cmd
}
