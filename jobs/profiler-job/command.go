package profiler

import (
	"errors"

	"github.com/lightup-data/lightup-tools/pkg/clients"
	"github.com/spf13/cobra"
)

const DefaultWindow = "hour"

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiler",
		Short: "Manage table profiling",
	}
	cmd.AddCommand(enableCommand(), reconcileCommand())
	return cmd
}

func enableCommand() *cobra.Command {
	var (
		workspace, source, tablesPath, timestampColumn, window string
		dryRun                                                 bool
	)
	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Enable profiling on the tables listed in a YAML file",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case workspace == "":
				return errors.New("workspace must be set")
			case source == "":
				return errors.New("source must be set")
			case tablesPath == "":
				return errors.New("tables must be set")
			case timestampColumn == "":
				return errors.New("timestamp-column must be set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "profiler")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			tables, err := LoadTableList(tablesPath)
			if err != nil {
				return err
			}
			lightup, err := env.Lightup()
			if err != nil {
				return err
			}
			job := EnableJob{
				WorkspaceID:     workspace,
				SourceID:        source,
				Tables:          tables,
				TimestampColumn: timestampColumn,
				Window:          window,
				DryRun:          dryRun,
			}
			_, err = job.Do(cmd.Context(), lightup, env.Logger)
			return err
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace UUID")
	cmd.Flags().StringVar(&source, "source", "", "Source UUID")
	cmd.Flags().StringVar(&tablesPath, "tables", "", "YAML file mapping schema names to table names")
	cmd.Flags().StringVar(&timestampColumn, "timestamp-column", "", "Timestamp column used by the profiler")
	cmd.Flags().StringVar(&window, "window", DefaultWindow, "Aggregation window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Only log the tables that would be enabled")
	return cmd
}

func reconcileCommand() *cobra.Command {
	var (
		workspace string
		sources   []string
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile-timezones",
		Short: "Align the data timezone of profiled tables with their query timezone",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case workspace == "":
				return errors.New("workspace must be set")
			case len(sources) == 0:
				return errors.New("at least one source must be set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "profiler")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			lightup, err := env.Lightup()
			if err != nil {
				return err
			}
			job := ReconcileJob{WorkspaceID: workspace, SourceIDs: sources, DryRun: dryRun}
			_, err = job.Do(cmd.Context(), lightup, cmd.OutOrStdout(), env.Logger)
			return err
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace UUID")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Source UUIDs")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Only print the mismatched tables")
	return cmd
}
