package metric

import (
	"errors"
	"fmt"
	"time"

	"github.com/lightup-data/lightup-tools/pkg/clients"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metric",
		Short: "Bulk edit metrics and report their health",
	}
	cmd.AddCommand(tagsCommand(), unpauseCommand(), healthCommand())
	return cmd
}

func tagsCommand() *cobra.Command {
	var (
		mapPath string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "tags-to-dimensions",
		Short: "Set metric dimensions from their tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "metric")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			dimensions := DefaultDimensionMap()
			if mapPath != "" {
				if dimensions, err = LoadDimensionMap(mapPath); err != nil {
					return err
				}
			}
			lightup, err := env.Lightup()
			if err != nil {
				return err
			}
			changes, err := TagsJob{Map: dimensions, DryRun: dryRun}.Do(cmd.Context(), lightup, env.Logger)
			env.Logger.Info("dimension update finished", zap.Int("metrics", len(changes)), zap.Bool("dry_run", dryRun))
			return err
		},
	}
	cmd.Flags().StringVar(&mapPath, "map", "", "YAML file mapping tags to dimensions")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Only log the metrics that would change")
	return cmd
}

func unpauseCommand() *cobra.Command {
	job := UnpauseJob{}
	cmd := &cobra.Command{
		Use:   "unpause",
		Short: "Resume paused metrics in every workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "metric")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			lightup, err := env.Lightup()
			if err != nil {
				return err
			}
			unpaused, err := job.Do(cmd.Context(), lightup, env.Logger)
			env.Logger.Info("unpause finished", zap.Int("metrics", len(unpaused)), zap.Bool("dry_run", job.DryRun))
			return err
		},
	}
	cmd.Flags().StringSliceVar(&job.MetricUUIDs, "metric", nil, "Only unpause these metrics")
	cmd.Flags().BoolVar(&job.DryRun, "dry-run", true, "Only log the metrics that would be unpaused")
	return cmd
}

func healthCommand() *cobra.Command {
	var workspace, start, end string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report whether live monitors processed a time range and raised incidents",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case workspace == "":
				return errors.New("workspace must be set")
			case start == "":
				return errors.New("start must be set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "metric")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			job := HealthJob{WorkspaceID: workspace, End: time.Now()}
			if job.Start, err = time.Parse(time.RFC3339, start); err != nil {
				return fmt.Errorf("start: %w", err)
			}
			if end != "" {
				if job.End, err = time.Parse(time.RFC3339, end); err != nil {
					return fmt.Errorf("end: %w", err)
				}
			}
			if !job.Start.Before(job.End) {
				return errors.New("start must be before end")
			}

			lightup, err := env.Lightup()
			if err != nil {
				return err
			}
			report, err := job.Do(cmd.Context(), lightup)
			RenderHealth(cmd.OutOrStdout(), report)
			return err
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace UUID")
	cmd.Flags().StringVar(&start, "start", "", "Start of the range, RFC 3339")
	cmd.Flags().StringVar(&end, "end", "", "End of the range, RFC 3339 (default now)")
	return cmd
}
