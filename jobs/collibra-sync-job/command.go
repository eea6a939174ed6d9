package collibrasync

import (
	"context"
	"errors"
	"time"

	"github.com/lightup-data/lightup-tools/jobs/collibra-sync-job/config"
	"github.com/lightup-data/lightup-tools/pkg/clients"
	"github.com/lightup-data/lightup-tools/pkg/tracing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collibra-sync",
		Short: "Publish Lightup monitors and their incidents on Collibra tables",
	}
	cmd.AddCommand(runCommand(), prepareCommand(), clearCommand())
	return cmd
}

func runCommand() *cobra.Command {
	var (
		sourceMap string
		lookback  time.Duration
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replace the Lightup assets of every mapped Collibra source",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case sourceMap == "":
				return errors.New("missing required flag 'source-map'")
			default:
				return nil
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			m, err := config.Load(sourceMap)
			if err != nil {
				return err
			}
			env, err := clients.FromCommand(cmd, "collibra-sync")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			lightupClient, err := env.Lightup()
			if err != nil {
				return err
			}
			collibraClient, err := env.Collibra()
			if err != nil {
				return err
			}

			shutdown, err := tracing.Init(env.Config.Jaeger)
			if err != nil {
				env.Logger.Error("failed to init tracer", zap.Error(err))
			} else {
				defer shutdown(context.Background())
			}

			job := Job{SourceMap: m, Lookback: lookback, DryRun: dryRun}
			_, runErr := job.Do(cmd.Context(), lightupClient, collibraClient, env.Logger)

			if addr := env.Config.Prometheus.PushAddress; addr != "" {
				if err := Push(addr); err != nil {
					env.Logger.Error("failed to push metrics", zap.String("address", addr), zap.Error(err))
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&sourceMap, "source-map", "", "YAML file mapping Collibra sources to Lightup workspace sources")
	cmd.Flags().DurationVar(&lookback, "lookback", DefaultLookback, "Incident lookback window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log catalog changes without making them")
	return cmd
}

func prepareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Create the Lightup attribute types, asset type, domain, relation type and assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "collibra-sync")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()
			collibraClient, err := env.Collibra()
			if err != nil {
				return err
			}
			return Prepare(cmd.Context(), collibraClient, env.Logger)
		},
	}
}

func clearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every Lightup object from Collibra",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("clear deletes the Lightup schema from Collibra, pass --yes to confirm")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "collibra-sync")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()
			collibraClient, err := env.Collibra()
			if err != nil {
				return err
			}
			return Clear(cmd.Context(), collibraClient, env.Logger)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}
