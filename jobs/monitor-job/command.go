package monitor

import (
	"errors"
	"os"

	"github.com/lightup-data/lightup-tools/pkg/clients"
	"github.com/lightup-data/lightup-tools/pkg/export"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Bulk edit, back up and replay monitors",
	}
	cmd.AddCommand(aggressivenessCommand(), backupCommand(), replayCommand())
	return cmd
}

func aggressivenessCommand() *cobra.Command {
	job := AggressivenessJob{}
	cmd := &cobra.Command{
		Use:   "aggressiveness",
		Short: "Retrain volume anomaly monitors at a different aggressiveness level",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case job.WorkspaceID == "":
				return errors.New("workspace must be set")
			case job.SourceID == "":
				return errors.New("source must be set")
			case job.Schema == "":
				return errors.New("schema must be set")
			case job.From == job.To:
				return errors.New("from and to levels must differ")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "monitor")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			lightup, err := env.Lightup()
			if err != nil {
				return err
			}
			updated, err := job.Do(cmd.Context(), lightup, env.Logger)
			env.Logger.Info("aggressiveness update finished", zap.Int("monitors", len(updated)), zap.Bool("dry_run", job.DryRun))
			return err
		},
	}
	cmd.Flags().StringVar(&job.WorkspaceID, "workspace", "", "Workspace UUID")
	cmd.Flags().StringVar(&job.SourceID, "source", "", "Source UUID")
	cmd.Flags().StringVar(&job.Schema, "schema", "", "Schema name")
	cmd.Flags().IntVar(&job.From, "from", DefaultFromLevel, "Aggressiveness level to change")
	cmd.Flags().IntVar(&job.To, "to", DefaultToLevel, "New aggressiveness level")
	cmd.Flags().BoolVar(&job.DryRun, "dry-run", true, "Only log the monitors that would be updated")
	return cmd
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func backupCommand() *cobra.Command {
	var workspace, dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Save the configuration of every monitor in a workspace",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if workspace == "" {
				return errors.New("workspace must be set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "monitor")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			lightup, err := env.Lightup()
			if err != nil {
				return err
			}
			sink, err := export.Open(cmd.Context(), dir)
			if err != nil {
				return err
			}
			_, err = Backup(cmd.Context(), lightup, sink, workspace, env.Logger)
			return err
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace UUID")
	cmd.Flags().StringVar(&dir, "dir", defaultDir(), "Directory or s3://bucket/prefix to write the backup to")
	return cmd
}

func replayCommand() *cobra.Command {
	var (
		dir string
		job ReplayJob
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Recreate backed up monitors that no longer exist",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if job.WorkspaceID == "" {
				return errors.New("workspace must be set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			env, err := clients.FromCommand(cmd, "monitor")
			if err != nil {
				return err
			}
			defer env.Logger.Sync()

			monitors, err := LoadBackup(afero.NewOsFs(), dir, job.WorkspaceID)
			if err != nil {
				return err
			}
			lightup, err := env.Lightup()
			if err != nil {
				return err
			}
			result, err := job.Do(cmd.Context(), lightup, monitors, env.Logger)
			env.Logger.Info("replay finished",
				zap.Int("recreated", len(result.Recreated)),
				zap.Int("present", len(result.Present)),
				zap.Int("orphaned", len(result.Orphaned)),
				zap.Bool("dry_run", job.DryRun),
			)
			return err
		},
	}
	cmd.Flags().StringVar(&job.WorkspaceID, "workspace", "", "Workspace UUID")
	cmd.Flags().StringVar(&dir, "dir", defaultDir(), "Directory holding the backup")
	cmd.Flags().BoolVar(&job.DryRun, "dry-run", true, "Only log the monitors that would be recreated")
	return cmd
}
