package cmd

import (
	collibrasync "github.com/lightup-data/lightup-tools/jobs/collibra-sync-job"
	datapointexport "github.com/lightup-data/lightup-tools/jobs/datapoint-export-job"
	metricexport "github.com/lightup-data/lightup-tools/jobs/metric-export-job"
	metric "github.com/lightup-data/lightup-tools/jobs/metric-job"
	monitor "github.com/lightup-data/lightup-tools/jobs/monitor-job"
	profiler "github.com/lightup-data/lightup-tools/jobs/profiler-job"
	"github.com/spf13/cobra"
)

// RootCommand is the lightupctl command with every job attached.
func RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lightupctl",
		Short: "Operator tooling for Lightup workspaces",
	}
	root.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")

	root.AddCommand(
		collibrasync.Command(),
		metricexport.Command(),
		datapointexport.Command(),
		profiler.Command(),
		monitor.Command(),
		metric.Command(),
	)
	return root
}
