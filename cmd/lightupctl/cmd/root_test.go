package cmd

import (
	"testing"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := RootCommand()
	names := lo.Map(root.Commands(), func(c *cobra.Command, _ int) string { return c.Name() })
	assert.ElementsMatch(t, []string{"collibra-sync", "metric-export", "datapoint-export", "profiler", "monitor", "metric"}, names)

	for _, path := range [][]string{
		{"collibra-sync", "run"},
		{"profiler", "enable"},
		{"profiler", "reconcile-timezones"},
		{"monitor", "aggressiveness"},
		{"monitor", "backup"},
		{"monitor", "replay"},
		{"metric", "tags-to-dimensions"},
		{"metric", "unpause"},
		{"metric", "health"},
	} {
		c, _, err := root.Find(path)
		require.NoError(t, err, path)
		if f := c.Flags().Lookup("dry-run"); f != nil && path[0] != "collibra-sync" {
			assert.Equal(t, "true", f.DefValue, path)
		}
	}
}

func TestRequiredFlags(t *testing.T) {
	root := RootCommand()
	root.SetArgs([]string{"monitor", "aggressiveness", "--workspace", "ws-1"})
	root.SilenceErrors = true
	root.SilenceUsage = true
	err := root.Execute()
	assert.ErrorContains(t, err, "source must be set")
}
