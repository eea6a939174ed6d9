package profiler

import (
	"context"
	"fmt"
	"io"

	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

// Mismatch is a profiled table whose data timezone differs from the timezone
// its queries run in.
type Mismatch struct {
	SourceID            string
	Table               api.Table
	TimestampColumnType string
}

type ReconcileJob struct {
	WorkspaceID string
	SourceIDs   []string
	DryRun      bool
}

// Do prints the mismatched tables of every source to out and, unless dry
// running, sets their data timezone to the query timezone.
func (j ReconcileJob) Do(ctx context.Context, lightup client.LightupServiceClient, out io.Writer, logger *zap.Logger) ([]Mismatch, error) {
	var all []Mismatch
	for _, sourceID := range j.SourceIDs {
		mismatches, err := j.mismatches(ctx, lightup, sourceID)
		if err != nil {
			return all, err
		}
		render(out, mismatches)
		all = append(all, mismatches...)

		if j.DryRun {
			logger.Info("dry run: skipping updates", zap.String("source_id", sourceID), zap.Int("tables", len(mismatches)))
			continue
		}
		for _, m := range mismatches {
			cfg, err := m.Table.ProfilerConfigWith("dataTimezone", m.Table.ProfilerConfig.Timezone)
			if err != nil {
				return all, err
			}
			if err := lightup.UpdateTableProfilerConfig(ctx, j.WorkspaceID, sourceID, m.Table.UUID, cfg); err != nil {
				return all, fmt.Errorf("update table %s: %w", m.Table.UUID, err)
			}
			logger.Info("reconciled timezone",
				zap.String("table_uuid", m.Table.UUID),
				zap.String("table", m.Table.SchemaName+"."+m.Table.TableName),
				zap.String("timezone", m.Table.ProfilerConfig.Timezone),
			)
		}
	}
	return all, nil
}

func (j ReconcileJob) mismatches(ctx context.Context, lightup client.LightupServiceClient, sourceID string) ([]Mismatch, error) {
	tables, err := lightup.ListTables(ctx, j.WorkspaceID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list tables of %s: %w", sourceID, err)
	}

	var mismatches []Mismatch
	for _, t := range tables {
		cfg := t.ProfilerConfig
		if !cfg.Enabled || cfg.DataTimezone == cfg.Timezone {
			continue
		}
		columns, err := lightup.ListColumns(ctx, j.WorkspaceID, sourceID, t.UUID)
		if err != nil {
			return nil, fmt.Errorf("list columns of %s: %w", t.UUID, err)
		}
		m := Mismatch{SourceID: sourceID, Table: t}
		for _, c := range columns {
			if c.ColumnName == cfg.TimestampColumn {
				m.TimestampColumnType = c.ColumnType
				break
			}
		}
		mismatches = append(mismatches, m)
	}
	return mismatches, nil
}

func render(out io.Writer, mismatches []Mismatch) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"uuid", "schemaName", "tableName", "timestampColumnName", "timestampColumnType", "queryTimezone", "dataTimezone"})
	for _, m := range mismatches {
		cfg := m.Table.ProfilerConfig
		table.Append([]string{m.Table.UUID, m.Table.SchemaName, m.Table.TableName, cfg.TimestampColumn, m.TimestampColumnType, cfg.Timezone, cfg.DataTimezone})
	}
	table.Render()
}
