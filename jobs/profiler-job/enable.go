package profiler

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"go.uber.org/zap"
)

// TableList maps schema names to table names.
type TableList map[string][]string

func LoadTableList(path string) (TableList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table list: %w", err)
	}
	var tables TableList
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse table list %s: %w", path, err)
	}
	return tables, nil
}

type EnableJob struct {
	WorkspaceID     string
	SourceID        string
	Tables          TableList
	TimestampColumn string
	Window          string
	DryRun          bool
}

type EnableResult struct {
	Enabled []string
	Missing []string
}

// Do switches profiling on for every listed table. Tables the source does not
// have are logged and reported as missing.
func (j EnableJob) Do(ctx context.Context, lightup client.LightupServiceClient, logger *zap.Logger) (EnableResult, error) {
	var result EnableResult

	tables, err := lightup.ListTables(ctx, j.WorkspaceID, j.SourceID)
	if err != nil {
		return result, fmt.Errorf("list tables: %w", err)
	}
	uuids := map[[2]string]string{}
	for _, t := range tables {
		uuids[[2]string{t.SchemaName, t.TableName}] = t.UUID
	}

	cfg := api.NewTableProfilerConfig(j.TimestampColumn, j.Window)

	schemas := make([]string, 0, len(j.Tables))
	for schema := range j.Tables {
		schemas = append(schemas, schema)
	}
	sort.Strings(schemas)

	for _, schema := range schemas {
		for _, table := range j.Tables[schema] {
			name := schema + "." + table
			logger := logger.With(zap.String("table", name))
			tableUUID, ok := uuids[[2]string{schema, table}]
			if !ok {
				logger.Error("table not found", zap.String("workspace_id", j.WorkspaceID), zap.String("source_id", j.SourceID))
				result.Missing = append(result.Missing, name)
				continue
			}
			if j.DryRun {
				logger.Info("dry run: would enable profiling", zap.String("table_uuid", tableUUID))
				result.Enabled = append(result.Enabled, name)
				continue
			}
			if err := lightup.UpdateTableProfilerConfig(ctx, j.WorkspaceID, j.SourceID, tableUUID, cfg); err != nil {
				return result, fmt.Errorf("enable profiling of %s: %w", name, err)
			}
			logger.Info("enabled profiling", zap.String("table_uuid", tableUUID))
			result.Enabled = append(result.Enabled, name)
		}
	}
	return result, nil
}
