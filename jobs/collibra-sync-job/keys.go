package collibrasync

import (
	"strings"

	"github.com/lightup-data/lightup-tools/services/lightup/api"
)

// AssetDetails locates a metric's data in its source.
type AssetDetails struct {
	SourceName string
	DBName     string
	SchemaName string
	TableName  string
	ColumnName string
	SchemaUUID string
	TableUUID  string
	ColumnUUID string
}

func assetDetails(source api.Source, metric api.Metric) AssetDetails {
	table := metric.Config.TableOrEmpty()
	d := AssetDetails{
		SourceName: source.Metadata.Name,
		DBName:     source.DatabaseName(),
		SchemaName: table.SchemaName,
		TableName:  table.TableName,
		SchemaUUID: table.SchemaUUID,
		TableUUID:  table.TableUUID,
	}

	switch table.Type {
	case api.TableTypeCustomSQL:
		d.ColumnName = table.ColumnName
		d.ColumnUUID = table.ColumnUUID
	case api.TableTypeTable:
		if len(metric.Config.ValueColumns) > 0 {
			d.ColumnName = metric.Config.ValueColumns[0].ColumnName
			d.ColumnUUID = metric.Config.ValueColumns[0].ColumnUUID
		}
	}
	return d
}

// ObjectKey identifies a catalog data object across workspaces. Database is
// empty for sources without a database, such as file based ones.
type ObjectKey struct {
	CatalogSourceID string
	Database        string
	Schema          string
	Table           string
	Column          string
}

func NewObjectKey(catalogSourceID string, d AssetDetails) ObjectKey {
	return ObjectKey{
		CatalogSourceID: catalogSourceID,
		Database:        d.DBName,
		Schema:          d.SchemaName,
		Table:           d.TableName,
		Column:          d.ColumnName,
	}
}

// Segments drops the database segment when there is no database.
func (k ObjectKey) Segments() []string {
	if k.Database == "" {
		return []string{k.CatalogSourceID, k.Schema, k.Table, k.Column}
	}
	return []string{k.CatalogSourceID, k.Database, k.Schema, k.Table, k.Column}
}

func (k ObjectKey) String() string {
	return strings.Join(k.Segments(), ".")
}

func (k ObjectKey) Less(o ObjectKey) bool {
	a, b := k.Segments(), o.Segments()
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
