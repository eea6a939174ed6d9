package collibrasync

import (
	"fmt"
	"net/url"
	"strings"
)

// param is one query parameter. Links keep their parameters in the order the
// UI writes them.
type param struct {
	key, value string
}

func makeURL(cluster, workspaceID, path string, params []param) string {
	cluster = strings.TrimSuffix(strings.TrimPrefix(cluster, "https://"), "/")
	u := fmt.Sprintf("https://%s/#/ws/%s/%s", cluster, workspaceID, path)
	for i, p := range params {
		sep := "&"
		if i == 0 {
			sep = "?"
		}
		u += sep + url.QueryEscape(p.key) + "=" + url.QueryEscape(p.value)
	}
	return u
}

// ExplorerURL links to the profiler explorer of a table, or of one of its
// columns when columnUUID is set.
func ExplorerURL(cluster, workspaceID, sourceUUID, schemaUUID, tableUUID, columnUUID string) string {
	params := []param{
		{"dataSourceUuid", sourceUUID},
		{"tableUuid", tableUUID},
		{"schemaUuid", schemaUUID},
	}
	if columnUUID != "" {
		params = append(params, param{"columnUuid", columnUUID})
	}
	params = append(params, param{"tabKey", "autoMetrics"})
	return makeURL(cluster, workspaceID, "profiler", params)
}

func MetricURL(cluster, workspaceID, sourceUUID, metricUUID string) string {
	return makeURL(cluster, workspaceID, "profiler", []param{
		{"dataSourceUuid", sourceUUID},
		{"metricUuid", metricUUID},
	})
}
