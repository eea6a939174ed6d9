package api

type Source struct {
	Metadata SourceMetadata `json:"metadata"`
	Config   SourceConfig   `json:"config"`
}

type SourceMetadata struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspaceId,omitempty"`
}

type SourceConfig struct {
	Connection SourceConnection `json:"connection"`
}

type SourceConnection struct {
	Type    string `json:"type,omitempty"`
	DBName  string `json:"dbname,omitempty"`
	Catalog string `json:"catalog,omitempty"`
}

// DatabaseName is the connection's dbname, or its catalog for sources that
// name their database that way. File based sources have neither.
func (s Source) DatabaseName() string {
	if s.Config.Connection.DBName != "" {
		return s.Config.Connection.DBName
	}
	return s.Config.Connection.Catalog
}
