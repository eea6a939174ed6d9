package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"gopkg.in/go-playground/validator.v9"
)

// SourceMap maps catalog sources to the Lightup workspace sources whose
// monitors are published under them.
type SourceMap struct {
	CatalogSources []CatalogSource `yaml:"collibra_sources" validate:"required,min=1,dive"`
}

type CatalogSource struct {
	ID             string          `yaml:"collibra_source_id" validate:"required"`
	LightupSources []LightupSource `yaml:"lightup_sources" validate:"required,min=1,dive"`
}

type LightupSource struct {
	WorkspaceID string `yaml:"workspace_id" validate:"required"`
	SourceID    string `yaml:"lightup_source_id" validate:"required"`
}

// WorkspaceSources groups the entry's sources by workspace, keeping the order
// in which workspaces first appear.
type WorkspaceSources struct {
	WorkspaceID string
	SourceIDs   []string
}

func (c CatalogSource) Workspaces() []WorkspaceSources {
	var groups []WorkspaceSources
	index := map[string]int{}
	for _, ls := range c.LightupSources {
		i, ok := index[ls.WorkspaceID]
		if !ok {
			i = len(groups)
			index[ls.WorkspaceID] = i
			groups = append(groups, WorkspaceSources{WorkspaceID: ls.WorkspaceID})
		}
		groups[i].SourceIDs = append(groups[i].SourceIDs, ls.SourceID)
	}
	return groups
}

var validate = validator.New()

func (m SourceMap) Validate() error {
	if err := validate.Struct(m); err != nil {
		return err
	}
	for _, cs := range m.CatalogSources {
		if _, err := uuid.Parse(cs.ID); err != nil {
			return fmt.Errorf("collibra source %q: %w", cs.ID, err)
		}
		for _, ls := range cs.LightupSources {
			if _, err := uuid.Parse(ls.WorkspaceID); err != nil {
				return fmt.Errorf("workspace %q: %w", ls.WorkspaceID, err)
			}
			if _, err := uuid.Parse(ls.SourceID); err != nil {
				return fmt.Errorf("lightup source %q: %w", ls.SourceID, err)
			}
		}
	}
	return nil
}

func Parse(data []byte) (SourceMap, error) {
	var m SourceMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse source map: %w", err)
	}
	if err := m.Validate(); err != nil {
		return m, fmt.Errorf("invalid source map: %w", err)
	}
	return m, nil
}

func Load(path string) (SourceMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceMap{}, fmt.Errorf("read source map: %w", err)
	}
	return Parse(data)
}
