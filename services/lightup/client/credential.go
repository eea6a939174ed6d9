package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credential is the file downloaded from the Lightup UI
// (Settings > API credential).
type Credential struct {
	Refresh string `json:"refresh"`
	Server  string `json:"server"`
}

func DefaultCredentialPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lightup", "credential")
}

func LoadCredential(path string) (Credential, error) {
	var c Credential
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read credential: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse credential %s: %w", path, err)
	}
	if c.Refresh == "" {
		return c, fmt.Errorf("credential %s has no refresh token", path)
	}
	// the UI hands out the API address, links go to the cluster root
	c.Server = strings.TrimSuffix(strings.TrimSuffix(c.Server, "/"), "/api")
	return c, nil
}
