// Package clients builds the configuration, logger and API clients a
// lightupctl command runs with.
package clients

import (
	"fmt"

	"github.com/lightup-data/lightup-tools/pkg/config"
	"github.com/lightup-data/lightup-tools/pkg/httpclient"
	collibra "github.com/lightup-data/lightup-tools/services/collibra/client"
	lightup "github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Env struct {
	Config config.Tools
	Logger *zap.Logger
	HTTP   *httpclient.Client
}

// FromCommand loads configuration from the --config file (when given), .env
// and the environment, and builds a logger named after the job.
func FromCommand(cmd *cobra.Command, name string) (*Env, error) {
	var path string
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	debug := false
	if f := cmd.Flag("debug"); f != nil {
		debug = f.Value.String() == "true"
	}

	cfg, err := config.Provide(config.Default(), path)
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	logger = logger.Named(name)

	return &Env{
		Config: cfg,
		Logger: logger,
		HTTP:   httpclient.New(cfg.Http, logger),
	}, nil
}

// Lightup fills the Lightup address and refresh token from the credential
// file when they are not set explicitly.
func (e *Env) Lightup() (lightup.LightupServiceClient, error) {
	cfg := e.Config.Lightup
	if cfg.BaseURL == "" || cfg.RefreshToken == "" {
		path := cfg.CredentialFile
		if path == "" {
			path = lightup.DefaultCredentialPath()
		}
		cred, err := lightup.LoadCredential(path)
		if err != nil {
			return nil, fmt.Errorf("lightup credential: %w", err)
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = cred.Server
		}
		if cfg.RefreshToken == "" {
			cfg.RefreshToken = cred.Refresh
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("lightup config: %w", err)
	}
	return lightup.NewLightupServiceClient(cfg.BaseURL, cfg.RefreshToken, e.HTTP), nil
}

func (e *Env) Collibra() (collibra.CollibraServiceClient, error) {
	cfg := e.Config.Collibra
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("collibra config: %w", err)
	}
	return collibra.NewCollibraServiceClient(e.Logger, cfg.RestURL, cfg.Username, cfg.Password, e.HTTP), nil
}
