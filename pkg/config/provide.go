package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/go-playground/validator.v9"
)

// EnvSections are the top level keys that may be set from the environment,
// e.g. COLLIBRA_REST_URL -> collibra.rest_url.
var EnvSections = []string{"lightup", "collibra", "http", "prometheus", "jaeger"}

// Provide layers defaults, an optional yaml file and the environment (a .env
// file in the working directory is loaded first) and decodes the result.
func Provide[T any](defaults T, path string) (T, error) {
	var cfg T

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", EnvKey), nil); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// EnvKey maps an environment variable name to a koanf key. Variables outside
// EnvSections map to "" and are ignored by the provider.
func EnvKey(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	for _, section := range EnvSections {
		if parts[0] == section {
			return parts[0] + "." + parts[1]
		}
	}
	return ""
}

var validate = validator.New()

func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
