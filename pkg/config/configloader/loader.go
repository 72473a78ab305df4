// Package configloader merges yaml, .env and process environment into a typed,
// validated configuration.
package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultConfigFile = "config.yaml"
	dotEnvFile        = ".env"
)

type Validator interface {
	Validate() error
}

// Load reads the configuration of serviceName. Later sources win:
// config.yaml, then .env, then the process environment. Variables are prefixed with
// the upper-cased service name, for example MARKETPLACE_STORAGE_CATALOG, and
// <NAME>_CONFIG_FILE points to a different yaml file. Missing files are not an error.
func Load[T Validator](serviceName string) (T, error) {
	var cfg T
	prefix := strings.ToUpper(serviceName) + "_"
	k := koanf.New(".")

	loadYAML(k, yamlPath(prefix))
	loadDotEnv(k, prefix)
	if err := k.Load(env.Provider(prefix, ".", keyMapper(prefix)), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func yamlPath(prefix string) string {
	if path := os.Getenv(prefix + "CONFIG_FILE"); path != "" {
		return path
	}
	return defaultConfigFile
}

func loadYAML(k *koanf.Koanf, path string) {
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("WARN: error loading YAML config file '%s': %v", path, err)
	}
}

// loadDotEnv applies the .env file with the same key mapping as the environment.
func loadDotEnv(k *koanf.Koanf, prefix string) {
	vars, err := godotenv.Read(dotEnvFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("WARN: error reading %s file: %v", dotEnvFile, err)
		}
		return
	}
	mapKey := keyMapper(prefix)
	values := make(map[string]any, len(vars))
	for key, value := range vars {
		values[mapKey(key)] = value
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		log.Printf("WARN: error loading %s config: %v", dotEnvFile, err)
	}
}

// keyMapper turns MARKETPLACE_STORAGE_CATALOG into storage.catalog.
func keyMapper(prefix string) func(string) string {
	lowerPrefix := strings.ToLower(prefix)
	return func(key string) string {
		key = strings.TrimPrefix(strings.ToLower(key), lowerPrefix)
		return strings.ReplaceAll(key, "_", ".")
	}
}
