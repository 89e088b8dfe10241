// Package config loads and stores non-secret settings from a JSON file,
// overridden by COMMITORM_* environment variables. Secrets live in the
// keychain or the environment, never in the file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/nickyhof/CommitORM/core"
)

// DefaultPath is used when no path is given and COMMITORM_CONFIG is unset.
const DefaultPath = "commitorm.json"

type Config struct {
	Locator    string        `json:"locator"`
	Driver     string        `json:"driver"`
	LogLevel   string        `json:"log_level"`
	LogFormat  string        `json:"log_format"`
	JournalDir string        `json:"journal_dir"`
	Identity   core.Identity `json:"identity"`
	S3         S3Config      `json:"s3"`
	Server     ServerConfig  `json:"server"`
}

type S3Config struct {
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
}

type ServerConfig struct {
	Port        int    `json:"port"`
	JWTIssuer   string `json:"jwt_issuer"`
	JWTAudience string `json:"jwt_audience"`
}

func Default() Config {
	return Config{
		Driver:    "duckdb",
		LogLevel:  "info",
		LogFormat: "text",
		Identity: core.Identity{
			Name:  "CommitORM",
			Email: "orm@commitorm.local",
		},
		Server: ServerConfig{Port: 3306},
	}
}

// Path resolves the config file location.
func Path(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("COMMITORM_CONFIG"); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads configuration; a missing file returns defaults. Environment
// overrides are applied in both cases.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(Path(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("invalid config %s: %w", Path(path), err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(path string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(path), b, 0o600)
}

func (c *Config) applyEnv() error {
	overrides := map[string]*string{
		"COMMITORM_LOCATOR":       &c.Locator,
		"COMMITORM_DRIVER":        &c.Driver,
		"COMMITORM_LOG_LEVEL":     &c.LogLevel,
		"COMMITORM_LOG_FORMAT":    &c.LogFormat,
		"COMMITORM_JOURNAL_DIR":   &c.JournalDir,
		"COMMITORM_AUTHOR_NAME":   &c.Identity.Name,
		"COMMITORM_AUTHOR_EMAIL":  &c.Identity.Email,
		"COMMITORM_S3_REGION":     &c.S3.Region,
		"COMMITORM_S3_ENDPOINT":   &c.S3.Endpoint,
		"COMMITORM_S3_ACCESS_KEY": &c.S3.AccessKey,
		"COMMITORM_JWT_ISSUER":    &c.Server.JWTIssuer,
		"COMMITORM_JWT_AUDIENCE":  &c.Server.JWTAudience,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok {
			*field = v
		}
	}

	if v, ok := os.LookupEnv("COMMITORM_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid COMMITORM_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}
