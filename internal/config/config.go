package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Common errors
var (
	ErrMissingEnvFile  = errors.New(".env file not found")
	ErrMissingAPIKey   = errors.New("INKEEP_API_KEY is not set")
	ErrMissingVarsFile = errors.New("workspace tfvars file not found")
	ErrMissingVariable = errors.New("required variable missing")
)

const (
	// EnvAPIKey is the environment variable carrying the Inkeep key.
	EnvAPIKey = "INKEEP_API_KEY"

	// DefaultEnvDir is where per-workspace tfvars files live,
	// relative to the project root.
	DefaultEnvDir = "envs"

	settingsFile = "docschat.toml"
	dotenvFile   = ".env"
)

// Settings holds optional project-level configuration from
// docschat.toml. Every field has a working default; the file itself is
// optional.
type Settings struct {
	// TerraformPath points at an existing terraform binary. When
	// empty the binary is looked up on PATH and, failing that,
	// TerraformVersion is installed.
	TerraformPath string `toml:"terraform_path"`

	// TerraformVersion is the version to install when no binary is
	// found.
	TerraformVersion string `toml:"terraform_version"`

	// EnvDir is the directory holding <workspace>.tfvars files.
	EnvDir string `toml:"env_dir"`

	// HistoryDB is the path of the deployment ledger database.
	HistoryDB string `toml:"history_db"`

	// ServiceName is the Cloud Run service the stack deploys.
	ServiceName string `toml:"service_name"`

	// ServiceAddress is the terraform resource address of that
	// service, used for targeted replace on redeploy.
	ServiceAddress string `toml:"service_address"`

	// Repository is the Artifact Registry repository holding the
	// server images.
	Repository string `toml:"repository"`
}

// Config is the fully resolved project configuration.
type Config struct {
	// ProjectDir is the project root (where .env and the terraform
	// configuration live).
	ProjectDir string

	Settings Settings

	// Dotenv holds the parsed .env contents. Nil when the file was
	// not loaded.
	Dotenv map[string]string
}

// DefaultSettings returns the settings used when docschat.toml is
// absent.
func DefaultSettings() Settings {
	return Settings{
		TerraformVersion: "1.9.8",
		EnvDir:           DefaultEnvDir,
		HistoryDB:        filepath.Join(".docschat", "history.db"),
		ServiceName:      "docschat-mcp",
		ServiceAddress:   "google_cloud_run_v2_service.docschat",
		Repository:       "mcp",
	}
}

// Load resolves configuration for projectDir. The settings file is
// optional; the .env file is not loaded here because read-only commands
// (workspace list, artifacts) don't need it.
func Load(projectDir string) (*Config, error) {
	settings := DefaultSettings()

	path := filepath.Join(projectDir, settingsFile)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &settings); err != nil {
			return nil, fmt.Errorf("parse %s: %w", settingsFile, err)
		}
	}
	if settings.EnvDir == "" {
		settings.EnvDir = DefaultEnvDir
	}

	return &Config{
		ProjectDir: projectDir,
		Settings:   settings,
	}, nil
}

// LoadDotenv reads the project .env file into c.Dotenv. The file is
// required; deploy commands fail before spawning terraform when it is
// missing.
func (c *Config) LoadDotenv() error {
	path := filepath.Join(c.ProjectDir, dotenvFile)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingEnvFile, path)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.Dotenv = env
	return nil
}

// APIKey resolves the Inkeep API key. The process environment wins over
// .env so that CI and Cloud Run can inject the key without a file.
func (c *Config) APIKey() (string, error) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}
	if key := c.Dotenv[EnvAPIKey]; key != "" {
		return key, nil
	}
	return "", ErrMissingAPIKey
}

// TFVarsPath returns the tfvars file path for a workspace.
func (c *Config) TFVarsPath(workspace string) string {
	return filepath.Join(c.ProjectDir, c.Settings.EnvDir, workspace+".tfvars")
}

// HistoryDBPath returns the ledger database path, resolved against the
// project root when relative.
func (c *Config) HistoryDBPath() string {
	p := c.Settings.HistoryDB
	if p == "" {
		p = DefaultSettings().HistoryDB
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.ProjectDir, p)
	}
	return p
}
