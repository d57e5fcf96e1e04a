package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agenthub-labs/agenthub/internal/auth"
	"github.com/agenthub-labs/agenthub/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys.
const (
	keyRepositories   = "repositories"
	keyAutoUpdate     = "autoUpdate"
	keyUpdateInterval = "updateInterval"
	keyInstallRoot    = "installRoot"
	keyDataDir        = "dataDir"
)

// Defaults.
const (
	DefaultInstallRoot    = ".github"
	DefaultUpdateInterval = 3600
)

// Repository is one subscribed catalog source.
type Repository struct {
	ID      string       `mapstructure:"id" yaml:"id"`
	URL     string       `mapstructure:"url" yaml:"url"`
	Enabled bool         `mapstructure:"enabled" yaml:"enabled"`
	Auth    *auth.Config `mapstructure:"auth,omitempty" yaml:"auth,omitempty"`
}

// Dir returns the path to the AgentHub config directory (~/.agenthub/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.agenthub/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(keyAutoUpdate, true)
	viper.SetDefault(keyUpdateInterval, DefaultUpdateInterval)
	viper.SetDefault(keyInstallRoot, DefaultInstallRoot)

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Repositories returns the subscribed catalog repositories.
func Repositories() ([]Repository, error) {
	var repos []Repository
	if err := viper.UnmarshalKey(keyRepositories, &repos); err != nil {
		return nil, fmt.Errorf("reading repositories: %w", err)
	}
	return repos, nil
}

// FindRepository returns the subscribed repository with the given id,
// or nil when not subscribed.
func FindRepository(id string) (*Repository, error) {
	repos, err := Repositories()
	if err != nil {
		return nil, err
	}
	for i := range repos {
		if repos[i].ID == id {
			return &repos[i], nil
		}
	}
	return nil, nil
}

// SetRepositories replaces the subscribed repository list and saves.
func SetRepositories(repos []Repository) error {
	viper.Set(keyRepositories, repos)
	return save()
}

// AutoUpdate reports whether the background update check is enabled.
func AutoUpdate() bool {
	return viper.GetBool(keyAutoUpdate)
}

// UpdateInterval returns the background refresh interval in seconds.
func UpdateInterval() int {
	n := viper.GetInt(keyUpdateInterval)
	if n <= 0 {
		return DefaultUpdateInterval
	}
	return n
}

// InstallRoot returns the directory artifacts install under, relative
// to the working directory unless absolute.
func InstallRoot() string {
	root := viper.GetString(keyInstallRoot)
	if root == "" {
		return DefaultInstallRoot
	}
	return root
}

// DataDir returns the directory holding the catalog database and
// secrets, defaulting to the config directory.
func DataDir() string {
	if dir := viper.GetString(keyDataDir); dir != "" {
		return dir
	}
	return Dir()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	viper.Set(key, value)
	return save()
}

func save() error {
	if err := EnsureDir(); err != nil {
		return err
	}

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
