// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package; Go's //go:embed bakes it
// into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName            string `yaml:"cli_name"`
	DisplayName        string `yaml:"display_name"`
	Description        string `yaml:"description"`
	HomeDir            string `yaml:"home_dir"`
	EnvPrefix          string `yaml:"env_prefix"`
	GoModule           string `yaml:"go_module"`
	UserAgent          string `yaml:"user_agent"`
	DefaultCatalogFile string `yaml:"default_catalog_file"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:            "agenthub",
			DisplayName:        "Agent Hub",
			Description:        "Catalog manager for reusable AI agent artifacts",
			HomeDir:            ".agenthub",
			EnvPrefix:          "AGENTHUB",
			GoModule:           "github.com/agenthub-labs/agenthub",
			UserAgent:          "AgentHub/0.1.0",
			DefaultCatalogFile: "agent-catalog.json",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "agenthub").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Agent Hub").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".agenthub").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "AGENTHUB").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Used by packaging scripts — not
// consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// UserAgent returns the User-Agent header sent on catalog fetches.
func UserAgent() string { load(); return defaults.UserAgent }

// DefaultCatalogFile returns the manifest filename assumed when a deep
// link names a repository without an explicit catalog path.
func DefaultCatalogFile() string { load(); return defaults.DefaultCatalogFile }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") →
// "AGENTHUB_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
