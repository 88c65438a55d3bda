package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

// DefaultTestCommand is the stock test command; reports call out runs
// that used anything else.
const DefaultTestCommand = "setup.py test"

// Config holds the persisted bot configuration: a flat TOML file with
// SYMPY_BOT_* environment overrides.
type Config struct {
	Repo         string   `toml:"repo" env:"SYMPY_BOT_REPO"`
	Token        string   `toml:"token" env:"SYMPY_BOT_TOKEN"`
	Interpreters []string `toml:"interpreters" env:"SYMPY_BOT_INTERPRETERS"`
	TestCommand  string   `toml:"test_command" env:"SYMPY_BOT_TEST_COMMAND"`
	Server       string   `toml:"server" env:"SYMPY_BOT_SERVER"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Repo:         "sympy/sympy",
		Interpreters: []string{"python"},
		TestCommand:  DefaultTestCommand,
		Server:       "https://reviews.sympy.org",
	}
}

// DataDir returns the bot data directory. Uses SYMPY_BOT_DATA_DIR if
// set, otherwise ~/.sympy-bot
func DataDir() string {
	if dir := os.Getenv("SYMPY_BOT_DATA_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sympy-bot")
}

// Path returns the path to the config file.
func Path() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load loads the configuration from the default path, then applies
// environment overrides.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, Path())
}

// LoadFrom loads the configuration from a specific path. A missing
// file is not an error; defaults and the environment still apply.
func LoadFrom(ctx context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the default path, creating the
// data directory if needed. The file holds the access token, so it is
// written user-readable only.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Run is the immutable per-invocation configuration handed to the
// orchestrator. It is constructed once at startup from the persisted
// config and command-line flags; nothing mutates it afterwards.
type Run struct {
	Repo         string // owner/name
	CloneURL     string
	Interpreters []string
	TestCommand  string
	BuildDocs    bool
	// Reference is the explicit merge-commit override; empty means
	// each PR's declared base ref.
	Reference string
	Upload    bool
	Comment   bool
	Server    string
	WorkDir   string
}

// RepoOwner returns the owner part of an owner/name repo string.
func RepoOwner(repo string) string {
	owner, _, _ := strings.Cut(repo, "/")
	return owner
}

// RepoName returns the name part of an owner/name repo string.
func RepoName(repo string) string {
	_, name, ok := strings.Cut(repo, "/")
	if !ok {
		return repo
	}
	return name
}

// ValidateRepo checks the owner/name shape early so users get a clear
// error before any network calls.
func ValidateRepo(repo string) error {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid repo %q (want owner/name)", repo)
	}
	return nil
}
