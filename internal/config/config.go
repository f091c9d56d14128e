// Package config handles user configuration for the wisekeep CLI.
// Configuration lives in a key=value file under the XDG config dir with
// environment variable fallbacks; secrets stay in the environment only.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config keys.
const (
	KeyUserID     = "user-id"
	KeyBackendURL = "backend-url"
	KeyStorageURL = "storage-url"
	KeyLanguage   = "language"
	KeyDataDir    = "data-dir"
)

// Environment variable fallbacks. API keys are environment-only and
// never written to the config file.
const (
	EnvUserID     = "WISEKEEP_USER_ID"
	EnvBackendURL = "WISEKEEP_BACKEND_URL"
	EnvStorageURL = "WISEKEEP_STORAGE_URL"
	EnvLanguage   = "WISEKEEP_LANGUAGE"
	EnvDataDir    = "WISEKEEP_DATA_DIR"
	EnvAPIKey     = "WISEKEEP_API_KEY"
	EnvOpenAIKey  = "OPENAI_API_KEY"
)

// knownKeys is the closed set accepted by `wisekeep config set`.
var knownKeys = map[string]bool{
	KeyUserID:     true,
	KeyBackendURL: true,
	KeyStorageURL: true,
	KeyLanguage:   true,
	KeyDataDir:    true,
}

// KnownKey reports whether key can be stored in the config file.
func KnownKey(key string) bool {
	return knownKeys[key]
}

// Config holds user configuration loaded from ~/.config/wisekeep/config.
type Config struct {
	UserID     string
	BackendURL string
	StorageURL string
	Language   string
	DataDir    string
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/wisekeep.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wisekeep"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "wisekeep"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns an empty Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	if data, err := parseFile(p); err == nil {
		cfg.UserID = data[KeyUserID]
		cfg.BackendURL = data[KeyBackendURL]
		cfg.StorageURL = data[KeyStorageURL]
		cfg.Language = data[KeyLanguage]
		cfg.DataDir = data[KeyDataDir]
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	// Environment variable fallbacks (only if not set in config).
	if cfg.UserID == "" {
		cfg.UserID = os.Getenv(EnvUserID)
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = os.Getenv(EnvBackendURL)
	}
	if cfg.StorageURL == "" {
		cfg.StorageURL = os.Getenv(EnvStorageURL)
	}
	if cfg.Language == "" {
		cfg.Language = os.Getenv(EnvLanguage)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = os.Getenv(EnvDataDir)
	}

	return cfg, nil
}

// SnapshotPath returns where the local recordings snapshot lives,
// honoring data-dir when set.
func (c Config) SnapshotPath() (string, error) {
	if c.DataDir != "" {
		return filepath.Join(ExpandPath(c.DataDir), "recordings.json"), nil
	}
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "recordings.json"), nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		data[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	if !KnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	p, err := path()
	if err != nil {
		return err
	}

	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map to a file.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for key, value := range data {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
