package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Sweep contains configuration for the background disqualification sweeper.
type Sweep struct {
	// Interval is the number of seconds between periodic sweeps of every
	// queue. Zero disables periodic sweeps; manual rechecks still work.
	Interval int `toml:"interval"`
	// OnStart runs a sweep of every queue when the daemon starts.
	OnStart bool `toml:"on_start"`
}

// Queue declares one review queue: its allowed responses, the role a caller
// needs to work it, and the default disqualification policy applied when no
// subject-specific resolver is registered.
type Queue struct {
	Name               string   `toml:"name"`
	Responses          []string `toml:"responses"`
	Privilege          string   `toml:"privilege"`
	DisqualifyResponse string   `toml:"disqualify_response"`
	DisqualifyVotes    int      `toml:"disqualify_votes"`
}

// Principal maps an API token to a named caller and its roles.
type Principal struct {
	Name  string   `toml:"name"`
	Token string   `toml:"token"`
	Roles []string `toml:"roles"`
}

// Config encapsulates all configuration values for reviewd.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Logging: log format and level
//   - Sweep: background disqualification sweep timing
//   - Queues: static review queue definitions
//   - Principals: API tokens and role assignments
type Config struct {
	Paths      Paths       `toml:"paths"`
	Logging    Logging     `toml:"logging"`
	Sweep      Sweep       `toml:"sweep"`
	Queues     []Queue     `toml:"queue"`
	Principals []Principal `toml:"principal"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reviewd/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reviewd.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	for i := range c.Queues {
		q := &c.Queues[i]
		q.Name = strings.ToLower(strings.TrimSpace(q.Name))
		q.Privilege = strings.TrimSpace(q.Privilege)
		q.DisqualifyResponse = strings.TrimSpace(q.DisqualifyResponse)
		responses := make([]string, 0, len(q.Responses))
		for _, response := range q.Responses {
			if trimmed := strings.TrimSpace(response); trimmed != "" {
				responses = append(responses, trimmed)
			}
		}
		q.Responses = responses
		if q.DisqualifyVotes == 0 && q.DisqualifyResponse != "" {
			q.DisqualifyVotes = 1
		}
	}

	for i := range c.Principals {
		p := &c.Principals[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Token = strings.TrimSpace(p.Token)
	}

	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FindQueue returns the queue configuration matching name, if any.
func (c *Config) FindQueue(name string) (*Queue, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range c.Queues {
		if c.Queues[i].Name == normalized {
			return &c.Queues[i], true
		}
	}
	return nil, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
