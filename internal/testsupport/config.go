package testsupport

import (
	"path/filepath"
	"testing"

	"reviewd/internal/config"
	"reviewd/internal/queues"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test and
// a small set of queues and principals that cover the common scenarios.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Sweep.Interval = 0
	cfg.Queues = []config.Queue{
		{
			Name:               "spam-flags",
			Responses:          []string{"spam", "not-spam"},
			Privilege:          "reviewer",
			DisqualifyResponse: "spam",
			DisqualifyVotes:    1,
		},
		{
			Name:               "appeals",
			Responses:          []string{"uphold", "overturn"},
			Privilege:          "senior-reviewer",
			DisqualifyResponse: "uphold",
			DisqualifyVotes:    2,
		},
	}
	cfg.Principals = []config.Principal{
		{Name: "alice", Token: "tok-alice", Roles: []string{"reviewer", "developer"}},
		{Name: "bob", Token: "tok-bob", Roles: []string{"reviewer"}},
		{Name: "root", Token: "tok-root", Roles: []string{"reviewer", "senior-reviewer", "developer", "admin"}},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// MustRegistry builds a queue registry from the config's queue definitions.
func MustRegistry(t testing.TB, cfg *config.Config) *queues.Registry {
	t.Helper()
	registry, err := queues.NewRegistry(cfg.Queues)
	if err != nil {
		t.Fatalf("failed to build queue registry: %v", err)
	}
	return registry
}

// WithQueues replaces the default queue definitions.
func WithQueues(queues ...config.Queue) ConfigOption {
	return func(c *config.Config) {
		c.Queues = queues
	}
}

// WithPrincipals replaces the default principals.
func WithPrincipals(principals ...config.Principal) ConfigOption {
	return func(c *config.Config) {
		c.Principals = principals
	}
}
