package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reviewd/internal/config"
	"reviewd/internal/queues"
	"reviewd/internal/review"
	"reviewd/internal/reviewable"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// withStore opens the review store and queue registry for direct-access
// commands, closing the store when fn returns.
func (c *commandContext) withStore(fn func(*config.Config, *review.Store, *queues.Registry) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := review.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	registry, err := queues.NewRegistry(cfg.Queues)
	if err != nil {
		return err
	}
	return fn(cfg, store, registry)
}

// defaultResolvers builds the resolver registry used when no subject-specific
// integrations are compiled in: every subject falls back to the queue's
// threshold policy.
func defaultResolvers() *reviewable.Registry {
	registry := reviewable.NewRegistry()
	registry.SetFallback(reviewable.ThresholdResolver(nil))
	return registry
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
