// Package config loads, validates, and normalizes reviewd configuration from
// TOML. Queue definitions and API principals are static configuration: they are
// read once at process start and never mutated afterwards.
package config
