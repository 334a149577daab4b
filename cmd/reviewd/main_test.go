package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reviewd/internal/config"
	"reviewd/internal/review"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[sweep]
interval = 0

[[queue]]
name = "spam-flags"
responses = ["spam", "not-spam"]
privilege = "reviewer"
disqualify_response = "spam"
disqualify_votes = 1

[[principal]]
name = "alice"
token = "tok-alice"
roles = ["reviewer", "developer", "admin"]
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLIQueueAndItemCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"add", "spam-flags", "Post", "42"}, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Enqueued item")

	out, _, err = runCLI(t, []string{"queues"}, env.configPath)
	if err != nil {
		t.Fatalf("queues: %v", err)
	}
	requireContains(t, out, "spam-flags")
	requireContains(t, out, "spam, not-spam")

	out, _, err = runCLI(t, []string{"items", "spam-flags"}, env.configPath)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	requireContains(t, out, "Post")
	requireContains(t, out, "42")

	if _, _, err := runCLI(t, []string{"items", "no-such-queue"}, env.configPath); err == nil {
		t.Fatal("items on unknown queue must fail")
	}
}

func TestCLISweepAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	store, err := review.Open(env.cfg)
	if err != nil {
		t.Fatalf("review.Open: %v", err)
	}
	item, err := store.AddItem(ctx, "spam-flags", "Post", "7")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := store.SubmitVerdict(ctx, item.ID, "alice", "spam", nil); err != nil {
		t.Fatalf("SubmitVerdict: %v", err)
	}
	store.Close()

	out, _, err := runCLI(t, []string{"sweep", "spam-flags"}, env.configPath)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	requireContains(t, out, "disqualified=1")

	out, _, err = runCLI(t, []string{"history", "spam-flags", "--user", "alice"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "alice")
	requireContains(t, out, "spam")
	requireContains(t, out, "1 total verdicts")
}

func TestCLIConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "spam-flags")
}
