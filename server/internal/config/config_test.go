package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

// replaceConfig atomically replaces the file at p the way editors save:
// write a temp file in the same directory, then rename it over p.
func replaceConfig(t *testing.T, p, content string) {
	t.Helper()
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		t.Fatalf("rename config: %v", err)
	}
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Collector.Period != DefaultPeriod {
		t.Errorf("collector.period: got %v, want %v", cfg.Collector.Period, DefaultPeriod)
	}
	if !cfg.Console.Enabled {
		t.Error("console.enabled: got false, want true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `collector:
  reactive: true
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.GRPCPort != DefaultGRPCPort {
		t.Errorf("grpc_port: got %d, want %d", cfg.Server.GRPCPort, DefaultGRPCPort)
	}
	if cfg.Collector.Period != DefaultPeriod {
		t.Errorf("collector.period: got %v, want %v", cfg.Collector.Period, DefaultPeriod)
	}
	if cfg.Collector.MinLifetime != DefaultMinLifetime || cfg.Collector.MaxLifetime != DefaultMaxLifetime {
		t.Errorf("lifetime range: got [%v, %v], want [%v, %v]",
			cfg.Collector.MinLifetime, cfg.Collector.MaxLifetime, DefaultMinLifetime, DefaultMaxLifetime)
	}
	if !cfg.Collector.Reactive {
		t.Error("collector.reactive: got false, want true")
	}
	if cfg.Console.Prompt != DefaultPrompt {
		t.Errorf("console.prompt: got %q, want %q", cfg.Console.Prompt, DefaultPrompt)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Errorf("log level: got %v, want INFO", cfg.Log.SlogLevel())
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  grpc_port: 0
  auth:
    mode: apikey
    key_env: POOL_KEY
    header: X-Pool-Key
collector:
  period: 10s
  autostart: true
  min_lifetime: 5s
  max_lifetime: 1m
stream:
  interval: 2s
console:
  enabled: false
log:
  level: debug
  file: /tmp/ttlpool.log
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort != 0 {
		t.Errorf("grpc_port: got %d, want 0", cfg.Server.GRPCPort)
	}
	if h := cfg.Server.Auth.EffectiveHeader(); h != "x-pool-key" {
		t.Errorf("header: got %q, want x-pool-key", h)
	}
	if cfg.Collector.Period != 10*time.Second {
		t.Errorf("collector.period: got %v, want 10s", cfg.Collector.Period)
	}
	if !cfg.Collector.Autostart {
		t.Error("collector.autostart: got false, want true")
	}
	if cfg.Collector.MaxLifetime != time.Minute {
		t.Errorf("collector.max_lifetime: got %v, want 1m", cfg.Collector.MaxLifetime)
	}
	if cfg.Stream.Interval != 2*time.Second {
		t.Errorf("stream.interval: got %v, want 2s", cfg.Stream.Interval)
	}
	if cfg.Console.Enabled {
		t.Error("console.enabled: got true, want false")
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v, want DEBUG", cfg.Log.SlogLevel())
	}
	if cfg.Log.File != "/tmp/ttlpool.log" {
		t.Errorf("log.file: got %q", cfg.Log.File)
	}
}

func TestLoad_KeyEnvResolution(t *testing.T) {
	t.Setenv("TEST_POOL_KEY", "supersecret")
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: TEST_POOL_KEY
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := cfg.Server.Auth.Key(); k != "supersecret" {
		t.Errorf("Key(): got %q, want supersecret", k)
	}
	if h := cfg.Server.Auth.EffectiveHeader(); h != "x-api-key" {
		t.Errorf("EffectiveHeader: got %q, want x-api-key", h)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown auth mode": "server:\n  auth:\n    mode: oauth2\n",
		"port out of range": "server:\n  http_port: 70000\n",
		"zero period":       "collector:\n  period: 0s\n",
		"inverted range":    "collector:\n  min_lifetime: 10s\n  max_lifetime: 5s\n",
		"zero interval":     "stream:\n  interval: 0s\n",
		"bad log level":     "log:\n  level: chatty\n",
		"bad yaml":          "collector: [\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "collector:\n  period: 10s\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, p, func(c *Config) { got <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	replaceConfig(t, p, "collector:\n  period: 20s\n  reactive: true\n")

	select {
	case cfg := <-got:
		if cfg.Collector.Period != 20*time.Second {
			t.Errorf("reloaded period: got %v, want 20s", cfg.Collector.Period)
		}
		if !cfg.Collector.Reactive {
			t.Error("reloaded reactive: got false, want true")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("onChange not called after write")
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_IgnoresInvalidReload(t *testing.T) {
	p := writeConfig(t, "collector:\n  period: 10s\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	go Watch(ctx, p, func(c *Config) { got <- c }) //nolint:errcheck

	time.Sleep(100 * time.Millisecond)
	replaceConfig(t, p, "collector:\n  period: -1s\n")

	select {
	case cfg := <-got:
		t.Fatalf("onChange called with invalid config: %+v", cfg.Collector)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRandomLifetime_WithinRange(t *testing.T) {
	c := CollectorConfig{MinLifetime: time.Second, MaxLifetime: 5 * time.Second}
	for i := 0; i < 200; i++ {
		d := c.RandomLifetime()
		if d < time.Second || d > 5*time.Second {
			t.Fatalf("RandomLifetime: %v outside [1s, 5s]", d)
		}
		if d%time.Second != 0 {
			t.Fatalf("RandomLifetime: %v is not whole seconds", d)
		}
	}
}

func TestRandomLifetime_FixedWhenRangeEmpty(t *testing.T) {
	c := CollectorConfig{MinLifetime: 3 * time.Second, MaxLifetime: 3 * time.Second}
	if d := c.RandomLifetime(); d != 3*time.Second {
		t.Errorf("RandomLifetime: got %v, want 3s", d)
	}
}
