package infra

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigYAML = `
app:
  name: "marketbridge"
  version: "test"
server:
  port: 8080
feed:
  host: "127.0.0.1"
  port: 5555
  read_buffer_bytes: 4096
logging:
  level: "debug"
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.FeedAddr() != "127.0.0.1:5555" {
		t.Errorf("unexpected feed addr: %s", cfg.FeedAddr())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)

	t.Setenv("BRIDGE_HTTP_PORT", "9090")
	t.Setenv("BRIDGE_FEED_PORT", "6000")
	t.Setenv("BRIDGE_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("env override ignored for server port: %d", cfg.Server.Port)
	}
	if cfg.Feed.Port != 6000 {
		t.Errorf("env override ignored for feed port: %d", cfg.Feed.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env override ignored for log level: %s", cfg.Logging.Level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad server port": `
server:
  port: 0
feed:
  port: 5555
`,
		"bad feed port": `
server:
  port: 8080
feed:
  port: 99999
`,
		"cache without addr": `
server:
  port: 8080
feed:
  port: 5555
cache:
  enabled: true
`,
	}

	for name, content := range cases {
		path := writeTestConfig(t, content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
