package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Store struct {
		URL         string        `koanf:"url"`
		Cluster     bool          `koanf:"cluster"`
		DialTimeout time.Duration `koanf:"dial_timeout"`
		Addrs       []string      `koanf:"addrs"`
	} `koanf:"store"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func unmarshal(t *testing.T, l *Loader) testConfig {
	t.Helper()
	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return cfg
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
store:
  url: "redis://10.0.0.5:6379/0"
  cluster: true
  dial_timeout: "3s"
  addrs: ["10.0.0.5:7000", "10.0.0.6:7000"]
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	l := NewLoader()
	if err := l.LoadFile(configPath); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	cfg := unmarshal(t, l)
	if cfg.Store.URL != "redis://10.0.0.5:6379/0" {
		t.Errorf("store.url = %q", cfg.Store.URL)
	}
	if !cfg.Store.Cluster {
		t.Error("store.cluster should be true")
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	err := l.LoadFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	l := NewLoader()
	// Empty path should not error
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	// Set environment variables
	t.Setenv("NSKV_STORE_URL", "redis://127.0.0.1:6380/0")
	t.Setenv("NSKV_STORE_DIAL_TIMEOUT", "2s")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	cfg := unmarshal(t, l)
	if cfg.Store.URL != "redis://127.0.0.1:6380/0" {
		t.Errorf("store.url = %q", cfg.Store.URL)
	}
	if cfg.Store.DialTimeout != 2*time.Second {
		t.Errorf("store.dial_timeout = %v, want 2s", cfg.Store.DialTimeout)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_LOG_LEVEL", "warn")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if level := unmarshal(t, l).Log.Level; level != "warn" {
		t.Errorf("log.level = %q, want %q", level, "warn")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()

	data := map[string]any{
		"store.url":     "redis://localhost:3000",
		"store.cluster": true,
		"log.level":     nil,
	}

	if err := l.LoadMap(data); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	cfg.Log.Level = "info"
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Store.URL != "redis://localhost:3000" {
		t.Errorf("store.url = %q", cfg.Store.URL)
	}
	if !cfg.Store.Cluster {
		t.Error("store.cluster should be true")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, nil map values should be skipped", cfg.Log.Level)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	// Create temp config file with low priority value
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
store:
  url: "from-file"
log:
  level: "error"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Set environment variable with high priority value
	t.Setenv("NSKV_STORE_URL", "from-env")
	t.Setenv("NSKV_LOG_LEVEL", "warn")

	l := NewLoader(
		WithConfigFile(configPath),
		WithOverrides(map[string]any{"log.level": "debug", "store.url": nil}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.URL != "from-env" {
		t.Errorf("URL = %q, want %q (env should override file)", cfg.Store.URL, "from-env")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want %q (overrides should win)", cfg.Log.Level, "debug")
	}
}

func TestLoader_Unmarshal(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
store:
  url: "redis://10.0.0.5:6379/0"
  cluster: true
  dial_timeout: "3s"
  addrs: ["10.0.0.5:7000", "10.0.0.6:7000"]
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	l := NewLoader(WithConfigFile(configPath))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.URL != "redis://10.0.0.5:6379/0" {
		t.Errorf("URL = %q", cfg.Store.URL)
	}
	if !cfg.Store.Cluster {
		t.Error("Cluster should be true")
	}
	if cfg.Store.DialTimeout != 3*time.Second {
		t.Errorf("DialTimeout = %v, want 3s", cfg.Store.DialTimeout)
	}
	if len(cfg.Store.Addrs) != 2 || cfg.Store.Addrs[1] != "10.0.0.6:7000" {
		t.Errorf("Addrs = %v", cfg.Store.Addrs)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
}

func TestLoader_KeepsDefaults(t *testing.T) {
	var cfg testConfig
	cfg.Store.URL = "redis://default:6379"
	cfg.Log.Level = "info"

	l := NewLoader(WithOverrides(map[string]any{"log.level": "error"}))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.URL != "redis://default:6379" {
		t.Errorf("URL = %q, default should survive", cfg.Store.URL)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, want %q", cfg.Log.Level, "error")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"NSKV_STORE_URL", "store.url"},
		{"NSKV_STORE_DIAL_TIMEOUT", "store.dial_timeout"},
		{"NSKV_SERVER_METRICS_ADDR", "server.metrics_addr"},
		{"NSKV_MIRROR_ENCRYPTION_KEY", "mirror.encryption_key"},
		{"NSKV_DEBUG", "debug"},
	}
	for _, tt := range tests {
		if got := EnvKey("NSKV_", tt.name); got != tt.want {
			t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
