package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	syncerrors "github.com/tessro/syncstream/internal/errors"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Network.Port != 41205 {
		t.Errorf("Port = %d, want 41205", cfg.Network.Port)
	}
	if cfg.Network.Heartbeat() != time.Second {
		t.Errorf("Heartbeat() = %v, want 1s", cfg.Network.Heartbeat())
	}
	if cfg.Sync.Soft() != 150*time.Millisecond {
		t.Errorf("Soft() = %v, want 150ms", cfg.Sync.Soft())
	}
	if cfg.Media.Dir != "media" {
		t.Errorf("Media.Dir = %q, want media", cfg.Media.Dir)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Network.Port = 9999
	cfg.Sync.EpsilonHard = 2000
	cfg.ApplyDefaults()

	if cfg.Network.Port != 9999 {
		t.Errorf("Port = %d, want explicit 9999 kept", cfg.Network.Port)
	}
	if cfg.Sync.EpsilonHard != 2000 {
		t.Errorf("EpsilonHard = %d, want explicit 2000 kept", cfg.Sync.EpsilonHard)
	}
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[network]
port = 50000
heartbeat_interval = 500

[media]
dir = "/tmp/music"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Network.Port != 50000 {
		t.Errorf("Port = %d, want 50000", cfg.Network.Port)
	}
	if cfg.Network.HeartbeatInterval != 500 {
		t.Errorf("HeartbeatInterval = %d, want 500", cfg.Network.HeartbeatInterval)
	}
	if cfg.Media.Dir != "/tmp/music" {
		t.Errorf("Media.Dir = %q, want /tmp/music", cfg.Media.Dir)
	}
	// Unset sections still get defaults.
	if cfg.Network.StaleTimeout != 5000 {
		t.Errorf("StaleTimeout = %d, want default 5000", cfg.Network.StaleTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SYNCSTREAM_PORT", "42000")
	t.Setenv("SYNCSTREAM_MEDIA_DIR", "/srv/media")
	t.Setenv("SYNCSTREAM_LOG_LEVEL", "debug")

	cfg := &Config{}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	if cfg.Network.Port != 42000 {
		t.Errorf("Port = %d, want 42000 from env", cfg.Network.Port)
	}
	if cfg.Media.Dir != "/srv/media" {
		t.Errorf("Media.Dir = %q, want /srv/media from env", cfg.Media.Dir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug from env", cfg.Log.Level)
	}
}

func TestValidateRejectsBadTimeouts(t *testing.T) {
	cfg := Default()
	cfg.Network.DepartedTimeout = cfg.Network.StaleTimeout
	if err := cfg.Validate(); !errors.Is(err, syncerrors.ErrInvalidConfig) {
		t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
	}

	cfg = Default()
	cfg.Sync.EpsilonSoft = 800
	if err := cfg.Validate(); !errors.Is(err, syncerrors.ErrInvalidConfig) {
		t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
	}
}
