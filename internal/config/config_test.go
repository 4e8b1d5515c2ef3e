package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.Engine.MaxIterations != def.Engine.MaxIterations {
		t.Errorf("MaxIterations = %d, want default %d", cfg.Engine.MaxIterations, def.Engine.MaxIterations)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triekb.yaml")
	src := `
engine:
  max_iterations: 42
snapshot:
  path: /tmp/kb.snapshot
  compress: false
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.MaxIterations != 42 {
		t.Errorf("MaxIterations = %d", cfg.Engine.MaxIterations)
	}
	if cfg.Snapshot.Path != "/tmp/kb.snapshot" || cfg.Snapshot.Compress {
		t.Errorf("Snapshot = %+v", cfg.Snapshot)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triekb.yaml")
	if err := os.WriteFile(path, []byte("engine: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed YAML must fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRIEKB_SNAPSHOT", "/elsewhere/kb.snapshot")
	t.Setenv("TRIEKB_MAX_ITERATIONS", "7")
	t.Setenv("TRIEKB_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Snapshot.Path != "/elsewhere/kb.snapshot" {
		t.Errorf("Path = %q", cfg.Snapshot.Path)
	}
	if cfg.Engine.MaxIterations != 7 {
		t.Errorf("MaxIterations = %d", cfg.Engine.MaxIterations)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "triekb.yaml")
	in := DefaultConfig()
	in.Engine.MaxIterations = 9
	if err := in.Save(path); err != nil {
		t.Fatal(err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Engine.MaxIterations != 9 {
		t.Errorf("MaxIterations = %d, want 9", out.Engine.MaxIterations)
	}
}
