package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/host"
	"github.com/chazu/ellipsoid/pkg/kernel/sdfx"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if !cfg.Logging.Console {
		t.Error("expected console logging by default")
	}
	if cfg.Logging.File.Path != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.File.Path)
	}
	if cfg.Object != ellipsoid.Defaults() {
		t.Errorf("expected default object, got %+v", cfg.Object)
	}
	if cfg.Server.Addr != "127.0.0.1:8370" {
		t.Errorf("expected addr 127.0.0.1:8370, got %s", cfg.Server.Addr)
	}
	if cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("expected write timeout 10s, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Export.Cells != sdfx.DefaultMeshCells {
		t.Errorf("expected %d cells, got %d", sdfx.DefaultMeshCells, cfg.Export.Cells)
	}
	if cfg.Limits.MaxTriangles != host.DefaultMaxTriangles {
		t.Errorf("expected max triangles %d, got %d", host.DefaultMaxTriangles, cfg.Limits.MaxTriangles)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
logging:
  level: "debug"
  console: false
  file:
    path: "ellipsoid.log"
    max_size_mb: 5

object:
  a: 3
  b: 2
  n_theta: 16
  reflective: true

server:
  addr: ":9000"
  write_timeout: 2s

export:
  cells: 128
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Console {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Logging.File.Path != "ellipsoid.log" || cfg.Logging.File.MaxSizeMB != 5 {
		t.Errorf("log file = %+v", cfg.Logging.File)
	}

	// Keys absent from the file keep their defaults.
	want := ellipsoid.Parameters{A: 3, B: 2, C: 1, NTheta: 16, NPhi: 10, Volume: true, Reflective: true}
	if cfg.Object != want {
		t.Errorf("object = %+v, want %+v", cfg.Object, want)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.WriteTimeout != 2*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ReadLimit != Default().Server.ReadLimit {
		t.Errorf("read limit = %d, want default", cfg.Server.ReadLimit)
	}
	if cfg.Export.Cells != 128 {
		t.Errorf("expected 128 cells, got %d", cfg.Export.Cells)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
object:
  a: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(&Flags{ConfigPath: "/nonexistent/path/ellipsoid.yaml"})
	if err == nil {
		t.Error("expected error for missing explicit config, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(FileName, []byte("export:\n  cells: 32\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "log level flag",
			args: []string{"-log-level", "warn"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "warn" {
					t.Errorf("expected log level 'warn', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "log file flag",
			args: []string{"-log-file", "/tmp/e.log", "-quiet"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.File.Path != "/tmp/e.log" || cfg.Logging.File.MaxSizeMB != 50 {
					t.Errorf("log file = %+v", cfg.Logging.File)
				}
				if cfg.Logging.Console {
					t.Error("expected console logging off with -quiet")
				}
			},
		},
		{
			name: "addr and cells flags",
			args: []string{"-addr", ":7000", "-cells", "96"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Server.Addr != ":7000" {
					t.Errorf("expected addr :7000, got %s", cfg.Server.Addr)
				}
				if cfg.Export.Cells != 96 {
					t.Errorf("expected 96 cells, got %d", cfg.Export.Cells)
				}
			},
		},
		{
			name: "max triangles flag",
			args: []string{"-max-triangles", "5000"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Limits.MaxTriangles != 5000 {
					t.Errorf("expected 5000 max triangles, got %d", cfg.Limits.MaxTriangles)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				def := Default()
				if cfg.Logging != def.Logging || cfg.Server != def.Server || cfg.Export != def.Export || cfg.Limits != def.Limits {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			cfg := Default()
			f.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)

	yamlContent := `
server:
  addr: ":8000"
export:
  cells: 40
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Flags{ConfigPath: configPath, Cells: 80})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Cells from flag, addr from file.
	if cfg.Export.Cells != 80 {
		t.Errorf("expected 80 cells from flag, got %d", cfg.Export.Cells)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("expected addr :8000 from file, got %s", cfg.Server.Addr)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Object.A = 4.5
	cfg.Object.NPhi = 24
	cfg.Server.Addr = ":1234"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	got, err := Load(&Flags{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Object != cfg.Object || got.Server != cfg.Server {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, cfg)
	}
}
