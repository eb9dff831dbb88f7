// Package config handles loading and saving the ellipsoid tool configuration.
package config

import (
	"time"

	"github.com/chazu/ellipsoid/internal/logger"
	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/host"
	"github.com/chazu/ellipsoid/pkg/kernel/sdfx"
)

// FileName is the configuration file looked up in the working directory and
// in ConfigDir.
const FileName = "ellipsoid.yaml"

// Config holds all settings.
type Config struct {
	Logging LoggingConfig        `yaml:"logging"`
	Object  ellipsoid.Parameters `yaml:"object"`
	Server  ServerConfig         `yaml:"server"`
	Export  ExportConfig         `yaml:"export"`
	Limits  LimitsConfig         `yaml:"limits"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string            `yaml:"level"`
	Console bool              `yaml:"console"`
	File    logger.FileConfig `yaml:"file"`
}

// ServerConfig holds websocket service settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadLimit    int64         `yaml:"read_limit"` // bytes per inbound message
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ExportConfig holds mesh export settings.
type ExportConfig struct {
	// Cells is the marching cubes resolution for the reference mesh.
	Cells int `yaml:"cells"`
}

// LimitsConfig bounds the work done for one request.
type LimitsConfig struct {
	// MaxTriangles is the largest facet count generated for one object.
	MaxTriangles int `yaml:"max_triangles"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Object: ellipsoid.Defaults(),
		Server: ServerConfig{
			Addr:         "127.0.0.1:8370",
			ReadLimit:    64 << 10,
			WriteTimeout: 10 * time.Second,
		},
		Export: ExportConfig{
			Cells: sdfx.DefaultMeshCells,
		},
		Limits: LimitsConfig{
			MaxTriangles: host.DefaultMaxTriangles,
		},
	}
}
