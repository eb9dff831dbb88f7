package config

import (
	"flag"

	"github.com/chazu/ellipsoid/internal/logger"
)

// Flags holds command-line overrides. Zero values leave the config alone.
type Flags struct {
	ConfigPath   string
	Debug        bool
	LogLevel     string
	LogFile      string
	Quiet        bool
	Addr         string
	Cells        int
	MaxTriangles int
}

// RegisterFlags defines the shared flags on fs and returns the struct they
// populate once fs is parsed.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Also log to this file, rotated")
	fs.BoolVar(&f.Quiet, "quiet", false, "Disable console logging")
	fs.StringVar(&f.Addr, "addr", "", "Websocket listen address")
	fs.IntVar(&f.Cells, "cells", 0, "Marching cubes resolution for reference meshes")
	fs.IntVar(&f.MaxTriangles, "max-triangles", 0, "Refuse objects with more facets than this")
	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		file := cfg.Logging.File
		if file.MaxSizeMB == 0 {
			file = logger.DefaultFileConfig(f.LogFile)
		}
		file.Path = f.LogFile
		cfg.Logging.File = file
	}
	if f.Quiet {
		cfg.Logging.Console = false
	}
	if f.Addr != "" {
		cfg.Server.Addr = f.Addr
	}
	if f.Cells > 0 {
		cfg.Export.Cells = f.Cells
	}
	if f.MaxTriangles > 0 {
		cfg.Limits.MaxTriangles = f.MaxTriangles
	}
}
