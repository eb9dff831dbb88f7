package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/ellipsoid/internal/config"
	"github.com/chazu/ellipsoid/internal/logger"
	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/host"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// env is what every subcommand starts from once its flags are parsed.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

// provider returns a host provider bounded by the configured limits.
func (e *env) provider() *host.Provider {
	return host.New(e.log).WithMaxTriangles(e.cfg.Limits.MaxTriangles)
}

// objectFlags override the configured object parameters.
type objectFlags struct {
	a, b, c    float64
	nTheta     int
	nPhi       int
	volume     bool
	reflective bool
}

func (o *objectFlags) register(fs *flag.FlagSet) {
	fs.Float64Var(&o.a, "a", 0, "Semi-axis along x")
	fs.Float64Var(&o.b, "b", 0, "Semi-axis along y")
	fs.Float64Var(&o.c, "c", 0, "Semi-axis along z")
	fs.IntVar(&o.nTheta, "n-theta", 0, "Polar divisions")
	fs.IntVar(&o.nPhi, "n-phi", 0, "Azimuthal divisions")
	fs.BoolVar(&o.volume, "volume", true, "Treat the object as a closed volume")
	fs.BoolVar(&o.reflective, "reflective", false, "Mark facets reflective")
}

// apply copies only the flags that were given on the command line.
func (o *objectFlags) apply(fs *flag.FlagSet, p *ellipsoid.Parameters) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			p.A = o.a
		case "b":
			p.B = o.b
		case "c":
			p.C = o.c
		case "n-theta":
			p.NTheta = o.nTheta
		case "n-phi":
			p.NPhi = o.nPhi
		case "volume":
			p.Volume = o.volume
		case "reflective":
			p.Reflective = o.reflective
		}
	})
}

// newFlagSet returns a flag set carrying the shared config flags.
func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *config.Flags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs, config.RegisterFlags(fs)
}

// setup loads the config and builds the logger after fs has been parsed.
func setup(cf *config.Flags) (*env, error) {
	cfg, err := config.Load(cf)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.File, cfg.Logging.Console)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}

// parseVec reads "x,y,z".
func parseVec(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vec{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var c [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("bad component %q: %w", p, err)
		}
		c[i] = f
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}
