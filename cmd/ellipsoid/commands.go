package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/engine"
	"github.com/chazu/ellipsoid/pkg/facet"
	"github.com/chazu/ellipsoid/pkg/host"
	"github.com/chazu/ellipsoid/pkg/intercept"
	"github.com/chazu/ellipsoid/pkg/kernel"
	"github.com/chazu/ellipsoid/pkg/kernel/sdfx"
	"github.com/chazu/ellipsoid/pkg/server"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func cmdCount(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("count", stderr)
	var obj objectFlags
	obj.register(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	e, err := setup(cf)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	params := e.cfg.Object
	obj.apply(fs, &params)

	c, err := e.provider().Count(params)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "triangles:   %d\n", c.Triangles)
	fmt.Fprintf(stdout, "solid:       %t\n", c.Solid)
	fmt.Fprintf(stdout, "diffractive: %d\n", c.DiffractiveCSG)
	return nil
}

func cmdMesh(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("mesh", stderr)
	var obj objectFlags
	obj.register(fs)
	out := fs.String("o", "", "Write binary STL to this path instead of printing")
	reference := fs.Bool("reference", false, "Mesh with marching cubes instead of the analytic tessellation")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	e, err := setup(cf)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	params := e.cfg.Object
	obj.apply(fs, &params)

	var m *kernel.Mesh
	if *reference {
		m, err = sdfx.New(e.cfg.Export.Cells).ToMesh(params.Validate())
		if err != nil {
			return err
		}
	} else {
		resp, err := e.provider().Mesh(params)
		if err != nil {
			return err
		}
		m = resp.Mesh
	}

	if *out != "" {
		if err := sdfx.SaveSTL(*out, m); err != nil {
			return err
		}
		e.log.Info("wrote mesh", zap.String("path", *out), zap.Int("triangles", m.TriangleCount()))
		return nil
	}
	printMesh(stdout, m)
	return nil
}

// printMesh writes one facet per line in the host's buffer order: three
// vertices followed by the attribute word.
func printMesh(w io.Writer, m *kernel.Mesh) {
	for _, t := range m.Triangles {
		for _, v := range t.V {
			fmt.Fprintf(w, "%.9g %.9g %.9g  ", v.X, v.Y, v.Z)
		}
		fmt.Fprintln(w, t.Attr)
	}
}

func cmdIntercept(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("intercept", stderr)
	var obj objectFlags
	obj.register(fs)
	from := fs.String("from", "0,0,0", "Ray origin x,y,z")
	dir := fs.String("dir", "", "Ray direction cosines l,m,n")
	group := fs.Int("group", facet.ExactEllipsoid, "Exact group of the facet that was hit")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *dir == "" {
		fmt.Fprintln(stderr, "Usage: ellipsoid intercept -from x,y,z -dir l,m,n")
		return errUsage
	}
	e, err := setup(cf)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	ray := intercept.Ray{ExactGroup: *group}
	if ray.Origin, err = parseVec(*from); err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	if ray.Dir, err = parseVec(*dir); err != nil {
		return fmt.Errorf("-dir: %w", err)
	}

	params := e.cfg.Object
	obj.apply(fs, &params)

	res, err := e.provider().Intercept(params, ray)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "distance:   %.12g\n", res.Distance)
	fmt.Fprintf(stdout, "point:      %.12g %.12g %.12g\n", res.Point.X, res.Point.Y, res.Point.Z)
	fmt.Fprintf(stdout, "normal:     %.12g %.12g %.12g\n", res.Normal.X, res.Normal.Y, res.Normal.Z)
	fmt.Fprintf(stdout, "iterations: %d\n", res.Iterations)
	return nil
}

func cmdNames(args []string, stdout, stderr io.Writer) error {
	for i := 0; i <= ellipsoid.NumParams; i++ {
		fmt.Fprintf(stdout, "%d  %s\n", i, host.ParamNames(fmt.Sprint(i)))
	}
	return nil
}

func cmdDefaults(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("defaults", stderr)
	write := fs.String("write", "", "Write a complete default config file to this path")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *write != "" {
		e, err := setup(cf)
		if err != nil {
			return err
		}
		defer e.log.Sync()
		if err := e.cfg.SaveTo(*write); err != nil {
			return err
		}
		e.log.Info("wrote config", zap.String("path", *write))
		return nil
	}

	resp, err := host.New(nil).Handle(host.DefaultsRequest{})
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(resp.(host.DefaultsResponse).Params)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

func cmdScript(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("script", stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Usage: ellipsoid script <scene.lisp>")
		return errUsage
	}
	e, err := setup(cf)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	scene, evalErrs, err := engine.NewEngine().Evaluate(string(src))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, ee := range evalErrs {
			fmt.Fprintf(stderr, "%s: %s\n", fs.Arg(0), ee)
		}
		return fmt.Errorf("%s: %d script error(s)", fs.Arg(0), len(evalErrs))
	}
	e.log.Debug("evaluated scene",
		zap.Int("objects", scene.ObjectCount()),
		zap.Int("probes", len(scene.Probes)))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(scene.Report(e.provider()))
}

func cmdServe(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("serve", stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	e, err := setup(cf)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(host.New(e.log), server.Options{
		Defaults:     e.cfg.Object,
		ReadLimit:    e.cfg.Server.ReadLimit,
		WriteTimeout: e.cfg.Server.WriteTimeout,
		MaxTriangles: e.cfg.Limits.MaxTriangles,
		Log:          e.log,
	})
	return srv.ListenAndServe(ctx, e.cfg.Server.Addr)
}
