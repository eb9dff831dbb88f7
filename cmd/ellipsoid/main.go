// ellipsoid is a command line front end for the ellipsoid surface object:
// facet counts, meshes, exact intercepts, scene scripts and a websocket
// service.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "count":
		return cmdCount(rest, stdout, stderr)
	case "mesh":
		return cmdMesh(rest, stdout, stderr)
	case "intercept":
		return cmdIntercept(rest, stdout, stderr)
	case "names":
		return cmdNames(rest, stdout, stderr)
	case "defaults":
		return cmdDefaults(rest, stdout, stderr)
	case "script":
		return cmdScript(rest, stdout, stderr)
	case "serve":
		return cmdServe(rest, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `ellipsoid - analytic ellipsoid surface object

Usage:
  ellipsoid <command> [options]

Commands:
  count                        Facet count and solid flag
  mesh [-o file.stl]           Facet mesh, printed or written as STL
  intercept -from x,y,z -dir l,m,n
                               Refine a ray onto the exact surface
  names                        Parameter names by ordinal
  defaults [-write path]       Default parameters, or write a full config
  script <scene.lisp>          Evaluate a scene script and fire its probes
  serve [-addr host:port]      Serve the protocol over a websocket

Object options (count, mesh, intercept):
  -a -b -c -n-theta -n-phi -volume -reflective

Common options:
  -config -debug -log-level -log-file -quiet -max-triangles

Examples:
  ellipsoid count -a 2 -b 1 -c 1 -n-theta 12
  ellipsoid mesh -n-theta 16 -n-phi 24 -o lens.stl
  ellipsoid intercept -from 0,0,0.5 -dir 0,0,1
  ellipsoid script examples/lens.lisp`)
}
