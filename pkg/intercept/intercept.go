// Package intercept refines a ray's hit on a flat facet onto the exact
// implicit surface the facet approximates, and reports the outward unit
// normal there.
package intercept

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/facet"
	"github.com/chazu/ellipsoid/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Convergence limits for Newton iteration.
const (
	// Tolerance ends iteration once a step is this small.
	Tolerance = 1e-10
	// MissTolerance is the largest final step accepted when the iteration
	// budget runs out.
	MissTolerance = 1e-8
	// MaxIterations bounds the work done for one ray.
	MaxIterations = 200
)

var (
	// ErrMiss means the ray does not reach the exact surface.
	ErrMiss = errors.New("intercept: ray misses surface")
	// ErrNotExact means the exact group has no refinement formula.
	ErrNotExact = errors.New("intercept: no exact surface for group")
)

// Ray is the state handed over by the host: a point near the surface,
// the unit direction cosines (l, m, n) and the exact group of the facet
// that was hit.
type Ray struct {
	Origin     r3.Vec `json:"origin"`
	Dir        r3.Vec `json:"dir"`
	ExactGroup int    `json:"exactGroup"`
}

// Result is the refined intercept.
type Result struct {
	// Distance is the signed propagation from Ray.Origin along Ray.Dir.
	Distance   float64 `json:"distance"`
	Point      r3.Vec  `json:"point"`
	Normal     r3.Vec  `json:"normal"`
	Iterations int     `json:"iterations"`
}

// Solve dispatches on the ray's exact group. Only the ellipsoid group
// iterates; the flat group and unknown groups return ErrNotExact.
func Solve(p ellipsoid.Parameters, ray Ray) (Result, error) {
	switch ray.ExactGroup {
	case facet.ExactEllipsoid:
		return Newton(p.Validate(), ray)
	default:
		return Result{}, fmt.Errorf("%w %d", ErrNotExact, ray.ExactGroup)
	}
}

// Newton walks ray onto the zero set of s. Each step moves by
// -F/(∇F·d) along the ray. Iteration stops once a step is within Tolerance
// or after MaxIterations; in the latter case a final step above
// MissTolerance is a miss.
func Newton(s kernel.Surface, ray Ray) (Result, error) {
	pos := ray.Origin
	var t, delt float64
	iter := 0

	for {
		f := s.Eval(pos)
		fp := r3.Dot(s.Gradient(pos), ray.Dir)
		delt = 0
		if f != 0 {
			delt = -f / fp
		}
		iter++
		if math.IsNaN(delt) || math.IsInf(delt, 0) {
			return Result{}, fmt.Errorf("%w: directional derivative %g at step %d", ErrMiss, fp, iter)
		}
		t += delt
		pos = r3.Add(pos, r3.Scale(delt, ray.Dir))

		if math.Abs(delt) <= Tolerance || iter >= MaxIterations {
			break
		}
	}

	if iter >= MaxIterations && math.Abs(delt) > MissTolerance {
		return Result{}, fmt.Errorf("%w: last step %g after %d iterations", ErrMiss, delt, iter)
	}

	g := s.Gradient(pos)
	norm := r3.Norm(g)
	if norm == 0 {
		norm = 1
	}
	return Result{
		Distance:   t,
		Point:      pos,
		Normal:     r3.Scale(1/norm, g),
		Iterations: iter,
	}, nil
}
