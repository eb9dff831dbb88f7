// Package kernel defines the geometry shared by the mesh generator, the
// intercept solver and the reference kernels. A Surface is an implicit
// function that is zero on the true surface; a Mesh is the flat-faceted
// approximation handed to the host.
package kernel

import "gonum.org/v1/gonum/spatial/r3"

// Surface is an implicit surface F(p) = 0 with an analytic gradient.
// Implementations must be pure so that concurrent callers can share them.
type Surface interface {
	// Eval returns F at p: negative inside, positive outside.
	Eval(p r3.Vec) float64
	// Gradient returns ∇F at p, pointing outward.
	Gradient(p r3.Vec) r3.Vec
	// BoundingBox returns the axis-aligned bounds of the zero set.
	BoundingBox() (min, max r3.Vec)
}
