// Package sdfx provides a reference kernel built on the
// github.com/deadsy/sdfx SDF library. It presents any kernel.Surface as an
// sdf.SDF3, meshes it with marching cubes for cross-checking the analytic
// tessellation, and writes meshes out as STL.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/ellipsoid/pkg/facet"
	"github.com/chazu/ellipsoid/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ sdf.SDF3 = (*surfaceSDF)(nil)

// DefaultMeshCells controls marching cubes resolution along the longest axis.
const DefaultMeshCells = 64

// boundsPad enlarges the bounding box so marching cubes sees the surface
// close on every side.
const boundsPad = 0.05

// surfaceSDF adapts a kernel.Surface to sdf.SDF3. The implicit function is
// divided by its gradient norm, which is a first-order distance estimate.
type surfaceSDF struct {
	s  kernel.Surface
	bb sdf.Box3
}

// SDF returns s as an sdfx solid.
func SDF(s kernel.Surface) sdf.SDF3 {
	min, max := s.BoundingBox()
	pad := r3.Scale(boundsPad, r3.Sub(max, min))
	return &surfaceSDF{
		s: s,
		bb: sdf.Box3{
			Min: toV3(r3.Sub(min, pad)),
			Max: toV3(r3.Add(max, pad)),
		},
	}
}

// Evaluate returns the approximate signed distance at p.
func (d *surfaceSDF) Evaluate(p v3.Vec) float64 {
	q := fromV3(p)
	f := d.s.Eval(q)
	g := r3.Norm(d.s.Gradient(q))
	if g == 0 || math.IsNaN(g) {
		return f
	}
	return f / g
}

// BoundingBox returns the padded bounds of the surface.
func (d *surfaceSDF) BoundingBox() sdf.Box3 {
	return d.bb
}

// Kernel meshes surfaces with marching cubes.
type Kernel struct {
	cells int
}

// New returns a Kernel using the given marching cubes resolution.
// Non-positive values select DefaultMeshCells.
func New(cells int) *Kernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &Kernel{cells: cells}
}

// ToMesh converts a surface to a triangle mesh using marching cubes. Every
// facet carries the flat exact group since it is not tied to a formula.
func (k *Kernel) ToMesh(s kernel.Surface) (*kernel.Mesh, error) {
	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(SDF(s), renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: marching cubes produced no triangles at %d cells", k.cells)
	}

	attr := facet.Attribute{ExactGroup: facet.ExactFlat}.Encode()
	mesh := &kernel.Mesh{
		Triangles: make([]kernel.Triangle, 0, len(triangles)),
		Solid:     true,
	}
	for _, tri := range triangles {
		var t kernel.Triangle
		for j := 0; j < 3; j++ {
			t.V[j] = fromV3(tri[j])
		}
		t.Attr = attr
		mesh.Triangles = append(mesh.Triangles, t)
	}
	return mesh, nil
}

// SaveSTL writes m to path as binary STL.
func SaveSTL(path string, m *kernel.Mesh) error {
	if m.IsEmpty() {
		return fmt.Errorf("sdfx: refusing to write empty mesh to %s", path)
	}
	tris := make([]*sdf.Triangle3, len(m.Triangles))
	for i, t := range m.Triangles {
		tris[i] = &sdf.Triangle3{toV3(t.V[0]), toV3(t.V[1]), toV3(t.V[2])}
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("sdfx: save %s: %w", path, err)
	}
	return nil
}

func toV3(v r3.Vec) v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromV3(v v3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}
