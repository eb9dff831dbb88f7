package kernel

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/ellipsoid/pkg/facet"
	"gonum.org/v1/gonum/spatial/r3"
)

// TriangleStride is the number of values one triangle occupies in the host
// buffer: nine coordinates followed by the attribute word.
const TriangleStride = 10

// ErrShortBuffer is returned when a caller-owned buffer cannot hold a mesh.
var ErrShortBuffer = errors.New("kernel: buffer too small for mesh")

// Triangle is one facet. The vertex order defines the outward side.
type Triangle struct {
	V    r3.Triangle `json:"v"`
	Attr facet.Word  `json:"attr"`
}

// Normal returns the unit normal implied by the winding, or the zero vector
// for a degenerate triangle.
func (t Triangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t.V[1], t.V[0]), r3.Sub(t.V[2], t.V[0]))
	l := r3.Norm(n)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

// Centroid returns the mean of the three vertices.
func (t Triangle) Centroid() r3.Vec {
	return r3.Scale(1.0/3, r3.Add(r3.Add(t.V[0], t.V[1]), t.V[2]))
}

// Mesh is a flat triangle list.
type Mesh struct {
	Triangles []Triangle `json:"triangles"`
	Solid     bool       `json:"solid"` // closed volume rather than a shell
	Name      string     `json:"name"`
}

// VertexCount returns the number of (unshared) vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Triangles) * 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// Bounds returns the axis-aligned bounds of all vertices. The zero vectors
// are returned for an empty mesh.
func (m *Mesh) Bounds() (min, max r3.Vec) {
	if m.IsEmpty() {
		return min, max
	}
	min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, t := range m.Triangles {
		for _, v := range t.V {
			min.X, max.X = math.Min(min.X, v.X), math.Max(max.X, v.X)
			min.Y, max.Y = math.Min(min.Y, v.Y), math.Max(max.Y, v.Y)
			min.Z, max.Z = math.Min(min.Z, v.Z), math.Max(max.Z, v.Z)
		}
	}
	return min, max
}

// Flatten writes the mesh into dst using the host layout
// (x1 y1 z1 x2 y2 z2 x3 y3 z3 attr per triangle) and returns the number of
// triangles written. Nothing is written if dst is too small.
func (m *Mesh) Flatten(dst []float64) (int, error) {
	need := len(m.Triangles) * TriangleStride
	if len(dst) < need {
		return 0, fmt.Errorf("%w: need %d values, have %d", ErrShortBuffer, need, len(dst))
	}
	for i, t := range m.Triangles {
		out := dst[i*TriangleStride : (i+1)*TriangleStride]
		for j, v := range t.V {
			out[j*3+0] = v.X
			out[j*3+1] = v.Y
			out[j*3+2] = v.Z
		}
		out[9] = t.Attr.Float()
	}
	return len(m.Triangles), nil
}

// Unflatten parses n triangles from a host buffer.
func Unflatten(src []float64, n int) ([]Triangle, error) {
	if n < 0 || len(src) < n*TriangleStride {
		return nil, fmt.Errorf("%w: %d triangles need %d values, have %d",
			ErrShortBuffer, n, n*TriangleStride, len(src))
	}
	tris := make([]Triangle, n)
	for i := range tris {
		in := src[i*TriangleStride : (i+1)*TriangleStride]
		for j := 0; j < 3; j++ {
			tris[i].V[j] = r3.Vec{X: in[j*3], Y: in[j*3+1], Z: in[j*3+2]}
		}
		w, err := facet.FromFloat(in[9])
		if err != nil {
			return nil, fmt.Errorf("kernel: triangle %d: %w", i, err)
		}
		tris[i].Attr = w
	}
	return tris, nil
}
