// Package tessellate builds the latitude/longitude facet mesh of an
// ellipsoid. Every vertex is evaluated directly from the parametric surface,
// so all of them lie on the ellipsoid up to floating-point rounding.
//
// Rings are numbered from the north pole: ring j sits at polar angle
// j*π/n_theta. The northern half is generated ring by ring and each facet is
// mirrored through z=0 with its winding reversed, so both halves face
// outward.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/facet"
	"github.com/chazu/ellipsoid/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Invisible-edge patterns for the two halves of a ring quad. Each half is
// ordered so the shared diagonal is the hidden edge.
const (
	quadLower = facet.EdgeAB
	quadUpper = facet.EdgeBC
)

// Tessellate validates p and returns its full triangle mesh. It fails with
// ellipsoid.ErrTooManyTriangles when the facet count does not fit in an int;
// callers that need a tighter bound check CheckTriangles first.
func Tessellate(p ellipsoid.Parameters) (*kernel.Mesh, error) {
	p = p.Validate()
	n, err := p.CheckTriangles(0)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	b := newBuilder(p, n)
	b.build()
	return &kernel.Mesh{
		Triangles: b.tris,
		Solid:     p.Volume,
		Name:      ellipsoid.ObjectName,
	}, nil
}

// Into writes the mesh of p into the caller-owned buffer dst, ten values per
// triangle, and returns the number of triangles written.
func Into(p ellipsoid.Parameters, dst []float64) (int, error) {
	m, err := Tessellate(p)
	if err != nil {
		return 0, err
	}
	n, err := m.Flatten(dst)
	if err != nil {
		return 0, fmt.Errorf("tessellate: %w", err)
	}
	return n, nil
}

// builder accumulates triangles for one call.
type builder struct {
	p      ellipsoid.Parameters
	north  facet.Attribute
	dPhi   float64
	dTheta float64
	tris   []kernel.Triangle
}

func newBuilder(p ellipsoid.Parameters, n int) *builder {
	return &builder{
		p: p,
		north: facet.Attribute{
			ExactGroup: facet.ExactEllipsoid,
			Reflective: p.Reflective,
		},
		dPhi:   2 * math.Pi / float64(p.NPhi),
		dTheta: math.Pi / float64(p.NTheta),
		tris:   make([]kernel.Triangle, 0, n),
	}
}

// ring returns the vertex of ring j at longitude sector boundary i.
func (b *builder) ring(j, i int) r3.Vec {
	return b.p.Point(float64(j)*b.dTheta, float64(i%b.p.NPhi)*b.dPhi)
}

func (b *builder) build() {
	last := b.p.NTheta / 2
	pole := r3.Vec{Z: b.p.C}

	for i := 0; i < b.p.NPhi; i++ {
		b.cap(pole, b.ring(1, i), b.ring(1, i+1))
	}
	for j := 2; j <= last; j++ {
		for i := 0; i < b.p.NPhi; i++ {
			b.quad(b.ring(j-1, i), b.ring(j-1, i+1), b.ring(j, i), b.ring(j, i+1))
		}
	}
	if b.p.NTheta%2 == 1 {
		b.equator(last)
	}
}

// cap emits the pole fan triangle and its southern mirror.
func (b *builder) cap(pole, r0, r1 r3.Vec) {
	attr := b.attr(facet.NoEdges)
	b.emit(attr, pole, r0, r1)
	b.emit(attr, mirror(pole), mirror(r1), mirror(r0))
}

// quad splits the cell between upper ring vertices u0,u1 (nearer the pole)
// and lower ring vertices l0,l1 into two triangles along u0-l1, then emits
// the mirrored pair.
func (b *builder) quad(u0, u1, l0, l1 r3.Vec) {
	lower := b.attr(quadLower)
	upper := b.attr(quadUpper)

	b.emit(lower, l1, u0, l0)
	b.emit(upper, u1, u0, l1)

	b.emit(lower, mirror(u0), mirror(l1), mirror(l0))
	b.emit(upper, mirror(u1), mirror(l1), mirror(u0))
}

// equator closes the band left between the last northern ring and its
// mirror when n_theta is odd.
func (b *builder) equator(j int) {
	lower := b.attr(quadLower)
	upper := b.attr(quadUpper)
	for i := 0; i < b.p.NPhi; i++ {
		u0, u1 := b.ring(j, i), b.ring(j, i+1)
		l0, l1 := mirror(u0), mirror(u1)
		b.emit(lower, l1, u0, l0)
		b.emit(upper, u1, u0, l1)
	}
}

func (b *builder) attr(hidden facet.Edges) facet.Word {
	a := b.north
	a.Invisible = hidden
	return a.Encode()
}

func (b *builder) emit(attr facet.Word, v0, v1, v2 r3.Vec) {
	b.tris = append(b.tris, kernel.Triangle{V: r3.Triangle{v0, v1, v2}, Attr: attr})
}

func mirror(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: -v.Z}
}
