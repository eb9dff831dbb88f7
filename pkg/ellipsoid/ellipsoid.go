// Package ellipsoid defines the parameters of an axis-aligned ellipsoid
// centred on the origin and the implicit surface they describe.
//
// Parameters arrive from the host as loosely typed numbers. Validate never
// rejects them; anything outside the physical domain is replaced with a safe
// default so the host always receives a usable object.
package ellipsoid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Defaults applied by Validate.
const (
	DefaultAxis   = 1.0
	DefaultNTheta = 10
	DefaultNPhi   = 10

	MinNTheta = 4
	MinNPhi   = 3
)

// ErrTooManyTriangles is returned when a resolution asks for more facets
// than can be generated.
var ErrTooManyTriangles = errors.New("ellipsoid: too many triangles")

// Parameters describe one ellipsoid object.
type Parameters struct {
	// Semi-axes along x, y and z.
	A          float64 `yaml:"a" json:"a"`
	B          float64 `yaml:"b" json:"b"`
	C          float64 `yaml:"c" json:"c"`
	NTheta     int     `yaml:"n_theta" json:"nTheta"`
	NPhi       int     `yaml:"n_phi" json:"nPhi"`
	Volume     bool    `yaml:"volume" json:"volume"`
	Reflective bool    `yaml:"reflective" json:"reflective"`
}

// Defaults returns the safe parameter set handed to the host on first use.
func Defaults() Parameters {
	return Parameters{
		A:      DefaultAxis,
		B:      DefaultAxis,
		C:      DefaultAxis,
		NTheta: DefaultNTheta,
		NPhi:   DefaultNPhi,
		Volume: true,
	}
}

// Validate returns a copy of p with every field inside its valid domain.
// Non-positive (or NaN) semi-axes become 1, n_theta below 4 and n_phi
// below 3 become 10.
func (p Parameters) Validate() Parameters {
	p.A = clampAxis(p.A)
	p.B = clampAxis(p.B)
	p.C = clampAxis(p.C)
	if p.NTheta < MinNTheta {
		p.NTheta = DefaultNTheta
	}
	if p.NPhi < MinNPhi {
		p.NPhi = DefaultNPhi
	}
	return p
}

func clampAxis(v float64) float64 {
	if !(v > 0) || math.IsInf(v, 1) {
		return DefaultAxis
	}
	return v
}

// TriangleCount is the number of facets in the full two-pole tessellation.
// A count that does not fit in an int is reported as math.MaxInt.
func (p Parameters) TriangleCount() int {
	n, ok := p.triangles()
	if !ok {
		return math.MaxInt
	}
	return n
}

// CheckTriangles returns the facet count, or ErrTooManyTriangles if it
// overflows or exceeds limit. A non-positive limit only guards overflow.
func (p Parameters) CheckTriangles(limit int) (int, error) {
	n, ok := p.triangles()
	if !ok {
		return 0, fmt.Errorf("%w: n_theta %d by n_phi %d overflows", ErrTooManyTriangles, p.NTheta, p.NPhi)
	}
	if limit > 0 && n > limit {
		return 0, fmt.Errorf("%w: %d exceeds limit %d", ErrTooManyTriangles, n, limit)
	}
	return n, nil
}

func (p Parameters) triangles() (int, bool) {
	p = p.Validate()
	rings := p.NTheta - 1
	if rings > math.MaxInt/2/p.NPhi {
		return 0, false
	}
	return 2 * rings * p.NPhi, true
}

// FromValues builds validated parameters from host parameter slots in
// ordinal order (a, b, c, n_theta, n_phi, volume, reflective). Missing
// trailing values are treated as unset, except that a host passing only the
// five geometric slots still gets a closed volume. Resolutions are
// truncated toward zero and flags are true when strictly positive.
func FromValues(values []float64) Parameters {
	p := Defaults()
	at := func(i int) float64 {
		if i < len(values) {
			return values[i]
		}
		return 0
	}
	p.A = at(0)
	p.B = at(1)
	p.C = at(2)
	p.NTheta = toInt(at(3))
	p.NPhi = toInt(at(4))
	if len(values) > 5 {
		p.Volume = values[5] > 0
	}
	if len(values) > 6 {
		p.Reflective = values[6] > 0
	}
	return p.Validate()
}

func toInt(v float64) int {
	if math.IsNaN(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return 0
	}
	return int(v)
}

// Values is the inverse of FromValues.
func (p Parameters) Values() []float64 {
	return []float64{
		p.A, p.B, p.C,
		float64(p.NTheta), float64(p.NPhi),
		boolValue(p.Volume), boolValue(p.Reflective),
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Eval returns F(v) = x²/a² + y²/b² + z²/c² - 1, which is zero on the
// surface, negative inside and positive outside.
func (p Parameters) Eval(v r3.Vec) float64 {
	return v.X*v.X/(p.A*p.A) + v.Y*v.Y/(p.B*p.B) + v.Z*v.Z/(p.C*p.C) - 1
}

// Gradient returns ∇F(v), which points outward.
func (p Parameters) Gradient(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: 2 * v.X / (p.A * p.A),
		Y: 2 * v.Y / (p.B * p.B),
		Z: 2 * v.Z / (p.C * p.C),
	}
}

// BoundingBox returns the axis-aligned bounds of the surface.
func (p Parameters) BoundingBox() (min, max r3.Vec) {
	max = r3.Vec{X: p.A, Y: p.B, Z: p.C}
	return r3.Scale(-1, max), max
}

// Point returns the surface point at polar angle theta (from +z) and
// azimuth phi (from +x).
func (p Parameters) Point(theta, phi float64) r3.Vec {
	s := math.Sin(theta)
	return r3.Vec{
		X: p.A * s * math.Cos(phi),
		Y: p.B * s * math.Sin(phi),
		Z: p.C * math.Cos(theta),
	}
}
