// Package host implements the object-definition protocol a rendering host
// uses to query an ellipsoid: facet counts, the facet mesh, exact surface
// intercepts and default parameters. Requests and responses are typed per
// operation; legacy.go translates the host's fixed numeric slots.
//
// A Provider keeps no per-call state and may be shared by any number of
// goroutines.
package host

import (
	"errors"
	"fmt"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/intercept"
	"github.com/chazu/ellipsoid/pkg/kernel"
	"github.com/chazu/ellipsoid/pkg/tessellate"
	"go.uber.org/zap"
)

// ErrUnsupported is returned for operations the object does not implement.
var ErrUnsupported = errors.New("host: unsupported operation")

// Operation is the host's numeric request code.
type Operation int

const (
	OpFacetCount Operation = iota
	OpMesh
	OpIntercept
	OpCoating
	OpDefaults
)

var opNames = map[Operation]string{
	OpFacetCount: "facet-count",
	OpMesh:       "mesh",
	OpIntercept:  "intercept",
	OpCoating:    "coating",
	OpDefaults:   "defaults",
}

func (o Operation) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// ParseOperation maps a name produced by String back to its Operation.
func ParseOperation(s string) (Operation, error) {
	for op, name := range opNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// Request is one of the typed requests below.
type Request interface {
	Operation() Operation
	isRequest()
}

// CountRequest asks for the facet count and the solid/diffractive flags.
type CountRequest struct {
	Params ellipsoid.Parameters
}

// MeshRequest asks for the facet mesh.
type MeshRequest struct {
	Params ellipsoid.Parameters
}

// InterceptRequest asks to refine a facet hit onto the exact surface.
type InterceptRequest struct {
	Params ellipsoid.Parameters
	Ray    intercept.Ray
}

// CoatingRequest asks for coating data. It is always refused.
type CoatingRequest struct {
	Params ellipsoid.Parameters
}

// DefaultsRequest asks for safe parameter values.
type DefaultsRequest struct{}

func (CountRequest) Operation() Operation     { return OpFacetCount }
func (MeshRequest) Operation() Operation      { return OpMesh }
func (InterceptRequest) Operation() Operation { return OpIntercept }
func (CoatingRequest) Operation() Operation   { return OpCoating }
func (DefaultsRequest) Operation() Operation  { return OpDefaults }

func (CountRequest) isRequest()     {}
func (MeshRequest) isRequest()      {}
func (InterceptRequest) isRequest() {}
func (CoatingRequest) isRequest()   {}
func (DefaultsRequest) isRequest()  {}

// Response is one of the typed responses below.
type Response interface {
	isResponse()
}

// CountResponse reports the size and kind of the object.
type CountResponse struct {
	Triangles int  `json:"triangles"`
	Solid     bool `json:"solid"`
	// DiffractiveCSG is the coat/scatter group that diffracts, 0 for none.
	DiffractiveCSG int `json:"diffractiveCsg"`
}

// MeshResponse carries the facet mesh.
type MeshResponse struct {
	Mesh *kernel.Mesh `json:"mesh"`
}

// InterceptResponse carries the refined intercept.
type InterceptResponse struct {
	intercept.Result
}

// DefaultsResponse carries the safe parameter set.
type DefaultsResponse struct {
	Params ellipsoid.Parameters `json:"params"`
}

func (CountResponse) isResponse()     {}
func (MeshResponse) isResponse()      {}
func (InterceptResponse) isResponse() {}
func (DefaultsResponse) isResponse()  {}

// DefaultMaxTriangles bounds the facet count a Provider will generate.
const DefaultMaxTriangles = 1 << 21

// Provider answers host requests for the ellipsoid object.
type Provider struct {
	log          *zap.Logger
	maxTriangles int
}

// New returns a Provider limited to DefaultMaxTriangles. A nil logger
// discards output.
func New(log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{log: log, maxTriangles: DefaultMaxTriangles}
}

// WithMaxTriangles returns a copy of p that refuses objects with more than
// n facets. Non-positive n keeps the current limit.
func (p *Provider) WithMaxTriangles(n int) *Provider {
	c := *p
	if n > 0 {
		c.maxTriangles = n
	}
	return &c
}

// MaxTriangles returns the facet limit.
func (p *Provider) MaxTriangles() int {
	return p.maxTriangles
}

// Handle validates the request parameters and runs exactly one operation.
func (p *Provider) Handle(req Request) (Response, error) {
	switch r := req.(type) {
	case CountRequest:
		c, err := p.Count(r.Params)
		if err != nil {
			return nil, err
		}
		return c, nil
	case MeshRequest:
		m, err := p.Mesh(r.Params)
		if err != nil {
			return nil, err
		}
		return m, nil
	case InterceptRequest:
		res, err := p.Intercept(r.Params, r.Ray)
		if err != nil {
			return nil, err
		}
		return res, nil
	case DefaultsRequest:
		return DefaultsResponse{Params: ellipsoid.Defaults()}, nil
	case CoatingRequest:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, OpCoating)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, req)
	}
}

// Count reports the facet count and the solid flag. Resolutions above the
// Provider's limit fail with ellipsoid.ErrTooManyTriangles.
func (p *Provider) Count(params ellipsoid.Parameters) (CountResponse, error) {
	params = params.Validate()
	n, err := params.CheckTriangles(p.maxTriangles)
	if err != nil {
		p.log.Debug("facet count refused", zap.Error(err))
		return CountResponse{}, err
	}
	return CountResponse{
		Triangles: n,
		Solid:     params.Volume,
	}, nil
}

// Mesh generates the facet mesh, checking the facet limit first.
func (p *Provider) Mesh(params ellipsoid.Parameters) (MeshResponse, error) {
	params = params.Validate()
	if _, err := params.CheckTriangles(p.maxTriangles); err != nil {
		p.log.Debug("mesh refused", zap.Error(err))
		return MeshResponse{}, err
	}
	m, err := tessellate.Tessellate(params)
	if err != nil {
		return MeshResponse{}, err
	}
	p.log.Debug("generated mesh",
		zap.Int("triangles", m.TriangleCount()),
		zap.Int("n_theta", params.NTheta),
		zap.Int("n_phi", params.NPhi))
	return MeshResponse{Mesh: m}, nil
}

// Intercept refines ray onto the exact surface.
func (p *Provider) Intercept(params ellipsoid.Parameters, ray intercept.Ray) (InterceptResponse, error) {
	res, err := intercept.Solve(params, ray)
	if err != nil {
		p.log.Debug("intercept failed", zap.Error(err), zap.Int("exact_group", ray.ExactGroup))
		return InterceptResponse{}, err
	}
	return InterceptResponse{Result: res}, nil
}
