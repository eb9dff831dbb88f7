package host

import (
	"math"
	"strconv"
	"strings"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/intercept"
	"github.com/chazu/ellipsoid/pkg/kernel"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Slot layout of the host's data array.
const (
	SlotCode = 1

	SlotTriangles   = 10 // operation 0 output
	SlotSolid       = 11
	SlotDiffractive = 12

	SlotX     = 20 // operation 2 input
	SlotY     = 21
	SlotZ     = 22
	SlotL     = 23
	SlotM     = 24
	SlotN     = 25
	SlotExact = 26

	SlotDistance = 27 // operation 2 output
	SlotNormalX  = 28
	SlotNormalY  = 29
	SlotNormalZ  = 30

	SlotParamCount = 100
	SlotParams     = 101

	// DataLen is the minimum data array length the adapter needs.
	DataLen = SlotParams + ellipsoid.NumParams
)

// Status codes returned to the host.
const (
	StatusOK   = 0
	StatusFail = -1
)

// Definition handles one legacy object-definition call. data holds the
// request code, parameters and output slots; triList receives the mesh for
// operation 1. It returns StatusOK or StatusFail; on failure no output slot
// is written.
func (p *Provider) Definition(data, triList []float64) int {
	if len(data) < DataLen {
		p.log.Warn("data array too short", zap.Int("len", len(data)), zap.Int("need", DataLen))
		return StatusFail
	}

	req := p.decode(data)
	if req == nil {
		p.log.Debug("unrecognised request code", zap.Float64("code", data[SlotCode]))
		return StatusFail
	}

	resp, err := p.Handle(req)
	if err != nil {
		return StatusFail
	}

	switch r := resp.(type) {
	case CountResponse:
		data[SlotTriangles] = float64(r.Triangles)
		data[SlotSolid] = boolSlot(r.Solid)
		data[SlotDiffractive] = float64(r.DiffractiveCSG)
	case MeshResponse:
		n, err := r.Mesh.Flatten(triList)
		if err != nil {
			p.log.Warn("triangle buffer too small", zap.Error(err))
			return StatusFail
		}
		data[SlotTriangles] = float64(n)
	case InterceptResponse:
		data[SlotDistance] = r.Distance
		data[SlotNormalX] = r.Normal.X
		data[SlotNormalY] = r.Normal.Y
		data[SlotNormalZ] = r.Normal.Z
	case DefaultsResponse:
		copy(data[SlotParams:], r.Params.Values())
		data[SlotParamCount] = ellipsoid.NumParams
	}
	return StatusOK
}

// decode builds the typed request for the code in data, or nil for an
// unrecognised code.
func (p *Provider) decode(data []float64) Request {
	code := data[SlotCode]
	if code != math.Trunc(code) {
		return nil
	}
	params := ellipsoid.FromValues(paramSlots(data))

	switch Operation(code) {
	case OpFacetCount:
		return CountRequest{Params: params}
	case OpMesh:
		return MeshRequest{Params: params}
	case OpIntercept:
		return InterceptRequest{
			Params: params,
			Ray: intercept.Ray{
				Origin:     r3.Vec{X: data[SlotX], Y: data[SlotY], Z: data[SlotZ]},
				Dir:        r3.Vec{X: data[SlotL], Y: data[SlotM], Z: data[SlotN]},
				ExactGroup: int(data[SlotExact]),
			},
		}
	case OpCoating:
		return CoatingRequest{Params: params}
	case OpDefaults:
		return DefaultsRequest{}
	}
	return nil
}

// paramSlots returns the parameter values the host says it passed, capped
// at the parameters the object knows about.
func paramSlots(data []float64) []float64 {
	n := ellipsoid.NumParams
	if c := data[SlotParamCount]; c >= 0 && c < float64(n) {
		n = int(c)
	}
	return data[SlotParams : SlotParams+n]
}

func boolSlot(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// MeshBufferLen returns the triList length needed for a mesh request with
// the parameters in data, or 0 when the data is short or the mesh would
// exceed DefaultMaxTriangles.
func MeshBufferLen(data []float64) int {
	if len(data) < DataLen {
		return 0
	}
	n, err := ellipsoid.FromValues(paramSlots(data)).CheckTriangles(DefaultMaxTriangles)
	if err != nil {
		return 0
	}
	return n * kernel.TriangleStride
}

// ParamNames answers the legacy name call, where the ordinal arrives as an
// ASCII integer. Anything unparsable yields "".
func ParamNames(ordinal string) string {
	i, err := strconv.Atoi(strings.TrimSpace(ordinal))
	if err != nil {
		return ""
	}
	return ellipsoid.ParamName(i)
}

// NewData returns a data array sized for the adapter with the request code
// and parameters filled in.
func NewData(op Operation, params ellipsoid.Parameters) []float64 {
	data := make([]float64, DataLen)
	data[SlotCode] = float64(op)
	data[SlotParamCount] = ellipsoid.NumParams
	copy(data[SlotParams:], params.Values())
	return data
}
