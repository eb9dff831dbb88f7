package host

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/facet"
	"github.com/chazu/ellipsoid/pkg/intercept"
	"github.com/chazu/ellipsoid/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestHandleCount(t *testing.T) {
	p := New(nil)
	params := ellipsoid.Parameters{A: 1, B: 2, C: 3, NTheta: 6, NPhi: 7, Volume: true}

	resp, err := p.Handle(CountRequest{Params: params})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	c, ok := resp.(CountResponse)
	if !ok {
		t.Fatalf("expected CountResponse, got %T", resp)
	}
	if c.Triangles != 70 || !c.Solid || c.DiffractiveCSG != 0 {
		t.Errorf("CountResponse = %+v", c)
	}

	mesh, err := p.Handle(MeshRequest{Params: params})
	if err != nil {
		t.Fatalf("Handle(mesh) failed: %v", err)
	}
	if n := mesh.(MeshResponse).Mesh.TriangleCount(); n != c.Triangles {
		t.Errorf("mesh has %d triangles, count reported %d", n, c.Triangles)
	}
}

func TestHandleShell(t *testing.T) {
	c, err := New(nil).Count(ellipsoid.Parameters{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if c.Solid {
		t.Error("zero-value parameters should describe a shell")
	}
	if c.Triangles != 180 {
		t.Errorf("Triangles = %d, want 180", c.Triangles)
	}
}

func TestHandleIntercept(t *testing.T) {
	p := New(nil)
	resp, err := p.Handle(InterceptRequest{
		Params: ellipsoid.Defaults(),
		Ray:    intercept.Ray{Origin: r3.Vec{X: 1}, Dir: r3.Vec{X: 1}, ExactGroup: facet.ExactEllipsoid},
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	r := resp.(InterceptResponse)
	if r.Distance != 0 || r.Normal != (r3.Vec{X: 1}) {
		t.Errorf("InterceptResponse = %+v", r)
	}

	_, err = p.Handle(InterceptRequest{
		Params: ellipsoid.Defaults(),
		Ray:    intercept.Ray{Origin: r3.Vec{Z: 2}, Dir: r3.Vec{X: 1}, ExactGroup: facet.ExactEllipsoid},
	})
	if !errors.Is(err, intercept.ErrMiss) {
		t.Errorf("tangent ray error = %v, want ErrMiss", err)
	}
}

func TestHandleUnsupported(t *testing.T) {
	_, err := New(nil).Handle(CoatingRequest{})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("coating error = %v, want ErrUnsupported", err)
	}
}

func TestHandleDefaults(t *testing.T) {
	resp, err := New(nil).Handle(DefaultsRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if got := resp.(DefaultsResponse).Params; got != ellipsoid.Defaults() {
		t.Errorf("Params = %+v", got)
	}
}

func TestOperationNames(t *testing.T) {
	for op := OpFacetCount; op <= OpDefaults; op++ {
		got, err := ParseOperation(op.String())
		if err != nil || got != op {
			t.Errorf("ParseOperation(%q) = %v, %v", op.String(), got, err)
		}
	}
	if s := Operation(9).String(); s != "Operation(9)" {
		t.Errorf("String() = %q", s)
	}
	if _, err := ParseOperation("trace"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ParseOperation(trace) error = %v", err)
	}
}

// --- legacy slot adapter ---

func TestDefinitionCount(t *testing.T) {
	data := NewData(OpFacetCount, ellipsoid.Parameters{A: 2, B: 2, C: 2, NTheta: 4, NPhi: 3})
	if st := New(nil).Definition(data, nil); st != StatusOK {
		t.Fatalf("Definition = %d", st)
	}
	if data[SlotTriangles] != 18 || data[SlotSolid] != 0 || data[SlotDiffractive] != 0 {
		t.Errorf("outputs = %v %v %v", data[SlotTriangles], data[SlotSolid], data[SlotDiffractive])
	}
}

func TestDefinitionMesh(t *testing.T) {
	params := ellipsoid.Parameters{A: 1, B: 2, C: 3, NTheta: 5, NPhi: 4, Reflective: true}
	data := NewData(OpMesh, params)
	tri := make([]float64, MeshBufferLen(data))

	if st := New(nil).Definition(data, tri); st != StatusOK {
		t.Fatalf("Definition = %d", st)
	}
	n := int(data[SlotTriangles])
	if n != params.TriangleCount() {
		t.Fatalf("wrote %d triangles, want %d", n, params.TriangleCount())
	}
	tris, err := kernel.Unflatten(tri, n)
	if err != nil {
		t.Fatalf("Unflatten: %v", err)
	}
	for i, tr := range tris {
		if !tr.Attr.Reflective() || tr.Attr.ExactGroup() != facet.ExactEllipsoid {
			t.Fatalf("triangle %d attribute %s", i, tr.Attr)
		}
		for _, v := range tr.V {
			if f := params.Eval(v); math.Abs(f) > 1e-9 {
				t.Fatalf("triangle %d vertex off surface: F = %g", i, f)
			}
		}
	}

	short := make([]float64, len(tri)-1)
	data = NewData(OpMesh, params)
	if st := New(nil).Definition(data, short); st != StatusFail {
		t.Errorf("short buffer status = %d, want StatusFail", st)
	}
	if data[SlotTriangles] != 0 {
		t.Errorf("short buffer wrote count %v", data[SlotTriangles])
	}
}

func TestDefinitionDegenerateParams(t *testing.T) {
	data := make([]float64, DataLen)
	data[SlotCode] = float64(OpFacetCount)
	data[SlotParamCount] = ellipsoid.NumParams
	if st := New(nil).Definition(data, nil); st != StatusOK {
		t.Fatalf("Definition = %d", st)
	}
	if data[SlotTriangles] != 180 {
		t.Errorf("triangles = %v, want 180", data[SlotTriangles])
	}
}

func TestDefinitionIntercept(t *testing.T) {
	data := NewData(OpIntercept, ellipsoid.Parameters{A: 2, B: 2, C: 2, NTheta: 10, NPhi: 10})
	data[SlotX], data[SlotY], data[SlotZ] = 0, 1.9, 0
	data[SlotL], data[SlotM], data[SlotN] = 0, 1, 0
	data[SlotExact] = 1

	if st := New(nil).Definition(data, nil); st != StatusOK {
		t.Fatalf("Definition = %d", st)
	}
	if math.Abs(data[SlotDistance]-0.1) > 1e-12 {
		t.Errorf("distance = %v, want 0.1", data[SlotDistance])
	}
	if math.Abs(data[SlotNormalY]-1) > 1e-12 || data[SlotNormalX] != 0 || data[SlotNormalZ] != 0 {
		t.Errorf("normal = (%v, %v, %v)", data[SlotNormalX], data[SlotNormalY], data[SlotNormalZ])
	}
}

func TestDefinitionInterceptMissWritesNothing(t *testing.T) {
	data := NewData(OpIntercept, ellipsoid.Defaults())
	data[SlotZ], data[SlotL], data[SlotExact] = 2, 1, 1
	data[SlotDistance] = -42

	if st := New(nil).Definition(data, nil); st != StatusFail {
		t.Fatalf("Definition = %d, want StatusFail", st)
	}
	if data[SlotDistance] != -42 || data[SlotNormalX] != 0 {
		t.Errorf("outputs written on failure: %v %v", data[SlotDistance], data[SlotNormalX])
	}
}

func TestDefinitionRefusedCodes(t *testing.T) {
	for _, code := range []float64{3, 5, -1, 1.5, math.NaN()} {
		data := NewData(OpFacetCount, ellipsoid.Defaults())
		data[SlotCode] = code
		if st := New(nil).Definition(data, nil); st != StatusFail {
			t.Errorf("code %v: status = %d, want StatusFail", code, st)
		}
		if data[SlotTriangles] != 0 {
			t.Errorf("code %v: output written", code)
		}
	}
	if st := New(nil).Definition(make([]float64, 50), nil); st != StatusFail {
		t.Errorf("short data: status = %d, want StatusFail", st)
	}
}

func TestDefinitionDefaults(t *testing.T) {
	data := make([]float64, DataLen)
	data[SlotCode] = float64(OpDefaults)
	if st := New(nil).Definition(data, nil); st != StatusOK {
		t.Fatalf("Definition = %d", st)
	}
	want := []float64{1, 1, 1, 10, 10, 1, 0}
	for i, w := range want {
		if data[SlotParams+i] != w {
			t.Errorf("param %d = %v, want %v", i+1, data[SlotParams+i], w)
		}
	}
	if data[SlotParamCount] != ellipsoid.NumParams {
		t.Errorf("param count = %v", data[SlotParamCount])
	}
}

func TestParamNames(t *testing.T) {
	tests := map[string]string{
		"0":    "Ellipsoid Face",
		"1":    "a",
		" 4 ":  "# theta",
		"7":    "Is reflective?",
		"8":    "",
		"-2":   "",
		"junk": "",
	}
	for in, want := range tests {
		if got := ParamNames(in); got != want {
			t.Errorf("ParamNames(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefinitionConcurrent(t *testing.T) {
	p := New(nil)
	params := ellipsoid.Parameters{A: 1, B: 2, C: 3, NTheta: 12, NPhi: 9}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data := NewData(OpMesh, params)
			tri := make([]float64, MeshBufferLen(data))
			if st := p.Definition(data, tri); st != StatusOK {
				errs <- "mesh failed"
				return
			}
			if int(data[SlotTriangles]) != params.TriangleCount() {
				errs <- "wrong triangle count"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestTriangleLimit(t *testing.T) {
	huge := ellipsoid.Parameters{A: 1, B: 1, C: 1, NTheta: 1 << 40, NPhi: 1 << 40}
	limited := New(nil).WithMaxTriangles(100)
	small := ellipsoid.Parameters{A: 1, B: 1, C: 1, NTheta: 10, NPhi: 10}

	tests := []struct {
		name string
		p    *Provider
		req  Request
	}{
		{"count overflow", New(nil), CountRequest{Params: huge}},
		{"mesh overflow", New(nil), MeshRequest{Params: huge}},
		{"count over limit", limited, CountRequest{Params: small}},
		{"mesh over limit", limited, MeshRequest{Params: small}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.p.Handle(tt.req)
			if !errors.Is(err, ellipsoid.ErrTooManyTriangles) {
				t.Fatalf("Handle error = %v, want ErrTooManyTriangles", err)
			}
			if resp != nil {
				t.Errorf("Handle returned %+v on failure", resp)
			}
		})
	}

	if got := New(nil).MaxTriangles(); got != DefaultMaxTriangles {
		t.Errorf("MaxTriangles() = %d, want %d", got, DefaultMaxTriangles)
	}
	if got := limited.WithMaxTriangles(0).MaxTriangles(); got != 100 {
		t.Errorf("WithMaxTriangles(0) changed the limit to %d", got)
	}
}

func TestDefinitionTriangleLimit(t *testing.T) {
	for _, op := range []Operation{OpFacetCount, OpMesh} {
		t.Run(op.String(), func(t *testing.T) {
			data := NewData(op, ellipsoid.Parameters{A: 1, B: 1, C: 1, NTheta: 1e6, NPhi: 1e6})
			if n := MeshBufferLen(data); n != 0 {
				t.Errorf("MeshBufferLen = %d, want 0", n)
			}
			if st := New(nil).Definition(data, make([]float64, 10)); st != StatusFail {
				t.Fatalf("Definition = %d, want StatusFail", st)
			}
			if data[SlotTriangles] != 0 || data[SlotSolid] != 0 {
				t.Errorf("refused call wrote outputs: %v", data[SlotTriangles:SlotDiffractive+1])
			}
		})
	}
}

func TestDefinitionFiveParameters(t *testing.T) {
	data := NewData(OpFacetCount, ellipsoid.Parameters{A: 2, B: 1, C: 1, NTheta: 6, NPhi: 8})
	data[SlotParamCount] = 5
	if st := New(nil).Definition(data, nil); st != StatusOK {
		t.Fatalf("Definition = %d", st)
	}
	if data[SlotTriangles] != 80 {
		t.Errorf("triangles = %v, want 80", data[SlotTriangles])
	}
	if data[SlotSolid] != 1 {
		t.Errorf("solid = %v, want 1 when the volume slot is not passed", data[SlotSolid])
	}
}
