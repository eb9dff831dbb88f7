package sdfx

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestSDFSign(t *testing.T) {
	p := ellipsoid.Parameters{A: 2, B: 1, C: 1, NTheta: 10, NPhi: 10}
	s := SDF(p)

	if d := s.Evaluate(v3.Vec{}); d >= 0 {
		t.Errorf("Evaluate(origin) = %f, want negative", d)
	}
	if d := s.Evaluate(v3.Vec{X: 3}); d <= 0 {
		t.Errorf("Evaluate(3,0,0) = %f, want positive", d)
	}
	if d := s.Evaluate(v3.Vec{X: 2}); math.Abs(d) > 1e-12 {
		t.Errorf("Evaluate(2,0,0) = %f, want 0", d)
	}
	// Near the surface the estimate approaches the true distance.
	if d := s.Evaluate(v3.Vec{Z: 1.01}); math.Abs(d-0.01) > 1e-3 {
		t.Errorf("Evaluate(0,0,1.01) = %f, want ~0.01", d)
	}
}

func TestBoundingBox(t *testing.T) {
	p := ellipsoid.Parameters{A: 100, B: 50, C: 25, NTheta: 10, NPhi: 10}
	bb := SDF(p).BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{-110, -55, -27.5}
	expectMax := [3]float64{110, 55, 27.5}
	gotMin := [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	gotMax := [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}

	for i := 0; i < 3; i++ {
		if math.Abs(gotMin[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, gotMin[i], expectMin[i])
		}
		if math.Abs(gotMax[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, gotMax[i], expectMax[i])
		}
	}
}

func TestMarchingCubesMatchesAnalyticMesh(t *testing.T) {
	p := ellipsoid.Parameters{A: 3, B: 2, C: 1, NTheta: 16, NPhi: 24, Volume: true}
	k := New(48)

	ref, err := k.ToMesh(p)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if ref.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	t.Logf("marching cubes triangle count: %d", ref.TriangleCount())

	// Vertices lie within about one cell of the surface.
	cell := 2 * 3 * (1 + 2*boundsPad) / 48
	for i, tri := range ref.Triangles {
		for _, v := range tri.V {
			if d := SDF(p).Evaluate(toV3(v)); math.Abs(d) > cell {
				t.Fatalf("triangle %d vertex %v is %f from surface (cell %f)", i, v, d, cell)
			}
		}
		if tri.Attr != 0 {
			t.Fatalf("triangle %d attribute = %s, want flat", i, tri.Attr)
		}
	}

	refMin, refMax := ref.Bounds()
	exact, err := tessellate.Tessellate(p)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	exMin, exMax := exact.Bounds()
	const tol = 0.15
	for _, pair := range [][2]float64{
		{refMin.X, exMin.X}, {refMin.Y, exMin.Y}, {refMin.Z, exMin.Z},
		{refMax.X, exMax.X}, {refMax.Y, exMax.Y}, {refMax.Z, exMax.Z},
	} {
		if math.Abs(pair[0]-pair[1]) > tol {
			t.Errorf("bounds differ: marching cubes %f, analytic %f", pair[0], pair[1])
		}
	}
}

func TestNewDefaultsCells(t *testing.T) {
	if k := New(0); k.cells != DefaultMeshCells {
		t.Errorf("New(0).cells = %d, want %d", k.cells, DefaultMeshCells)
	}
}

func TestSaveSTL(t *testing.T) {
	p := ellipsoid.Parameters{A: 1, B: 1, C: 1, NTheta: 6, NPhi: 8}
	m, err := tessellate.Tessellate(p)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "ellipsoid.stl")

	if err := SaveSTL(path, m); err != nil {
		t.Fatalf("SaveSTL failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read STL: %v", err)
	}
	// Binary STL: 80 byte header, uint32 count, 50 bytes per triangle.
	want := 84 + 50*m.TriangleCount()
	if len(data) != want {
		t.Fatalf("STL size = %d, want %d", len(data), want)
	}
	if n := binary.LittleEndian.Uint32(data[80:84]); int(n) != m.TriangleCount() {
		t.Errorf("STL triangle count = %d, want %d", n, m.TriangleCount())
	}
}
