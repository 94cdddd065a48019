package boundary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

func flatBottom() *params.Boundary {
	return &params.Boundary{
		Points: []params.BdryPt{
			{X: 0, Z: 100, Normal: params.Vec3{Z: 1}},
			{X: 10000, Z: 100, Normal: params.Vec3{Z: 1}},
		},
	}
}

func TestLocate2DFlatBottom(t *testing.T) {
	b := flatBottom()
	p, i, err := Locate2D(b, 5000)
	require.NoError(t, err)
	require.Equal(t, 0, i)
	require.InDelta(t, 100, p.Z, 1e-9)
	require.InDelta(t, 100, DepthAt(b, i, 5000), 1e-9)
}

func TestProjectCurvatureNx2DSignFlipOnTop(t *testing.T) {
	p := params.BdryPt{Kxx: 1, Kxy: 0, Kyy: 2}
	bot := ProjectCurvatureNx2D(p, 1, 0, Bottom)
	top := ProjectCurvatureNx2D(p, 1, 0, Top)
	require.InDelta(t, 1, bot, 1e-9)
	require.InDelta(t, -1, top, 1e-9)
}

func TestLocateTriangle3DFindsContainingTriangle(t *testing.T) {
	pts := []params.BdryPt{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10},
	}
	tris := [][3]int{{0, 1, 2}, {1, 3, 2}}
	adj := BuildTriAdjacency(tris)
	idx, err := LocateTriangle3D(pts, tris, adj, 0, 7, 7)
	require.NoError(t, err)
	require.Equal(t, 1, idx)
}

func TestTriangulateProducesTriangles(t *testing.T) {
	x := []float64{0, 10, 0, 10, 5}
	y := []float64{0, 0, 10, 10, 5}
	tris := Triangulate(x, y)
	require.NotEmpty(t, tris)
}

func TestBarycentricWeightsSumToOneAtVertex(t *testing.T) {
	pts := []params.BdryPt{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	tri := [3]int{0, 1, 2}
	w0, w1, w2 := BarycentricWeights3D(pts, tri, 0, 0)
	require.InDelta(t, 1, w0, 1e-9)
	require.InDelta(t, 0, w1, 1e-9)
	require.InDelta(t, 0, w2, 1e-9)
	require.InDelta(t, 1, w0+w1+w2, 1e-9)
}

func TestBarycentricWeightsAtCentroid(t *testing.T) {
	pts := []params.BdryPt{{X: 0, Y: 0}, {X: 9, Y: 0}, {X: 0, Y: 9}}
	tri := [3]int{0, 1, 2}
	w0, w1, w2 := BarycentricWeights3D(pts, tri, 3, 3)
	require.InDelta(t, 1.0/3, w0, 1e-9)
	require.InDelta(t, 1.0/3, w1, 1e-9)
	require.InDelta(t, 1.0/3, w2, 1e-9)
}

func TestInterpolateTriangle3DBlendsDepthLinearly(t *testing.T) {
	pts := []params.BdryPt{
		{X: 0, Y: 0, Z: 100, Normal: params.Vec3{Z: 1}, Tangent: params.Vec3{X: 1}},
		{X: 10, Y: 0, Z: 200, Normal: params.Vec3{Z: 1}, Tangent: params.Vec3{X: 1}},
		{X: 0, Y: 10, Z: 100, Normal: params.Vec3{Z: 1}, Tangent: params.Vec3{X: 1}},
	}
	tri := [3]int{0, 1, 2}
	mid := InterpolateTriangle3D(pts, tri, 5, 0)
	require.InDelta(t, 150, mid.Z, 1e-9)
	require.InDelta(t, 1, mid.Normal.Z, 1e-9)
}

func TestInterpolateTriangle3DTakesHSFromFirstVertex(t *testing.T) {
	pts := []params.BdryPt{
		{X: 0, Y: 0, HS: params.HSInfo{BC: params.BCAcoustoElastic}},
		{X: 10, Y: 0, HS: params.HSInfo{BC: params.BCVacuum}},
		{X: 0, Y: 10, HS: params.HSInfo{BC: params.BCVacuum}},
	}
	tri := [3]int{0, 1, 2}
	got := InterpolateTriangle3D(pts, tri, 1, 1)
	require.Equal(t, params.BCAcoustoElastic, got.HS.BC)
}
