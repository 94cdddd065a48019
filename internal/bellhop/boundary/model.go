// Package boundary implements component B: top/bottom boundary geometry,
// normals, curvature, and half-space lookup for both the 2D/Nx2D polyline
// representation and the 3D triangulated representation.
package boundary

import (
	"fmt"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

// Side distinguishes the top and bottom boundaries; curvature sign flips
// between them (spec.md section 4.B/4.E).
type Side int

const (
	Bottom Side = iota
	Top
)

// Locate2D finds the polyline segment containing range r (2D/Nx2D) and
// returns that segment's BdryPt (carrying tangent/normal/curvature/HS).
// The boundary's points are assumed sorted by range.
func Locate2D(b *params.Boundary, r params.Real) (params.BdryPt, int, error) {
	n := len(b.Points)
	if n == 0 {
		return params.BdryPt{}, 0, fmt.Errorf("boundary: empty boundary table")
	}
	i := 0
	for i < n-2 && r >= b.Points[i+1].X {
		i++
	}
	return b.Points[i], i, nil
}

// DepthAt linearly interpolates the boundary's depth at range r, given the
// bracketing segment index from Locate2D.
func DepthAt(b *params.Boundary, i int, r params.Real) params.Real {
	p0, p1 := b.Points[i], b.Points[i+1]
	if p1.X == p0.X {
		return p0.Z
	}
	w := (r - p0.X) / (p1.X - p0.X)
	return (1-w)*p0.Z + w*p1.Z
}

// ProjectCurvatureNx2D reduces the 3D curvature moments (Kxx, Kxy, Kyy)
// carried on a boundary point onto a ray's radial tangent direction,
// Open Question resolution 3 (the kappa-form, not the z_xx-form):
//
//	kappa = Kxx*tx^2 + 2*Kxy*tx*ty + Kyy*ty^2
//
// sign-flipped for the top boundary.
func ProjectCurvatureNx2D(p params.BdryPt, tx, ty params.Real, side Side) params.Real {
	k := p.Kxx*tx*tx + 2*p.Kxy*tx*ty + p.Kyy*ty*ty
	if side == Top {
		k = -k
	}
	return k
}

// Curvature3D is the 2x2 rotated curvature tensor D = R^T * kappa * R of
// spec.md section 4.B, where R's columns are the in-plane ray tangent and
// normal projected onto (x, y).
type Curvature3D struct {
	D [2][2]params.Real
}

// ProjectCurvature3D builds D from a boundary point's curvature moments and
// the ray-local (tangent, normal) basis in the (x,y) plane.
func ProjectCurvature3D(p params.BdryPt, tangentXY, normalXY params.Vec2, side Side) Curvature3D {
	kappa := [2][2]params.Real{
		{p.Kxx, p.Kxy},
		{p.Kxy, p.Kyy},
	}
	r := [2]params.Vec2{tangentXY, normalXY}
	cols := [2][2]params.Real{{r[0].X, r[1].X}, {r[0].Y, r[1].Y}}
	var d Curvature3D
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			var sum params.Real
			for a := 0; a < 2; a++ {
				for b := 0; b < 2; b++ {
					sum += cols[a][i] * kappa[a][b] * cols[b][j]
				}
			}
			d.D[i][j] = sum
		}
	}
	if side == Top {
		d.D[0][0], d.D[0][1], d.D[1][0], d.D[1][1] = -d.D[0][0], -d.D[0][1], -d.D[1][0], -d.D[1][1]
	}
	return d
}

// LocateTriangle3D finds the triangle containing footprint (x,y), walking
// the TriAdjacency graph from a starting guess rather than rescanning every
// triangle — the standard point-location optimization for a ray that moves
// incrementally between steps.
func LocateTriangle3D(pts []params.BdryPt, tris [][3]int, adj *TriAdjacency, start int, x, y params.Real) (int, error) {
	if len(tris) == 0 {
		return -1, fmt.Errorf("boundary: empty triangulation")
	}
	if start < 0 || start >= len(tris) {
		start = 0
	}
	visited := make(map[int]bool, 8)
	cur := start
	for steps := 0; steps < len(tris); steps++ {
		if visited[cur] {
			break
		}
		visited[cur] = true
		t := tris[cur]
		if pointInTriangle(pts, t, x, y) {
			return cur, nil
		}
		next := -1
		for _, nb := range adj.Neighbors(cur) {
			if !visited[nb] {
				next = nb
				break
			}
		}
		if next < 0 {
			break
		}
		cur = next
	}
	// Fallback: linear scan, guards against the walk failing to converge.
	for i, t := range tris {
		if pointInTriangle(pts, t, x, y) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("boundary: (%.3f, %.3f) not inside any triangle", x, y)
}

// BarycentricWeights3D returns the barycentric weights of footprint (x,y)
// against triangle t's 2D projection, used to interpolate depth/normal
// across a triangulated boundary mesh rather than snapping to the nearest
// vertex.
func BarycentricWeights3D(pts []params.BdryPt, t [3]int, x, y params.Real) (w0, w1, w2 params.Real) {
	a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
	det := (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
	if det == 0 {
		return 1, 0, 0
	}
	w0 = ((b.X-x)*(c.Y-y) - (c.X-x)*(b.Y-y)) / det
	w1 = ((c.X-x)*(a.Y-y) - (a.X-x)*(c.Y-y)) / det
	w2 = 1 - w0 - w1
	return
}

// InterpolateTriangle3D blends triangle t's three vertices by the footprint's
// barycentric weights into a single BdryPt: position, normal, and tangent
// are interpolated; half-space properties are taken from the first vertex
// (a triangulated mesh is assumed to carry uniform HS properties per
// contiguous region, the common case for a bathymetry mesh).
func InterpolateTriangle3D(pts []params.BdryPt, t [3]int, x, y params.Real) params.BdryPt {
	w0, w1, w2 := BarycentricWeights3D(pts, t, x, y)
	a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
	lerp := func(fa, fb, fc params.Real) params.Real { return w0*fa + w1*fb + w2*fc }

	out := a
	out.X = lerp(a.X, b.X, c.X)
	out.Y = lerp(a.Y, b.Y, c.Y)
	out.Z = lerp(a.Z, b.Z, c.Z)
	out.Normal = params.Vec3{
		X: lerp(a.Normal.X, b.Normal.X, c.Normal.X),
		Y: lerp(a.Normal.Y, b.Normal.Y, c.Normal.Y),
		Z: lerp(a.Normal.Z, b.Normal.Z, c.Normal.Z),
	}.Normalized()
	out.Tangent = params.Vec3{
		X: lerp(a.Tangent.X, b.Tangent.X, c.Tangent.X),
		Y: lerp(a.Tangent.Y, b.Tangent.Y, c.Tangent.Y),
		Z: lerp(a.Tangent.Z, b.Tangent.Z, c.Tangent.Z),
	}.Normalized()
	out.Kxx = lerp(a.Kxx, b.Kxx, c.Kxx)
	out.Kxy = lerp(a.Kxy, b.Kxy, c.Kxy)
	out.Kyy = lerp(a.Kyy, b.Kyy, c.Kyy)
	return out
}

func pointInTriangle(pts []params.BdryPt, t [3]int, x, y params.Real) bool {
	sign := func(ax, ay, bx, by, cx, cy params.Real) params.Real {
		return (ax-cx)*(by-cy) - (bx-cx)*(ay-cy)
	}
	a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
	d1 := sign(x, y, a.X, a.Y, b.X, b.Y)
	d2 := sign(x, y, b.X, b.Y, c.X, c.Y)
	d3 := sign(x, y, c.X, c.Y, a.X, a.Y)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
