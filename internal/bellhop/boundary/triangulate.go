package boundary

import "math"

// Triangulate builds a Delaunay triangulation of scattered bathymetry or
// altimetry points, seeding the 3D boundary's TriAdjacency graph. It uses
// the incremental insertion-with-edge-flip algorithm: each point is added
// inside its containing triangle, splitting it into three, then every new
// edge is legalized (flipped if the opposite vertex lies inside the new
// triangle's circumcircle) and the flip propagates to the edges it creates.
func Triangulate(x, y []float64) [][3]int {
	n := len(x)
	if n < 3 {
		return nil
	}

	minX, maxX := x[0], x[0]
	minY, maxY := y[0], y[0]
	for i := 1; i < n; i++ {
		minX, maxX = math.Min(minX, x[i]), math.Max(maxX, x[i])
		minY, maxY = math.Min(minY, y[i]), math.Max(maxY, y[i])
	}
	dx, dy := maxX-minX, maxY-minY
	mid := math.Max(dx, dy)
	if mid == 0 {
		mid = 1
	}
	// Super-triangle vertices, appended after the real points.
	superX := []float64{minX - 20*mid, minX + 0.5*dx, maxX + 20*mid}
	superY := []float64{minY - mid, maxY + 20*mid, minY - mid}
	px := append(append([]float64{}, x...), superX...)
	py := append(append([]float64{}, y...), superY...)
	s0, s1, s2 := n, n+1, n+2

	tris := [][3]int{{s0, s1, s2}}

	inTri := func(t [3]int, qx, qy float64) bool {
		sign := func(ax, ay, bx, by, cx, cy float64) float64 {
			return (ax-cx)*(by-cy) - (bx-cx)*(ay-cy)
		}
		ax, ay := px[t[0]], py[t[0]]
		bx, by := px[t[1]], py[t[1]]
		cx, cy := px[t[2]], py[t[2]]
		d1 := sign(qx, qy, ax, ay, bx, by)
		d2 := sign(qx, qy, bx, by, cx, cy)
		d3 := sign(qx, qy, cx, cy, ax, ay)
		hasNeg := d1 < 0 || d2 < 0 || d3 < 0
		hasPos := d1 > 0 || d2 > 0 || d3 > 0
		return !(hasNeg && hasPos)
	}

	// sharedEdgeTri finds the triangle (other than skip) sharing edge (a,b).
	sharedEdgeTri := func(a, b, skip int) int {
		for k, t := range tris {
			if k == skip {
				continue
			}
			has := func(v int) bool { return t[0] == v || t[1] == v || t[2] == v }
			if has(a) && has(b) {
				return k
			}
		}
		return -1
	}

	oppositeVertex := func(t [3]int, a, b int) int {
		for _, v := range t {
			if v != a && v != b {
				return v
			}
		}
		return -1
	}

	var legalize func(triIdx int, a, b, pr int)
	legalize = func(triIdx int, a, b, pr int) {
		other := sharedEdgeTri(a, b, triIdx)
		if other < 0 {
			return
		}
		pk := oppositeVertex(tris[other], a, b)
		if pk < 0 {
			return
		}
		if IsIllegalEdge(px[pr], py[pr], px[a], py[a], px[b], py[b], px[pk], py[pk]) {
			tris[triIdx] = [3]int{a, pk, pr}
			tris[other] = [3]int{b, pk, pr}
			legalize(triIdx, a, pk, pr)
			legalize(other, b, pk, pr)
		}
	}

	for p := 0; p < n; p++ {
		qx, qy := px[p], py[p]
		target := -1
		for k, t := range tris {
			if inTri(t, qx, qy) {
				target = k
				break
			}
		}
		if target < 0 {
			continue
		}
		t := tris[target]
		tris[target] = [3]int{t[0], t[1], p}
		tris = append(tris, [3]int{t[1], t[2], p}, [3]int{t[2], t[0], p})
		i2, i3 := len(tris)-2, len(tris)-1
		legalize(target, t[0], t[1], p)
		legalize(i2, t[1], t[2], p)
		legalize(i3, t[2], t[0], p)
	}

	out := make([][3]int, 0, len(tris))
	for _, t := range tris {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsIllegalEdge reports whether pr lies inside the circumcircle of
// triangle pi-pj-pk, i.e. whether the shared edge pi-pj between
// triangles pi-pj-pk and pi-pj-pr should be flipped to pr-pk.
func IsIllegalEdge(prX, prY, piX, piY, pjX, pjY, pkX, pkY float64) bool {
	inCircle := func(ax, ay, bx, by, cx, cy, dx, dy float64) bool {
		signBit := math.Signbit((bx-ax)*(cy-ay) - (cx-ax)*(by-ay))
		ax_, ay_ := ax-dx, ay-dy
		bx_, by_ := bx-dx, by-dy
		cx_, cy_ := cx-dx, cy-dy
		det := (ax_*ax_+ay_*ay_)*(bx_*cy_-cx_*by_) -
			(bx_*bx_+by_*by_)*(ax_*cy_-cx_*ay_) +
			(cx_*cx_+cy_*cy_)*(ax_*by_-bx_*ay_)
		if signBit {
			return det < 0
		}
		return det > 0
	}
	return inCircle(piX, piY, pjX, pjY, pkX, pkY, prX, prY)
}
