package boundary

import "math"

// Pt2 is a bare 2D point used by the piecewise-linear boundary geometry and
// the segment-crossing tests the stepper runs against it.
type Pt2 struct {
	X [2]float64
}

// BoundingBox is the range extent of a boundary's tabulated points, used to
// reject a query outside the domain the same way the Quad SSP box-exit
// diagnostic does for the sound-speed field.
type BoundingBox struct {
	XMin, XMax [2]float64
}

func NewBoundingBox(pts []Pt2) *BoundingBox {
	if len(pts) == 0 {
		return nil
	}
	bb := &BoundingBox{XMin: pts[0].X, XMax: pts[0].X}
	for _, p := range pts {
		for i := 0; i < 2; i++ {
			if p.X[i] < bb.XMin[i] {
				bb.XMin[i] = p.X[i]
			}
			if p.X[i] > bb.XMax[i] {
				bb.XMax[i] = p.X[i]
			}
		}
	}
	return bb
}

func (bb *BoundingBox) PointInside(p Pt2) bool {
	for i := 0; i < 2; i++ {
		if p.X[i] > bb.XMax[i] || p.X[i] < bb.XMin[i] {
			return false
		}
	}
	return true
}

// Segment is one piece of a piecewise-linear boundary curve between two
// tabulated boundary points.
type Segment struct {
	A, B Pt2
}

// Intersect finds the crossing point of two segments treated as infinite
// lines, used to locate where a ray step crosses a boundary segment.
func (s Segment) Intersect(o Segment) (Pt2, bool) {
	x1, y1, x2, y2 := s.A.X[0], s.A.X[1], s.B.X[0], s.B.X[1]
	x3, y3, x4, y4 := o.A.X[0], o.A.X[1], o.B.X[0], o.B.X[1]
	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(denom) < 1e-12 {
		return Pt2{}, false
	}
	m1 := x1*y2 - y1*x2
	m2 := x3*y4 - y3*x4
	xNum := m1*(x3-x4) - (x1-x2)*m2
	yNum := m1*(y3-y4) - (y1-y2)*m2
	return Pt2{X: [2]float64{xNum / denom, yNum / denom}}, true
}

// Polygon is a closed piecewise-linear outline, used for the boundary
// domain's convex-hull containment test when locating a ray's footprint in
// an Nx2D fan.
type Polygon struct {
	Box      *BoundingBox
	Geometry []Pt2
}

func NewPolygon(geom []Pt2) *Polygon {
	if len(geom) > 0 && geom[len(geom)-1] != geom[0] {
		geom = append(geom, geom[0])
	}
	return &Polygon{Box: NewBoundingBox(geom), Geometry: geom}
}

// PointInside uses the winding-number test (geomalgorithms.com/a03-_inclusion.html).
func (pg *Polygon) PointInside(p Pt2) bool {
	if !pg.Box.PointInside(p) {
		return false
	}
	isLeft := func(p0, p1, p2 Pt2) float64 {
		return (p1.X[0]-p0.X[0])*(p2.X[1]-p0.X[1]) -
			(p2.X[0]-p0.X[0])*(p1.X[1]-p0.X[1])
	}
	var wn int
	for i := 0; i < len(pg.Geometry)-1; i++ {
		p0, p1 := pg.Geometry[i], pg.Geometry[i+1]
		if p0.X[1] <= p.X[1] {
			if p1.X[1] > p.X[1] && isLeft(p0, p1, p) > 0 {
				wn++
			}
		} else if p1.X[1] <= p.X[1] && isLeft(p0, p1, p) < 0 {
			wn--
		}
	}
	return wn != 0
}
