package boundary

import (
	"github.com/james-bowman/sparse"
)

// TriAdjacency is the triangle-adjacency graph of a triangulated 3D boundary
// (bathymetry or altimetry mesh): entry (i,j) is set when triangles i and j
// share an edge. It backs the walk that locates the triangle under a ray's
// (x,y) footprint by stepping to a neighbor rather than rescanning every
// triangle in the mesh, the way the teacher assembles a DOK graph and
// converts it to CSR for repeated fast lookup.
type TriAdjacency struct {
	csr *sparse.CSR
	n   int
}

// BuildTriAdjacency assembles the adjacency graph for a triangle list, each
// triangle given as three vertex indices into a shared point array. Two
// triangles are adjacent when they share exactly one edge (two vertices).
func BuildTriAdjacency(tris [][3]int) *TriAdjacency {
	n := len(tris)
	dok := sparse.NewDOK(n, n)

	edgeOwner := make(map[[2]int]int, 3*n)
	edgeKey := func(a, b int) [2]int {
		if a > b {
			a, b = b, a
		}
		return [2]int{a, b}
	}
	for t, tri := range tris {
		edges := [3][2]int{
			edgeKey(tri[0], tri[1]),
			edgeKey(tri[1], tri[2]),
			edgeKey(tri[2], tri[0]),
		}
		for _, e := range edges {
			if other, ok := edgeOwner[e]; ok {
				dok.Set(t, other, 1)
				dok.Set(other, t, 1)
			} else {
				edgeOwner[e] = t
			}
		}
	}
	return &TriAdjacency{csr: dok.ToCSR(), n: n}
}

// Neighbors returns the (up to three) triangles adjacent to tri.
func (a *TriAdjacency) Neighbors(tri int) []int {
	_, nc := a.csr.Dims()
	out := make([]int, 0, 3)
	for j := 0; j < nc; j++ {
		if a.csr.At(tri, j) != 0 {
			out = append(out, j)
		}
	}
	return out
}

// Len reports the number of triangles in the graph.
func (a *TriAdjacency) Len() int { return a.n }
