// Package hrir implements the HRIR sphere: a triangulated unit-sphere
// mesh of head-related impulse responses, a BSP tree for O(log F)
// direction-to-face lookup, and nearest/bilinear sampling (spec §4.6).
package hrir

import "math"

// Vertex is one measured direction on the sphere: its unit position,
// left/right impulse responses, and per-ear delay.
type Vertex struct {
	Position              [3]float64
	LeftIR, RightIR       []float32
	LeftDelay, RightDelay float32
}

// Face is a triangle of the sphere's triangulation, referencing three
// vertex indices.
type Face struct {
	A, B, C int
}

// Sphere is an immutable HRIR dataset plus its BSP tree, built once at
// load time and read-only thereafter.
type Sphere struct {
	SampleRate int
	IRLength   int
	Vertices   []Vertex
	Faces      []Face

	root *bspNode
}

// NewSphere builds a Sphere from already-parsed vertices and faces,
// constructing the BSP tree over the face list.
func NewSphere(sampleRate, irLength int, vertices []Vertex, faces []Face) *Sphere {
	s := &Sphere{
		SampleRate: sampleRate,
		IRLength:   irLength,
		Vertices:   vertices,
		Faces:      faces,
	}
	centroids := make([][3]float64, len(faces))
	indices := make([]int, len(faces))
	for i, f := range faces {
		centroids[i] = centroid(vertices[f.A].Position, vertices[f.B].Position, vertices[f.C].Position)
		indices[i] = i
	}
	s.root = buildBSP(indices, centroids, 0)
	return s
}

func centroid(a, b, c [3]float64) [3]float64 {
	return [3]float64{(a[0] + b[0] + c[0]) / 3, (a[1] + b[1] + c[1]) / 3, (a[2] + b[2] + c[2]) / 3}
}

func normalize(v [3]float64) [3]float64 {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if n == 0 {
		return v
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

// Nearest returns the index of the vertex whose position is closest (by
// dot product, i.e. smallest angle) to direction dir.
func (s *Sphere) Nearest(dir [3]float64) int {
	dir = normalize(dir)
	best := -1
	bestDot := -math.MaxFloat64
	candidates := s.root.query(dir)
	for _, fi := range candidates {
		f := s.Faces[fi]
		for _, vi := range [3]int{f.A, f.B, f.C} {
			d := dot(dir, s.Vertices[vi].Position)
			if d > bestDot {
				bestDot = d
				best = vi
			}
		}
	}
	if best < 0 {
		for vi, v := range s.Vertices {
			d := dot(dir, v.Position)
			if d > bestDot {
				bestDot = d
				best = vi
			}
		}
	}
	return best
}

// Bilinear finds the face most likely to contain dir (via the BSP tree)
// and returns the three vertex indices plus their barycentric weights.
// If dir does not project cleanly inside any candidate face's plane
// (numerically possible on a coarse mesh), it falls back to the
// nearest-vertex weighting (weight 1 on that vertex).
func (s *Sphere) Bilinear(dir [3]float64) (indices [3]int, weights [3]float64) {
	dir = normalize(dir)
	bestFace := -1
	var bestWeights [3]float64
	bestScore := -math.MaxFloat64

	for _, fi := range s.root.query(dir) {
		f := s.Faces[fi]
		w, ok := barycentric(dir, s.Vertices[f.A].Position, s.Vertices[f.B].Position, s.Vertices[f.C].Position)
		if !ok {
			continue
		}
		score := math.Min(w[0], math.Min(w[1], w[2]))
		if score > bestScore {
			bestScore = score
			bestFace = fi
			bestWeights = w
		}
	}

	if bestFace < 0 {
		nearest := s.Nearest(dir)
		return [3]int{nearest, nearest, nearest}, [3]float64{1, 0, 0}
	}

	f := s.Faces[bestFace]
	return [3]int{f.A, f.B, f.C}, bestWeights
}

// barycentric projects dir onto the plane of triangle (a,b,c) and
// returns its barycentric coordinates; ok is false if the projection
// falls outside the triangle by more than a small tolerance.
func barycentric(dir, a, b, c [3]float64) (weights [3]float64, ok bool) {
	v0 := sub(b, a)
	v1 := sub(c, a)
	v2 := sub(dir, a)

	d00 := dot(v0, v0)
	d01 := dot(v0, v1)
	d11 := dot(v1, v1)
	d20 := dot(v2, v0)
	d21 := dot(v2, v1)

	denom := d00*d11 - d01*d01
	if denom == 0 {
		return weights, false
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	u := 1 - v - w

	const epsilon = 0.05
	if u < -epsilon || v < -epsilon || w < -epsilon {
		return weights, false
	}
	return [3]float64{u, v, w}, true
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}
