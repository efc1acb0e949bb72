package ambisonic

import "math"

// Speaker is a decoder output position: azimuth/elevation in radians,
// plus the per-ACN-channel decode row computed for it.
type Speaker struct {
	Azimuth, Elevation float64
	Silent             bool // true for an LFE slot: carries no ambisonic content
	coeffs             []float64
}

// SpeakerLayout builds the Speaker set for a named layout. Cube,
// dodecahedron, and the 26-point Lebedev-style grid are generated from
// regular-polyhedron geometry rather than hardcoded tables: a
// dodecahedron's 12 face normals are exactly its dual icosahedron's 12
// vertex directions, and the 26-point grid is a cube's vertices, face
// centers, and edge midpoints, normalized to the unit sphere.
func SpeakerLayout(name string) []Speaker {
	switch name {
	case "stereo":
		return []Speaker{
			{Azimuth: rad(30)},
			{Azimuth: rad(-30)},
		}
	case "quad":
		return []Speaker{
			{Azimuth: rad(45)}, {Azimuth: rad(135)},
			{Azimuth: rad(-135)}, {Azimuth: rad(-45)},
		}
	case "5.1":
		return []Speaker{
			{Azimuth: rad(30)}, {Azimuth: rad(-30)}, {Azimuth: 0},
			{Silent: true}, // LFE
			{Azimuth: rad(110)}, {Azimuth: rad(-110)},
		}
	case "7.1":
		return []Speaker{
			{Azimuth: rad(30)}, {Azimuth: rad(-30)}, {Azimuth: 0},
			{Silent: true}, // LFE
			{Azimuth: rad(90)}, {Azimuth: rad(-90)},
			{Azimuth: rad(135)}, {Azimuth: rad(-135)},
		}
	case "cube":
		return cubeVertices()
	case "dodecahedron":
		return icosahedronVertices()
	case "lebedev26":
		return cubeGrid26()
	default:
		return []Speaker{{Azimuth: rad(30)}, {Azimuth: rad(-30)}}
	}
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func cartesianToSpeaker(x, y, z float64) Speaker {
	elev := math.Asin(z)
	azim := math.Atan2(x, y)
	return Speaker{Azimuth: azim, Elevation: elev}
}

func cubeVertices() []Speaker {
	var out []Speaker
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sz := range []float64{-1, 1} {
				n := math.Sqrt(3)
				out = append(out, cartesianToSpeaker(sx/n, sy/n, sz/n))
			}
		}
	}
	return out
}

// icosahedronVertices returns the 12 unit-sphere directions of a
// regular icosahedron, built from the three mutually-orthogonal golden
// rectangles construction, which are exactly a dodecahedron's 12 face
// directions by polyhedral duality.
func icosahedronVertices() []Speaker {
	phi := (1 + math.Sqrt(5)) / 2
	raw := [][3]float64{
		{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
		{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
		{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
	}
	out := make([]Speaker, len(raw))
	for i, v := range raw {
		n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		out[i] = cartesianToSpeaker(v[0]/n, v[1]/n, v[2]/n)
	}
	return out
}

// cubeGrid26 returns the 26 unit-sphere directions of a cube's 8
// vertices, 6 face centers, and 12 edge midpoints.
func cubeGrid26() []Speaker {
	var points [][3]float64
	for _, sx := range []float64{-1, 0, 1} {
		for _, sy := range []float64{-1, 0, 1} {
			for _, sz := range []float64{-1, 0, 1} {
				if sx == 0 && sy == 0 && sz == 0 {
					continue
				}
				points = append(points, [3]float64{sx, sy, sz})
			}
		}
	}
	out := make([]Speaker, len(points))
	for i, v := range points {
		n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		out[i] = cartesianToSpeaker(v[0]/n, v[1]/n, v[2]/n)
	}
	return out
}
