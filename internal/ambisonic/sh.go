package ambisonic

import "math"

// encodeSN3D computes the ACN-ordered, SN3D-normalized real
// spherical-harmonic coefficients for a unit-gain point source at
// (azimuth, elevation), both in radians, up to order 3. 3D mode returns
// (order+1)^2 coefficients; 2D mode returns the 2*order+1 horizontal-only
// coefficients (elevation is treated as 0 regardless of its argument).
func encodeSN3D(order int, is3D bool, azimuth, elevation float64) []float64 {
	if is3D {
		return encodeSN3D3D(order, azimuth, elevation)
	}
	return encodeSN3D2D(order, azimuth)
}

func encodeSN3D3D(order int, a, e float64) []float64 {
	sinA, cosA := math.Sin(a), math.Cos(a)
	sinE, cosE := math.Sin(e), math.Cos(e)
	sin2A, cos2A := math.Sin(2*a), math.Cos(2*a)
	sin2E := 2 * sinE * cosE

	coeffs := []float64{1} // ACN0 (W)
	if order >= 1 {
		coeffs = append(coeffs,
			sinA*cosE, // ACN1 (Y)
			sinE,      // ACN2 (Z)
			cosA*cosE, // ACN3 (X)
		)
	}
	if order >= 2 {
		sqrt3over2 := math.Sqrt(3) / 2
		coeffs = append(coeffs,
			sqrt3over2*sin2A*cosE*cosE,  // ACN4
			sqrt3over2*sinA*sin2E,       // ACN5
			(3*sinE*sinE-1)/2,           // ACN6
			sqrt3over2*cosA*sin2E,       // ACN7
			sqrt3over2*cos2A*cosE*cosE,  // ACN8
		)
	}
	if order >= 3 {
		sin3A := sinA*(3-4*sinA*sinA)
		cos3A := cosA*(4*cosA*cosA-3)
		sqrt58 := math.Sqrt(5.0 / 8)
		sqrt15over2 := math.Sqrt(15) / 2
		sqrt38 := math.Sqrt(3.0 / 8)
		coeffs = append(coeffs,
			sqrt58*sin3A*cosE*cosE*cosE,                  // ACN9
			sqrt15over2*sin2A*sinE*cosE*cosE,              // ACN10
			sqrt38*sinA*cosE*(5*sinE*sinE-1),              // ACN11
			sinE*(5*sinE*sinE-3)/2,                        // ACN12
			sqrt38*cosA*cosE*(5*sinE*sinE-1),              // ACN13
			sqrt15over2*cos2A*sinE*cosE*cosE,              // ACN14
			sqrt58*cos3A*cosE*cosE*cosE,                   // ACN15
		)
	}
	return coeffs
}

// encodeSN3D2D computes the horizontal-only (elevation = 0) subset used
// by 2D-mode ambisonics: W, then sin/cos pairs at each harmonic degree.
func encodeSN3D2D(order int, a float64) []float64 {
	coeffs := make([]float64, 2*order+1)
	coeffs[0] = 1
	for k := 1; k <= order; k++ {
		coeffs[2*k-1] = math.Sin(float64(k) * a)
		coeffs[2*k] = math.Cos(float64(k) * a)
	}
	return coeffs
}

// decoderScale returns the (2*floor(sqrt(c))+1) factor the decoder
// applies per ACN channel c to compensate SN3D normalization when
// forming a speaker feed (spec §4.5).
func decoderScale(acn int) float64 {
	return float64(2*int(math.Sqrt(float64(acn)))+1)
}
