package geometry

import "math"

// GridDivisor is the areal density assumption behind GridSpacing.
const GridDivisor = 50

// FrustumVolume returns the volume between two parallel cross-sections of
// area a1 and a2 separated by height h:
//
//	V = (h/3) * (a1 + sqrt(a1*a2) + a2)
//
// Equal areas reduce to the prism volume a*h; a zero area reduces to the
// cone volume (h/3)*a. Areas must be non-negative.
func FrustumVolume(a1, a2, h float64) float64 {
	return (h / 3) * (a1 + math.Sqrt(a1*a2) + a2)
}

// Weight converts a volume in m³ to tons using a density in t/m³.
func Weight(volume, density float64) float64 {
	return volume * density
}

// GridSpacing suggests a sampling grid spacing in meters for a volume,
// sqrt(V / GridDivisor). Negative volumes are clamped to zero.
func GridSpacing(volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	return math.Sqrt(volume / GridDivisor)
}
