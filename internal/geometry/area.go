package geometry

import "math"

// MinPolygonPoints is the smallest number of vertices that encloses an area.
const MinPolygonPoints = 3

// SquareMetersPerKm2 converts m² to km².
const SquareMetersPerKm2 = 1_000_000

// PolygonArea returns the planar area of a simple polygon using the shoelace
// formula. The result is independent of winding order. The caller must pass
// at least MinPolygonPoints points; fewer yields 0.
//
// Self-intersecting input is not detected and produces a well-defined but
// geometrically meaningless value.
func PolygonArea(points []Point2D) float64 {
	n := len(points)
	if n < MinPolygonPoints {
		return 0
	}

	var sum1, sum2 float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum1 += points[i].X * points[j].Y
		sum2 += points[j].X * points[i].Y
	}

	return math.Abs(sum1-sum2) / 2
}

// SetArea is PolygonArea over the planar projection of a CoordinateSet.
func SetArea(cs CoordinateSet) float64 {
	return PolygonArea(cs.Points2D())
}
