package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// AngleAt returns the angle in degrees at vertex b formed by the rays b->a
// and b->c, using X and Y only. The result is in [0, 180]. If either ray has
// zero length the angle is undefined and 0 is returned.
func AngleAt(a, b, c detector.Point3D) float64 {
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	magBA := math.Hypot(bax, bay)
	magBC := math.Hypot(bcx, bcy)
	if magBA == 0 || magBC == 0 {
		return 0
	}

	cos := (bax*bcx + bay*bcy) / (magBA * magBC)

	// Rounding can push |cos| past 1 for collinear points.
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

// HandOrientation returns the direction in radians of the vector from a to b.
// A missing reference point yields 0.
func HandOrientation(a, b *detector.Keypoint) float64 {
	if a == nil || b == nil {
		return 0
	}
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}
