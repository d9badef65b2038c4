package angle

import "math"

func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Wrap maps any angle into (-π, π].
func Wrap(f float64) float64 {
	d := math.Mod(f, 2*math.Pi)
	if d <= -math.Pi {
		d += 2 * math.Pi
	} else if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}

// Diff returns the shortest signed rotation that takes current onto target.
func Diff(target, current float64) float64 {
	return Wrap(target - current)
}
