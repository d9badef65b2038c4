package chassis

import "math"

// Dimensions of a four wheel mecanum base.  Wheel centres sit at
// (±HalfLengthM, ±HalfWidthM) from the chassis centre.
type Dimensions struct {
	WheelDiameterM float64 `yaml:"wheel_diameter_m"`
	HalfLengthM    float64 `yaml:"half_length_m"`
	HalfWidthM     float64 `yaml:"half_width_m"`
	// MaxWheelRPS is the fastest any wheel may be asked to spin.
	MaxWheelRPS float64 `yaml:"max_wheel_rps"`
}

// DefaultDimensions are the measurements of the competition base.
var DefaultDimensions = Dimensions{
	WheelDiameterM: 0.1016,
	HalfLengthM:    0.28,
	HalfWidthM:     0.26,
	MaxWheelRPS:    14,
}

func (d Dimensions) WheelCircumM() float64 {
	return d.WheelDiameterM * math.Pi
}

func (d Dimensions) CentreToWheelM() float64 {
	return math.Hypot(d.HalfLengthM, d.HalfWidthM)
}
