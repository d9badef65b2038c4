package joystick

import (
	"math"
)

// Shaping is applied to each stick axis after normalisation: values inside
// the deadband read as zero and the rest is rescaled to the full range and
// raised to Expo, keeping the sign.
type Shaping struct {
	Deadband float64 `yaml:"deadband"`
	Expo     float64 `yaml:"expo"`
}

var DefaultShaping = Shaping{Deadband: 0.05, Expo: 1.6}

// Sticks accumulates axis and button events into the current controller
// state.  Stick values are normalised to [-1, 1] with up and left negative, as
// the device reports them.
type Sticks struct {
	LeftX, LeftY   float64
	RightX, RightY float64
	DPadX, DPadY   int16

	Buttons [16]bool
}

// Update applies one event and reports whether it changed anything.
func (s *Sticks) Update(e *Event) bool {
	switch e.Type {
	case EventTypeAxis:
		v := Normalise(e.Value)
		var p *float64
		switch e.Number {
		case AxisLStickX:
			p = &s.LeftX
		case AxisLStickY:
			p = &s.LeftY
		case AxisRStickX:
			p = &s.RightX
		case AxisRStickY:
			p = &s.RightY
		case AxisDPadX:
			changed := s.DPadX != e.Value
			s.DPadX = e.Value
			return changed
		case AxisDPadY:
			changed := s.DPadY != e.Value
			s.DPadY = e.Value
			return changed
		default:
			return false
		}
		changed := *p != v
		*p = v
		return changed
	case EventTypeButton:
		if int(e.Number) >= len(s.Buttons) {
			return false
		}
		pressed := e.Value == 1
		changed := s.Buttons[e.Number] != pressed
		s.Buttons[e.Number] = pressed
		return changed
	}
	return false
}

// Shaped returns a copy with deadband and expo applied to all four axes.
func (s Sticks) Shaped(sh Shaping) Sticks {
	s.LeftX = sh.Apply(s.LeftX)
	s.LeftY = sh.Apply(s.LeftY)
	s.RightX = sh.Apply(s.RightX)
	s.RightY = sh.Apply(s.RightY)
	return s
}

func (sh Shaping) Apply(v float64) float64 {
	abs := math.Abs(v)
	if abs <= sh.Deadband {
		return 0
	}
	if sh.Deadband > 0 && sh.Deadband < 1 {
		abs = (abs - sh.Deadband) / (1 - sh.Deadband)
	}
	if abs > 1 {
		abs = 1
	}
	if sh.Expo > 0 {
		abs = math.Pow(abs, sh.Expo)
	}
	return math.Copysign(abs, v)
}

// Normalise maps a raw axis value onto [-1, 1].
func Normalise(raw int16) float64 {
	if raw == math.MinInt16 {
		return -1
	}
	return float64(raw) / math.MaxInt16
}
