package picobldc

type distanceProvider interface {
	RawDistancesTraveled() (PerMotorVal[int16], error)
}

// WheelOdometer turns the Pico's wrapping 16-bit distance counters into the
// distance each wheel surface has rolled, in metres.  Direction is +1 for a
// motor whose counter rises as its wheel drives the robot forwards and -1
// for a mirrored one.
type WheelOdometer struct {
	pico          distanceProvider
	metresPerUnit float64
	direction     PerMotorVal[float64]

	primed  bool
	lastRaw PerMotorVal[int16]
	total   PerMotorVal[float64]
}

func NewWheelOdometer(pico distanceProvider, wheelCircumM float64, direction PerMotorVal[float64]) *WheelOdometer {
	return &WheelOdometer{
		pico:          pico,
		metresPerUnit: wheelCircumM / DistanceUnitsPerRotation,
		direction:     direction,
	}
}

// Poll reads the counters and returns how far each wheel rolled since the
// previous Poll.  The first Poll only records the baseline.
func (o *WheelOdometer) Poll() (delta PerMotorVal[float64], err error) {
	raw, err := o.pico.RawDistancesTraveled()
	if err != nil {
		return delta, err
	}
	if o.primed {
		for m, v := range raw {
			// int16 subtraction wraps across a counter rollover.
			units := v - o.lastRaw[m]
			delta[m] = float64(units) * o.metresPerUnit * o.direction[m]
			o.total[m] += delta[m]
		}
	}
	o.lastRaw = raw
	o.primed = true
	return delta, nil
}

// Total is the distance rolled by each wheel since construction or Zero.
func (o *WheelOdometer) Total() PerMotorVal[float64] {
	return o.total
}

func (o *WheelOdometer) Zero() {
	o.total = PerMotorVal[float64]{}
}
