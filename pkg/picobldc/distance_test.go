package picobldc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounters struct {
	values []PerMotorVal[int16]
}

func (f *fakeCounters) RawDistancesTraveled() (PerMotorVal[int16], error) {
	v := f.values[0]
	if len(f.values) > 1 {
		f.values = f.values[1:]
	}
	return v, nil
}

func TestWheelOdometerAcrossWrap(t *testing.T) {
	f := &fakeCounters{values: []PerMotorVal[int16]{
		{100, math.MaxInt16 - 10, 0, -5},
		{356, math.MinInt16 + 20, 0, -261},
		{356, math.MinInt16 + 20, 128, -261},
	}}
	o := NewWheelOdometer(f, 0.5, PerMotorVal[float64]{1, -1, 1, -1})

	delta, err := o.Poll()
	require.NoError(t, err)
	assert.Equal(t, PerMotorVal[float64]{}, delta, "first poll only sets the baseline")

	delta, err = o.Poll()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, delta[FrontLeft], 1e-9)
	assert.InDelta(t, -31.0/256*0.5, delta[FrontRight], 1e-9, "mirrored motor")
	assert.InDelta(t, 0.0, delta[BackLeft], 1e-9)
	assert.InDelta(t, 0.5, delta[BackRight], 1e-9, "mirrored motor running backwards")

	delta, err = o.Poll()
	require.NoError(t, err)
	assert.Equal(t, PerMotorVal[float64]{0, 0, 0.25, 0}, delta)
	assert.InDelta(t, 0.25, o.Total()[BackLeft], 1e-9)
	assert.InDelta(t, 0.5, o.Total()[FrontLeft], 1e-9)

	o.Zero()
	assert.Equal(t, PerMotorVal[float64]{}, o.Total())
}

func TestRPSToMotorSpeedSaturates(t *testing.T) {
	assert.Equal(t, int16(2048), RPSToMotorSpeed(1))
	assert.Equal(t, int16(-1024), RPSToMotorSpeed(-0.5))
	assert.Equal(t, int16(math.MaxInt16), RPSToMotorSpeed(1000))
	assert.Equal(t, int16(math.MinInt16), RPSToMotorSpeed(-1000))
}
