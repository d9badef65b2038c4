package joystick

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalise(t *testing.T) {
	assert.Equal(t, -1.0, Normalise(math.MinInt16))
	assert.Equal(t, 1.0, Normalise(math.MaxInt16))
	assert.Equal(t, 0.0, Normalise(0))
}

func TestSticksUpdate(t *testing.T) {
	var s Sticks

	assert.True(t, s.Update(&Event{Type: EventTypeAxis, Number: AxisLStickY, Value: -32767}))
	assert.False(t, s.Update(&Event{Type: EventTypeAxis, Number: AxisLStickY, Value: -32767}))
	assert.Equal(t, -1.0, s.LeftY)

	assert.True(t, s.Update(&Event{Type: EventTypeAxis, Number: AxisDPadX, Value: 32767}))
	assert.Equal(t, int16(32767), s.DPadX)

	assert.True(t, s.Update(&Event{Type: EventTypeButton, Number: ButtonCross, Value: 1}))
	assert.True(t, s.Buttons[ButtonCross])
	assert.True(t, s.Update(&Event{Type: EventTypeButton, Number: ButtonCross, Value: 0}))
	assert.False(t, s.Buttons[ButtonCross])

	assert.False(t, s.Update(&Event{Type: EventTypeAxis, Number: 42, Value: 1}))
}

func TestShaping(t *testing.T) {
	sh := Shaping{Deadband: 0.1, Expo: 2}

	assert.Equal(t, 0.0, sh.Apply(0.05))
	assert.Equal(t, 0.0, sh.Apply(-0.1))
	assert.InDelta(t, 1.0, sh.Apply(1), 1e-12)
	assert.InDelta(t, -1.0, sh.Apply(-1), 1e-12)
	assert.InDelta(t, 0.25, sh.Apply(0.55), 1e-12)
	assert.InDelta(t, -0.25, sh.Apply(-0.55), 1e-12)

	linear := Shaping{}
	assert.Equal(t, 0.3, linear.Apply(0.3))
}
