package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewWrapsHeading(t *testing.T) {
	p := New(1, 2, 3*math.Pi)
	assert.InDelta(t, math.Pi, p.Heading, 1e-9)
	assert.Equal(t, r2.Vec{X: 1, Y: 2}, p.Translation())
}

func TestFrameRotation(t *testing.T) {
	// Robot facing field +y: driving field +x is driving robot right (-y).
	v := FieldToRobot(r2.Vec{X: 1}, math.Pi/2)
	assert.InDelta(t, 0, v.X, 1e-9)
	assert.InDelta(t, -1, v.Y, 1e-9)

	back := RobotToField(v, math.Pi/2)
	assert.InDelta(t, 1, back.X, 1e-9)
	assert.InDelta(t, 0, back.Y, 1e-9)
}

func TestBearingTo(t *testing.T) {
	p := New(1, 1, 0)
	assert.InDelta(t, math.Pi/2, p.BearingTo(r2.Vec{X: 1, Y: 5}), 1e-9)
	assert.InDelta(t, math.Pi, p.BearingTo(r2.Vec{X: -3, Y: 1}), 1e-9)
	assert.InDelta(t, 5, p.DistanceTo(New(4, 5, 0)), 1e-9)
}
