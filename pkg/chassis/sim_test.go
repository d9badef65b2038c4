package chassis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

func TestSimFieldRelative(t *testing.T) {
	s := NewSim(pose.New(0, 0, math.Pi/2))
	require.NoError(t, s.DriveFieldRelative(Speeds{Vx: 1}, r2.Vec{}, false))
	for i := 0; i < 50; i++ {
		s.Step(0.02)
	}
	p := s.EstimatedPose()
	assert.InDelta(t, 1, p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)
	assert.InDelta(t, math.Pi/2, p.Heading, 1e-9)
	assert.True(t, s.LastCommand.FieldRelative)
	assert.Equal(t, 1, s.Commands)
}

func TestSimBrakeStops(t *testing.T) {
	s := NewSim(pose.Pose{})
	require.NoError(t, s.DriveRobotRelative(Speeds{Vx: 1, Omega: 1}, r2.Vec{}, true))
	require.NoError(t, s.Brake())
	s.Step(1)
	assert.Equal(t, pose.Pose{}, s.EstimatedPose())
	assert.Equal(t, 1, s.Brakes)
	assert.True(t, s.RobotRelativeVelocity().IsZero())
}
