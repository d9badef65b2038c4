package chassis

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

// Speeds is a chassis velocity: Vx forward, Vy left, Omega anti-clockwise.
type Speeds struct {
	Vx    float64
	Vy    float64
	Omega float64
}

func (s Speeds) Translation() r2.Vec {
	return r2.Vec{X: s.Vx, Y: s.Vy}
}

func (s Speeds) IsZero() bool {
	return s.Vx == 0 && s.Vy == 0 && s.Omega == 0
}

func (s Speeds) String() string {
	return fmt.Sprintf("vx=%.3f vy=%.3f ω=%.3f", s.Vx, s.Vy, s.Omega)
}

// Interface is what the drive controller needs from the thing that turns
// velocities into wheel motion.  Implementations apply only the most recent
// drive call.
type Interface interface {
	DriveFieldRelative(s Speeds, centreOfRotation r2.Vec, openLoop bool) error
	DriveRobotRelative(s Speeds, centreOfRotation r2.Vec, openLoop bool) error
	// Brake stops the wheels and holds them.
	Brake() error
	// LockWheels sets the wheels to resist being pushed.
	LockWheels() error

	EstimatedPose() pose.Pose
	RobotRelativeVelocity() Speeds
	ResetPose(p pose.Pose)
}

// Odometry is the subset of Interface the pose estimator consumes.
type Odometry interface {
	RobotRelativeVelocity() Speeds
}
