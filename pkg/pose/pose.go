package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/angle"
)

// Pose is a field position in metres plus a heading in radians.  Heading is
// always kept in (-π, π]; use New to build one from an unwrapped angle.
type Pose struct {
	X       float64 `yaml:"x" json:"x"`
	Y       float64 `yaml:"y" json:"y"`
	Heading float64 `yaml:"heading" json:"heading"`
}

func New(x, y, heading float64) Pose {
	return Pose{X: x, Y: y, Heading: angle.Wrap(heading)}
}

func (p Pose) Translation() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Wrapped returns a copy with the heading normalised.
func (p Pose) Wrapped() Pose {
	return New(p.X, p.Y, p.Heading)
}

// DistanceTo is the straight line distance between the two positions.
func (p Pose) DistanceTo(o Pose) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// BearingTo is the field heading that points from p towards point.
func (p Pose) BearingTo(point r2.Vec) float64 {
	return math.Atan2(point.Y-p.Y, point.X-p.X)
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.1f°)", p.X, p.Y, angle.Degrees(p.Heading))
}

// FieldToRobot rotates a field-frame vector into the frame of a robot with the
// given heading.
func FieldToRobot(v r2.Vec, heading float64) r2.Vec {
	return r2.Rotate(v, -heading, r2.Vec{})
}

// RobotToField is the inverse of FieldToRobot.
func RobotToField(v r2.Vec, heading float64) r2.Vec {
	return r2.Rotate(v, heading, r2.Vec{})
}
