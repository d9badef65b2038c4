// Package drive turns manual stick input or tracker output into a single
// chassis velocity command per tick.
package drive

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/chassis"
	"github.com/mrtidy/2025-frc-reefscape/pkg/joystick"
)

// ErrUnconfigured is returned when motion is requested from a synthesizer that
// was built without valid limits.
var ErrUnconfigured = errors.New("drive is not configured; refusing to move")

type Frame int

const (
	FieldRelative Frame = iota
	RobotRelative
)

func (f Frame) String() string {
	switch f {
	case FieldRelative:
		return "field"
	case RobotRelative:
		return "robot"
	default:
		return fmt.Sprintf("Frame(%d)", int(f))
	}
}

// Command is one tick's worth of drive output.
type Command struct {
	Speeds           chassis.Speeds
	Frame            Frame
	CentreOfRotation r2.Vec
	OpenLoop         bool
}

func (c Command) String() string {
	loop := "closed"
	if c.OpenLoop {
		loop = "open"
	}
	return fmt.Sprintf("%v %s-relative %s-loop", c.Speeds, c.Frame, loop)
}

// Limits caps the commanded speeds.
type Limits struct {
	MaxSpeed float64
	MaxOmega float64
}

// Synthesizer forwards commands to the chassis.  It holds no queue: every
// Issue replaces the previous command.
type Synthesizer struct {
	chassis    chassis.Interface
	limits     Limits
	configured bool

	last Command
}

func New(c chassis.Interface, limits Limits) *Synthesizer {
	return &Synthesizer{chassis: c, limits: limits, configured: true}
}

// NewUnconfigured returns a synthesizer that only ever issues zero velocity.
func NewUnconfigured(c chassis.Interface) *Synthesizer {
	return &Synthesizer{chassis: c}
}

func (s *Synthesizer) Configured() bool {
	return s.configured
}

func (s *Synthesizer) Limits() Limits {
	return s.limits
}

func (s *Synthesizer) Last() Command {
	return s.last
}

// Issue sends the command to the chassis, capping its speeds at the limits.
func (s *Synthesizer) Issue(cmd Command) error {
	var rejected error
	if !s.configured {
		if !cmd.Speeds.IsZero() {
			rejected = ErrUnconfigured
		}
		cmd.Speeds = chassis.Speeds{}
	} else {
		cmd.Speeds = s.limit(cmd.Speeds)
	}
	s.last = cmd

	var err error
	switch cmd.Frame {
	case RobotRelative:
		err = s.chassis.DriveRobotRelative(cmd.Speeds, cmd.CentreOfRotation, cmd.OpenLoop)
	default:
		err = s.chassis.DriveFieldRelative(cmd.Speeds, cmd.CentreOfRotation, cmd.OpenLoop)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to issue %v", cmd)
	}
	return rejected
}

// Brake issues a zero command and then brakes the chassis.
func (s *Synthesizer) Brake() error {
	if err := s.Issue(Command{Frame: RobotRelative}); err != nil {
		return err
	}
	return errors.Wrap(s.chassis.Brake(), "failed to brake")
}

// Lock sets the wheels to resist being pushed.
func (s *Synthesizer) Lock() error {
	s.last = Command{Frame: RobotRelative}
	return errors.Wrap(s.chassis.LockWheels(), "failed to lock wheels")
}

func (s *Synthesizer) limit(sp chassis.Speeds) chassis.Speeds {
	if s.limits.MaxSpeed > 0 {
		v := sp.Translation()
		if n := r2.Norm(v); n > s.limits.MaxSpeed {
			v = r2.Scale(s.limits.MaxSpeed/n, v)
			sp.Vx, sp.Vy = v.X, v.Y
		}
	}
	if s.limits.MaxOmega > 0 {
		sp.Omega = math.Max(-s.limits.MaxOmega, math.Min(s.limits.MaxOmega, sp.Omega))
	}
	return sp
}

// ManualTranslation maps the left stick to a translation velocity.  Pushing
// the stick up drives +x and pushing it left drives +y, so both axes are
// inverted from the device's convention.
func ManualTranslation(sticks joystick.Sticks, limits Limits) r2.Vec {
	return r2.Vec{X: -sticks.LeftY * limits.MaxSpeed, Y: -sticks.LeftX * limits.MaxSpeed}
}

// ManualOmega maps the right stick to an angular velocity, counter-clockwise
// when pushed left.
func ManualOmega(sticks joystick.Sticks, limits Limits) float64 {
	return -sticks.RightX * limits.MaxOmega
}

// ManualSpeeds is the full stick mapping.
func ManualSpeeds(sticks joystick.Sticks, limits Limits) chassis.Speeds {
	t := ManualTranslation(sticks, limits)
	return chassis.Speeds{Vx: t.X, Vy: t.Y, Omega: ManualOmega(sticks, limits)}
}
