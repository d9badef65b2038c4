// Package modes selects between the manual and automatic drive modes and
// runs the active one once per control tick.
//
// The lifecycle matches what the scheduler expects from a command: Initialize
// once on activation, Execute and IsFinished every tick, and End exactly once
// on deactivation.  Switch and Tick wrap that for the control loop.
package modes

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/mrtidy/2025-frc-reefscape/pkg/drive"
	"github.com/mrtidy/2025-frc-reefscape/pkg/joystick"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
	"github.com/mrtidy/2025-frc-reefscape/pkg/tracker"
)

// Inputs is everything a mode reads during one tick.
type Inputs struct {
	Sticks joystick.Sticks
	Pose   pose.Pose
	Dt     float64
}

type Options struct {
	// ManualOpenLoop drives the manual modes without wheel speed feedback.
	// Automatic modes always run closed loop.
	ManualOpenLoop bool
	Shaping        joystick.Shaping
}

type Controller struct {
	drive   *drive.Synthesizer
	tracker *tracker.Tracker
	opts    Options

	active      Mode
	initialized bool
	ended       bool
	elapsed     time.Duration
	arrived     bool
}

func New(d *drive.Synthesizer, t *tracker.Tracker, opts Options) *Controller {
	return &Controller{
		drive:   d,
		tracker: t,
		opts:    opts,
		active:  Mode{Kind: Idle},
		ended:   true,
	}
}

func (c *Controller) Active() Mode {
	return c.active
}

func (c *Controller) Tracker() *tracker.Tracker {
	return c.tracker
}

// Activate makes m the active mode without initializing it.  The previous
// mode must already have been ended.
func (c *Controller) Activate(m Mode) {
	c.active = m
	c.initialized = false
	c.ended = false
	c.elapsed = 0
	c.arrived = false
}

// Switch ends the running mode (running its exit behaviour) and then
// activates and initializes m.
func (c *Controller) Switch(m Mode, current pose.Pose) error {
	var err error
	if !c.ended {
		err = c.End(true)
	}
	fmt.Printf("----- %s -----\n", m.Name())
	c.Activate(m)
	c.Initialize(current)
	return err
}

// Initialize runs the active mode's entry behaviour.
func (c *Controller) Initialize(current pose.Pose) {
	c.initialized = true
	switch c.active.Kind {
	case ManualAtFixedHeading:
		c.tracker.SetTarget(tracker.HeadingTarget(current.Heading), current)
	case ManualFacingPoint:
		c.tracker.SetTarget(tracker.FacePointTarget(c.active.FacingPoint), current)
	case AutoMoveToPose:
		c.tracker.SetTarget(tracker.PoseTarget(c.active.Destination), current)
		fmt.Printf("Move to pose %v: %.2fm away, about %.1fs\n",
			c.active.Destination, current.DistanceTo(c.active.Destination), c.tracker.TimeToArrive(current))
	}
}

// Execute runs one tick of the active mode and issues its command.
func (c *Controller) Execute(in Inputs) error {
	c.elapsed += time.Duration(in.Dt * float64(time.Second))
	if c.active.Kind == Stop {
		c.arrived = c.active.Duration > 0 && c.elapsed >= c.active.Duration
		return c.drive.Lock()
	}

	cmd, arrived := c.step(in)
	c.arrived = arrived
	return c.drive.Issue(cmd)
}

// IsFinished reports whether the active mode has reached its terminal
// condition.  Only AutoMoveToPose and a time-boxed Stop ever finish.
func (c *Controller) IsFinished() bool {
	switch c.active.Kind {
	case AutoMoveToPose, Stop:
		return c.arrived
	}
	return false
}

// End runs the active mode's exit behaviour.  Calling it again before the
// next activation does nothing.
func (c *Controller) End(interrupted bool) error {
	if c.ended {
		return nil
	}
	c.ended = true
	if interrupted && c.active.Kind != Idle {
		fmt.Printf("%s interrupted\n", c.active.Name())
	}
	if c.active.usesTracker() {
		c.tracker.Clear()
	}

	switch c.active.Kind {
	case Idle, Stop:
		return nil
	}
	return errors.Wrapf(c.drive.Brake(), "failed to brake leaving %s", c.active.Name())
}

// Tick is one pass of the control loop: execute the active mode and, if it
// finished, end it and fall back to Idle.
func (c *Controller) Tick(in Inputs) error {
	if c.ended {
		return c.drive.Issue(drive.Command{Frame: drive.RobotRelative})
	}
	err := c.Execute(in)
	if c.IsFinished() {
		fmt.Printf("%s finished\n", c.active.Name())
		if endErr := c.End(false); err == nil {
			err = endErr
		}
		c.Activate(Mode{Kind: Idle})
		c.Initialize(in.Pose)
	}
	return err
}

// step is the per-tick behaviour of every mode that issues a velocity.
func (c *Controller) step(in Inputs) (drive.Command, bool) {
	m := c.active
	limits := c.drive.Limits()
	sticks := in.Sticks.Shaped(c.opts.Shaping)

	var cmd drive.Command
	if m.isManual() {
		cmd.OpenLoop = c.opts.ManualOpenLoop
	}

	switch m.Kind {
	case ManualField:
		cmd.Speeds = drive.ManualSpeeds(sticks, limits)
		return cmd, false

	case ManualRobot:
		cmd.Frame = drive.RobotRelative
		cmd.Speeds = drive.ManualSpeeds(sticks, limits)
		return cmd, false

	case ManualAtFixedHeading, ManualFacingPoint:
		t := drive.ManualTranslation(sticks, limits)
		out := c.tracker.Step(in.Pose, in.Dt)
		cmd.Speeds.Vx, cmd.Speeds.Vy = t.X, t.Y
		cmd.Speeds.Omega = out.Omega
		return cmd, false

	case AutoMoveToPose:
		if !c.initialized {
			// Never latched a target: nothing to drive towards.
			return cmd, true
		}
		out := c.tracker.Step(in.Pose, in.Dt)
		cmd.Speeds.Vx, cmd.Speeds.Vy = out.Translation.X, out.Translation.Y
		cmd.Speeds.Omega = out.Omega
		return cmd, out.Arrived()
	}

	// Idle
	cmd.Frame = drive.RobotRelative
	return cmd, true
}
