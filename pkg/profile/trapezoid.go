// Package profile re-plans a trapezoidal velocity profile for a single axis on
// every control tick.
package profile

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

type Constraints struct {
	MaxVelocity     float64 `yaml:"max_velocity"`
	MaxAcceleration float64 `yaml:"max_acceleration"`
}

func (c Constraints) Validate() error {
	if !(c.MaxVelocity > 0) || math.IsInf(c.MaxVelocity, 0) {
		return errors.Errorf("max velocity must be positive and finite, got %v", c.MaxVelocity)
	}
	if !(c.MaxAcceleration > 0) || math.IsInf(c.MaxAcceleration, 0) {
		return errors.Errorf("max acceleration must be positive and finite, got %v", c.MaxAcceleration)
	}
	return nil
}

// State is a point on the profile.  For the tracker, Position is the remaining
// signed error to the target, so a closing motion has negative Velocity.
type State struct {
	Position float64
	Velocity float64
}

func (s State) String() string {
	return fmt.Sprintf("{pos=%.4f vel=%.4f}", s.Position, s.Velocity)
}

type Trapezoid struct {
	Constraints Constraints
}

func New(c Constraints) *Trapezoid {
	return &Trapezoid{Constraints: c}
}

// Calculate returns the state one tick of dt seconds further along a
// trapezoidal profile from current to goal.  It holds no state of its own.
//
// The returned velocity is the largest one (up to MaxVelocity) from which the
// axis can still brake at MaxAcceleration to the goal velocity by the goal
// position, limited to a change of MaxAcceleration*dt from the current
// velocity.
func (t *Trapezoid) Calculate(dt float64, current, goal State) State {
	maxV := t.Constraints.MaxVelocity
	maxA := t.Constraints.MaxAcceleration
	if dt <= 0 || maxV <= 0 || maxA <= 0 {
		return current
	}
	dv := maxA * dt
	goal.Velocity = clamp(goal.Velocity, -maxV, maxV)

	// Close enough to land on the goal this tick.
	if math.Abs(goal.Velocity-current.Velocity) <= dv &&
		math.Abs(goal.Position-current.Position) <= reach(current.Velocity, goal.Velocity, dt) {
		return goal
	}

	// Work in a frame where the goal lies in the positive direction.
	dir := 1.0
	if goal.Position < current.Position ||
		(goal.Position == current.Position && goal.Velocity < 0) {
		dir = -1.0
	}
	remaining := dir * (goal.Position - current.Position)
	v := dir * current.Velocity
	gv := dir * goal.Velocity

	// Largest vn with vn*dt + (vn²-gv²)/2a <= remaining, i.e. moving at vn for
	// this tick still leaves room for the deceleration ramp.
	brake := -dv + math.Sqrt(dv*dv+gv*gv+2*maxA*remaining)
	vn := math.Min(maxV, brake)
	vn = clamp(vn, v-dv, v+dv)
	vn = clamp(vn, -maxV, maxV)

	next := State{
		Position: current.Position + dir*(v+vn)/2*dt,
		Velocity: dir * vn,
	}
	return next
}

// TimeToGoal estimates how long an unobstructed profile takes to bring the
// axis from rest at current to rest at goal.
func (t *Trapezoid) TimeToGoal(current, goal State) float64 {
	d := math.Abs(goal.Position - current.Position)
	maxV := t.Constraints.MaxVelocity
	maxA := t.Constraints.MaxAcceleration
	if d == 0 || maxV <= 0 || maxA <= 0 {
		return 0
	}
	accelDist := maxV * maxV / maxA
	if d <= accelDist {
		// Triangle: never reaches cruise.
		return 2 * math.Sqrt(d/maxA)
	}
	return 2*maxV/maxA + (d-accelDist)/maxV
}

func reach(v, gv, dt float64) float64 {
	return (math.Abs(v) + math.Abs(gv)) / 2 * dt
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
