// Package tracker turns a latched target and the live pose into chassis
// velocities, using one trapezoidal profile for the straight-line distance and
// another for the heading error.
package tracker

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/angle"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pid"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
	"github.com/mrtidy/2025-frc-reefscape/pkg/profile"
)

// Target is what to drive towards.  Any of the fields may be nil; an axis
// without a goal is always at its target.  FacePoint asks for the heading
// that points at a fixed field point, re-derived from the pose every tick.
type Target struct {
	Translation *r2.Vec
	Rotation    *float64
	FacePoint   *r2.Vec
}

func PoseTarget(p pose.Pose) Target {
	t := p.Translation()
	h := p.Heading
	return Target{Translation: &t, Rotation: &h}
}

func HeadingTarget(heading float64) Target {
	h := angle.Wrap(heading)
	return Target{Rotation: &h}
}

func FacePointTarget(point r2.Vec) Target {
	return Target{FacePoint: &point}
}

func (t Target) String() string {
	s := "target{"
	if t.Translation != nil {
		s += fmt.Sprintf(" xy=(%.3f, %.3f)", t.Translation.X, t.Translation.Y)
	}
	if t.Rotation != nil {
		s += fmt.Sprintf(" heading=%.1f°", angle.Degrees(*t.Rotation))
	}
	if t.FacePoint != nil {
		s += fmt.Sprintf(" facing=(%.3f, %.3f)", t.FacePoint.X, t.FacePoint.Y)
	}
	return s + " }"
}

type Tolerance struct {
	TranslationM float64
	RotationRad  float64
}

type Config struct {
	Translation profile.Constraints
	Rotation    profile.Constraints
	Tolerance   Tolerance

	// Feedback adds a PID correction on the remaining error to each axis.
	Feedback            bool
	TranslationFeedback pid.Gains
	RotationFeedback    pid.Gains
}

// Output is the tracker's command for one tick.  Translation is field
// relative.
type Output struct {
	Translation         r2.Vec
	Omega               float64
	AtTranslationTarget bool
	AtRotationTarget    bool
}

func (o Output) Arrived() bool {
	return o.AtTranslationTarget && o.AtRotationTarget
}

type Tracker struct {
	cfg Config

	translationProfile *profile.Trapezoid
	rotationProfile    *profile.Trapezoid
	translationPID     *pid.Controller
	rotationPID        *pid.Controller

	target    Target
	hasTarget bool

	// Profile states: Position is the remaining error, so closing motion has
	// negative Velocity.
	translationState profile.State
	rotationState    profile.State

	// Last profiled velocities.  A new target starts from these and the
	// translation vector never changes by more than MaxAcceleration*dt a tick.
	lastTranslation r2.Vec
	lastOmega       float64

	last Output
}

func New(cfg Config) *Tracker {
	return &Tracker{
		cfg:                cfg,
		translationProfile: profile.New(cfg.Translation),
		rotationProfile:    profile.New(cfg.Rotation),
		translationPID:     pid.New(cfg.TranslationFeedback),
		rotationPID:        pid.New(cfg.RotationFeedback),
		last:               Output{AtTranslationTarget: true, AtRotationTarget: true},
	}
}

// SetFeedback switches the PID correction on or off and updates its gains.
func (t *Tracker) SetFeedback(enabled bool, translation, rotation pid.Gains) {
	t.cfg.Feedback = enabled
	t.translationPID.Gains = translation
	t.rotationPID.Gains = rotation
	t.translationPID.Reset()
	t.rotationPID.Reset()
}

func (t *Tracker) Config() Config {
	return t.cfg
}

// SetTarget latches a new target.  Both profiles restart from the current
// error, carrying over whatever speed was last commanded on that axis.  A
// change of direction is spread over later ticks by the acceleration limit.
func (t *Tracker) SetTarget(target Target, current pose.Pose) {
	t.target = target
	t.hasTarget = true
	t.translationPID.Reset()
	t.rotationPID.Reset()

	if d, ok := t.translationError(current); ok {
		t.translationState = profile.State{Position: r2.Norm(d), Velocity: -r2.Norm(t.lastTranslation)}
	} else {
		t.translationState = profile.State{}
	}
	if e, ok := t.rotationError(current); ok {
		t.rotationState = profile.State{Position: e, Velocity: -t.lastOmega}
	} else {
		t.rotationState = profile.State{}
	}
	fmt.Printf("Tracker: new %v from %v\n", target, current)
}

// Clear drops the target; the tracker then reports arrived with zero output.
func (t *Tracker) Clear() {
	t.hasTarget = false
	t.target = Target{}
	t.translationState = profile.State{}
	t.rotationState = profile.State{}
	t.lastTranslation = r2.Vec{}
	t.lastOmega = 0
	t.last = Output{AtTranslationTarget: true, AtRotationTarget: true}
}

func (t *Tracker) Target() (Target, bool) {
	return t.target, t.hasTarget
}

// Step computes the velocities for one tick of dt seconds from the current
// pose.
func (t *Tracker) Step(current pose.Pose, dt float64) Output {
	var out Output
	if !t.hasTarget {
		out = Output{AtTranslationTarget: true, AtRotationTarget: true}
		t.lastTranslation = r2.Vec{}
		t.lastOmega = 0
	} else {
		out.Translation, out.AtTranslationTarget = t.stepTranslation(current, dt)
		out.Omega, out.AtRotationTarget = t.stepRotation(current, dt)
	}
	t.last = out
	return out
}

// TimeToArrive estimates how long the current target takes to reach from
// rest at current, in seconds, taking the slower of the two axes.
func (t *Tracker) TimeToArrive(current pose.Pose) float64 {
	if !t.hasTarget {
		return 0
	}
	var eta float64
	if d, ok := t.translationError(current); ok {
		eta = t.translationProfile.TimeToGoal(profile.State{Position: r2.Norm(d)}, profile.State{})
	}
	if e, ok := t.rotationError(current); ok {
		eta = math.Max(eta, t.rotationProfile.TimeToGoal(profile.State{Position: e}, profile.State{}))
	}
	return eta
}

// Last returns the most recent Step output.
func (t *Tracker) Last() Output {
	return t.last
}

func (t *Tracker) Arrived() bool {
	return t.last.Arrived()
}

func (t *Tracker) stepTranslation(current pose.Pose, dt float64) (r2.Vec, bool) {
	d, ok := t.translationError(current)
	if !ok {
		t.lastTranslation = r2.Vec{}
		return r2.Vec{}, true
	}
	dist := r2.Norm(d)
	if dist < t.cfg.Tolerance.TranslationM || dist == 0 {
		t.translationState = profile.State{}
		t.translationPID.Reset()
		t.lastTranslation = r2.Vec{}
		return r2.Vec{}, true
	}

	t.translationState.Position = dist
	t.translationState = t.translationProfile.Calculate(dt, t.translationState, profile.State{})
	want := r2.Scale(-t.translationState.Velocity/dist, d)
	v := slew(t.lastTranslation, want, t.cfg.Translation.MaxAcceleration*dt)
	t.lastTranslation = v
	// The profile continues from the closing speed actually commanded.
	t.translationState.Velocity = -r2.Dot(v, d) / dist

	if t.cfg.Feedback {
		v = r2.Add(v, r2.Scale(t.translationPID.Update(dist, dt)/dist, d))
		if n := r2.Norm(v); n > t.cfg.Translation.MaxVelocity {
			v = r2.Scale(t.cfg.Translation.MaxVelocity/n, v)
		}
	}
	return v, false
}

// slew steps from one velocity towards another, changing it by at most limit.
func slew(from, to r2.Vec, limit float64) r2.Vec {
	delta := r2.Sub(to, from)
	n := r2.Norm(delta)
	if n <= limit || n == 0 {
		return to
	}
	return r2.Add(from, r2.Scale(limit/n, delta))
}

func (t *Tracker) stepRotation(current pose.Pose, dt float64) (float64, bool) {
	e, ok := t.rotationError(current)
	if !ok {
		t.lastOmega = 0
		return 0, true
	}
	if math.Abs(e) < t.cfg.Tolerance.RotationRad {
		t.rotationState = profile.State{}
		t.rotationPID.Reset()
		t.lastOmega = 0
		return 0, true
	}

	t.rotationState.Position = e
	t.rotationState = t.rotationProfile.Calculate(dt, t.rotationState, profile.State{})
	omega := -t.rotationState.Velocity
	t.lastOmega = omega
	if t.cfg.Feedback {
		omega += t.rotationPID.Update(e, dt)
		omega = pid.Clamp(omega, -t.cfg.Rotation.MaxVelocity, t.cfg.Rotation.MaxVelocity)
	}
	return omega, false
}

// translationError is the field vector from the robot to the target position.
func (t *Tracker) translationError(current pose.Pose) (r2.Vec, bool) {
	if t.target.Translation == nil {
		return r2.Vec{}, false
	}
	return r2.Sub(*t.target.Translation, current.Translation()), true
}

// rotationError is the shortest signed rotation from the current heading to
// the goal heading.
func (t *Tracker) rotationError(current pose.Pose) (float64, bool) {
	switch {
	case t.target.Rotation != nil:
		return angle.Diff(*t.target.Rotation, current.Heading), true
	case t.target.FacePoint != nil:
		if current.Translation() == *t.target.FacePoint {
			// Sitting on the point: any heading faces it.
			return 0, true
		}
		return angle.Diff(current.BearingTo(*t.target.FacePoint), current.Heading), true
	}
	return 0, false
}
