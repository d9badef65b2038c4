package tracker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/chassis"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pid"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
	"github.com/mrtidy/2025-frc-reefscape/pkg/profile"
)

const tick = 0.02

func testConfig() Config {
	return Config{
		Translation: profile.Constraints{MaxVelocity: 3, MaxAcceleration: 0.75},
		Rotation:    profile.Constraints{MaxVelocity: math.Pi, MaxAcceleration: 2 * math.Pi},
		Tolerance:   Tolerance{TranslationM: 0.02, RotationRad: math.Pi / 32},
	}
}

func TestNoTargetIsArrivedWithZeroOutput(t *testing.T) {
	tr := New(testConfig())

	out := tr.Step(pose.New(1, 2, 3), tick)

	assert.Equal(t, Output{AtTranslationTarget: true, AtRotationTarget: true}, out)
	assert.True(t, tr.Arrived())
}

func TestTranslationToleranceBoundary(t *testing.T) {
	eps := testConfig().Tolerance.TranslationM
	for _, tc := range []struct {
		name    string
		dist    float64
		arrived bool
	}{
		{"inside", eps - 0.001, true},
		{"outside", eps + 0.001, false},
		{"on target", 0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tr := New(testConfig())
			tr.SetTarget(PoseTarget(pose.New(tc.dist, 0, 0)), pose.Pose{})

			out := tr.Step(pose.Pose{}, tick)

			assert.Equal(t, tc.arrived, out.AtTranslationTarget)
			assert.True(t, out.AtRotationTarget)
			if tc.arrived {
				assert.Equal(t, r2.Vec{}, out.Translation)
			} else {
				assert.Greater(t, out.Translation.X, 0.0)
			}
		})
	}
}

func TestRotationToleranceBoundary(t *testing.T) {
	eps := testConfig().Tolerance.RotationRad
	tr := New(testConfig())
	tr.SetTarget(HeadingTarget(eps-0.001), pose.Pose{})
	out := tr.Step(pose.Pose{}, tick)
	assert.True(t, out.AtRotationTarget)
	assert.Zero(t, out.Omega)

	tr.SetTarget(HeadingTarget(-eps-0.001), pose.Pose{})
	out = tr.Step(pose.Pose{}, tick)
	assert.False(t, out.AtRotationTarget)
	assert.Less(t, out.Omega, 0.0)
}

func TestRotationTakesShortWayRound(t *testing.T) {
	tr := New(testConfig())
	current := pose.New(0, 0, math.Pi-0.2)
	tr.SetTarget(HeadingTarget(-math.Pi+0.2), current)

	out := tr.Step(current, tick)

	assert.False(t, out.AtRotationTarget)
	assert.Greater(t, out.Omega, 0.0, "should rotate through π rather than back through 0")
}

func TestFacePointTarget(t *testing.T) {
	tr := New(testConfig())
	tr.SetTarget(FacePointTarget(r2.Vec{X: 0, Y: 1}), pose.Pose{})

	out := tr.Step(pose.Pose{}, tick)
	assert.True(t, out.AtTranslationTarget)
	assert.False(t, out.AtRotationTarget)
	assert.Greater(t, out.Omega, 0.0)

	// Once facing the point there is nothing left to do.
	out = tr.Step(pose.New(0, 0, math.Pi/2), tick)
	assert.True(t, out.Arrived())
}

// drive runs the tracker in closed loop against an ideal chassis.
func drive(t *testing.T, tr *Tracker, sim *chassis.Sim, ticks int, each func(i int, out Output)) Output {
	var out Output
	for i := 0; i < ticks; i++ {
		out = tr.Step(sim.EstimatedPose(), tick)
		require.NoError(t, sim.DriveFieldRelative(chassis.Speeds{Vx: out.Translation.X, Vy: out.Translation.Y, Omega: out.Omega}, r2.Vec{}, false))
		sim.Step(tick)
		if each != nil {
			each(i, out)
		}
		if out.Arrived() {
			return out
		}
	}
	return out
}

func TestDrivesToPoseWithinConstraints(t *testing.T) {
	cfg := testConfig()
	sim := chassis.NewSim(pose.Pose{})
	tr := New(cfg)
	tr.SetTarget(PoseTarget(pose.New(2, 0, 0)), sim.EstimatedPose())

	var lastSpeed, peak float64
	ticks := 0
	out := drive(t, tr, sim, 300, func(i int, out Output) {
		ticks = i + 1
		speed := r2.Norm(out.Translation)
		assert.LessOrEqual(t, speed, cfg.Translation.MaxVelocity+1e-9)
		// Arrival zeroes the command on the spot, so the final tick is the one
		// allowed to change by more than MaxAcceleration*dt.
		if !out.Arrived() {
			assert.LessOrEqual(t, math.Abs(speed-lastSpeed), cfg.Translation.MaxAcceleration*tick+1e-9, "tick %d", i)
			assert.InDelta(t, 0, out.Translation.Y, 1e-12)
		}
		lastSpeed = speed
		peak = math.Max(peak, speed)
	})

	require.True(t, out.Arrived(), "did not arrive after %d ticks", ticks)
	assert.Less(t, ticks, 200)
	assert.InDelta(t, 2, sim.EstimatedPose().X, cfg.Tolerance.TranslationM)
	assert.InDelta(t, math.Sqrt(1.5), peak, 0.05)
	assert.Equal(t, chassis.Speeds{}, sim.LastCommand.Speeds)
}

func TestRetargetAlongPathKeepsSpeed(t *testing.T) {
	cfg := testConfig()
	sim := chassis.NewSim(pose.Pose{})
	tr := New(cfg)
	tr.SetTarget(PoseTarget(pose.New(2, 0, 0)), sim.EstimatedPose())
	out := drive(t, tr, sim, 60, nil)
	require.False(t, out.Arrived())
	before := out.Translation.X
	require.Greater(t, before, 0.5)

	tr.SetTarget(PoseTarget(pose.New(3, 0, 0)), sim.EstimatedPose())
	after := tr.Step(sim.EstimatedPose(), tick).Translation.X

	assert.LessOrEqual(t, math.Abs(after-before), cfg.Translation.MaxAcceleration*tick+1e-9)
}

func TestRetargetOffPathTurnsSmoothly(t *testing.T) {
	for _, tc := range []struct {
		name  string
		shift r2.Vec
	}{
		{"perpendicular", r2.Vec{X: 0, Y: 3}},
		{"reverse", r2.Vec{X: -3, Y: 0}},
		{"small sidestep", r2.Vec{X: 0, Y: 0.3}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			dv := cfg.Translation.MaxAcceleration * tick
			sim := chassis.NewSim(pose.Pose{})
			tr := New(cfg)
			tr.SetTarget(PoseTarget(pose.New(4, 0, 0)), sim.EstimatedPose())
			out := drive(t, tr, sim, 80, nil)
			require.Greater(t, out.Translation.X, 1.0)

			goal := r2.Add(sim.EstimatedPose().Translation(), tc.shift)
			tr.SetTarget(PoseTarget(pose.New(goal.X, goal.Y, 0)), sim.EstimatedPose())
			prev := out.Translation
			out = drive(t, tr, sim, 600, func(i int, out Output) {
				if !out.Arrived() {
					assert.LessOrEqual(t, r2.Norm(r2.Sub(out.Translation, prev)), dv+1e-9, "tick %d", i)
					assert.LessOrEqual(t, r2.Norm(out.Translation), cfg.Translation.MaxVelocity+1e-9)
				}
				prev = out.Translation
			})

			require.True(t, out.Arrived())
			assert.LessOrEqual(t, r2.Norm(r2.Sub(sim.EstimatedPose().Translation(), goal)), cfg.Tolerance.TranslationM)
		})
	}
}

func TestRetargetRotationKeepsOmega(t *testing.T) {
	cfg := testConfig()
	sim := chassis.NewSim(pose.Pose{})
	tr := New(cfg)
	tr.SetTarget(HeadingTarget(math.Pi/2), sim.EstimatedPose())
	out := drive(t, tr, sim, 15, nil)
	require.False(t, out.Arrived())
	before := out.Omega
	require.Greater(t, before, 0.0)

	tr.SetTarget(HeadingTarget(math.Pi), sim.EstimatedPose())
	after := tr.Step(sim.EstimatedPose(), tick).Omega

	assert.LessOrEqual(t, math.Abs(after-before), cfg.Rotation.MaxAcceleration*tick+1e-9)
}

func TestClear(t *testing.T) {
	tr := New(testConfig())
	tr.SetTarget(PoseTarget(pose.New(2, 0, 1)), pose.Pose{})
	require.False(t, tr.Step(pose.Pose{}, tick).Arrived())

	tr.Clear()

	_, ok := tr.Target()
	assert.False(t, ok)
	assert.True(t, tr.Arrived())
	assert.Equal(t, Output{AtTranslationTarget: true, AtRotationTarget: true}, tr.Step(pose.Pose{}, tick))
}

func TestFeedbackToggle(t *testing.T) {
	gains := pid.Gains{Kp: 1}
	open := New(testConfig())
	closed := New(testConfig())
	closed.SetFeedback(true, gains, gains)

	for _, tr := range []*Tracker{open, closed} {
		tr.SetTarget(PoseTarget(pose.New(2, 0, 0)), pose.Pose{})
	}
	o := open.Step(pose.Pose{}, tick).Translation.X
	c := closed.Step(pose.Pose{}, tick).Translation.X

	assert.InDelta(t, 0.75*tick, o, 1e-9)
	assert.InDelta(t, 0.75*tick+2, c, 1e-9)

	// Feedback never pushes past the velocity limit.
	closed.SetFeedback(true, pid.Gains{Kp: 10}, gains)
	closed.SetTarget(PoseTarget(pose.New(2, 0, 0)), pose.Pose{})
	assert.LessOrEqual(t, closed.Step(pose.Pose{}, tick).Translation.X, 3.0)
}

func TestTimeToArriveTakesSlowerAxis(t *testing.T) {
	tr := New(testConfig())
	assert.Zero(t, tr.TimeToArrive(pose.Pose{}))

	tr.SetTarget(HeadingTarget(math.Pi/2), pose.Pose{})
	assert.InDelta(t, 1.0, tr.TimeToArrive(pose.Pose{}), 1e-9)

	tr.SetTarget(PoseTarget(pose.New(2, 0, math.Pi/2)), pose.Pose{})
	assert.InDelta(t, 2*math.Sqrt(2/0.75), tr.TimeToArrive(pose.Pose{}), 1e-9)
}
