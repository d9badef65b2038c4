package main

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/chassis"
	"github.com/mrtidy/2025-frc-reefscape/pkg/config"
	"github.com/mrtidy/2025-frc-reefscape/pkg/drive"
	"github.com/mrtidy/2025-frc-reefscape/pkg/joystick"
	"github.com/mrtidy/2025-frc-reefscape/pkg/modes"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
	"github.com/mrtidy/2025-frc-reefscape/pkg/poseestimator"
	"github.com/mrtidy/2025-frc-reefscape/pkg/tracker"
	"github.com/mrtidy/2025-frc-reefscape/pkg/vision"
)

type Scenario struct {
	Config   config.Config
	From, To pose.Pose
	MaxTime  time.Duration

	OdometryScale  float64
	VisionPeriod   time.Duration
	VisionNoise    float64
	VisionTagCount int
	Seed           int64
}

type Sample struct {
	T        float64
	True     pose.Pose
	Estimate pose.Pose
	Command  chassis.Speeds
}

type Result struct {
	Samples       []Sample
	Arrived       bool
	Elapsed       time.Duration
	FinalTrue     pose.Pose
	FinalEstimate pose.Pose
	PeakSpeed     float64
}

// slippingOdometry reports the chassis velocity scaled, as wheels that slip or
// are mis-measured would.
type slippingOdometry struct {
	chassis.Odometry
	scale float64
}

func (o slippingOdometry) RobotRelativeVelocity() chassis.Speeds {
	v := o.Odometry.RobotRelativeVelocity()
	return chassis.Speeds{Vx: v.Vx * o.scale, Vy: v.Vy * o.scale, Omega: v.Omega * o.scale}
}

// Run drives the simulated chassis from s.From to s.To through the same
// estimator, tracker and mode controller the robot uses.
func Run(s Scenario) Result {
	cfg := s.Config
	dt := cfg.TickPeriod.Seconds()
	rng := rand.New(rand.NewSource(s.Seed))

	sim := chassis.NewSim(s.From)
	scale := s.OdometryScale
	if scale == 0 {
		scale = 1
	}
	estimator := poseestimator.New(cfg.Estimator, slippingOdometry{sim, scale}, s.From)
	controller := modes.New(drive.New(sim, cfg.Limits()), tracker.New(cfg.Tracker()), cfg.ModeOptions())
	observations := vision.NewQueue(cfg.Vision.QueueSize)

	if err := controller.Switch(modes.MoveTo(s.To), estimator.CurrentPose()); err != nil {
		fmt.Println("Drive:", err)
	}

	var res Result
	var elapsed, sinceVision time.Duration
	for elapsed < s.MaxTime {
		for _, o := range observations.Drain() {
			estimator.Correct(o)
		}
		estimator.Predict(dt)

		if err := controller.Tick(modes.Inputs{Sticks: joystick.Sticks{}, Pose: estimator.CurrentPose(), Dt: dt}); err != nil {
			fmt.Println("Drive:", err)
		}
		sim.Step(dt)
		elapsed += cfg.TickPeriod
		sinceVision += cfg.TickPeriod

		if s.VisionPeriod > 0 && sinceVision >= s.VisionPeriod {
			sinceVision = 0
			truth := sim.EstimatedPose()
			observations.Push(vision.Observation{
				Pose: pose.New(
					truth.X+rng.NormFloat64()*s.VisionNoise,
					truth.Y+rng.NormFloat64()*s.VisionNoise,
					truth.Heading+rng.NormFloat64()*s.VisionNoise,
				),
				TimestampSeconds: elapsed.Seconds(),
				TagCount:         s.VisionTagCount,
			})
		}

		cmd := sim.LastCommand.Speeds
		if speed := r2.Norm(cmd.Translation()); speed > res.PeakSpeed {
			res.PeakSpeed = speed
		}
		res.Samples = append(res.Samples, Sample{
			T:        elapsed.Seconds(),
			True:     sim.EstimatedPose(),
			Estimate: estimator.CurrentPose(),
			Command:  cmd,
		})
		if controller.Active().Kind == modes.Idle {
			res.Arrived = true
			break
		}
	}
	res.Elapsed = elapsed
	res.FinalTrue = sim.EstimatedPose()
	res.FinalEstimate = estimator.CurrentPose()
	return res
}
