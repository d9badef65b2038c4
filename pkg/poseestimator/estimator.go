// Package poseestimator fuses wheel odometry with vision pose observations.
//
// The state is (x, y, heading) with a 3x3 covariance.  Predict integrates the
// chassis' robot-relative velocity and grows the covariance; Correct applies a
// Kalman update per observation, trusting vision more as tag count and area
// go up.  Observations that arrive between two predicts are replayed in
// timestamp order on top of the last predicted state, so the result does not
// depend on the order they arrived in.
package poseestimator

import (
	"cmp"
	"fmt"
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"

	"github.com/mrtidy/2025-frc-reefscape/pkg/angle"
	"github.com/mrtidy/2025-frc-reefscape/pkg/chassis"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
	"github.com/mrtidy/2025-frc-reefscape/pkg/vision"
)

type Config struct {
	// Process noise growth per second of driving, as standard deviations.
	OdometryStdDevXY      float64 `yaml:"odometry_std_dev_xy"`
	OdometryStdDevHeading float64 `yaml:"odometry_std_dev_heading"`
	// Measurement noise for a single tag of unit area.
	VisionStdDevXY      float64 `yaml:"vision_std_dev_xy"`
	VisionStdDevHeading float64 `yaml:"vision_std_dev_heading"`
	// InitialStdDev seeds the covariance after a reset.
	InitialStdDev float64 `yaml:"initial_std_dev"`
}

var DefaultConfig = Config{
	OdometryStdDevXY:      0.1,
	OdometryStdDevHeading: 0.05,
	VisionStdDevXY:        0.5,
	VisionStdDevHeading:   0.5,
	InitialStdDev:         0.1,
}

type Estimator struct {
	cfg      Config
	odometry chassis.Odometry

	// State as of the last Predict.
	base    pose.Pose
	baseCov *mat.SymDense

	// Observations received since the last Predict, and the fused result.
	pending []vision.Observation
	fused   pose.Pose
	cov     *mat.SymDense
}

func New(cfg Config, odometry chassis.Odometry, start pose.Pose) *Estimator {
	e := &Estimator{
		cfg:      cfg,
		odometry: odometry,
	}
	e.Reset(start)
	return e
}

// Reset discards all history and restarts the estimate at p.
func (e *Estimator) Reset(p pose.Pose) {
	v := e.cfg.InitialStdDev * e.cfg.InitialStdDev
	e.base = p.Wrapped()
	e.baseCov = mat.NewSymDense(3, []float64{
		v, 0, 0,
		0, v, 0,
		0, 0, v,
	})
	e.pending = e.pending[:0]
	e.refuse()
}

// Predict commits any pending vision corrections and then advances the
// estimate by dt seconds of odometry.
func (e *Estimator) Predict(dt float64) {
	e.base = e.fused
	e.baseCov = mat.NewSymDense(3, nil)
	e.baseCov.CopySym(e.cov)
	e.pending = e.pending[:0]
	if dt <= 0 {
		return
	}

	v := e.odometry.RobotRelativeVelocity()
	dTheta := v.Omega * dt
	// Rotate the robot-relative step into the field using the mid-step heading.
	step := pose.RobotToField(v.Translation(), e.base.Heading+dTheta/2)
	e.base = pose.New(
		e.base.X+step.X*dt,
		e.base.Y+step.Y*dt,
		e.base.Heading+dTheta,
	)

	qxy := e.cfg.OdometryStdDevXY * e.cfg.OdometryStdDevXY * dt
	qh := e.cfg.OdometryStdDevHeading * e.cfg.OdometryStdDevHeading * dt
	e.baseCov.SetSym(0, 0, e.baseCov.At(0, 0)+qxy)
	e.baseCov.SetSym(1, 1, e.baseCov.At(1, 1)+qxy)
	e.baseCov.SetSym(2, 2, e.baseCov.At(2, 2)+qh)
	e.refuse()
}

// Correct fuses a vision observation.  Observations without any tags are
// ignored.  Returns whether the observation was used.
func (e *Estimator) Correct(obs vision.Observation) bool {
	if !obs.Valid() {
		return false
	}
	if slices.Contains(e.pending, obs) {
		return false
	}
	e.pending = append(e.pending, obs)
	slices.SortFunc(e.pending, compareObservations)
	e.refuse()
	return true
}

func (e *Estimator) CurrentPose() pose.Pose {
	return e.fused
}

// Covariance returns a copy of the current 3x3 covariance.
func (e *Estimator) Covariance() *mat.SymDense {
	c := mat.NewSymDense(3, nil)
	c.CopySym(e.cov)
	return c
}

// refuse recomputes the fused estimate from the base state and the pending
// observations in timestamp order.
func (e *Estimator) refuse() {
	x := e.base
	p := mat.NewSymDense(3, nil)
	p.CopySym(e.baseCov)
	for _, obs := range e.pending {
		x, p = e.update(x, p, obs)
	}
	e.fused = x
	e.cov = p
}

func (e *Estimator) update(x pose.Pose, p *mat.SymDense, obs vision.Observation) (pose.Pose, *mat.SymDense) {
	r := e.measurementNoise(obs)

	// The measurement is the state itself, so S = P + R and K = P S⁻¹.
	var s mat.SymDense
	s.AddSym(p, r)
	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		fmt.Println("Estimator: singular innovation covariance, dropping observation:", err)
		return x, p
	}
	var k mat.Dense
	k.Mul(p, &sInv)

	innovation := mat.NewVecDense(3, []float64{
		obs.Pose.X - x.X,
		obs.Pose.Y - x.Y,
		angle.Diff(obs.Pose.Heading, x.Heading),
	})
	var correction mat.VecDense
	correction.MulVec(&k, innovation)

	next := pose.New(
		x.X+correction.AtVec(0),
		x.Y+correction.AtVec(1),
		x.Heading+correction.AtVec(2),
	)

	// P' = (I - K) P, symmetrised.
	var ik mat.Dense
	ik.Sub(eye3(), &k)
	var np mat.Dense
	np.Mul(&ik, p)
	out := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			out.SetSym(i, j, (np.At(i, j)+np.At(j, i))/2)
		}
	}
	return next, out
}

// measurementNoise shrinks the vision standard deviations with more tags and
// bigger tags.
func (e *Estimator) measurementNoise(obs vision.Observation) *mat.SymDense {
	trust := float64(obs.TagCount) * (1 + math.Max(obs.TagArea, 0))
	sxy := e.cfg.VisionStdDevXY / trust
	sh := e.cfg.VisionStdDevHeading / trust
	return mat.NewSymDense(3, []float64{
		sxy * sxy, 0, 0,
		0, sxy * sxy, 0,
		0, 0, sh * sh,
	})
}

// compareObservations orders by timestamp, then by content so that ties don't
// depend on arrival order either.
func compareObservations(a, b vision.Observation) int {
	if c := cmp.Compare(a.TimestampSeconds, b.TimestampSeconds); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TagCount, b.TagCount); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TagArea, b.TagArea); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Pose.X, b.Pose.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Pose.Y, b.Pose.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Pose.Heading, b.Pose.Heading)
}

func eye3() *mat.DiagDense {
	return mat.NewDiagDense(3, []float64{1, 1, 1})
}
