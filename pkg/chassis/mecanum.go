package chassis

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/picobldc"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

// WheelSpeeds converts a robot-relative chassis velocity, spinning about
// centreOfRotation (robot frame, metres), into wheel surface speeds in m/s.
// Positive wheel speed drives the robot forwards.
func WheelSpeeds(s Speeds, centreOfRotation r2.Vec, d Dimensions) (w picobldc.PerMotorVal[float64]) {
	wheels := [4]struct {
		pos    r2.Vec
		roller float64
	}{
		picobldc.FrontLeft:  {r2.Vec{X: d.HalfLengthM, Y: d.HalfWidthM}, -1},
		picobldc.FrontRight: {r2.Vec{X: d.HalfLengthM, Y: -d.HalfWidthM}, 1},
		picobldc.BackLeft:   {r2.Vec{X: -d.HalfLengthM, Y: d.HalfWidthM}, 1},
		picobldc.BackRight:  {r2.Vec{X: -d.HalfLengthM, Y: -d.HalfWidthM}, -1},
	}
	for m, wh := range wheels {
		r := r2.Sub(wh.pos, centreOfRotation)
		vx := s.Vx - s.Omega*r.Y
		vy := s.Vy + s.Omega*r.X
		w[m] = vx + wh.roller*vy
	}
	return
}

// ChassisSpeeds is the forward kinematics matching WheelSpeeds with the centre
// of rotation at the chassis centre.
func ChassisSpeeds(w picobldc.PerMotorVal[float64], d Dimensions) Speeds {
	fl, fr, bl, br := w[picobldc.FrontLeft], w[picobldc.FrontRight], w[picobldc.BackLeft], w[picobldc.BackRight]
	return Speeds{
		Vx:    (fl + fr + bl + br) / 4,
		Vy:    (-fl + fr + bl - br) / 4,
		Omega: (-fl + fr - bl + br) / (4 * (d.HalfLengthM + d.HalfWidthM)),
	}
}

// Desaturate scales all wheel speeds down together so none exceeds max,
// preserving the direction of travel.
func Desaturate(w picobldc.PerMotorVal[float64], max float64) picobldc.PerMotorVal[float64] {
	m := 0.0
	for _, v := range w {
		m = math.Max(m, math.Abs(v))
	}
	if max <= 0 || m <= max {
		return w
	}
	scale := max / m
	for i := range w {
		w[i] *= scale
	}
	return w
}

// motorDirection is +1 for a motor that turns its wheel forwards on a
// positive command.  Right hand motors are mounted mirrored.
var motorDirection = picobldc.PerMotorVal[float64]{
	picobldc.FrontLeft:  1,
	picobldc.FrontRight: -1,
	picobldc.BackLeft:   1,
	picobldc.BackRight:  -1,
}

// Mecanum drives a four wheel mecanum base through a Pico-BLDC and keeps a
// wheel odometry estimate.
type Mecanum struct {
	lock sync.Mutex

	motors picobldc.Interface
	dims   Dimensions
	wheels *picobldc.WheelOdometer

	odometry pose.Pose
	velocity Speeds
}

var _ Interface = (*Mecanum)(nil)

func NewMecanum(motors picobldc.Interface, dims Dimensions) *Mecanum {
	return &Mecanum{
		motors: motors,
		dims:   dims,
		wheels: picobldc.NewWheelOdometer(motors, dims.WheelCircumM(), motorDirection),
	}
}

func (m *Mecanum) DriveFieldRelative(s Speeds, cor r2.Vec, openLoop bool) error {
	m.lock.Lock()
	heading := m.odometry.Heading
	m.lock.Unlock()

	v := pose.FieldToRobot(s.Translation(), heading)
	return m.DriveRobotRelative(Speeds{Vx: v.X, Vy: v.Y, Omega: s.Omega}, cor, openLoop)
}

// DriveRobotRelative sets the wheel speeds.  The Pico-BLDC always runs its
// own speed loop so open loop makes no difference on this base.
func (m *Mecanum) DriveRobotRelative(s Speeds, cor r2.Vec, _ bool) error {
	wheels := WheelSpeeds(s, cor, m.dims)
	circ := m.dims.WheelCircumM()
	for i := range wheels {
		wheels[i] /= circ
	}
	wheels = Desaturate(wheels, m.dims.MaxWheelRPS)

	var cmd picobldc.PerMotorVal[int16]
	for i := range wheels {
		cmd[i] = picobldc.RPSToMotorSpeed(wheels[i] * motorDirection[i])
	}
	return m.motors.SetMotorSpeeds(cmd[picobldc.FrontLeft], cmd[picobldc.FrontRight], cmd[picobldc.BackLeft], cmd[picobldc.BackRight])
}

func (m *Mecanum) Brake() error {
	return m.motors.SetMotorSpeeds(0, 0, 0, 0)
}

// LockWheels is the same as Brake: mecanum wheels can't be turned across the
// direction of a push.
func (m *Mecanum) LockWheels() error {
	return m.Brake()
}

// Poll reads the wheel encoders and advances the odometry by dt seconds.
func (m *Mecanum) Poll(dt float64) error {
	travelled, err := m.wheels.Poll()
	if err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	delta := ChassisSpeeds(travelled, m.dims)
	if dt > 0 {
		m.velocity = Speeds{Vx: delta.Vx / dt, Vy: delta.Vy / dt, Omega: delta.Omega / dt}
	}
	// Integrate using the heading half way through the step.
	mid := m.odometry.Heading + delta.Omega/2
	d := pose.RobotToField(delta.Translation(), mid)
	m.odometry = pose.New(m.odometry.X+d.X, m.odometry.Y+d.Y, m.odometry.Heading+delta.Omega)
	return nil
}

func (m *Mecanum) EstimatedPose() pose.Pose {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.odometry
}

func (m *Mecanum) RobotRelativeVelocity() Speeds {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.velocity
}

func (m *Mecanum) ResetPose(p pose.Pose) {
	fmt.Println("Mecanum: odometry reset to", p)
	m.AlignTo(p)
}

// AlignTo moves the odometry onto the fused pose so that field relative
// driving uses the same frame as the estimator.
func (m *Mecanum) AlignTo(p pose.Pose) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.odometry = p.Wrapped()
}
