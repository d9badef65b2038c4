package chassis

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

// Sim is an ideal chassis: whatever velocity was last commanded is exactly
// what the robot does when Step is called.
type Sim struct {
	lock sync.Mutex

	truePose pose.Pose
	robotVel Speeds

	LastCommand Command
	Commands    int
	Brakes      int
	Locks       int
	Verbose     bool
}

// Command records one drive call made on the Sim.
type Command struct {
	Speeds           Speeds
	FieldRelative    bool
	CentreOfRotation r2.Vec
	OpenLoop         bool
}

func NewSim(start pose.Pose) *Sim {
	return &Sim{truePose: start.Wrapped()}
}

var _ Interface = (*Sim)(nil)

func (s *Sim) DriveFieldRelative(sp Speeds, cor r2.Vec, openLoop bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	v := pose.FieldToRobot(sp.Translation(), s.truePose.Heading)
	s.record(Speeds{Vx: v.X, Vy: v.Y, Omega: sp.Omega}, Command{sp, true, cor, openLoop})
	return nil
}

func (s *Sim) DriveRobotRelative(sp Speeds, cor r2.Vec, openLoop bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.record(sp, Command{sp, false, cor, openLoop})
	return nil
}

func (s *Sim) record(robot Speeds, cmd Command) {
	if s.Verbose {
		fmt.Printf("SIM: drive %v field=%v cor=%v open=%v\n", cmd.Speeds, cmd.FieldRelative, cmd.CentreOfRotation, cmd.OpenLoop)
	}
	// Spinning about an offset centre also translates the chassis centre.
	if cmd.CentreOfRotation != (r2.Vec{}) {
		robot.Vx += robot.Omega * cmd.CentreOfRotation.Y
		robot.Vy -= robot.Omega * cmd.CentreOfRotation.X
	}
	s.robotVel = robot
	s.LastCommand = cmd
	s.Commands++
}

func (s *Sim) Brake() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.robotVel = Speeds{}
	s.Brakes++
	return nil
}

func (s *Sim) LockWheels() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.robotVel = Speeds{}
	s.Locks++
	return nil
}

// Step advances the simulated robot by dt seconds.
func (s *Sim) Step(dt float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	v := pose.RobotToField(s.robotVel.Translation(), s.truePose.Heading)
	s.truePose = pose.New(
		s.truePose.X+v.X*dt,
		s.truePose.Y+v.Y*dt,
		s.truePose.Heading+s.robotVel.Omega*dt,
	)
}

func (s *Sim) EstimatedPose() pose.Pose {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.truePose
}

func (s *Sim) RobotRelativeVelocity() Speeds {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.robotVel
}

func (s *Sim) ResetPose(p pose.Pose) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.truePose = p.Wrapped()
}
