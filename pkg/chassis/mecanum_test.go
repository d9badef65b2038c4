package chassis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/picobldc"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

var testDims = Dimensions{
	WheelDiameterM: 0.1,
	HalfLengthM:    0.3,
	HalfWidthM:     0.2,
	MaxWheelRPS:    10,
}

func TestWheelSpeedsRoundTrip(t *testing.T) {
	for _, s := range []Speeds{
		{Vx: 1},
		{Vy: -0.5},
		{Omega: 2},
		{Vx: 0.3, Vy: 0.7, Omega: -1.1},
	} {
		w := WheelSpeeds(s, r2.Vec{}, testDims)
		back := ChassisSpeeds(w, testDims)
		assert.InDelta(t, s.Vx, back.Vx, 1e-9, "%v", s)
		assert.InDelta(t, s.Vy, back.Vy, 1e-9, "%v", s)
		assert.InDelta(t, s.Omega, back.Omega, 1e-9, "%v", s)
	}
}

func TestWheelSpeedsStrafeLeft(t *testing.T) {
	w := WheelSpeeds(Speeds{Vy: 1}, r2.Vec{}, testDims)
	assert.Equal(t, picobldc.PerMotorVal[float64]{-1, 1, 1, -1}, w)
}

func TestWheelSpeedsAboutOffsetCentre(t *testing.T) {
	cor := r2.Vec{X: testDims.HalfLengthM, Y: testDims.HalfWidthM}
	w := WheelSpeeds(Speeds{Omega: 1}, cor, testDims)
	assert.InDelta(t, 0, w[picobldc.FrontLeft], 1e-12, "the pivot wheel should not move")
	assert.NotZero(t, w[picobldc.BackRight])
}

func TestDesaturatePreservesRatios(t *testing.T) {
	w := Desaturate(picobldc.PerMotorVal[float64]{20, -10, 5, 0}, 10)
	assert.Equal(t, picobldc.PerMotorVal[float64]{10, -5, 2.5, 0}, w)
	same := picobldc.PerMotorVal[float64]{1, 2, 3, 4}
	assert.Equal(t, same, Desaturate(same, 10))
}

type fakeMotors struct {
	speeds   picobldc.PerMotorVal[int16]
	counters picobldc.PerMotorVal[int16]
	sets     int
}

func (f *fakeMotors) SetMotorSpeeds(fl, fr, bl, br int16) error {
	f.speeds = picobldc.PerMotorVal[int16]{fl, fr, bl, br}
	f.sets++
	return nil
}

func (f *fakeMotors) RawDistancesTraveled() (picobldc.PerMotorVal[int16], error) {
	return f.counters, nil
}

func (f *fakeMotors) Close() error { return nil }

func TestMecanumDriveForward(t *testing.T) {
	motors := &fakeMotors{}
	m := NewMecanum(motors, testDims)

	require.NoError(t, m.DriveRobotRelative(Speeds{Vx: 0.5}, r2.Vec{}, false))
	rps := 0.5 / testDims.WheelCircumM()
	want := picobldc.RPSToMotorSpeed(rps)
	assert.Equal(t, picobldc.PerMotorVal[int16]{want, -want, want, -want}, motors.speeds)

	require.NoError(t, m.Brake())
	assert.Equal(t, picobldc.PerMotorVal[int16]{}, motors.speeds)
}

func TestMecanumFieldRelativeUsesOdometryHeading(t *testing.T) {
	motors := &fakeMotors{}
	m := NewMecanum(motors, testDims)
	m.ResetPose(pose.New(0, 0, math.Pi/2))

	// Field +y with the robot facing +y is straight ahead.
	require.NoError(t, m.DriveFieldRelative(Speeds{Vy: 0.5}, r2.Vec{}, false))
	want := picobldc.RPSToMotorSpeed(0.5 / testDims.WheelCircumM())
	assert.Equal(t, picobldc.PerMotorVal[int16]{want, -want, want, -want}, motors.speeds)
}

func TestMecanumOdometry(t *testing.T) {
	motors := &fakeMotors{}
	m := NewMecanum(motors, testDims)
	require.NoError(t, m.Poll(0.02))

	// One full forward wheel turn; right side counts backwards.
	motors.counters = picobldc.PerMotorVal[int16]{256, -256, 256, -256}
	require.NoError(t, m.Poll(0.5))

	p := m.EstimatedPose()
	assert.InDelta(t, testDims.WheelCircumM(), p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)
	assert.InDelta(t, 0, p.Heading, 1e-9)
	assert.InDelta(t, testDims.WheelCircumM()/0.5, m.RobotRelativeVelocity().Vx, 1e-9)
}

func TestMecanumAlignToMovesOdometryFrame(t *testing.T) {
	motors := &fakeMotors{}
	m := NewMecanum(motors, testDims)
	require.NoError(t, m.Poll(0.02))

	m.AlignTo(pose.New(1, 1, math.Pi/2))
	motors.counters = picobldc.PerMotorVal[int16]{256, -256, 256, -256}
	require.NoError(t, m.Poll(0.5))

	p := m.EstimatedPose()
	assert.InDelta(t, 1, p.X, 1e-9)
	assert.InDelta(t, 1+testDims.WheelCircumM(), p.Y, 1e-9)
}
