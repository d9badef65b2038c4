// Package config loads the drive base's tunables from YAML.
package config

import (
	"fmt"
	"io/ioutil"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
	yaml "gopkg.in/yaml.v2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/chassis"
	"github.com/mrtidy/2025-frc-reefscape/pkg/drive"
	"github.com/mrtidy/2025-frc-reefscape/pkg/joystick"
	"github.com/mrtidy/2025-frc-reefscape/pkg/modes"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pid"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
	"github.com/mrtidy/2025-frc-reefscape/pkg/poseestimator"
	"github.com/mrtidy/2025-frc-reefscape/pkg/profile"
	"github.com/mrtidy/2025-frc-reefscape/pkg/tracker"
)

const (
	DefaultPath = "/cfg/drivebase.yaml"
	InUseSuffix = "-in-use.yaml"
)

var ErrInvalid = errors.New("invalid drive base configuration")

type Config struct {
	// MaxSpeed caps every translation command, in m/s.
	MaxSpeed float64 `yaml:"max_speed"`
	// MaxAngularSpeed caps every rotation command, in rad/s.
	MaxAngularSpeed float64 `yaml:"max_angular_speed"`

	Translation profile.Constraints `yaml:"translation"`
	Rotation    profile.Constraints `yaml:"rotation"`

	TranslationTolerance float64 `yaml:"translation_tolerance"`
	// The heading counts as reached within π/ThetaToleranceDivisor.
	ThetaToleranceDivisor float64 `yaml:"theta_tolerance_divisor"`

	Feedback       bool      `yaml:"feedback"`
	TranslationPID pid.Gains `yaml:"translation_pid"`
	ThetaPID       pid.Gains `yaml:"theta_pid"`

	Manual Manual `yaml:"manual"`

	TickPeriod   time.Duration `yaml:"tick_period"`
	StopDuration time.Duration `yaml:"stop_duration"`

	Estimator  poseestimator.Config `yaml:"estimator"`
	Vision     Vision               `yaml:"vision"`
	Dimensions chassis.Dimensions   `yaml:"dimensions"`

	FacingPoint  r2.Vec               `yaml:"facing_point"`
	Destinations map[string]pose.Pose `yaml:"destinations"`
}

type Manual struct {
	OpenLoop bool    `yaml:"open_loop"`
	Deadband float64 `yaml:"deadband"`
	Expo     float64 `yaml:"expo"`
}

type Vision struct {
	WebsocketURL string `yaml:"websocket_url"`
	SerialPort   string `yaml:"serial_port"`
	SerialBaud   int    `yaml:"serial_baud"`
	QueueSize    int    `yaml:"queue_size"`
}

func Default() Config {
	return Config{
		MaxSpeed:        3,
		MaxAngularSpeed: 2 * math.Pi,
		Translation: profile.Constraints{
			MaxVelocity:     3,
			MaxAcceleration: 0.75,
		},
		Rotation: profile.Constraints{
			MaxVelocity:     math.Pi,
			MaxAcceleration: 2 * math.Pi,
		},
		TranslationTolerance:  0.02,
		ThetaToleranceDivisor: 32,
		TranslationPID:        pid.Gains{Kp: 1, MaxOutput: 0.5},
		ThetaPID:              pid.Gains{Kp: 2, MaxOutput: 1},
		Manual: Manual{
			Deadband: joystick.DefaultShaping.Deadband,
			Expo:     joystick.DefaultShaping.Expo,
		},
		TickPeriod:   20 * time.Millisecond,
		StopDuration: 2 * time.Second,
		Estimator:    poseestimator.DefaultConfig,
		Vision: Vision{
			SerialBaud: 115200,
			QueueSize:  16,
		},
		Dimensions:   chassis.DefaultDimensions,
		Destinations: map[string]pose.Pose{},
	}
}

// Load reads the file at path over the defaults.  A missing, malformed or
// invalid file is an error; callers should not drive on the defaults alone.
func Load(path string) (Config, error) {
	c := Default()
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "failed to read drive base config")
	}
	if err := Parse(data, &c); err != nil {
		return c, errors.Wrapf(err, "failed to load %s", path)
	}
	return c, nil
}

// Parse decodes data over c and validates the result.  Unknown keys are
// rejected.
func Parse(data []byte, c *Config) error {
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return errors.Wrapf(ErrInvalid, "%v", err)
	}
	return c.Validate()
}

// Validate checks that every constraint the controller relies on is set.
func (c Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrInvalid, format, args...)
	}
	if !(c.MaxSpeed > 0) {
		return invalid("max_speed must be positive, got %v", c.MaxSpeed)
	}
	if !(c.MaxAngularSpeed > 0) {
		return invalid("max_angular_speed must be positive, got %v", c.MaxAngularSpeed)
	}
	if err := c.Translation.Validate(); err != nil {
		return invalid("translation: %v", err)
	}
	if err := c.Rotation.Validate(); err != nil {
		return invalid("rotation: %v", err)
	}
	if !(c.TranslationTolerance > 0) {
		return invalid("translation_tolerance must be positive, got %v", c.TranslationTolerance)
	}
	if !(c.ThetaToleranceDivisor > 0) {
		return invalid("theta_tolerance_divisor must be positive, got %v", c.ThetaToleranceDivisor)
	}
	if c.Manual.Deadband < 0 || c.Manual.Deadband >= 1 {
		return invalid("manual deadband must be in [0, 1), got %v", c.Manual.Deadband)
	}
	if c.TickPeriod <= 0 {
		return invalid("tick_period must be positive, got %v", c.TickPeriod)
	}
	if c.StopDuration < 0 {
		return invalid("stop_duration must not be negative, got %v", c.StopDuration)
	}
	e := c.Estimator
	for name, v := range map[string]float64{
		"odometry_std_dev_xy":      e.OdometryStdDevXY,
		"odometry_std_dev_heading": e.OdometryStdDevHeading,
		"vision_std_dev_xy":        e.VisionStdDevXY,
		"vision_std_dev_heading":   e.VisionStdDevHeading,
		"initial_std_dev":          e.InitialStdDev,
	} {
		if !(v > 0) {
			return invalid("estimator %s must be positive, got %v", name, v)
		}
	}
	if c.Dimensions.WheelDiameterM <= 0 || c.Dimensions.MaxWheelRPS <= 0 {
		return invalid("dimensions need a wheel diameter and max wheel speed")
	}
	return nil
}

// RotationTolerance is the heading error that counts as arrived.
func (c Config) RotationTolerance() float64 {
	return math.Pi / c.ThetaToleranceDivisor
}

func (c Config) Tracker() tracker.Config {
	return tracker.Config{
		Translation: c.Translation,
		Rotation:    c.Rotation,
		Tolerance: tracker.Tolerance{
			TranslationM: c.TranslationTolerance,
			RotationRad:  c.RotationTolerance(),
		},
		Feedback:            c.Feedback,
		TranslationFeedback: c.TranslationPID,
		RotationFeedback:    c.ThetaPID,
	}
}

func (c Config) Limits() drive.Limits {
	return drive.Limits{MaxSpeed: c.MaxSpeed, MaxOmega: c.MaxAngularSpeed}
}

func (c Config) ModeOptions() modes.Options {
	return modes.Options{
		ManualOpenLoop: c.Manual.OpenLoop,
		Shaping:        joystick.Shaping{Deadband: c.Manual.Deadband, Expo: c.Manual.Expo},
	}
}

// InUsePath is where the config actually in use is written back, next to
// the file it was loaded from.
func InUsePath(path string) string {
	return strings.TrimSuffix(path, ".yaml") + InUseSuffix
}

// WriteInUse records the config the robot is actually running with.
func (c Config) WriteInUse(path string) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	fmt.Printf("Using config:\n%s\n", data)
	return errors.Wrap(ioutil.WriteFile(path, data, 0666), "failed to write in-use config")
}
