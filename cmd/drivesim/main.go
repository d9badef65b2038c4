package main

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/mrtidy/2025-frc-reefscape/pkg/config"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

var CLI struct {
	Config string    `help:"Drive base config file; built in defaults when empty." type:"existingfile"`
	From   []float64 `help:"Start pose as x,y,heading (metres, radians)." default:"0,0,0"`
	To     []float64 `help:"Destination pose as x,y,heading." default:"2,0,0"`

	MaxTime        time.Duration `help:"Give up after this much simulated time." default:"20s"`
	OdometryScale  float64       `help:"Scale applied to wheel odometry to model slip." default:"1.0"`
	VisionPeriod   time.Duration `help:"Time between vision observations; 0 disables vision." default:"100ms"`
	VisionNoise    float64       `help:"Standard deviation of vision position noise (m)." default:"0.02"`
	VisionTagCount int           `help:"Tags behind each vision observation." default:"2"`
	Seed           int64         `help:"Noise seed." default:"1"`

	PathImage  string `help:"Write the field path to this PNG." default:"drivesim-path.png"`
	SpeedChart string `help:"Write the speed profile to this PNG." default:"drivesim-speeds.png"`
}

func poseArg(name string, v []float64) (pose.Pose, error) {
	if len(v) != 3 {
		return pose.Pose{}, errors.Errorf("--%s needs x,y,heading, got %v", name, v)
	}
	return pose.New(v[0], v[1], v[2]), nil
}

func main() {
	fmt.Println("---- drivesim ----")
	ctx := kong.Parse(&CLI, kong.Description("Simulate a move-to-pose on an ideal chassis."))

	cfg := config.Default()
	if CLI.Config != "" {
		var err error
		cfg, err = config.Load(CLI.Config)
		ctx.FatalIfErrorf(err)
	}
	from, err := poseArg("from", CLI.From)
	ctx.FatalIfErrorf(err)
	to, err := poseArg("to", CLI.To)
	ctx.FatalIfErrorf(err)

	result := Run(Scenario{
		Config:         cfg,
		From:           from,
		To:             to,
		MaxTime:        CLI.MaxTime,
		OdometryScale:  CLI.OdometryScale,
		VisionPeriod:   CLI.VisionPeriod,
		VisionNoise:    CLI.VisionNoise,
		VisionTagCount: CLI.VisionTagCount,
		Seed:           CLI.Seed,
	})
	fmt.Printf("Arrived=%v after %v; final true pose %v, estimate %v, peak speed %.3f m/s\n",
		result.Arrived, result.Elapsed, result.FinalTrue, result.FinalEstimate, result.PeakSpeed)

	if CLI.PathImage != "" {
		ctx.FatalIfErrorf(DrawPath(result, to, CLI.PathImage))
		fmt.Println("Wrote", CLI.PathImage)
	}
	if CLI.SpeedChart != "" {
		ctx.FatalIfErrorf(PlotSpeeds(result, CLI.SpeedChart))
		fmt.Println("Wrote", CLI.SpeedChart)
	}
	if !result.Arrived {
		ctx.Exit(1)
	}
}
