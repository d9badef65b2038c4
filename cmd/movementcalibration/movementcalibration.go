package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/angle"
	"github.com/mrtidy/2025-frc-reefscape/pkg/chassis"
	"github.com/mrtidy/2025-frc-reefscape/pkg/config"
	"github.com/mrtidy/2025-frc-reefscape/pkg/picobldc"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

// One calibration run: drive in a robot relative direction for a fixed time,
// then compare what odometry thinks happened with what was measured.
type measurement struct {
	directionDeg float64
	odometry     r2.Vec
	measured     r2.Vec
}

var scanner *bufio.Scanner

func init() {
	scanner = bufio.NewScanner(os.Stdin)
}

func readFloat(prompt string) float64 {
	for {
		fmt.Println(prompt)
		if !scanner.Scan() {
			panic(scanner.Err())
		}
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			fmt.Printf("error: %v, please try again:\n", err)
			continue
		}
		return v
	}
}

func main() {
	fmt.Println("---- Movement Calibration ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Default()
	if path := os.Getenv("DRIVEBASE_CONFIG"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			panic(err)
		}
	}

	pico, err := picobldc.New("")
	if err != nil {
		panic(err)
	}
	base := chassis.NewMecanum(pico, cfg.Dimensions)
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		_ = base.Brake()
		_ = pico.Close()
		time.Sleep(100 * time.Millisecond)
	}()

	const (
		speed    = 0.3 // m/s; just need a slow walking speed here.
		duration = 4 * time.Second
		tick     = 20 * time.Millisecond
	)

	var table []measurement
	for deg := 0.0; deg < 360; deg += 45 {
		fmt.Printf("Measurement %v/8: direction %v°. Press enter when ready.\n", len(table)+1, deg)
		scanner.Scan()

		base.ResetPose(pose.Pose{})
		dir := r2.Rotate(r2.Vec{X: speed}, angle.Radians(deg), r2.Vec{})
		if err := drive(ctx, base, chassis.Speeds{Vx: dir.X, Vy: dir.Y}, duration, tick); err != nil {
			fmt.Println("Drive failed:", err)
			return
		}

		// Let the wheels settle before the last encoder read.
		time.Sleep(500 * time.Millisecond)
		if err := base.Poll(0.5); err != nil {
			fmt.Println("Encoder read failed:", err)
		}

		m := measurement{directionDeg: deg, odometry: base.EstimatedPose().Translation()}
		m.measured.X = readFloat("Enter straight ahead displacement (mm):") / 1000
		m.measured.Y = readFloat("Enter sideways (left +tive) displacement (mm):") / 1000
		table = append(table, m)
		printRow(m)
	}

	fmt.Println("")
	fmt.Println("Whole table:")
	var odom, measured float64
	for _, m := range table {
		printRow(m)
		odom += r2.Norm(m.odometry)
		measured += r2.Norm(m.measured)
	}
	if odom > 0 {
		fmt.Printf("Suggested wheel_diameter_m: %.4f\n", cfg.Dimensions.WheelDiameterM*measured/odom)
	}
}

func drive(ctx context.Context, base *chassis.Mecanum, s chassis.Speeds, d, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	deadline := time.After(d)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return base.Brake()
		case <-ticker.C:
			if err := base.DriveRobotRelative(s, r2.Vec{}, false); err != nil {
				return err
			}
			if err := base.Poll(tick.Seconds()); err != nil {
				return err
			}
		}
	}
}

func printRow(m measurement) {
	fmt.Printf("%5.0f°: odometry (%.3f, %.3f) m, measured (%.3f, %.3f) m\n",
		m.directionDeg, m.odometry.X, m.odometry.Y, m.measured.X, m.measured.Y)
}
