package main

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/chassis"
	"github.com/mrtidy/2025-frc-reefscape/pkg/picobldc"
)

// Drives the base slowly forward with the robot on blocks and prints what the
// wheel encoders and odometry make of it.
func main() {
	fmt.Println("Pico-BLDC test program")
	pico, err := picobldc.New("")
	if err != nil {
		panic(err)
	}
	defer pico.Close()
	fmt.Println("Created PicoBLDC object. Enabling watchdog...")

	if err := pico.SetWatchdog(time.Second); err != nil {
		panic(err)
	}
	fmt.Println("Watchdog enabled.")

	base := chassis.NewMecanum(pico, chassis.DefaultDimensions)
	defer base.Brake()

	const period = 500 * time.Millisecond
	for {
		if err := base.DriveRobotRelative(chassis.Speeds{Vx: 0.2}, r2.Vec{}, false); err != nil {
			fmt.Println("Drive failed:", err)
		}
		if err := base.Poll(period.Seconds()); err != nil {
			fmt.Println("Encoder read failed:", err)
		}
		battV, _ := pico.BattVolts()
		status, _ := pico.Status()
		fmt.Printf("%.2fV Status=%x odometry=%v velocity=%v\n", battV, status, base.EstimatedPose(), base.RobotRelativeVelocity())
		time.Sleep(period)
	}
}
