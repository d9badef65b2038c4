package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrtidy/2025-frc-reefscape/pkg/config"
	"github.com/mrtidy/2025-frc-reefscape/pkg/drive"
	"github.com/mrtidy/2025-frc-reefscape/pkg/joystick"
)

func main() {
	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	// Wait for the joystick and kick off a background thread to read from it.
	joystickEvents := initJoystick(cancel, ctx)

	// Show what the manual modes would do with the sticks.
	cfg := config.Default()
	if path := os.Getenv("DRIVEBASE_CONFIG"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			fmt.Println(err)
			cfg = config.Default()
		}
	}
	shaping := cfg.ModeOptions().Shaping
	for je := range joystickEvents {
		fmt.Printf("Event from joystick: %s initial=%v\n", je, je.Initial)
		if !je.Changed {
			continue
		}
		sticks := je.Sticks
		shaped := sticks.Shaped(shaping)
		fmt.Printf("L=(%+.2f, %+.2f) R=(%+.2f, %+.2f) -> %v\n",
			sticks.LeftX, sticks.LeftY, sticks.RightX, sticks.RightY,
			drive.ManualSpeeds(shaped, cfg.Limits()))
	}
}

func initJoystick(cancel context.CancelFunc, ctx context.Context) chan *joystick.Event {
	joystickEvents := make(chan *joystick.Event)
	jDev := os.Getenv("JOYSTICK_DEVICE")
	if jDev == "" {
		jDev = "/dev/input/js0"
	}
	j, err := joystick.WaitForDevice(ctx, jDev)
	if err != nil {
		close(joystickEvents)
		return joystickEvents
	}
	go func() {
		defer cancel()
		err := j.LoopReadingEvents(ctx, joystickEvents)
		fmt.Printf("Joystick failed: %v\n", err)
	}()
	return joystickEvents
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
