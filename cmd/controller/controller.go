package main

import (
	"context"
	"fmt"
	"log"
	"maps"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/mrtidy/2025-frc-reefscape/pkg/chassis"
	"github.com/mrtidy/2025-frc-reefscape/pkg/config"
	"github.com/mrtidy/2025-frc-reefscape/pkg/drive"
	"github.com/mrtidy/2025-frc-reefscape/pkg/joystick"
	"github.com/mrtidy/2025-frc-reefscape/pkg/modes"
	"github.com/mrtidy/2025-frc-reefscape/pkg/picobldc"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
	"github.com/mrtidy/2025-frc-reefscape/pkg/poseestimator"
	"github.com/mrtidy/2025-frc-reefscape/pkg/tracker"
	"github.com/mrtidy/2025-frc-reefscape/pkg/tunable"
	"github.com/mrtidy/2025-frc-reefscape/pkg/vision"
)

func main() {
	fmt.Println("---- Drive base ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	cfgPath := os.Getenv("DRIVEBASE_CONFIG")
	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	cfg, err := config.Load(cfgPath)
	configured := err == nil
	if err != nil {
		fmt.Println("Failed to load config; motion disabled:", err)
		cfg = config.Default()
	} else if err := cfg.WriteInUse(config.InUsePath(cfgPath)); err != nil {
		fmt.Println(err)
	}

	// Initialise the hardware.
	var motors picobldc.Interface
	pico, err := picobldc.New("")
	if err != nil {
		fmt.Printf("Failed to open motor controller: %v.\n", err)
		if os.Getenv("IGNORE_MISSING_MOTORS") != "true" {
			cancel()
			return
		}
		fmt.Println("Using dummy motors")
		motors = picobldc.Dummy()
	} else {
		if err := pico.SetWatchdog(10 * cfg.TickPeriod); err != nil {
			fmt.Println("Failed to set motor watchdog:", err)
		}
		motors = pico
	}
	base := chassis.NewMecanum(motors, cfg.Dimensions)
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		_ = base.Brake()
		_ = motors.Close()
		time.Sleep(100 * time.Millisecond)
	}()

	var synth *drive.Synthesizer
	if configured {
		synth = drive.New(base, cfg.Limits())
	} else {
		synth = drive.NewUnconfigured(base)
	}
	estimator := poseestimator.New(cfg.Estimator, base, pose.Pose{})
	trk := tracker.New(cfg.Tracker())
	controller := modes.New(synth, trk, cfg.ModeOptions())

	// Feedback gains can be tuned live from the D-pad.
	var tunables tunable.Tunables
	transKp := tunables.Create("translation-kp", cfg.TranslationPID.Kp, 0.1)
	thetaKp := tunables.Create("theta-kp", cfg.ThetaPID.Kp, 0.1)
	feedback := cfg.Feedback
	applyFeedback := func() {
		t, r := cfg.TranslationPID, cfg.ThetaPID
		t.Kp, r.Kp = transKp.Get(), thetaKp.Get()
		trk.SetFeedback(feedback, t, r)
		fmt.Printf("Feedback %v: translation %+v theta %+v\n", feedback, t, r)
	}

	observations := vision.NewQueue(cfg.Vision.QueueSize)
	if cfg.Vision.WebsocketURL != "" {
		go vision.LoopReadingWebsocket(ctx, cfg.Vision.WebsocketURL, observations)
	}
	if cfg.Vision.SerialPort != "" {
		go vision.LoopReadingSerial(ctx, cfg.Vision.SerialPort, cfg.Vision.SerialBaud, observations)
	}

	// Wait for the joystick and kick off a background thread to read from it.
	joystickEvents := initJoystick(cancel, ctx)

	destinations := slices.Sorted(maps.Keys(cfg.Destinations))
	destinationIdx := -1

	switchMode := func(m modes.Mode) {
		if err := controller.Switch(m, estimator.CurrentPose()); err != nil {
			fmt.Println("Mode switch:", err)
		}
	}
	switchMode(modes.Mode{Kind: modes.ManualField})

	var sticks joystick.Sticks
	ticker := time.NewTicker(cfg.TickPeriod)
	defer ticker.Stop()
	poseLog := time.NewTicker(time.Second)
	defer poseLog.Stop()
	lastTick := time.Now()
	var lastErr error

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Context done, stopping active mode and shutting down")
			if err := controller.End(true); err != nil {
				fmt.Println(err)
			}
			return
		case event, ok := <-joystickEvents:
			if !ok {
				fmt.Println("Joystick events channel closed!")
				_ = controller.End(true)
				cancel()
				return
			}
			sticks = event.Sticks
			switch {
			case event.Pressed(joystick.ButtonCross):
				switchMode(modes.Mode{Kind: modes.ManualField})
			case event.Pressed(joystick.ButtonCircle):
				switchMode(modes.Mode{Kind: modes.ManualRobot})
			case event.Pressed(joystick.ButtonSquare):
				switchMode(modes.Mode{Kind: modes.ManualAtFixedHeading})
			case event.Pressed(joystick.ButtonTriangle):
				switchMode(modes.FacePoint(cfg.FacingPoint))
			case event.Pressed(joystick.ButtonPS):
				switchMode(modes.StopFor(cfg.StopDuration))
			case event.Pressed(joystick.ButtonShare):
				switchMode(modes.Mode{Kind: modes.Idle})
			case event.Pressed(joystick.ButtonOptions):
				if len(destinations) == 0 {
					fmt.Println("No destinations configured")
					continue
				}
				destinationIdx = (destinationIdx + 1) % len(destinations)
				name := destinations[destinationIdx]
				fmt.Println("Heading for", name)
				switchMode(modes.MoveTo(cfg.Destinations[name]))
			case event.Pressed(joystick.ButtonL1):
				tunables.SelectPrev()
			case event.Pressed(joystick.ButtonR1):
				tunables.SelectNext()
			case event.Pressed(joystick.ButtonRStick):
				feedback = !feedback
				applyFeedback()
			case event.Pressed(joystick.ButtonLStick):
				estimator.Reset(pose.Pose{})
				base.ResetPose(pose.Pose{})
			case !event.Initial && event.Type == joystick.EventTypeAxis && event.Number == joystick.AxisDPadY && event.Value != 0:
				if event.Value < 0 {
					tunables.Current().Add(1)
				} else {
					tunables.Current().Add(-1)
				}
				applyFeedback()
			}
		case now := <-ticker.C:
			dt := now.Sub(lastTick).Seconds()
			lastTick = now

			for _, o := range observations.Drain() {
				estimator.Correct(o)
			}
			if err := base.Poll(dt); err != nil {
				fmt.Println("Failed to read wheel encoders:", err)
			}
			estimator.Predict(dt)
			current := estimator.CurrentPose()
			base.AlignTo(current)

			err := controller.Tick(modes.Inputs{Sticks: sticks, Pose: current, Dt: dt})
			if err != nil && (lastErr == nil || err.Error() != lastErr.Error()) {
				fmt.Println("Drive:", err)
			}
			lastErr = err
		case <-poseLog.C:
			fmt.Printf("Pose: %v mode=%q vision dropped=%d\n",
				estimator.CurrentPose(), controller.Active().Name(), observations.Dropped())
		}
	}
}

func initJoystick(cancel context.CancelFunc, ctx context.Context) chan *joystick.Event {
	joystickEvents := make(chan *joystick.Event, 1)
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
