package modes

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

type Kind int

const (
	Idle Kind = iota
	ManualField
	ManualRobot
	ManualFacingPoint
	ManualAtFixedHeading
	AutoMoveToPose
	Stop
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "Idle"
	case ManualField:
		return "Manual (field)"
	case ManualRobot:
		return "Manual (robot)"
	case ManualFacingPoint:
		return "Manual facing point"
	case ManualAtFixedHeading:
		return "Manual at fixed heading"
	case AutoMoveToPose:
		return "Move to pose"
	case Stop:
		return "Stop"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Mode is one drive mode plus the data only that mode uses: Destination for
// AutoMoveToPose, FacingPoint for ManualFacingPoint and Duration for Stop.
type Mode struct {
	Kind        Kind
	Destination pose.Pose
	FacingPoint r2.Vec
	// Duration caps how long Stop stays active; zero holds until deactivated.
	Duration time.Duration
}

func (m Mode) Name() string {
	switch m.Kind {
	case AutoMoveToPose:
		return fmt.Sprintf("%v %v", m.Kind, m.Destination)
	case ManualFacingPoint:
		return fmt.Sprintf("%v (%.2f, %.2f)", m.Kind, m.FacingPoint.X, m.FacingPoint.Y)
	case Stop:
		if m.Duration > 0 {
			return fmt.Sprintf("%v for %v", m.Kind, m.Duration)
		}
	}
	return m.Kind.String()
}

func MoveTo(destination pose.Pose) Mode {
	return Mode{Kind: AutoMoveToPose, Destination: destination.Wrapped()}
}

func FacePoint(point r2.Vec) Mode {
	return Mode{Kind: ManualFacingPoint, FacingPoint: point}
}

func StopFor(d time.Duration) Mode {
	return Mode{Kind: Stop, Duration: d}
}

// isManual modes take their translation from the sticks.
func (m Mode) isManual() bool {
	switch m.Kind {
	case ManualField, ManualRobot, ManualFacingPoint, ManualAtFixedHeading:
		return true
	}
	return false
}

// usesTracker modes take some or all of their motion from the tracker.
func (m Mode) usesTracker() bool {
	switch m.Kind {
	case ManualFacingPoint, ManualAtFixedHeading, AutoMoveToPose:
		return true
	}
	return false
}
