// Package vision carries pose observations from the vision coprocessor to the
// control loop.
package vision

import (
	"fmt"

	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

// Observation is one robot pose solved from visible fiducial tags.
type Observation struct {
	Pose pose.Pose `json:"pose"`
	// TimestampSeconds is the capture time on the robot's clock.
	TimestampSeconds float64 `json:"timestamp"`
	// TagCount is the number of tags behind the solve; zero means no solve.
	TagCount int `json:"tag_count"`
	// TagArea is the mean tag area as a percentage of the image.
	TagArea float64 `json:"tag_area,omitempty"`
}

func (o Observation) Valid() bool {
	return o.TagCount > 0
}

func (o Observation) String() string {
	return fmt.Sprintf("%v@%.3fs tags=%d area=%.2f", o.Pose, o.TimestampSeconds, o.TagCount, o.TagArea)
}
