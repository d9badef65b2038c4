package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrtidy/2025-frc-reefscape/pkg/config"
	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

func TestRunArrives(t *testing.T) {
	cfg := config.Default()
	res := Run(Scenario{
		Config:  cfg,
		To:      pose.New(2, 0, 0),
		MaxTime: 20 * time.Second,
	})

	require.True(t, res.Arrived)
	assert.Less(t, res.Elapsed, 5*time.Second)
	assert.InDelta(t, 2, res.FinalTrue.X, cfg.TranslationTolerance)
	assert.LessOrEqual(t, res.PeakSpeed, cfg.Translation.MaxVelocity)
}

func TestRunWithSlipAndVision(t *testing.T) {
	cfg := config.Default()
	res := Run(Scenario{
		Config:         cfg,
		From:           pose.New(0, 0, 0),
		To:             pose.New(1.5, 1, 1),
		MaxTime:        20 * time.Second,
		OdometryScale:  1.05,
		VisionPeriod:   100 * time.Millisecond,
		VisionNoise:    0.005,
		VisionTagCount: 3,
		Seed:           7,
	})

	require.True(t, res.Arrived)
	// Vision keeps the slipping odometry honest.
	assert.InDelta(t, 1.5, res.FinalTrue.X, 0.1)
	assert.InDelta(t, 1, res.FinalTrue.Y, 0.1)

	dir := t.TempDir()
	pathFile := filepath.Join(dir, "path.png")
	speedFile := filepath.Join(dir, "speeds.png")
	require.NoError(t, DrawPath(res, pose.New(1.5, 1, 1), pathFile))
	require.NoError(t, PlotSpeeds(res, speedFile))
	for _, f := range []string{pathFile, speedFile} {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestPoseArg(t *testing.T) {
	p, err := poseArg("to", []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, pose.New(1, 2, 3), p)

	_, err = poseArg("to", []float64{1, 2})
	assert.Error(t, err)
}
