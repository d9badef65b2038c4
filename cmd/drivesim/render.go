package main

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mrtidy/2025-frc-reefscape/pkg/pose"
)

const (
	pathImageSize = 800
	pathMargin    = 0.5 // metres around the travelled area
)

// DrawPath renders the true and estimated paths from above, field +x to the
// right and +y up.
func DrawPath(res Result, target pose.Pose, file string) error {
	if len(res.Samples) == 0 {
		return errors.New("nothing to draw")
	}
	minX, minY := target.X, target.Y
	maxX, maxY := target.X, target.Y
	for _, s := range res.Samples {
		for _, p := range []pose.Pose{s.True, s.Estimate} {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	minX -= pathMargin
	minY -= pathMargin
	span := math.Max(maxX-minX, maxY-minY) + pathMargin
	scale := pathImageSize / span
	toPx := func(p pose.Pose) (float64, float64) {
		return (p.X - minX) * scale, pathImageSize - (p.Y-minY)*scale
	}

	dc := gg.NewContext(pathImageSize, pathImageSize)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// One metre grid.
	dc.SetRGBA(0, 0, 0, 0.15)
	dc.SetLineWidth(1)
	for x := math.Ceil(minX); x < minX+span; x++ {
		px, _ := toPx(pose.Pose{X: x})
		dc.DrawLine(px, 0, px, pathImageSize)
	}
	for y := math.Ceil(minY); y < minY+span; y++ {
		_, py := toPx(pose.Pose{Y: y})
		dc.DrawLine(0, py, pathImageSize, py)
	}
	dc.Stroke()

	drawTrack := func(get func(Sample) pose.Pose) {
		for i, s := range res.Samples {
			x, y := toPx(get(s))
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}
	dc.SetLineWidth(3)
	dc.SetRGB(0.1, 0.3, 0.9)
	drawTrack(func(s Sample) pose.Pose { return s.True })
	dc.SetLineWidth(1.5)
	dc.SetRGB(0.9, 0.2, 0.1)
	drawTrack(func(s Sample) pose.Pose { return s.Estimate })

	drawRobot(dc, toPx, res.Samples[0].True, color.RGBA{R: 120, G: 120, B: 120, A: 255})
	drawRobot(dc, toPx, target, color.RGBA{G: 160, A: 255})
	drawRobot(dc, toPx, res.FinalTrue, color.RGBA{R: 25, G: 75, B: 230, A: 255})

	return errors.Wrap(dc.SavePNG(file), "failed to save path image")
}

// drawRobot marks a pose as a triangle pointing along its heading.
func drawRobot(dc *gg.Context, toPx func(pose.Pose) (float64, float64), p pose.Pose, c color.Color) {
	x, y := toPx(p)
	dc.Push()
	dc.SetColor(c)
	// Screen y points down, so headings turn the other way.
	dc.RotateAbout(-p.Heading, x, y)
	dc.DrawRegularPolygon(3, x, y, 12, 0)
	dc.Fill()
	dc.Pop()
}

// PlotSpeeds charts the commanded translation speed and angular velocity
// against time.
func PlotSpeeds(res Result, file string) error {
	p := plot.New()
	p.Title.Text = "Commanded speed"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "m/s, rad/s"

	speed := make(plotter.XYs, 0, len(res.Samples))
	omega := make(plotter.XYs, 0, len(res.Samples))
	for _, s := range res.Samples {
		speed = append(speed, plotter.XY{X: s.T, Y: math.Hypot(s.Command.Vx, s.Command.Vy)})
		omega = append(omega, plotter.XY{X: s.T, Y: s.Command.Omega})
	}

	speedLine, err := plotter.NewLine(speed)
	if err != nil {
		return errors.Wrap(err, "failed to create speed line")
	}
	speedLine.Width = vg.Points(1)
	speedLine.Color = color.RGBA{B: 255, A: 255}

	omegaLine, err := plotter.NewLine(omega)
	if err != nil {
		return errors.Wrap(err, "failed to create omega line")
	}
	omegaLine.Width = vg.Points(1)
	omegaLine.Color = color.RGBA{R: 255, A: 255}

	p.Add(plotter.NewGrid(), speedLine, omegaLine)
	p.Legend.Add("speed", speedLine)
	p.Legend.Add("omega", omegaLine)

	return errors.Wrap(p.Save(10*vg.Inch, 4*vg.Inch, file), "failed to save speed chart")
}
