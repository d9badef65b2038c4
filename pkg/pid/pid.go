package pid

import (
	"golang.org/x/exp/constraints"
)

type Gains struct {
	Kp          float64 `yaml:"kp"`
	Ki          float64 `yaml:"ki"`
	Kd          float64 `yaml:"kd"`
	MaxIntegral float64 `yaml:"max_integral"`
	MaxD        float64 `yaml:"max_d"`
	MaxOutput   float64 `yaml:"max_output"`
}

func (g Gains) IsZero() bool {
	return g.Kp == 0 && g.Ki == 0 && g.Kd == 0
}

// Controller is the same error/derivative/integral loop the heading holder
// ran, pulled out so it can correct any axis.  Limits of zero mean unlimited.
type Controller struct {
	Gains Gains

	lastError   float64
	integral    float64
	initialised bool
}

func New(g Gains) *Controller {
	return &Controller{Gains: g}
}

func (c *Controller) Reset() {
	c.lastError = 0
	c.integral = 0
	c.initialised = false
}

// Update returns the correction for the given error after dt seconds.
func (c *Controller) Update(err, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	g := c.Gains

	var dErr float64
	if c.initialised {
		dErr = (err - c.lastError) / dt
	}
	dErr = limit(dErr, g.MaxD)

	c.integral += err * dt
	c.integral = limit(c.integral, g.MaxIntegral)

	out := g.Kp*err + g.Ki*c.integral + g.Kd*dErr
	out = limit(out, g.MaxOutput)

	c.lastError = err
	c.initialised = true
	return out
}

func (c *Controller) Integral() float64 {
	return c.integral
}

func limit(v, max float64) float64 {
	if max <= 0 {
		return v
	}
	return Clamp(v, -max, max)
}

func Clamp[T constraints.Float | constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
