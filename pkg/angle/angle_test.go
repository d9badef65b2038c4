package angle

import (
	"math"
	"testing"
)

func TestWrap(t *testing.T) {
	expectWrap(t, 0, 0)
	expectWrap(t, math.Pi, math.Pi)
	expectWrap(t, -math.Pi, math.Pi)
	expectWrap(t, 3*math.Pi/2, -math.Pi/2)
	expectWrap(t, -3*math.Pi/2, math.Pi/2)
	expectWrap(t, 4*math.Pi+0.1, 0.1)
	expectWrap(t, -4*math.Pi-0.1, -0.1)
}

func expectWrap(t *testing.T, in, expected float64) {
	t.Helper()
	out := Wrap(in)
	if out <= -math.Pi || out > math.Pi {
		t.Errorf("Wrap(%f) = %f is out of range", in, out)
	}
	if math.Abs(out-expected) > 1e-9 {
		t.Errorf("Wrap(%f) = %f, expected %f", in, out, expected)
	}
}

func TestDiffTakesShortestPath(t *testing.T) {
	d := Diff(math.Pi-0.01, -math.Pi+0.01)
	if math.Abs(math.Abs(d)-0.02) > 1e-9 {
		t.Fatalf("Expected shortest-path error of magnitude 0.02 across the wrap, got %f", d)
	}
	if d >= 0 {
		t.Fatalf("Expected clockwise (negative) rotation across the wrap, got %f", d)
	}

	d = Diff(-math.Pi+0.01, math.Pi-0.01)
	if math.Abs(d-0.02) > 1e-9 {
		t.Fatalf("Expected +0.02 across the wrap, got %f", d)
	}
}

func TestDegreesRoundTrip(t *testing.T) {
	if d := Degrees(-math.Pi / 2); math.Abs(d+90) > 1e-9 {
		t.Errorf("Expected -90°, got %f", d)
	}
	if r := Radians(Degrees(2.5)); math.Abs(r-2.5) > 1e-12 {
		t.Errorf("Round trip changed the angle: %f", r)
	}
	if w := Wrap(Radians(190)); math.Abs(Degrees(w)+170) > 1e-9 {
		t.Errorf("190° should wrap to -170°, got %f", Degrees(w))
	}
}
