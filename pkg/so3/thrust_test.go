package so3

import (
	"math"
	"testing"
)

func TestThrustCurve_ZeroForceFloor(t *testing.T) {
	c := ThrustCurve{C1: 0.1, C2: 0.02, C3: 4, PWMMax: 60000}
	floor := (0.1 + 0.02*math.Sqrt(4)) * 60000

	for _, f := range []float64{0, -0.001, -10, -1e6} {
		if got := c.PWM(f); !floatEquals(got, floor) {
			t.Errorf("PWM(%v): got %v, want floor %v", f, got, floor)
		}
	}
}

func TestThrustCurve_KnownValue(t *testing.T) {
	c := ThrustCurve{C1: 0, C2: 0.02, C3: 0, PWMMax: 60000}

	// 9.81 N is exactly 1000 grams.
	got := c.PWM(9.81)
	want := 0.02 * math.Sqrt(1000) * 60000
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("PWM(9.81): got %v, want %v", got, want)
	}
}

func TestThrustCurve_Monotonic(t *testing.T) {
	c := ThrustCurve{C1: 0.05, C2: 0.01, C3: 1, PWMMax: 60000}

	prev := c.PWM(0)
	for f := 0.5; f <= 20; f += 0.5 {
		got := c.PWM(f)
		if got <= prev {
			t.Fatalf("curve not increasing at %v N: %v then %v", f, prev, got)
		}
		prev = got
	}
}

func TestThrustCurve_SqrtArgumentGuarded(t *testing.T) {
	// A miscalibrated negative c3 must not produce NaN.
	c := ThrustCurve{C1: 0.1, C2: 0.02, C3: -5, PWMMax: 60000}
	if got := c.PWM(0); math.IsNaN(got) {
		t.Error("PWM returned NaN for negative sqrt argument")
	}
}
