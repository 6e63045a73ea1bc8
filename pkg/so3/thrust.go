package so3

import "math"

// gramsPerNewton converts a force in Newtons to the gram-force unit the
// thrust calibration was fit in.
const gramsPerNewton = 1000 / 9.81

// ThrustCurve is the per-vehicle square-root thrust calibration
// pwm = (c1 + c2*sqrt(c3 + grams)) * pwmMax. The constants come from a
// bench fit and are validated at configuration time (c3 must be
// non-negative).
type ThrustCurve struct {
	C1, C2, C3 float64
	PWMMax     float64
}

// PWM maps a collective force in Newtons to a commander thrust value.
// Negative commanded force maps to the zero-force floor rather than a
// fault. The result is unclamped; the caller applies the [pwmMin, pwmMax]
// bound because it shares that clamp with the rate-mode path.
func (c ThrustCurve) PWM(forceNewtons float64) float64 {
	grams := math.Max(forceNewtons, 0) * gramsPerNewton

	arg := c.C3 + grams
	if arg < 0 {
		arg = 0
	}

	return (c.C1 + c.C2*math.Sqrt(arg)) * c.PWMMax
}
