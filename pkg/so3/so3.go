// Package so3 converts SO3 attitude/thrust setpoints into the roll, pitch,
// thrust and yaw-rate quantities the Crazyflie commander understands.
//
// Everything in this package is pure: all inputs are explicit and no state
// is kept between calls. Orientations are unit quaternions; passing a
// non-unit quaternion is a caller error and the results are undefined.
package so3

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

const degPerRad = 180 / math.Pi

// Yaw extracts the yaw angle of q via atan2(R[1][0], R[0][0]) of its
// rotation matrix.
func Yaw(q mgl64.Quat) float64 {
	m := q.Mat4()
	return math.Atan2(m.At(1, 0), m.At(0, 0))
}

// WrapAngle normalizes an angle difference into (-pi, pi]. The input must
// come from the difference of two angles each in (-pi, pi], so a single
// correction suffices.
func WrapAngle(e float64) float64 {
	if e > math.Pi {
		e -= 2 * math.Pi
	} else if e < -math.Pi {
		e += 2 * math.Pi
	}
	return e
}

// Attitude computes the roll and pitch angle setpoints (degrees) and the
// wrapped yaw error (radians) for a desired orientation against the current
// one. The desired rotation is first re-expressed in the current yaw frame
// by rotating it about the vertical axis, so the extracted tilt angles are
// yaw-independent.
func Attitude(qDes, qCur mgl64.Quat) (rollDeg, pitchDeg, yawErr float64) {
	yawCur := Yaw(qCur)
	yawDes := Yaw(qDes)

	rDes := qDes.Mul(mgl64.QuatRotate(yawCur-yawDes, mgl64.Vec3{0, 0, 1})).Mat4()
	pitchDeg = -math.Asin(rDes.At(2, 0)) * degPerRad
	rollDeg = math.Atan2(rDes.At(2, 1), rDes.At(2, 2)) * degPerRad

	yawErr = WrapAngle(yawDes - yawCur)
	return rollDeg, pitchDeg, yawErr
}

// YawRate computes the yaw-rate setpoint in degrees/second from the wrapped
// yaw error, the proportional yaw gain and the commanded yaw angular
// velocity.
func YawRate(kpYaw, yawErr, yawVelDes float64) float64 {
	return (-kpYaw*yawErr - yawVelDes) * degPerRad
}

// BodyRates computes the CTBR roll and pitch rate setpoints in
// degrees/second. The proportional term tracks the angular-velocity error
// per axis; the derivative term damps the estimated angular acceleration.
func BodyRates(kOm [3]float64, wDes, wCur, wDot r3.Vector, dGain float64) (rollRate, pitchRate float64) {
	rollP := kOm[0] * (wDes.X - wCur.X)
	pitchP := kOm[1] * (wDes.Y - wCur.Y)

	rollD := dGain * wDot.X
	pitchD := dGain * wDot.Y

	rollRate = (rollP - rollD) * degPerRad
	pitchRate = (pitchP - pitchD) * degPerRad
	return rollRate, pitchRate
}

// CollectiveThrust projects the desired world-frame force onto the current
// body z axis, giving the collective thrust in Newtons. Negative
// projections are not clamped here; ThrustCurve.PWM handles that.
func CollectiveThrust(force r3.Vector, qCur mgl64.Quat) float64 {
	m := qCur.Mat4()
	return force.X*m.At(0, 2) + force.Y*m.At(1, 2) + force.Z*m.At(2, 2)
}
