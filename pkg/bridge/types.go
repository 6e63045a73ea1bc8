package bridge

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Command is a high-level SO3 setpoint: the desired force, orientation and
// angular velocity together with the gain terms the planner computed for
// this cycle. Commands are immutable once received; the bridge retains a
// copy as the re-issue cache.
type Command struct {
	// Force is the desired world-frame force in Newtons.
	Force r3.Vector

	// Orientation is the desired attitude as a unit quaternion.
	Orientation mgl64.Quat

	// AngularVelocity is the desired body angular velocity in rad/s.
	AngularVelocity r3.Vector

	// KR are the per-axis proportional attitude gains; only the yaw entry
	// KR[2] is consumed here.
	KR [3]float64

	// KOm are the per-axis angular-velocity gains used in CTBR mode.
	KOm [3]float64

	// EnableMotors gates the arming state machine.
	EnableMotors bool

	// AngleCorrections are additive roll/pitch trim offsets in degrees,
	// applied in attitude mode only.
	AngleCorrections [2]float64

	// Stamp is the command timestamp from the upstream planner.
	Stamp time.Time
}

// Odometry is one pose/twist sample from the external state estimate.
type Odometry struct {
	// Orientation is the current attitude as a unit quaternion.
	Orientation mgl64.Quat

	// AngularVelocity is the current body angular velocity in rad/s.
	AngularVelocity r3.Vector

	// Stamp is the sample timestamp.
	Stamp time.Time
}

// Setpoint is the low-level command sent to the vehicle. Roll and Pitch are
// angles in degrees in attitude mode and rates in degrees/second in CTBR
// mode; Thrust is a commander PWM value in [pwmMin, pwmMax]; YawRate is in
// degrees/second.
type Setpoint struct {
	Roll    float64 `json:"roll"`
	Pitch   float64 `json:"pitch"`
	Thrust  float64 `json:"thrust"`
	YawRate float64 `json:"yaw_rate"`
}
