// Package config provides configuration for the crazybridge binaries.
package config

import (
	"fmt"
	"math"
	"os"
	"time"
)

// Defaults for optional parameters. The thrust PWM bounds match the
// Crazyflie commander range; the minimum is needed to overcome stiction.
const (
	DefaultCmdTimeout   = 100 * time.Millisecond
	DefaultThrustPWMMin = 10000
	DefaultThrustPWMMax = 60000
	DefaultRebootSettle = 500 * time.Millisecond
	DefaultServerURL    = "ws://127.0.0.1:8888/link"
	DefaultStatusPort   = "8090"
)

// Config holds all bridge parameters. Required fields have no usable
// zero value and must be set explicitly; Validate enforces this.
type Config struct {
	// MavName identifies the vehicle on the crazyflie-server link.
	MavName string

	// KpYawRate is the proportional gain on yaw error for the yaw-rate
	// setpoint.
	KpYawRate float64

	// C1, C2, C3 are the per-vehicle thrust calibration constants for
	// pwm = (c1 + c2*sqrt(c3 + grams)) * pwmMax.
	C1, C2, C3 float64

	// AngAccDGain is the derivative gain applied to the estimated angular
	// acceleration in CTBR mode.
	AngAccDGain float64

	// CmdTimeout is how stale the last SO3 command may be before odometry
	// samples trigger a re-issue.
	CmdTimeout time.Duration

	// IsBrushless enables the arm/disarm handshake and reboot-on-disarm.
	IsBrushless bool

	// SendCTBRCmds selects body-rate setpoints instead of attitude angles.
	SendCTBRCmds bool

	ThrustPWMMin float64
	ThrustPWMMax float64

	// RebootSettle is the pause between the power-down and power-up steps
	// of the reboot sequence.
	RebootSettle time.Duration

	// ServerURL is the crazyflie-server websocket endpoint.
	ServerURL string

	// StatusPort is the port for the HTTP status server. Empty disables it.
	StatusPort string

	LogLevel string
}

// New returns a Config with defaults filled in and required fields unset.
func New() Config {
	return Config{
		KpYawRate:    math.NaN(),
		C1:           math.NaN(),
		C2:           math.NaN(),
		C3:           math.NaN(),
		AngAccDGain:  math.NaN(),
		CmdTimeout:   DefaultCmdTimeout,
		ThrustPWMMin: DefaultThrustPWMMin,
		ThrustPWMMax: DefaultThrustPWMMax,
		RebootSettle: DefaultRebootSettle,
		ServerURL:    DefaultServerURL,
		StatusPort:   DefaultStatusPort,
		LogLevel:     "info",
	}
}

// Validate checks that every required parameter is set and consistent.
// The bridge must not start processing commands if this fails.
func (c Config) Validate() error {
	if c.MavName == "" {
		return fmt.Errorf("mav_name is required")
	}
	if math.IsNaN(c.KpYawRate) {
		return fmt.Errorf("kp_yaw_rate is required")
	}
	if math.IsNaN(c.C1) || math.IsNaN(c.C2) || math.IsNaN(c.C3) {
		return fmt.Errorf("thrust calibration constants c1, c2, c3 are required")
	}
	if c.C3 < 0 {
		// A negative c3 would put the sqrt argument below zero at zero force.
		return fmt.Errorf("c3 must be non-negative, got %v", c.C3)
	}
	if math.IsNaN(c.AngAccDGain) {
		return fmt.Errorf("ang_acc_d_gain is required")
	}
	if c.CmdTimeout <= 0 {
		return fmt.Errorf("cmd_timeout must be positive, got %v", c.CmdTimeout)
	}
	if c.ThrustPWMMin < 0 || c.ThrustPWMMax <= c.ThrustPWMMin {
		return fmt.Errorf("invalid thrust pwm bounds [%v, %v]", c.ThrustPWMMin, c.ThrustPWMMax)
	}
	return nil
}

// EnvOr returns the environment variable value or the fallback if unset.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
