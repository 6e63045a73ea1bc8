package bridge

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"github.com/quadkit/crazybridge/internal/log"
	"github.com/quadkit/crazybridge/pkg/crtp"
	"github.com/quadkit/crazybridge/pkg/so3"
)

// Options configures a Bridge. All gain and calibration fields are
// required; Validate on the config layer guarantees they are set before a
// Bridge is built.
type Options struct {
	// KpYawRate is validated and logged at startup; the per-command KR[2]
	// gain supersedes it during conversion.
	KpYawRate float64

	// Thrust is the per-vehicle calibration curve, PWMMax included.
	Thrust so3.ThrustCurve

	// AngAccDGain damps the estimated angular acceleration in CTBR mode.
	AngAccDGain float64

	// CmdTimeout is the staleness bound beyond which odometry samples
	// re-issue the cached command.
	CmdTimeout time.Duration

	// Brushless enables the arm/disarm handshake and reboot-on-disarm.
	Brushless bool

	// SendCTBRCmds selects body-rate setpoints instead of attitude angles.
	SendCTBRCmds bool

	// ThrustPWMMin and ThrustPWMMax bound every published thrust value.
	// The minimum also doubles as the spin-up keepalive thrust.
	ThrustPWMMin float64
	ThrustPWMMax float64

	// RebootSettle is the pause between the power-down and power-up steps.
	RebootSettle time.Duration
}

// Bridge is the single owner of all mutable conversion state: the latest
// odometry, the angular-acceleration tracker, the arming machine and the
// last-command cache. Command and odometry delivery are serialized by one
// mutex so a re-issue can never observe a half-applied update.
type Bridge struct {
	opts    Options
	sink    SetpointSink
	packets PacketSender

	mu          sync.Mutex
	arming      *ArmingMachine
	tracker     so3.AngularTracker
	orientation mgl64.Quat
	angularVel  r3.Vector

	cmdSeen      bool
	lastCmd      Command
	lastCmdStamp time.Time

	lastSetpoint Setpoint
}

// New builds a Bridge publishing to sink and issuing CRTP requests through
// packets.
func New(opts Options, sink SetpointSink, packets PacketSender) *Bridge {
	return &Bridge{
		opts:        opts,
		sink:        sink,
		packets:     packets,
		arming:      NewArmingMachine(opts.Brushless),
		orientation: mgl64.QuatIdent(),
	}
}

// HandleCommand routes one SO3 command through the arming machine and, if
// motors are fully enabled, through the conversion pipeline.
func (b *Bridge) HandleCommand(cmd Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.process(cmd)
}

// HandleOdometry updates the attitude and angular-velocity state from one
// pose/twist sample and re-issues the cached command when it has gone
// stale. The odometry feed's own cadence acts as the timeout clock; no
// dedicated timer exists.
func (b *Bridge) HandleOdometry(od Odometry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tracker.Update(od.AngularVelocity, od.Stamp)
	b.orientation = od.Orientation
	b.angularVel = od.AngularVelocity

	if b.cmdSeen && od.Stamp.Sub(b.lastCmdStamp) >= b.opts.CmdTimeout {
		log.Debug("so3 command stale, re-issuing",
			"age", od.Stamp.Sub(b.lastCmdStamp))
		b.process(b.lastCmd)
	}
}

// process runs one command cycle. Callers hold b.mu.
func (b *Bridge) process(cmd Command) {
	b.cmdSeen = true

	for _, effect := range b.arming.Step(cmd.EnableMotors) {
		switch effect {
		case EffectArmRequest:
			b.sendArming(true)
		case EffectEmitZero:
			b.publish(Setpoint{})
		case EffectEmitMinThrust:
			b.publish(Setpoint{Thrust: b.opts.ThrustPWMMin})
		case EffectDisarmAndReboot:
			b.sendArming(false)
			b.reboot()
		case EffectConvert:
			b.publishFast(b.convert(cmd))
		}
	}

	b.lastCmd = cmd
	b.lastCmdStamp = cmd.Stamp
}

// convert maps one command against the current odometry state into a
// setpoint.
func (b *Bridge) convert(cmd Command) Setpoint {
	rollDes, pitchDes, yawErr := so3.Attitude(cmd.Orientation, b.orientation)

	thrustN := so3.CollectiveThrust(cmd.Force, b.orientation)
	pwm := b.opts.Thrust.PWM(thrustN)

	sp := Setpoint{
		Thrust:  clamp(pwm, b.opts.ThrustPWMMin, b.opts.ThrustPWMMax),
		YawRate: so3.YawRate(cmd.KR[2], yawErr, cmd.AngularVelocity.Z),
	}

	if b.opts.SendCTBRCmds {
		sp.Roll, sp.Pitch = so3.BodyRates(cmd.KOm, cmd.AngularVelocity,
			b.angularVel, b.tracker.Accel(), b.opts.AngAccDGain)
	} else {
		sp.Roll = rollDes + cmd.AngleCorrections[0]
		sp.Pitch = pitchDes + cmd.AngleCorrections[1]
	}

	return sp
}

func (b *Bridge) sendArming(arm bool) {
	log.Info("setting arm", "arm", arm)
	if err := b.packets.SendPacket(crtp.Arming(arm)); err != nil {
		log.Error("arming request failed", "arm", arm, "error", err)
		return
	}
	log.Info("arming request sent", "arm", arm)
}

// reboot power-cycles the flight controller so a brushless vehicle can be
// armed again. Both steps are attempted even if the first fails. The
// settle delay blocks the bridge; a reboot only happens on disarm, where a
// short stall is tolerated.
func (b *Bridge) reboot() {
	log.Info("rebooting flight controller")

	if err := b.packets.SendPacket(crtp.PowerDown()); err != nil {
		log.Error("power down failed", "error", err)
	} else {
		log.Info("powering down")
	}

	time.Sleep(b.opts.RebootSettle)

	if err := b.packets.SendPacket(crtp.PowerUp()); err != nil {
		log.Error("power up failed", "error", err)
	} else {
		log.Info("powering up")
	}
}

func (b *Bridge) publish(sp Setpoint) {
	b.lastSetpoint = sp
	if err := b.sink.Publish(sp); err != nil {
		log.Error("setpoint publish failed", "error", err)
	}
}

func (b *Bridge) publishFast(sp Setpoint) {
	b.lastSetpoint = sp
	if err := b.sink.PublishFast(sp); err != nil {
		log.Error("fast setpoint publish failed", "error", err)
	}
}

// Status is a point-in-time snapshot of the bridge for the status server.
type Status struct {
	Armed          bool     `json:"armed"`
	MotorStatus    int      `json:"motor_status"`
	CommandSeen    bool     `json:"command_seen"`
	LastCommandAge float64  `json:"last_command_age_s"`
	LastSetpoint   Setpoint `json:"last_setpoint"`
}

// Status returns the current bridge state. LastCommandAge is measured
// against the wall clock and is zero until a command has been seen.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := Status{
		Armed:        b.arming.Armed(),
		MotorStatus:  b.arming.MotorStatus(),
		CommandSeen:  b.cmdSeen,
		LastSetpoint: b.lastSetpoint,
	}
	if b.cmdSeen {
		st.LastCommandAge = time.Since(b.lastCmdStamp).Seconds()
	}
	return st
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
