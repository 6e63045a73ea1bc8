// Package bridge converts high-level SO3 commands into Crazyflie setpoints
// while owning the arming/spin-up safety state and re-issuing stale
// commands against fresh odometry.
//
// The package defines small, focused interfaces for its collaborators so
// that transports can be swapped and tests can record calls without a
// vehicle attached.
package bridge

import "github.com/quadkit/crazybridge/pkg/crtp"

// SetpointSink publishes setpoints to the vehicle on two logical channels.
// The fast channel carries steady-state converted setpoints; the default
// channel carries the spin-up sequencing and safety-zero setpoints.
type SetpointSink interface {
	PublishFast(sp Setpoint) error
	Publish(sp Setpoint) error
}

// PacketSender issues fire-and-forget CRTP requests to the flight
// controller and reports per-request success or failure.
type PacketSender interface {
	SendPacket(p crtp.Packet) error
}
