// Package link implements the websocket transport between the bridge and a
// crazyflie-server endpoint. It carries SO3 commands and odometry inbound,
// setpoints and CRTP packet requests outbound.
package link

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"github.com/quadkit/crazybridge/pkg/bridge"
)

// MessageType identifies the type of a link message.
type MessageType string

const (
	// Server → bridge messages
	TypeSO3Cmd MessageType = "so3_cmd" // High-level SO3 command
	TypeOdom   MessageType = "odom"    // Pose/twist sample
	TypeAck    MessageType = "ack"     // CRTP request acknowledgment

	// Bridge → server messages
	TypeHello        MessageType = "hello"         // Session open, names the vehicle
	TypeSetpoint     MessageType = "setpoint"      // Default-channel setpoint
	TypeSetpointFast MessageType = "setpoint_fast" // Fast-channel setpoint
	TypePacket       MessageType = "packet"        // CRTP packet request
)

// Message is the base wrapper for all link messages.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix microseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMicro(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct.
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// Vec3 carries a vector on the wire.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) vector() r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// QuatData carries a unit quaternion on the wire.
type QuatData struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (q QuatData) quat() mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}

// HelloData opens a session and names the vehicle the bridge drives.
type HelloData struct {
	Mav string `json:"mav"`
}

// SO3CmdData is the wire form of a high-level SO3 command.
type SO3CmdData struct {
	Force            Vec3       `json:"force"`
	Orientation      QuatData   `json:"orientation"`
	AngularVelocity  Vec3       `json:"angular_velocity"`
	KR               [3]float64 `json:"kr"`
	KOm              [3]float64 `json:"kom"`
	EnableMotors     bool       `json:"enable_motors"`
	AngleCorrections [2]float64 `json:"angle_corrections"`
	StampUS          int64      `json:"stamp_us"`
}

// Command converts the wire form into a bridge command.
func (d SO3CmdData) Command() bridge.Command {
	return bridge.Command{
		Force:            d.Force.vector(),
		Orientation:      d.Orientation.quat(),
		AngularVelocity:  d.AngularVelocity.vector(),
		KR:               d.KR,
		KOm:              d.KOm,
		EnableMotors:     d.EnableMotors,
		AngleCorrections: d.AngleCorrections,
		Stamp:            time.UnixMicro(d.StampUS),
	}
}

// OdomData is the wire form of a pose/twist sample.
type OdomData struct {
	Orientation     QuatData `json:"orientation"`
	AngularVelocity Vec3     `json:"angular_velocity"`
	StampUS         int64    `json:"stamp_us"`
}

// Odometry converts the wire form into a bridge odometry sample.
func (d OdomData) Odometry() bridge.Odometry {
	return bridge.Odometry{
		Orientation:     d.Orientation.quat(),
		AngularVelocity: d.AngularVelocity.vector(),
		Stamp:           time.UnixMicro(d.StampUS),
	}
}

// TwistData mirrors the cmd_vel twist encoding the Crazyflie side expects:
// roll rides in linear.y, pitch in linear.x, thrust in linear.z and yaw
// rate in angular.z.
type TwistData struct {
	Linear  Vec3 `json:"linear"`
	Angular Vec3 `json:"angular"`
}

func twistFromSetpoint(sp bridge.Setpoint) TwistData {
	return TwistData{
		Linear:  Vec3{X: sp.Pitch, Y: sp.Roll, Z: sp.Thrust},
		Angular: Vec3{Z: sp.YawRate},
	}
}

// PacketData is the wire form of a CRTP packet request. The ID correlates
// the eventual ack.
type PacketData struct {
	ID     string `json:"id"`
	Header byte   `json:"header"`
	Data   []byte `json:"data"`
}

// AckData acknowledges a packet request.
type AckData struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
