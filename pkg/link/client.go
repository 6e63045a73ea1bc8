package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/quadkit/crazybridge/internal/log"
	"github.com/quadkit/crazybridge/pkg/bridge"
	"github.com/quadkit/crazybridge/pkg/crtp"
)

const (
	dialRetryInterval = time.Second
	defaultAckTimeout = 2 * time.Second
)

// Client is a websocket client to the crazyflie-server. It implements the
// bridge's SetpointSink and PacketSender ports and dispatches inbound
// commands and odometry to the callbacks.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	ackTimeout time.Duration

	pendingMu sync.Mutex
	pending   map[string]chan AckData

	// OnCommand and OnOdometry are invoked from the read loop for each
	// inbound message. Both must be set before Run.
	OnCommand  func(bridge.Command)
	OnOdometry func(bridge.Odometry)
}

var (
	_ bridge.SetpointSink = (*Client)(nil)
	_ bridge.PacketSender = (*Client)(nil)
)

// Dial connects to the server, retrying until the endpoint is available or
// ctx is done, then opens the session for the named vehicle. The retry
// loop is the startup handshake: the bridge must not process commands
// before the packet service exists.
func Dial(ctx context.Context, url, mavName string) (*Client, error) {
	var conn *websocket.Conn
	for {
		var err error
		conn, _, err = websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err == nil {
			break
		}
		log.Warn("crazyflie-server not available, retrying", "url", url, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dialing %s: %w", url, ctx.Err())
		case <-time.After(dialRetryInterval):
		}
	}

	c := &Client{
		conn:       conn,
		ackTimeout: defaultAckTimeout,
		pending:    make(map[string]chan AckData),
	}
	if err := c.write(TypeHello, HelloData{Mav: mavName}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session open: %w", err)
	}

	log.Info("connected to crazyflie-server", "url", url, "mav", mavName)
	return c, nil
}

// Run reads messages until the connection fails or closes.
func (c *Client) Run() error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("link read: %w", err)
		}

		msg, err := ParseMessage(data)
		if err != nil {
			log.Warn("dropping malformed link message", "error", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg *Message) {
	switch msg.Type {
	case TypeSO3Cmd:
		var d SO3CmdData
		if err := msg.ParseData(&d); err != nil {
			log.Warn("bad so3_cmd payload", "error", err)
			return
		}
		if c.OnCommand != nil {
			c.OnCommand(d.Command())
		}

	case TypeOdom:
		var d OdomData
		if err := msg.ParseData(&d); err != nil {
			log.Warn("bad odom payload", "error", err)
			return
		}
		if c.OnOdometry != nil {
			c.OnOdometry(d.Odometry())
		}

	case TypeAck:
		var d AckData
		if err := msg.ParseData(&d); err != nil {
			log.Warn("bad ack payload", "error", err)
			return
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[d.ID]
		delete(c.pending, d.ID)
		c.pendingMu.Unlock()
		if ok {
			ch <- d
		}

	default:
		log.Debug("ignoring link message", "type", msg.Type)
	}
}

// write serializes and sends one message. The mutex keeps concurrent
// publishers off the single websocket writer.
func (c *Client) write(t MessageType, data interface{}) error {
	msg, err := NewMessage(t, data)
	if err != nil {
		return err
	}
	b, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Publish sends a setpoint on the default channel, used for spin-up
// sequencing and the safety zero.
func (c *Client) Publish(sp bridge.Setpoint) error {
	return c.write(TypeSetpoint, twistFromSetpoint(sp))
}

// PublishFast sends a steady-state setpoint on the fast channel.
func (c *Client) PublishFast(sp bridge.Setpoint) error {
	return c.write(TypeSetpointFast, twistFromSetpoint(sp))
}

// SendPacket sends one CRTP request and waits for its acknowledgment. A
// stalled server blocks the caller for at most the ack timeout.
func (c *Client) SendPacket(p crtp.Packet) error {
	id := uuid.NewString()
	ch := make(chan AckData, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.write(TypePacket, PacketData{ID: id, Header: p.Header, Data: p.Data}); err != nil {
		return err
	}

	select {
	case ack := <-ch:
		if !ack.OK {
			return fmt.Errorf("packet request rejected: %s", ack.Error)
		}
		return nil
	case <-time.After(c.ackTimeout):
		return fmt.Errorf("packet request timed out after %v", c.ackTimeout)
	}
}

// Close closes the underlying connection, unblocking Run.
func (c *Client) Close() error {
	return c.conn.Close()
}
