package link

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quadkit/crazybridge/pkg/bridge"
	"github.com/quadkit/crazybridge/pkg/crtp"
)

// fakeServer is a minimal crazyflie-server: it acks packet requests
// (rejecting link-layer ones when told to) and can push messages to the
// bridge side.
type fakeServer struct {
	*httptest.Server
	upgrader websocket.Upgrader

	rejectLink bool

	connCh chan *websocket.Conn
}

func newFakeServer(rejectLink bool) *fakeServer {
	fs := &fakeServer{rejectLink: rejectLink, connCh: make(chan *websocket.Conn, 1)}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.handle))
	return fs
}

func (fs *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := fs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	fs.connCh <- conn

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := ParseMessage(data)
		if err != nil {
			continue
		}
		if msg.Type != TypePacket {
			continue
		}

		var pd PacketData
		if err := msg.ParseData(&pd); err != nil {
			continue
		}
		ack := AckData{ID: pd.ID, OK: true}
		if fs.rejectLink && pd.Header == crtp.HeaderLink {
			ack.OK = false
			ack.Error = "radio unreachable"
		}
		out, _ := NewMessage(TypeAck, ack)
		b, _ := out.Bytes()
		conn.WriteMessage(websocket.TextMessage, b)
	}
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

func dialTest(t *testing.T, fs *fakeServer) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, fs.url(), "quad01")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_SendPacketAcked(t *testing.T) {
	fs := newFakeServer(false)
	defer fs.Close()

	c := dialTest(t, fs)
	go c.Run()

	if err := c.SendPacket(crtp.Arming(true)); err != nil {
		t.Errorf("SendPacket: %v", err)
	}
}

func TestClient_SendPacketRejected(t *testing.T) {
	fs := newFakeServer(true)
	defer fs.Close()

	c := dialTest(t, fs)
	go c.Run()

	if err := c.SendPacket(crtp.PowerDown()); err == nil {
		t.Error("expected rejection error")
	}
}

func TestClient_DispatchesCommandsAndOdometry(t *testing.T) {
	fs := newFakeServer(false)
	defer fs.Close()

	c := dialTest(t, fs)

	cmds := make(chan bridge.Command, 1)
	odoms := make(chan bridge.Odometry, 1)
	c.OnCommand = func(cmd bridge.Command) { cmds <- cmd }
	c.OnOdometry = func(od bridge.Odometry) { odoms <- od }
	go c.Run()

	conn := <-fs.connCh

	cmdMsg, _ := NewMessage(TypeSO3Cmd, SO3CmdData{
		Force:        Vec3{Z: 0.35},
		Orientation:  QuatData{W: 1},
		EnableMotors: true,
		StampUS:      100,
	})
	b, _ := cmdMsg.Bytes()
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("server write: %v", err)
	}

	odomMsg, _ := NewMessage(TypeOdom, OdomData{
		Orientation: QuatData{W: 1},
		StampUS:     200,
	})
	b, _ = odomMsg.Bytes()
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case cmd := <-cmds:
		if !cmd.EnableMotors || cmd.Force.Z != 0.35 {
			t.Errorf("command mangled: %+v", cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("command not dispatched")
	}

	select {
	case od := <-odoms:
		if od.Stamp.UnixMicro() != 200 {
			t.Errorf("odometry mangled: %+v", od)
		}
	case <-time.After(time.Second):
		t.Fatal("odometry not dispatched")
	}
}
