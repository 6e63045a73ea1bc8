package crtp

import (
	"bytes"
	"testing"
)

func TestArming(t *testing.T) {
	arm := Arming(true)
	if arm.Header != HeaderPlatform {
		t.Errorf("arm header: got %d, want %d", arm.Header, HeaderPlatform)
	}
	if !bytes.Equal(arm.Data, []byte{0x01, 0x01}) {
		t.Errorf("arm data: got %v", arm.Data)
	}

	disarm := Arming(false)
	if !bytes.Equal(disarm.Data, []byte{0x01, 0x00}) {
		t.Errorf("disarm data: got %v", disarm.Data)
	}
}

func TestRebootPackets(t *testing.T) {
	down := PowerDown()
	up := PowerUp()

	if down.Header != HeaderLink || up.Header != HeaderLink {
		t.Errorf("headers: got %d, %d, want %d", down.Header, up.Header, HeaderLink)
	}
	if !bytes.Equal(down.Data, []byte{0xFE, 0x02}) {
		t.Errorf("power down data: got %v", down.Data)
	}
	if !bytes.Equal(up.Data, []byte{0xFE, 0x03}) {
		t.Errorf("power up data: got %v", up.Data)
	}
}

func TestPacketBytes(t *testing.T) {
	p := Packet{Header: 220, Data: []byte{0x01, 0x00}}
	want := []byte{220, 2, 0x01, 0x00}
	if !bytes.Equal(p.Bytes(), want) {
		t.Errorf("Bytes: got %v, want %v", p.Bytes(), want)
	}
}
