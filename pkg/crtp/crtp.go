// Package crtp builds the raw CRTP packets the bridge sends to the
// Crazyflie for arming, disarming and rebooting. The header byte carries
// the port in its high nibble with the link bits set, matching the
// byteshifted encoding of the crazyflie python lib's CRTPPacket.
package crtp

import "fmt"

// Header values for the packets this bridge issues.
const (
	// HeaderPlatform addresses the platform service (port 13, byteshifted).
	HeaderPlatform byte = 220

	// HeaderLink addresses the link-layer service used for power control.
	HeaderLink byte = 255
)

// Platform-channel payload bytes.
const (
	platformCommand byte = 0x01

	bootloaderCmd byte = 0xFE
	sysOff        byte = 0x02
	sysOn         byte = 0x03
)

// Packet is one CRTP packet: a header byte plus payload.
type Packet struct {
	Header byte
	Data   []byte
}

// Bytes returns the on-wire encoding: header, payload length, payload.
func (p Packet) Bytes() []byte {
	b := make([]byte, 0, 2+len(p.Data))
	b = append(b, p.Header, byte(len(p.Data)))
	return append(b, p.Data...)
}

func (p Packet) String() string {
	return fmt.Sprintf("crtp{header=%d data=%v}", p.Header, p.Data)
}

// Arming returns the platform-command packet that arms (true) or disarms
// (false) the motors.
func Arming(arm bool) Packet {
	var flag byte
	if arm {
		flag = 1
	}
	return Packet{Header: HeaderPlatform, Data: []byte{platformCommand, flag}}
}

// PowerDown returns the SYSOFF packet, the first step of a reboot.
func PowerDown() Packet {
	return Packet{Header: HeaderLink, Data: []byte{bootloaderCmd, sysOff}}
}

// PowerUp returns the SYSON packet, the second step of a reboot.
func PowerUp() Packet {
	return Packet{Header: HeaderLink, Data: []byte{bootloaderCmd, sysOn}}
}
