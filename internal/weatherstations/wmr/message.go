// Package wmr talks to Oregon Scientific WMR-series consoles through a TCP serial
// bridge: it reassembles the binary frames, decodes them into sensor readings and
// supervises the connection.
package wmr

import (
	"errors"
	"fmt"
)

// MessageType is the second byte of every frame
type MessageType byte

const (
	TypeRain         MessageType = 0x41
	TypeTempHumidity MessageType = 0x42
	TypeAirPressure  MessageType = 0x46
	TypeUV           MessageType = 0x47
	TypeWind         MessageType = 0x48
	TypeDateTime     MessageType = 0x60
)

func (t MessageType) String() string {
	switch t {
	case TypeRain:
		return "rain"
	case TypeTempHumidity:
		return "temperature/humidity"
	case TypeAirPressure:
		return "air pressure"
	case TypeUV:
		return "uv"
	case TypeWind:
		return "wind"
	case TypeDateTime:
		return "date/time"
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(t))
}

// frame overhead: flags + type + 2 byte checksum
const frameOverhead = 4

// FrameLength returns the total frame length for t, counting flags, type, payload
// and checksum. It returns -1 for types the console is not known to send.
func FrameLength(t MessageType) int {
	switch t {
	case TypeTempHumidity:
		return 12
	case TypeRain:
		return 17
	case TypeAirPressure:
		return 8
	case TypeWind:
		return 11
	case TypeUV:
		return 6
	case TypeDateTime:
		return 12
	}
	return -1
}

var (
	ErrFrameTooShort    = errors.New("frame too short")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrUnknownType      = errors.New("unknown message type")
	ErrLengthMismatch   = errors.New("unexpected payload length")
)

// Frame is a validated console message
type Frame struct {
	Flags    byte
	Type     MessageType
	Payload  []byte
	Checksum uint16
}

// BatteryLow reports the low-battery flag of the sending sensor
func (f Frame) BatteryLow() bool {
	return f.Flags&0x40 != 0
}

// Checksum is the 16 bit sum of all bytes in data
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// ParseFrame validates a raw frame (flags, type, payload, checksum) and splits it
// into its parts. Frames are checked for minimum size, checksum, known type and
// the payload length that type requires, in that order.
func ParseFrame(raw []byte) (Frame, error) {
	if len(raw) < frameOverhead {
		return Frame{}, fmt.Errorf("%w: %d bytes, minimum %d", ErrFrameTooShort, len(raw), frameOverhead)
	}

	n := len(raw)
	calculated := Checksum(raw[:n-2])
	received := uint16(raw[n-2]) | uint16(raw[n-1])<<8
	if calculated != received {
		return Frame{}, fmt.Errorf("%w: calculated %04x, received %04x", ErrChecksumMismatch, calculated, received)
	}

	f := Frame{
		Flags:    raw[0],
		Type:     MessageType(raw[1]),
		Payload:  raw[2 : n-2],
		Checksum: received,
	}

	expected := FrameLength(f.Type)
	if expected < 0 {
		return Frame{}, fmt.Errorf("%w: 0x%02x", ErrUnknownType, byte(f.Type))
	}
	if len(f.Payload) != expected-frameOverhead {
		return Frame{}, fmt.Errorf("%w for %v: %d vs. %d", ErrLengthMismatch, f.Type, len(f.Payload), expected-frameOverhead)
	}

	return f, nil
}

// EncodeFrame builds the on-wire form of a frame, including the 0xFF 0xFF marker
// and the little-endian checksum.
func EncodeFrame(flags byte, t MessageType, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+6)
	out = append(out, markerByte, markerByte, flags, byte(t))
	out = append(out, payload...)
	sum := Checksum(out[2:])
	return append(out, byte(sum&0xFF), byte(sum>>8))
}
