package dht

import "time"

const (
	// FrameBits is the length of one sensor transmission.
	FrameBits = 40

	// A bit is a ~50µs low followed by a high of ~26µs for 0 or ~70µs for 1.
	bitThreshold = 48 * time.Microsecond
)

// Frame is the five byte payload: four data bytes and their checksum.
type Frame [5]byte

// Valid reports whether the checksum matches the low byte of the sum of the
// data bytes.
func (f Frame) Valid() bool {
	return f[0]+f[1]+f[2]+f[3] == f[4]
}

// FrameFromPulses assembles a frame from the widths of the 40 high pulses,
// most significant bit first.
func FrameFromPulses(highs []time.Duration) (Frame, error) {
	var f Frame
	if len(highs) != FrameBits {
		return f, ErrTimeout
	}
	for i, w := range highs {
		if w > bitThreshold {
			f[i/8] |= 0x80 >> (i % 8)
		}
	}
	return f, nil
}

// Decode checks the frame and converts it to a Reading.
//
// DHT11 sends whole and tenths bytes directly, with bit 7 of the
// temperature tenths marking a negative value. DHT22 sends 16-bit tenths
// with bit 15 of the temperature as the sign.
//
// A frame with a valid checksum can still be garbage: an all-zero frame
// (a DHT11 that never drove the line), a tenths byte above 9 or a value
// outside the model's range all return ErrOutOfRange.
func Decode(model Model, f Frame) (Reading, error) {
	if !f.Valid() {
		return Reading{}, ErrChecksum
	}
	if f == (Frame{}) {
		return Reading{}, ErrOutOfRange
	}

	var (
		temperature int16
		humidity    uint16
		negative    bool
	)
	switch model {
	case DHT22:
		humidity = uint16(f[0])<<8 | uint16(f[1])
		temperature = int16(uint16(f[2]&0x7f)<<8 | uint16(f[3]))
		negative = f[2]&0x80 != 0
	default:
		if f[1] > 9 || f[3]&0x7f > 9 {
			return Reading{}, ErrOutOfRange
		}
		humidity = uint16(f[0])*10 + uint16(f[1])
		temperature = int16(f[2])*10 + int16(f[3]&0x7f)
		negative = f[3]&0x80 != 0
	}
	if negative {
		temperature = -temperature
	}
	return NewReading(model, temperature, humidity)
}
