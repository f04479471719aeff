package tick

import "errors"

// ErrUnsupportedPrescaler is returned for a prescaler the timer has no
// divider for. It is fatal: the firmware halts instead of running at the
// wrong rate.
var ErrUnsupportedPrescaler = errors.New("tick: unsupported prescaler")

// ClockSelect is the CS field of an AVR timer control register B. The
// encoding is shared by Timer0 and Timer1 on the ATmega328p.
type ClockSelect uint8

const (
	ClockStopped ClockSelect = 0b000
	ClockDiv8    ClockSelect = 0b010
	ClockDiv64   ClockSelect = 0b011
	ClockDiv256  ClockSelect = 0b100
	ClockDiv1024 ClockSelect = 0b101
)

// ClockSelectFor maps a prescaler to its hardware divider.
func ClockSelectFor(prescaler uint32) (ClockSelect, error) {
	switch prescaler {
	case 8:
		return ClockDiv8, nil
	case 64:
		return ClockDiv64, nil
	case 256:
		return ClockDiv256, nil
	case 1024:
		return ClockDiv1024, nil
	}
	return ClockStopped, ErrUnsupportedPrescaler
}

// Divider returns the prescaler selected by cs, or 0 for a stopped or
// unknown selection.
func (cs ClockSelect) Divider() uint32 {
	switch cs {
	case ClockDiv8:
		return 8
	case ClockDiv64:
		return 64
	case ClockDiv256:
		return 256
	case ClockDiv1024:
		return 1024
	}
	return 0
}
