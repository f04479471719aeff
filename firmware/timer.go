//go:build tinygo && avr

package main

import (
	"device/avr"

	"github.com/itohio/dhtick/pkg/tick"
)

// timer1 is the ATmega328p 16 bit Timer1 in CTC mode on OCR1A.
type timer1 struct{}

var _ tick.Timer = timer1{}

// Configure stops the timer, clears its counter and starts it again in CTC
// mode. OCR1A holds counts-1 because the counter resets on the cycle after
// the match. The high byte of a 16 bit register is written first.
func (timer1) Configure(cs tick.ClockSelect, counts uint16) error {
	if cs == tick.ClockStopped || cs.Divider() == 0 {
		return tick.ErrUnsupportedPrescaler
	}
	top := counts - 1

	avr.TCCR1B.Set(0)
	avr.TCCR1A.Set(0)
	avr.TCNT1H.Set(0)
	avr.TCNT1L.Set(0)
	avr.OCR1AH.Set(uint8(top >> 8))
	avr.OCR1AL.Set(uint8(top))
	avr.TIFR1.Set(avr.TIFR1_OCF1A)
	avr.TCCR1B.Set(avr.TCCR1B_WGM12 | uint8(cs))
	return nil
}

func (timer1) EnableCompareInterrupt() {
	avr.TIMSK1.SetBits(avr.TIMSK1_OCIE1A)
}
