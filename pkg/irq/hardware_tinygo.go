//go:build tinygo && avr

package irq

import (
	"device"
	"runtime/interrupt"
)

var _ Controller = Hardware{}

// Hardware drives the AVR global interrupt flag (the I bit of SREG).
// Disable and Restore save and write back SREG, so they nest.
type Hardware struct{}

// Disable clears the I bit and returns the previous SREG.
func (Hardware) Disable() State {
	return State(interrupt.Disable())
}

// Restore writes back a SREG value returned by Disable.
func (Hardware) Restore(state State) {
	interrupt.Restore(interrupt.State(state))
}

// Enable sets the I bit.
func (Hardware) Enable() {
	device.Asm("sei")
}
