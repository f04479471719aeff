// Package irq provides critical sections over the global interrupt-enable
// flag of a single-core microcontroller.
//
// All state shared between an interrupt handler and the main context must be
// touched only from the handler itself or from inside Free, FreeErr or Do.
package irq

// State is the global interrupt-enable state saved by Disable.
type State uintptr

const (
	// Disabled means interrupts were masked.
	Disabled State = 0
	// Enabled means interrupts were being delivered.
	Enabled State = 1
)

// Controller masks and unmasks the interrupt source.
type Controller interface {
	// Disable masks interrupts and returns the state that was in effect.
	Disable() State
	// Restore puts back a state returned by Disable.
	Restore(state State)
	// Enable unmasks interrupts. It is called once, after initialization.
	Enable()
}

// Free runs fn with interrupts disabled and returns its result.
//
// The previous state is restored on every exit path, including a panic in
// fn. Because the previous state is saved and restored rather than forced to
// Enabled, nested sections compose: only the outermost one re-enables.
func Free[T any](c Controller, fn func() T) T {
	state := c.Disable()
	defer c.Restore(state)
	return fn()
}

// FreeErr is Free for bodies that can fail.
func FreeErr(c Controller, fn func() error) error {
	state := c.Disable()
	defer c.Restore(state)
	return fn()
}

// Do is Free for bodies without a result.
func Do(c Controller, fn func()) {
	state := c.Disable()
	defer c.Restore(state)
	fn()
}
