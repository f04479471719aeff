package irq

import "sync"

var _ Controller = (*CPU)(nil)

// CPU models one core with a single maskable interrupt line on a hosted
// machine. The main context calls Disable, Restore and Enable; a peripheral
// calls Raise from its own goroutine.
//
// Like the hardware it stands in for, a CPU latches at most one pending
// request while interrupts are masked, runs a handler with interrupts masked
// so it cannot preempt itself, and never lets a handler overlap a critical
// section of the main context. Disable and Restore must only be called from
// the main context, never from inside a handler.
type CPU struct {
	mu      sync.Mutex
	idle    *sync.Cond
	enabled bool
	inISR   bool
	pending func()

	served uint64
	lost   uint64
}

// NewCPU returns a CPU with interrupts masked, the reset state of an AVR core.
func NewCPU() *CPU {
	c := &CPU{}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Disable masks interrupts. It waits for a running handler to return first,
// which is what the main context observes on real hardware: it cannot run
// while the handler does.
func (c *CPU) Disable() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.waitIdle()
	prev := Disabled
	if c.enabled {
		prev = Enabled
	}
	c.enabled = false
	return prev
}

// Restore puts back a state returned by Disable. Restoring Enabled delivers
// a request that was latched while interrupts were masked.
func (c *CPU) Restore(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.waitIdle()
	c.enabled = state == Enabled
	c.dispatch()
}

// Enable unmasks interrupts.
func (c *CPU) Enable() {
	c.Restore(Enabled)
}

// Enabled reports whether interrupts are currently unmasked.
func (c *CPU) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Raise requests an interrupt serviced by handler. If interrupts are enabled
// and no handler is running, handler runs to completion before Raise returns.
// Otherwise the request is latched and Raise returns false; a request that
// finds another one already latched is lost, as a hardware interrupt flag is
// a single bit.
//
// handler must not call Disable or Restore on c: both wait for the running
// handler to finish, so the call never returns.
func (c *CPU) Raise(handler func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.lost++
	}
	c.pending = handler
	if !c.enabled || c.inISR {
		return false
	}
	c.dispatch()
	return true
}

// Served returns how many handlers have run.
func (c *CPU) Served() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.served
}

// Lost returns how many requests were overwritten before being serviced.
func (c *CPU) Lost() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lost
}

// dispatch runs latched handlers while interrupts are enabled. c.mu is held
// on entry and exit but released while a handler runs.
func (c *CPU) dispatch() {
	for c.enabled && c.pending != nil {
		handler := c.pending
		c.pending = nil
		c.enabled = false
		c.inISR = true
		c.mu.Unlock()

		func() {
			defer func() {
				c.mu.Lock()
				c.inISR = false
				c.enabled = true
				c.served++
				c.idle.Broadcast()
			}()
			handler()
		}()
	}
}

func (c *CPU) waitIdle() {
	for c.inISR {
		c.idle.Wait()
	}
}
