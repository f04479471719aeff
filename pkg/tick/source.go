// Package tick turns a compare-match timer interrupt into a millisecond
// counter and a capacity-one "sample due" flag.
package tick

import (
	"errors"

	"github.com/itohio/dhtick/pkg/irq"
)

// Timer is the hardware timer peripheral.
type Timer interface {
	// Configure puts the timer in repeating compare-match (CTC) mode with the
	// given clock selection and compare interval in timer counts.
	Configure(cs ClockSelect, compare uint16) error
	// EnableCompareInterrupt arms the compare-match interrupt.
	EnableCompareInterrupt()
}

// Toggler is an output the handler flips on every sample period.
type Toggler interface {
	Toggle()
}

// Counters is a copy of the state shared with the interrupt handler.
type Counters struct {
	Ticks   uint16 // interrupts since the last sample flag
	Millis  uint32 // milliseconds since reset, wrapping at 2^32
	Pending bool   // a sample is due and not yet taken
	Dropped uint32 // sample periods that elapsed while one was still pending
}

// Source owns the counters updated by the timer interrupt.
type Source struct {
	ctrl      irq.Controller
	timer     Timer
	cfg       Config
	threshold uint16
	increment uint32

	// Written by Handle, or by Reset before interrupts are enabled. Read
	// and cleared by the main context only inside a critical section.
	ticks   uint16
	millis  uint32
	pending bool
	dropped uint32
	led     Toggler
}

// NewSource validates cfg and returns a Source driving timer.
func NewSource(ctrl irq.Controller, timer Timer, cfg Config) (*Source, error) {
	if ctrl == nil || timer == nil {
		return nil, errors.New("tick: controller and timer are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{
		ctrl:      ctrl,
		timer:     timer,
		cfg:       cfg,
		threshold: uint16(cfg.Threshold()),
		increment: cfg.MillisIncrement(),
	}, nil
}

// Config returns the timing the source was built with.
func (s *Source) Config() Config {
	return s.cfg
}

// Threshold returns the number of interrupts per sample period.
func (s *Source) Threshold() uint16 {
	return s.threshold
}

// Configure programs the timer and arms its compare interrupt. It must run
// before interrupts are globally enabled. An error here is fatal.
func (s *Source) Configure() error {
	cs, err := ClockSelectFor(s.cfg.Prescaler)
	if err != nil {
		return err
	}
	if err := s.timer.Configure(cs, s.cfg.Compare); err != nil {
		return err
	}
	s.timer.EnableCompareInterrupt()
	return nil
}

// Reset writes the initial shared state: counters to zero, millis to the
// given value and the heartbeat output, which may be nil.
func (s *Source) Reset(millis uint32, led Toggler) {
	irq.Do(s.ctrl, func() {
		s.ticks = 0
		s.millis = millis
		s.pending = false
		s.dropped = 0
		s.led = led
	})
}

// Handle is the compare-match interrupt handler. It runs with interrupts
// already masked and must not enter a critical section itself: calling
// TakeSample, Pending, Millis, Ticks, Dropped, Snapshot or Reset from here,
// or from the LED's Toggle, deadlocks an irq.CPU, which waits forever for
// the running handler to return.
//
// A threshold crossing while a sample is still pending leaves the flag set
// and counts a dropped sample; samples are never queued.
func (s *Source) Handle() {
	s.ticks++
	s.millis += s.increment
	if s.ticks < s.threshold {
		return
	}
	s.ticks = 0
	if s.pending {
		s.dropped++
	} else {
		s.pending = true
	}
	if s.led != nil {
		s.led.Toggle()
	}
}

// TakeSample reports whether a sample is due and clears the flag.
func (s *Source) TakeSample() bool {
	return irq.Free(s.ctrl, func() bool {
		due := s.pending
		s.pending = false
		return due
	})
}

// Pending reports whether a sample is due without consuming it.
func (s *Source) Pending() bool {
	return irq.Free(s.ctrl, func() bool {
		return s.pending
	})
}

// Millis returns the millisecond counter.
func (s *Source) Millis() uint32 {
	return irq.Free(s.ctrl, func() uint32 {
		return s.millis
	})
}

// Ticks returns the interrupts counted towards the next sample.
func (s *Source) Ticks() uint16 {
	return irq.Free(s.ctrl, func() uint16 {
		return s.ticks
	})
}

// Dropped returns how many sample periods were overwritten.
func (s *Source) Dropped() uint32 {
	return irq.Free(s.ctrl, func() uint32 {
		return s.dropped
	})
}

// Snapshot returns all counters read in one critical section.
func (s *Source) Snapshot() Counters {
	return irq.Free(s.ctrl, func() Counters {
		return Counters{
			Ticks:   s.ticks,
			Millis:  s.millis,
			Pending: s.pending,
			Dropped: s.dropped,
		}
	})
}
