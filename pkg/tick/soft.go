package tick

import (
	"errors"
	"sync"
	"time"

	"github.com/itohio/dhtick/pkg/irq"
)

var _ Timer = (*SoftTimer)(nil)

// SoftTimer is a hosted stand-in for the timer peripheral. It records what
// was programmed and, once started, raises the compare interrupt on a CPU
// at the programmed period.
type SoftTimer struct {
	cpu     *irq.CPU
	clockHz uint32

	mu      sync.Mutex
	cs      ClockSelect
	compare uint16
	armed   bool
	scale   uint32
	handler func()

	stop chan struct{}
	done chan struct{}
}

// NewSoftTimer returns a stopped timer clocked at clockHz.
func NewSoftTimer(cpu *irq.CPU, clockHz uint32) *SoftTimer {
	return &SoftTimer{
		cpu:     cpu,
		clockHz: clockHz,
		scale:   1,
	}
}

// Attach binds the interrupt vector to handler.
func (t *SoftTimer) Attach(handler func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

// SetTimeScale makes the timer run scale times faster than real time. The
// counters still advance as if the programmed period had elapsed.
func (t *SoftTimer) SetTimeScale(scale uint32) {
	if scale == 0 {
		scale = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scale = scale
}

// Configure records the clock selection and compare value.
func (t *SoftTimer) Configure(cs ClockSelect, compare uint16) error {
	if cs.Divider() == 0 {
		return ErrUnsupportedPrescaler
	}
	if compare == 0 {
		return ErrInvalidConfig
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cs = cs
	t.compare = compare
	return nil
}

// EnableCompareInterrupt arms the compare interrupt.
func (t *SoftTimer) EnableCompareInterrupt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
}

// Registers returns the programmed clock selection, compare value and
// interrupt enable bit.
func (t *SoftTimer) Registers() (ClockSelect, uint16, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cs, t.compare, t.armed
}

// Period returns the wall-clock time between interrupts, time scale applied.
func (t *SoftTimer) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period()
}

func (t *SoftTimer) period() time.Duration {
	if t.clockHz == 0 {
		return 0
	}
	d := time.Duration(uint64(t.cs.Divider()) * uint64(t.compare) * uint64(time.Second) / uint64(t.clockHz))
	return d / time.Duration(t.scale)
}

// Fire delivers one compare match immediately. It does nothing unless the
// interrupt is armed and a handler is attached.
func (t *SoftTimer) Fire() bool {
	t.mu.Lock()
	handler := t.handler
	armed := t.armed
	t.mu.Unlock()

	if !armed || handler == nil {
		return false
	}
	return t.cpu.Raise(handler)
}

// Start begins raising interrupts from a background goroutine.
func (t *SoftTimer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		return errors.New("tick: timer already running")
	}
	if !t.armed || t.handler == nil {
		return errors.New("tick: timer not configured")
	}
	period := t.period()
	if period <= 0 {
		return ErrInvalidConfig
	}

	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(period, t.stop, t.done)
	return nil
}

// Stop halts the timer and waits for the background goroutine to exit.
func (t *SoftTimer) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (t *SoftTimer) run(period time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.Fire()
		}
	}
}
