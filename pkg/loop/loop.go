// Package loop is the node's main polling loop.
//
//	INIT --Init--> (configured) --Arm--> ARMED --Step--> IDLE <--> SAMPLE_DUE
//
// Init configures the timer, the sensor pin and the shared counters with
// interrupts still masked. Arm unmasks them. From then on every Step sleeps
// the poll interval, probes and clears the sample flag in one critical
// section and, when a sample is due, performs the blocking sensor read and
// writes exactly one line.
package loop

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/itohio/dhtick/pkg/dht"
	"github.com/itohio/dhtick/pkg/irq"
	"github.com/itohio/dhtick/pkg/report"
	"github.com/itohio/dhtick/pkg/tick"
)

// DefaultPollInterval is the sleep between two probes of the sample flag.
const DefaultPollInterval = 100 * time.Millisecond

var (
	ErrAlreadyInitialized = errors.New("loop: already initialized")
	ErrNotInitialized     = errors.New("loop: not initialized")
)

// State is the loop's position in its state machine.
type State uint8

const (
	StateInit State = iota
	StateArmed
	StateIdle
	StateSampleDue
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateArmed:
		return "ARMED"
	case StateIdle:
		return "IDLE"
	case StateSampleDue:
		return "SAMPLE_DUE"
	}
	return "UNKNOWN"
}

// Hardware groups the collaborators the loop drives.
type Hardware struct {
	IRQ    irq.Controller
	Source *tick.Source
	Sensor dht.Sensor
	Output io.Writer
	// Sleep is the blocking delay primitive. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Options holds the loop's compile-time parameters.
type Options struct {
	Model        dht.Model
	PollInterval time.Duration
	// LED is toggled by the interrupt handler every sample period. Optional.
	LED tick.Toggler
}

// Stats counts what the loop has done since Init.
type Stats struct {
	Samples     uint32 // successful reads reported
	Failures    uint32 // failed reads reported
	Dropped     uint32 // sample periods overwritten before being taken
	WriteErrors uint32 // lines the sink refused
}

// Loop is the main context of a node. It is not safe for concurrent use;
// exactly one goroutine (or the firmware's main) drives it.
type Loop struct {
	hw    Hardware
	opts  Options
	out   *report.Writer
	state State
	ready bool
	stats Stats
}

// New checks the hardware and returns a loop in StateInit.
func New(hw Hardware, opts Options) (*Loop, error) {
	if hw.IRQ == nil || hw.Source == nil || hw.Sensor == nil || hw.Output == nil {
		return nil, errors.New("loop: irq, source, sensor and output are required")
	}
	if hw.Sleep == nil {
		hw.Sleep = time.Sleep
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Loop{
		hw:    hw,
		opts:  opts,
		out:   report.NewWriter(hw.Output),
		state: StateInit,
	}, nil
}

// State returns the current state.
func (l *Loop) State() State {
	return l.state
}

// Stats returns the counters.
func (l *Loop) Stats() Stats {
	s := l.stats
	if l.ready {
		s.Dropped = l.hw.Source.Dropped()
	}
	return s
}

// Init configures everything that must be in place before interrupts are
// enabled. Any error is fatal: the caller must not Arm.
func (l *Loop) Init() error {
	if l.ready || l.state != StateInit {
		return ErrAlreadyInitialized
	}
	if err := l.hw.Source.Configure(); err != nil {
		return err
	}
	if c, ok := l.hw.Sensor.(dht.Configurer); ok {
		if err := c.Configure(); err != nil {
			return err
		}
	}
	l.hw.Source.Reset(0, l.opts.LED)
	l.ready = true
	l.write(l.out.Banner(l.opts.Model))
	return nil
}

// Arm enables interrupts.
func (l *Loop) Arm() error {
	if !l.ready {
		return ErrNotInitialized
	}
	if l.state != StateInit {
		return nil
	}
	l.hw.IRQ.Enable()
	l.state = StateArmed
	return nil
}

// Step runs one loop iteration and reports whether a sample was taken.
// A failed read is reported and not retried; the next chance is the next
// sample period.
func (l *Loop) Step() bool {
	if l.state == StateInit {
		return false
	}
	l.state = StateIdle
	l.hw.Sleep(l.opts.PollInterval)

	if !l.hw.Source.TakeSample() {
		return false
	}

	l.state = StateSampleDue
	l.sample()
	l.state = StateIdle
	return true
}

// Run initializes (unless Init already ran), arms and steps until ctx is
// done. On the firmware ctx is never cancelled and Run only returns on an
// Init error.
func (l *Loop) Run(ctx context.Context) error {
	if !l.ready {
		if err := l.Init(); err != nil {
			return err
		}
	}
	if err := l.Arm(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Step()
	}
}

func (l *Loop) sample() {
	// Read outside any critical section so ticks keep counting.
	millis := l.hw.Source.Millis()
	reading, err := l.hw.Sensor.Read()
	if err != nil {
		l.stats.Failures++
		l.write(l.out.Failure(millis, err))
		return
	}
	l.stats.Samples++
	l.write(l.out.Sample(millis, reading))
}

func (l *Loop) write(err error) {
	if err != nil {
		l.stats.WriteErrors++
	}
}
