package tick

import (
	"errors"
	"math"
	"time"
)

const (
	// DefaultClockHz is the ATmega328p system clock on an Uno-class board.
	DefaultClockHz = 16_000_000
	// DefaultPrescaler and DefaultCompare give a 16ms interrupt period.
	DefaultPrescaler = 1024
	DefaultCompare   = 250
	// DefaultSamplePeriod is how often a sensor reading is due.
	DefaultSamplePeriod = 10 * time.Second
)

// ErrInvalidConfig is returned for timing that cannot be realised.
var ErrInvalidConfig = errors.New("tick: invalid timer configuration")

// Config holds the timer arithmetic. On the firmware every field is a
// compile-time constant.
type Config struct {
	ClockHz      uint32        // system clock feeding the prescaler
	Prescaler    uint32        // one of 8, 64, 256, 1024
	Compare      uint16        // timer counts per interrupt
	SamplePeriod time.Duration // time between sample flags
}

// DefaultConfig returns the 16MHz / 1024 / 250 / 10s configuration.
func DefaultConfig() Config {
	return Config{
		ClockHz:      DefaultClockHz,
		Prescaler:    DefaultPrescaler,
		Compare:      DefaultCompare,
		SamplePeriod: DefaultSamplePeriod,
	}
}

// TickPeriod is the time between two compare-match interrupts.
func (c Config) TickPeriod() time.Duration {
	if c.ClockHz == 0 {
		return 0
	}
	return time.Duration(uint64(c.Prescaler) * uint64(c.Compare) * uint64(time.Second) / uint64(c.ClockHz))
}

// MillisIncrement is the whole number of milliseconds added to the millis
// counter per interrupt. It is zero when the tick period is below one
// millisecond, in which case no millis counter is kept.
func (c Config) MillisIncrement() uint32 {
	if c.ClockHz == 0 {
		return 0
	}
	return uint32(uint64(c.Prescaler) * uint64(c.Compare) * 1000 / uint64(c.ClockHz))
}

// Threshold is the number of interrupts per sample period.
func (c Config) Threshold() uint32 {
	period := c.TickPeriod()
	if period <= 0 {
		return 0
	}
	return uint32(c.SamplePeriod / period)
}

// Validate checks the prescaler and the timing arithmetic.
func (c Config) Validate() error {
	if _, err := ClockSelectFor(c.Prescaler); err != nil {
		return err
	}
	if c.ClockHz == 0 || c.Compare == 0 || c.SamplePeriod <= 0 {
		return ErrInvalidConfig
	}
	if c.TickPeriod() <= 0 {
		return ErrInvalidConfig
	}
	if th := c.Threshold(); th == 0 || th > math.MaxUint16 {
		return ErrInvalidConfig
	}
	return nil
}
