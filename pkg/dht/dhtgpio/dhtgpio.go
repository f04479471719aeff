// Package dhtgpio reads a DHT sensor by bit-banging a periph.io GPIO pin.
//
// It is meant for hosted nodes such as a Raspberry Pi. Timing on a
// non-realtime kernel is best effort; every edge is bounded by a timeout so
// a miswired or absent sensor fails the read instead of hanging it.
package dhtgpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/itohio/dhtick/pkg/dht"
	"periph.io/x/conn/v3/gpio"
)

var (
	_ dht.Sensor     = (*Device)(nil)
	_ dht.Configurer = (*Device)(nil)
)

const (
	// DefaultEdgeTimeout bounds every level of the 40 bit transmission.
	DefaultEdgeTimeout = 200 * time.Microsecond
	// responseTimeout bounds each phase of the sensor's ~80µs handshake.
	responseTimeout = 300 * time.Microsecond
)

// Device is a DHT sensor on one tri-state pin.
type Device struct {
	pin         gpio.PinIO
	model       dht.Model
	edgeTimeout time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

// New returns a Device reading model on pin.
func New(pin gpio.PinIO, model dht.Model) (*Device, error) {
	if pin == nil {
		return nil, errors.New("dhtgpio: pin is required")
	}
	return &Device{
		pin:         pin,
		model:       model,
		edgeTimeout: DefaultEdgeTimeout,
		now:         time.Now,
		sleep:       time.Sleep,
	}, nil
}

// Configure releases the line to its pulled-up idle state.
func (d *Device) Configure() error {
	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("dhtgpio: release %s: %w", d.pin, err)
	}
	return nil
}

// Read performs one start/response/data exchange.
func (d *Device) Read() (dht.Reading, error) {
	// Start signal: hold the line low, then release it.
	if err := d.pin.Out(gpio.Low); err != nil {
		return dht.Reading{}, fmt.Errorf("dhtgpio: start %s: %w", d.pin, err)
	}
	d.sleep(startHold(d.model))
	if err := d.Configure(); err != nil {
		return dht.Reading{}, err
	}

	// Response: the sensor pulls low ~80µs then high ~80µs.
	for _, level := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if _, err := d.pulse(level, responseTimeout); err != nil {
			return dht.Reading{}, dht.ErrNoResponse
		}
	}

	var highs [dht.FrameBits]time.Duration
	for i := range highs {
		if _, err := d.pulse(gpio.Low, d.edgeTimeout); err != nil {
			return dht.Reading{}, err
		}
		w, err := d.pulse(gpio.High, d.edgeTimeout)
		if err != nil {
			return dht.Reading{}, err
		}
		highs[i] = w
	}

	frame, err := dht.FrameFromPulses(highs[:])
	if err != nil {
		return dht.Reading{}, err
	}
	return dht.Decode(d.model, frame)
}

// pulse waits for the line to leave level and returns how long it stayed.
func (d *Device) pulse(level gpio.Level, timeout time.Duration) (time.Duration, error) {
	start := d.now()
	for d.pin.Read() == level {
		if elapsed := d.now().Sub(start); elapsed > timeout {
			return elapsed, dht.ErrTimeout
		}
	}
	return d.now().Sub(start), nil
}

func startHold(model dht.Model) time.Duration {
	if model == dht.DHT22 {
		return 2 * time.Millisecond
	}
	return 20 * time.Millisecond
}
