//go:build tinygo && avr

//go:generate tinygo flash -target=arduino

package main

import (
	"device/avr"
	"machine"
	"runtime/interrupt"

	"github.com/itohio/dhtick/pkg/dht"
	"github.com/itohio/dhtick/pkg/irq"
	"github.com/itohio/dhtick/pkg/loop"
	"github.com/itohio/dhtick/pkg/tick"
)

var (
	uart = machine.UART0
	// source is shared with the Timer1 compare handler.
	source *tick.Source
)

type led struct{ pin machine.Pin }

func (l led) Toggle() { l.pin.Set(!l.pin.Get()) }

func main() {
	// Nothing below may run with interrupts enabled until Arm.
	ctrl := irq.Hardware{}
	ctrl.Disable()

	PIN_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_LED.Low()

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	cfg := tick.Config{
		ClockHz:      machine.CPUFrequency(),
		Prescaler:    PRESCALER,
		Compare:      TIMER_COUNTS,
		SamplePeriod: SAMPLE_PERIOD,
	}

	var err error
	source, err = tick.NewSource(ctrl, timer1{}, cfg)
	if err != nil {
		halt(err)
	}
	interrupt.New(avr.IRQ_TIMER1_COMPA, func(interrupt.Interrupt) {
		source.Handle()
	})

	l, err := loop.New(loop.Hardware{
		IRQ:    ctrl,
		Source: source,
		Sensor: newSensor(PIN_DHT, dht.DHT11),
		Output: uart,
	}, loop.Options{
		Model:        dht.DHT11,
		PollInterval: POLL_INTERVAL,
		LED:          led{PIN_LED},
	})
	if err != nil {
		halt(err)
	}
	if err := l.Init(); err != nil {
		halt(err)
	}
	if err := l.Arm(); err != nil {
		halt(err)
	}

	for {
		l.Step()
	}
}

// halt stops the board on a configuration error. Interrupts are still
// masked, so the timer never runs at the wrong rate.
func halt(err error) {
	panic("# fatal: " + err.Error())
}
