//go:build tinygo && avr

package main

import (
	"machine"
	"time"
)

const (
	// Timer1 runs from the 16MHz system clock divided by PRESCALER and
	// interrupts every TIMER_COUNTS counts: 1024 * 250 / 16MHz = 16ms.
	// Timer0 belongs to the TinyGo runtime.
	PRESCALER    = 1024
	TIMER_COUNTS = 250

	// One sensor reading is due every SAMPLE_PERIOD (625 interrupts).
	// The DHT11 needs at least 1s between reads, the DHT22 2s.
	SAMPLE_PERIOD = 10 * time.Second

	// Sleep between probes of the sample flag.
	POLL_INTERVAL = 100 * time.Millisecond

	// Serial configuration
	// "4294967295,-40.0,100.0\r\n" is at most 24 bytes every 10s, so the
	// rate is chosen for the terminal, not for throughput.
	UART_BAUD_RATE = 57600

	// Sensor data line. Needs a pull-up (most breakout boards carry one).
	PIN_DHT = machine.D13
	// Heartbeat LED, toggled by the timer interrupt every sample period.
	PIN_LED = machine.D12
)
