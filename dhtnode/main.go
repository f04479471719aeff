// Command dhtnode runs the sampling node on a host: the tick source is a
// software timer, the sensor is either simulated or bit-banged on a GPIO
// pin, and the line protocol goes to stdout or a serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/dhtick/pkg/config"
	"github.com/itohio/dhtick/pkg/dht"
	"github.com/itohio/dhtick/pkg/dht/dhtgpio"
	"github.com/itohio/dhtick/pkg/irq"
	"github.com/itohio/dhtick/pkg/loop"
	"github.com/itohio/dhtick/pkg/tick"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

func main() {
	var (
		configFlag    = flag.String("config", "config.yaml", "Configuration file path")
		sensorFlag    = flag.String("sensor", "", "Sensor model: dht11 or dht22 (overrides config)")
		pinFlag       = flag.String("pin", "", "GPIO pin of the sensor, e.g. GPIO4 (empty = simulated sensor)")
		portFlag      = flag.String("p", "", "Serial port to write to instead of stdout")
		timeScaleFlag = flag.Uint("time-scale", 0, "Run the timer this many times faster than real time")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *sensorFlag != "" {
		cfg.Node.Sensor = *sensorFlag
	}
	if *pinFlag != "" {
		cfg.Node.Pin = *pinFlag
	}
	if *timeScaleFlag > 0 {
		cfg.Node.TimeScale = uint32(*timeScaleFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *portFlag); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Node stopped: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, port string) error {
	model, err := dht.ParseModel(cfg.Node.Sensor)
	if err != nil {
		return err
	}

	sensor, err := openSensor(cfg, model)
	if err != nil {
		return err
	}

	out, err := openOutput(port, cfg.Serial.BaudRate)
	if err != nil {
		return err
	}
	defer out.Close()

	tc := tick.DefaultConfig()
	tc.SamplePeriod = cfg.Node.SamplePeriod

	cpu := irq.NewCPU()
	timer := tick.NewSoftTimer(cpu, tc.ClockHz)
	timer.SetTimeScale(cfg.Node.TimeScale)
	src, err := tick.NewSource(cpu, timer, tc)
	if err != nil {
		return fmt.Errorf("invalid timing: %w", err)
	}
	timer.Attach(src.Handle)

	l, err := loop.New(loop.Hardware{
		IRQ:    cpu,
		Source: src,
		Sensor: sensor,
		Output: out,
	}, loop.Options{
		Model:        model,
		PollInterval: cfg.Node.PollInterval,
	})
	if err != nil {
		return err
	}

	if err := l.Init(); err != nil {
		return err
	}
	if err := timer.Start(); err != nil {
		return err
	}
	defer timer.Stop()

	log.Printf("Sampling %s every %s (tick %s, threshold %d)", model, tc.SamplePeriod, tc.TickPeriod(), src.Threshold())

	err = l.Run(ctx)

	stats := l.Stats()
	log.Printf("%d samples, %d failures, %d dropped, %d write errors, %d interrupts lost",
		stats.Samples, stats.Failures, stats.Dropped, stats.WriteErrors, cpu.Lost())
	return err
}

// openSensor returns a GPIO-backed sensor when a pin is configured and a
// simulated one otherwise.
func openSensor(cfg *config.Config, model dht.Model) (dht.Sensor, error) {
	if cfg.Node.Pin == "" {
		log.Printf("No pin configured, simulating a %s", model)
		return &dht.Sim{
			Model:       model,
			Temperature: float32(cfg.Mock.Temperature),
			Humidity:    float32(cfg.Mock.Humidity),
			Noise:       float32(cfg.Mock.Noise),
			FailEvery:   cfg.Mock.FailEvery,
		}, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(cfg.Node.Pin)
	if pin == nil {
		return nil, fmt.Errorf("unknown gpio pin %q", cfg.Node.Pin)
	}
	return dhtgpio.New(pin, model)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns the serial port named by port, or stdout.
func openOutput(port string, baudRate int) (io.WriteCloser, error) {
	if port == "" {
		return nopCloser{os.Stdout}, nil
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return p, nil
}
