//go:build tinygo && avr

package main

import (
	"machine"

	"github.com/itohio/dhtick/pkg/dht"
	tinydht "tinygo.org/x/drivers/dht"
)

// sensor adapts the TinyGo driver to dht.Sensor. The driver owns the bit
// timing; this only maps units and errors.
type sensor struct {
	dev   tinydht.Device
	model dht.Model
}

var _ dht.Sensor = (*sensor)(nil)

func newSensor(pin machine.Pin, model dht.Model) *sensor {
	kind := tinydht.DHT11
	if model == dht.DHT22 {
		kind = tinydht.DHT22
	}
	return &sensor{dev: tinydht.New(pin, kind), model: model}
}

// Read performs one bounded transaction. A failure is reported as is and
// never retried here.
func (s *sensor) Read() (dht.Reading, error) {
	if err := s.dev.ReadMeasurements(); err != nil {
		return dht.Reading{}, mapError(err)
	}
	t, h, err := s.dev.Measurements()
	if err != nil {
		return dht.Reading{}, mapError(err)
	}
	return dht.NewReading(s.model, t, h)
}

func mapError(err error) error {
	switch err {
	case tinydht.ChecksumError:
		return dht.ErrChecksum
	case tinydht.NoSignalError:
		return dht.ErrNoResponse
	case tinydht.NoDataError:
		return dht.ErrTimeout
	}
	return err
}
