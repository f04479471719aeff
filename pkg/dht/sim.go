package dht

import (
	"sync"

	"github.com/chewxy/math32"
)

var _ Sensor = (*Sim)(nil)

// Sim is a simulated sensor. Values wander around a base point and every
// FailEvery-th read fails with a checksum error.
type Sim struct {
	Model       Model
	Temperature float32 // base temperature, °C
	Humidity    float32 // base relative humidity, %
	Noise       float32 // peak deviation added to both values
	FailEvery   int     // 0 disables failure injection

	mu    sync.Mutex
	reads int
}

// Read returns the next simulated reading.
func (s *Sim) Read() (Reading, error) {
	s.mu.Lock()
	s.reads++
	n := s.reads
	s.mu.Unlock()

	if s.FailEvery > 0 && n%s.FailEvery == 0 {
		return Reading{}, ErrChecksum
	}

	phase := float32(n)
	t := s.Temperature + s.Noise*math32.Sin(phase*0.7)
	h := s.Humidity + s.Noise*math32.Cos(phase*0.3)
	if h < 0 {
		h = 0
	} else if h > 100 {
		h = 100
	}

	r, err := NewReading(s.Model, int16(math32.Round(t*10)), uint16(math32.Round(h*10)))
	if err != nil {
		return Reading{}, err
	}
	if s.Model == DHT11 {
		// DHT11 resolution is a whole degree and a whole percent.
		r.TemperatureFrac = 0
		r.HumidityFrac = 0
	}
	return r, nil
}

// Reads returns how many reads were attempted.
func (s *Sim) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
