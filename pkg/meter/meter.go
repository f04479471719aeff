package meter

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/dhtick/pkg/config"
	"github.com/itohio/dhtick/pkg/sample"
)

var _ ClimateMeter = (*Meter)(nil)

// Excursion is a contiguous run of samples with humidity above the limit.
type Excursion struct {
	StartIndex int       // First sample index in buffer (clamped to 0 once trimmed)
	EndIndex   int       // Last sample index in buffer (updated while active)
	StartTime  time.Time // Timestamp of the first sample above the limit
	EndTime    time.Time // Timestamp of the latest sample above the limit
	Peak       float64   // Highest humidity seen, %RH
	Active     bool      // Humidity is still above the limit
}

// Duration returns how long humidity stayed above the limit.
func (e Excursion) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Summary describes the samples currently in the window.
type Summary struct {
	Count           int
	MinTemperature  float64
	MaxTemperature  float64
	MeanTemperature float64
	MinHumidity     float64
	MaxHumidity     float64
	MeanHumidity    float64
	Rate            float64 // Latest temperature rate, °C/min
}

// ClimateMeter processes samples, keeps a time window and tracks excursions.
type ClimateMeter interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample                                                       // Current window (FIFO, ordered first to last)
	Rates() []float64                                                               // Temperature rate between consecutive samples, n-1 for n samples
	Excursions() []Excursion                                                        // Excursions within window at least the minimum duration long
	Summary() Summary                                                               // Statistics over the window
	OnUpdate(func(samples []sample.Sample, rates []float64, excursions []Excursion)) // Register callback for updates
}

// Meter implements ClimateMeter.
//
// Rates correspond exactly to sample pairs: rate[i] is the temperature change
// from sample[i] to sample[i+1] in °C per minute. Samples are removed by
// timestamp, not by count.
type Meter struct {
	samples    []sample.Sample
	rates      []float64
	excursions []Excursion // all tracked, including ones still too short to report

	mu sync.RWMutex

	callbacks []func(samples []sample.Sample, rates []float64, excursions []Excursion)
	cbMu      sync.RWMutex

	windowDuration time.Duration
	limit          float64
	minDuration    time.Duration

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a meter from the measurement configuration.
func New(cfg *config.Config) *Meter {
	return &Meter{
		windowDuration: time.Duration(cfg.Measurement.WindowSeconds * float64(time.Second)),
		limit:          cfg.Measurement.HumidityLimit,
		minDuration:    time.Duration(cfg.Measurement.MinExcursionDuration * float64(time.Second)),
	}
}

// ProcessSamples consumes samples until input closes, then stops notifying.
func (m *Meter) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

func (m *Meter) processSample(s sample.Sample) {
	m.mu.Lock()

	m.samples = append(m.samples, s)
	m.trim(s.Timestamp.Add(-m.windowDuration))

	if n := len(m.samples); n >= 2 {
		prev := m.samples[n-2]
		rate := 0.0
		if dt := s.Timestamp.Sub(prev.Timestamp).Minutes(); dt > 0 {
			rate = (s.Temperature - prev.Temperature) / dt
		}
		m.rates = append(m.rates, rate)
	}

	m.updateExcursions()

	shouldNotify := !m.shutdown
	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks()
	}
}

// trim drops samples at or before cutoff along with their rates, and shifts
// excursion indices.
func (m *Meter) trim(cutoff time.Time) {
	cut := 0
	for cut < len(m.samples)-1 && !m.samples[cut].Timestamp.After(cutoff) {
		cut++
	}
	if cut == 0 {
		return
	}

	m.samples = m.samples[cut:]
	if cut <= len(m.rates) {
		m.rates = m.rates[cut:]
	} else {
		m.rates = m.rates[:0]
	}

	kept := m.excursions[:0]
	for _, e := range m.excursions {
		e.StartIndex -= cut
		e.EndIndex -= cut
		if e.EndIndex < 0 {
			continue
		}
		e.StartIndex = max(e.StartIndex, 0)
		kept = append(kept, e)
	}
	m.excursions = kept
}

func (m *Meter) updateExcursions() {
	last := len(m.samples) - 1
	s := m.samples[last]

	var active *Excursion
	if n := len(m.excursions); n > 0 && m.excursions[n-1].Active {
		active = &m.excursions[n-1]
	}

	if s.Humidity <= m.limit {
		if active != nil {
			active.Active = false
		}
		return
	}

	if active != nil {
		active.EndIndex = last
		active.EndTime = s.Timestamp
		active.Peak = math.Max(active.Peak, s.Humidity)
		return
	}

	m.excursions = append(m.excursions, Excursion{
		StartIndex: last,
		EndIndex:   last,
		StartTime:  s.Timestamp,
		EndTime:    s.Timestamp,
		Peak:       s.Humidity,
		Active:     true,
	})
}

// visibleExcursions filters out excursions shorter than the minimum duration.
// Must hold at least a read lock.
func (m *Meter) visibleExcursions() []Excursion {
	result := make([]Excursion, 0, len(m.excursions))
	for _, e := range m.excursions {
		if e.Duration() >= m.minDuration {
			result = append(result, e)
		}
	}
	return result
}

// Samples returns a copy of the current samples buffer.
func (m *Meter) Samples() []sample.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Sample, len(m.samples))
	copy(result, m.samples)
	return result
}

// Rates returns a copy of the temperature rates.
func (m *Meter) Rates() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]float64, len(m.rates))
	copy(result, m.rates)
	return result
}

// Excursions returns the excursions in the window that lasted at least the
// minimum duration.
func (m *Meter) Excursions() []Excursion {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visibleExcursions()
}

// Summary returns statistics over the current window.
func (m *Meter) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := Summary{Count: len(m.samples)}
	if sum.Count == 0 {
		return sum
	}

	sum.MinTemperature, sum.MaxTemperature = math.Inf(1), math.Inf(-1)
	sum.MinHumidity, sum.MaxHumidity = math.Inf(1), math.Inf(-1)
	for _, s := range m.samples {
		sum.MinTemperature = math.Min(sum.MinTemperature, s.Temperature)
		sum.MaxTemperature = math.Max(sum.MaxTemperature, s.Temperature)
		sum.MeanTemperature += s.Temperature
		sum.MinHumidity = math.Min(sum.MinHumidity, s.Humidity)
		sum.MaxHumidity = math.Max(sum.MaxHumidity, s.Humidity)
		sum.MeanHumidity += s.Humidity
	}
	sum.MeanTemperature /= float64(sum.Count)
	sum.MeanHumidity /= float64(sum.Count)
	if n := len(m.rates); n > 0 {
		sum.Rate = m.rates[n-1]
	}
	return sum
}

// OnUpdate registers a callback invoked after every processed sample.
// The callback should copy data quickly and return as fast as possible.
func (m *Meter) OnUpdate(callback func(samples []sample.Sample, rates []float64, excursions []Excursion)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown allows callbacks again. Call it before starting a new
// measurement chain.
func (m *Meter) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// Clear drops all samples, rates and excursions.
func (m *Meter) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = nil
	m.rates = nil
	m.excursions = nil
}

func (m *Meter) notifyCallbacks() {
	m.mu.RLock()
	samplesCopy := make([]sample.Sample, len(m.samples))
	copy(samplesCopy, m.samples)
	ratesCopy := make([]float64, len(m.rates))
	copy(ratesCopy, m.rates)
	excursions := m.visibleExcursions()
	m.mu.RUnlock()

	m.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, rates []float64, excursions []Excursion), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samplesCopy, ratesCopy, excursions)
		}
	}
}
