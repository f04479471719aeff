package meter

import (
	"sync"
	"testing"
	"time"

	"github.com/itohio/dhtick/pkg/config"
	"github.com/itohio/dhtick/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Measurement: config.MeasurementConfig{
			WindowSeconds:        60,
			HumidityLimit:        60,
			MinExcursionDuration: 20,
		},
	}
}

// series builds samples 10s apart from parallel temperature and humidity
// values.
func series(start time.Time, temps, hums []float64) []sample.Sample {
	out := make([]sample.Sample, len(temps))
	for i := range temps {
		out[i] = sample.Sample{
			Timestamp:   start.Add(time.Duration(i) * 10 * time.Second),
			Millis:      uint32(i+1) * 10000,
			Temperature: temps[i],
			Humidity:    hums[i],
		}
	}
	return out
}

func feed(m *Meter, samples []sample.Sample) {
	for _, s := range samples {
		m.processSample(s)
	}
}

func TestNew(t *testing.T) {
	m := New(testConfig())
	assert.Equal(t, time.Minute, m.windowDuration)
	assert.Equal(t, 60.0, m.limit)
	assert.Equal(t, 20*time.Second, m.minDuration)
	assert.Empty(t, m.Samples())
	assert.Empty(t, m.Rates())
	assert.Empty(t, m.Excursions())
	assert.Equal(t, Summary{}, m.Summary())
}

func TestProcessSample_Rates(t *testing.T) {
	m := New(testConfig())
	feed(m, series(time.Now(), []float64{20, 21, 21, 20.5}, []float64{40, 40, 40, 40}))

	require.Len(t, m.Samples(), 4)
	rates := m.Rates()
	require.Len(t, rates, 3, "n-1 rates for n samples")
	assert.InDelta(t, 6.0, rates[0], 1e-9, "1°C per 10s is 6°C/min")
	assert.InDelta(t, 0.0, rates[1], 1e-9)
	assert.InDelta(t, -3.0, rates[2], 1e-9)
}

func TestProcessSample_DuplicateTimestampKeepsCorrespondence(t *testing.T) {
	m := New(testConfig())
	now := time.Now()
	m.processSample(sample.Sample{Timestamp: now, Temperature: 20})
	m.processSample(sample.Sample{Timestamp: now, Temperature: 25})

	assert.Equal(t, []float64{0}, m.Rates())
}

func TestProcessSample_WindowRemoval(t *testing.T) {
	m := New(testConfig())
	temps := make([]float64, 10)
	hums := make([]float64, 10)
	for i := range temps {
		temps[i] = float64(i)
		hums[i] = 40
	}
	feed(m, series(time.Now(), temps, hums))

	samples := m.Samples()
	require.Len(t, samples, 6, "60s window keeps samples strictly newer than the cutoff")
	assert.Equal(t, 4.0, samples[0].Temperature)
	assert.Equal(t, 9.0, samples[5].Temperature)
	assert.Len(t, m.Rates(), 5)
	for _, r := range m.Rates() {
		assert.InDelta(t, 6.0, r, 1e-9)
	}
}

func TestProcessSample_GapLeavesSingleSample(t *testing.T) {
	m := New(testConfig())
	now := time.Now()
	m.processSample(sample.Sample{Timestamp: now, Temperature: 20})
	m.processSample(sample.Sample{Timestamp: now.Add(time.Second), Temperature: 20})
	m.processSample(sample.Sample{Timestamp: now.Add(time.Hour), Temperature: 30})

	assert.Len(t, m.Samples(), 1)
	assert.Empty(t, m.Rates())
}

func TestExcursions(t *testing.T) {
	m := New(testConfig())
	feed(m, series(time.Now(),
		[]float64{20, 20, 20, 20, 20, 20},
		[]float64{50, 65, 70, 68, 55, 50},
	))

	exc := m.Excursions()
	require.Len(t, exc, 1)
	assert.Equal(t, 1, exc[0].StartIndex)
	assert.Equal(t, 3, exc[0].EndIndex)
	assert.Equal(t, 20*time.Second, exc[0].Duration())
	assert.Equal(t, 70.0, exc[0].Peak)
	assert.False(t, exc[0].Active)
}

func TestExcursions_ShortSpikeFiltered(t *testing.T) {
	m := New(testConfig())
	feed(m, series(time.Now(),
		[]float64{20, 20, 20, 20},
		[]float64{50, 80, 50, 61},
	))

	assert.Empty(t, m.Excursions(), "single-sample excursions are shorter than 20s")
	m.mu.RLock()
	defer m.mu.RUnlock()
	require.Len(t, m.excursions, 2)
	assert.True(t, m.excursions[1].Active)
}

func TestExcursions_ActiveBecomesVisible(t *testing.T) {
	m := New(testConfig())
	samples := series(time.Now(),
		[]float64{20, 20, 20, 20},
		[]float64{50, 61, 62, 63},
	)

	feed(m, samples[:3])
	assert.Empty(t, m.Excursions())

	feed(m, samples[3:])
	exc := m.Excursions()
	require.Len(t, exc, 1)
	assert.True(t, exc[0].Active)
	assert.Equal(t, 63.0, exc[0].Peak)
}

func TestExcursions_IndicesFollowWindow(t *testing.T) {
	m := New(testConfig())
	hums := []float64{70, 70, 70, 70, 50, 50, 50, 50, 50}
	temps := make([]float64, len(hums))
	feed(m, series(time.Now(), temps, hums))

	samples := m.Samples()
	require.Len(t, samples, 6)
	exc := m.Excursions()
	require.Len(t, exc, 1)
	assert.Equal(t, 0, exc[0].StartIndex, "clamped once the start leaves the window")
	assert.Equal(t, 0, exc[0].EndIndex)
	assert.Equal(t, 30*time.Second, exc[0].Duration(), "times are kept")

	feed(m, series(samples[5].Timestamp.Add(10*time.Second), []float64{0}, []float64{50}))
	assert.Empty(t, m.Excursions(), "dropped once its last sample leaves the window")
}

func TestSummary(t *testing.T) {
	m := New(testConfig())
	feed(m, series(time.Now(), []float64{20, 22, 24}, []float64{40, 50, 60}))

	sum := m.Summary()
	assert.Equal(t, 3, sum.Count)
	assert.Equal(t, 20.0, sum.MinTemperature)
	assert.Equal(t, 24.0, sum.MaxTemperature)
	assert.InDelta(t, 22.0, sum.MeanTemperature, 1e-9)
	assert.Equal(t, 40.0, sum.MinHumidity)
	assert.Equal(t, 60.0, sum.MaxHumidity)
	assert.InDelta(t, 50.0, sum.MeanHumidity, 1e-9)
	assert.InDelta(t, 12.0, sum.Rate, 1e-9)
}

func TestClear(t *testing.T) {
	m := New(testConfig())
	feed(m, series(time.Now(), []float64{20, 22, 24}, []float64{70, 70, 70}))
	m.Clear()

	assert.Empty(t, m.Samples())
	assert.Empty(t, m.Rates())
	assert.Empty(t, m.Excursions())
}

func TestOnUpdate(t *testing.T) {
	m := New(testConfig())

	var mu sync.Mutex
	var calls int
	var lastSamples []sample.Sample
	var lastRates []float64
	m.OnUpdate(func(samples []sample.Sample, rates []float64, excursions []Excursion) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		lastSamples = samples
		lastRates = rates
	})

	feed(m, series(time.Now(), []float64{20, 21}, []float64{40, 40}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
	assert.Len(t, lastSamples, 2)
	assert.Len(t, lastRates, 1)
}

func TestSamples_ThreadSafe(t *testing.T) {
	m := New(testConfig())
	now := time.Now()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			m.processSample(sample.Sample{Timestamp: now.Add(time.Duration(i) * time.Second), Humidity: float64(i % 80)})
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			samples := m.Samples()
			_ = m.Rates()
			_ = m.Excursions()
			_ = m.Summary()
			_ = samples
		}
	}()
	wg.Wait()

	assert.Len(t, m.Rates(), len(m.Samples())-1)
}

func TestProcessSamples_Channel(t *testing.T) {
	m := New(testConfig())
	input := make(chan sample.Sample, 10)
	for _, s := range series(time.Now(), []float64{20, 21, 22}, []float64{40, 40, 40}) {
		input <- s
	}
	close(input)

	m.ProcessSamples(input)
	assert.Len(t, m.Samples(), 3)
}
