package scope

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/dhtick/pkg/config"
	"github.com/itohio/dhtick/pkg/meter"
	"github.com/itohio/dhtick/pkg/sample"
)

// axis is a value range mapped onto the plot height.
type axis struct {
	min, max float64
}

// pos maps v into [0,1] along the axis.
func (a axis) pos(v float64) float32 {
	if a.max == a.min {
		return 0.5
	}
	return float32((v - a.min) / (a.max - a.min))
}

// ScopeWidget is a custom Fyne widget that plots temperature and humidity
// over the meter window, oscilloscope style.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu         sync.RWMutex
	excursions []meter.Excursion

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Auto-scaling: temperature on the left axis, humidity on the right
	temperature axis
	humidity    axis
	xMin, xMax  time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		displaySamples:   make([]sample.Sample, 0, 1000),
		maxDisplayPoints: 1000,
	}
	s.updateAutoScale()
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData updates the widget with new measurement data.
// This should be called from the meter callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample, excursions []meter.Excursion) {
	s.mu.Lock()
	s.displaySamples = sample.Downsample(s.displaySamples, samples, s.maxDisplayPoints)
	s.excursions = excursions
	s.updateAutoScale()
	s.mu.Unlock()

	// Refresh outside the lock, the renderer takes a read lock
	s.Refresh()
}

// Clear empties the plot.
func (s *ScopeWidget) Clear() {
	s.UpdateData(nil, nil)
}

func (s *ScopeWidget) window() time.Duration {
	return time.Duration(s.cfg.Measurement.WindowSeconds * float64(time.Second))
}

// updateAutoScale recomputes both value axes and the time range. Must hold mu.
func (s *ScopeWidget) updateAutoScale() {
	s.temperature, s.humidity = scaleAxes(s.displaySamples, s.cfg.Measurement.HumidityLimit)

	if len(s.displaySamples) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.window())
		return
	}

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	if s.xMax.Sub(s.xMin) < s.window() {
		s.xMax = s.xMin.Add(s.window())
	}
}

// scaleAxes fits the temperature axis to the data and the humidity axis to
// the data and the limit, each with a 10% margin.
func scaleAxes(samples []sample.Sample, limit float64) (axis, axis) {
	if len(samples) == 0 {
		return axis{min: 0, max: 40}, axis{min: 0, max: 100}
	}

	t := axis{min: math.Inf(1), max: math.Inf(-1)}
	h := axis{min: limit, max: limit}
	for _, smp := range samples {
		t.min = math.Min(t.min, smp.Temperature)
		t.max = math.Max(t.max, smp.Temperature)
		h.min = math.Min(h.min, smp.Humidity)
		h.max = math.Max(h.max, smp.Humidity)
	}
	return withMargin(t, 1), withMargin(h, 5)
}

// withMargin pads a by 10% of its span, or by minSpan/2 when it is flat.
func withMargin(a axis, minSpan float64) axis {
	span := a.max - a.min
	if span < minSpan {
		mid := (a.max + a.min) / 2
		return axis{min: mid - minSpan/2, max: mid + minSpan/2}
	}
	margin := span * 0.1
	return axis{min: a.min - margin, max: a.max + margin}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:      s,
		background: background,
		objects:    []fyne.CanvasObject{background},
	}
}
