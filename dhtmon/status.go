package main

import (
	"fmt"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/dhtick/pkg/meter"
	"github.com/itohio/dhtick/pkg/monitor"
	"github.com/itohio/dhtick/pkg/sample"
)

// statusBar shows the connection, the latest reading, window statistics and
// read failures. All methods must run on the Fyne main thread.
type statusBar struct {
	connection *widget.Label
	reading    *widget.Label
	window     *widget.Label
	failures   *widget.Label

	failureCount int
}

func newStatusBar() *statusBar {
	s := &statusBar{
		connection: widget.NewLabel("Disconnected"),
		reading:    widget.NewLabel("-"),
		window:     widget.NewLabel(""),
		failures:   widget.NewLabel(""),
	}
	return s
}

func (s *statusBar) object() fyne.CanvasObject {
	return container.NewHBox(s.connection, widget.NewSeparator(), s.reading, widget.NewSeparator(), s.window, widget.NewSeparator(), s.failures)
}

func (s *statusBar) setConnection(text string) {
	s.connection.SetText(text)
}

func (s *statusBar) update(samples []sample.Sample, sum meter.Summary, excursions int) {
	if len(samples) == 0 {
		s.reading.SetText("-")
		s.window.SetText("")
		return
	}

	last := samples[len(samples)-1]
	dew := "n/a"
	if !math.IsNaN(last.DewPoint) {
		dew = fmt.Sprintf("%.1f°C", last.DewPoint)
	}
	s.reading.SetText(fmt.Sprintf("%.1f°C  %.1f%%RH  dew %s  (t=%dms)", last.Temperature, last.Humidity, dew, last.Millis))
	s.window.SetText(fmt.Sprintf("window: %.1f..%.1f°C  %.0f..%.0f%%RH  %+.2f°C/min  %d excursions",
		sum.MinTemperature, sum.MaxTemperature, sum.MinHumidity, sum.MaxHumidity, sum.Rate, excursions))
}

func (s *statusBar) failure(rec monitor.Record) {
	s.failureCount++
	s.failures.SetText(fmt.Sprintf("%d failed reads (last: %s at %dms)", s.failureCount, rec.Failure, rec.Millis))
}

func (s *statusBar) reset() {
	s.failureCount = 0
	s.reading.SetText("-")
	s.window.SetText("")
	s.failures.SetText("")
}
