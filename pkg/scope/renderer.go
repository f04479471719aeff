package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/dhtick/pkg/meter"
	"github.com/itohio/dhtick/pkg/sample"
)

var (
	gridColor        = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor       = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	temperatureColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	humidityColor    = color.RGBA{R: 100, G: 200, B: 255, A: 255} // Light blue
	limitColor       = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	excursionColor   = color.RGBA{R: 200, G: 60, B: 60, A: 60}
)

// plot is the drawable area inside the axis labels.
type plot struct {
	x, y, w, h float32
	xMin, xMax time.Time
}

func (p plot) timeX(t time.Time) float32 {
	span := p.xMax.Sub(p.xMin).Seconds()
	if span <= 0 {
		return p.x
	}
	return p.x + float32(t.Sub(p.xMin).Seconds()/span)*p.w
}

func (p plot) valueY(a axis, v float64) float32 {
	return p.y + p.h - a.pos(v)*p.h
}

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope      *ScopeWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
	lastSize   fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the widget's data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	excursions := r.scope.excursions
	temperature := r.scope.temperature
	humidity := r.scope.humidity
	xMin, xMax := r.scope.xMin, r.scope.xMax
	limit := r.scope.cfg.Measurement.HumidityLimit
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.background}

	p := plot{
		x:    60,
		y:    20,
		w:    size.Width - 120,
		h:    size.Height - 60,
		xMin: xMin,
		xMax: xMax,
	}

	r.drawExcursions(p, excursions)
	r.drawGrid(p, temperature, humidity)
	r.drawLimit(p, humidity, limit)
	r.drawCurve(p, samples, temperatureColor, func(s sample.Sample) float32 { return p.valueY(temperature, s.Temperature) })
	r.drawCurve(p, samples, humidityColor, func(s sample.Sample) float32 { return p.valueY(humidity, s.Humidity) })
	r.drawPeaks(p, excursions, humidity)
}

// drawGrid draws the grid with temperature labels on the left and humidity
// labels on the right.
func (r *scopeRenderer) drawGrid(p plot, temperature, humidity axis) {
	numHLines := 8
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.h/float32(numHLines)
		r.line(gridColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))

		frac := float64(i) / float64(numHLines)
		t := temperature.max - frac*(temperature.max-temperature.min)
		h := humidity.max - frac*(humidity.max-humidity.min)
		r.text(formatTemperature(t), temperatureColor, fyne.TextAlignTrailing, fyne.NewPos(p.x-5, y-6))
		r.text(formatHumidity(h), humidityColor, fyne.TextAlignLeading, fyne.NewPos(p.x+p.w+5, y-6))
	}

	numVLines := 10
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.w/float32(numVLines)
		r.line(gridColor, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h))

		offset := time.Duration(float64(i) / float64(numVLines) * float64(p.xMax.Sub(p.xMin)))
		r.text(formatTime(offset), labelColor, fyne.TextAlignCenter, fyne.NewPos(x-20, p.y+p.h+5))
	}
}

// drawLimit draws the humidity limit as a horizontal line.
func (r *scopeRenderer) drawLimit(p plot, humidity axis, limit float64) {
	if limit <= 0 {
		return
	}
	y := p.valueY(humidity, limit)
	r.line(limitColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))
}

func (r *scopeRenderer) drawCurve(p plot, samples []sample.Sample, c color.Color, y func(sample.Sample) float32) {
	for i := 1; i < len(samples); i++ {
		r.line(c, 1.5,
			fyne.NewPos(p.timeX(samples[i-1].Timestamp), y(samples[i-1])),
			fyne.NewPos(p.timeX(samples[i].Timestamp), y(samples[i])),
		)
	}
}

// drawExcursions shades each excursion's time span.
func (r *scopeRenderer) drawExcursions(p plot, excursions []meter.Excursion) {
	for _, e := range excursions {
		x0 := max(p.timeX(e.StartTime), p.x)
		x1 := min(max(p.timeX(e.EndTime), x0+2), p.x+p.w)
		rect := canvas.NewRectangle(excursionColor)
		rect.Move(fyne.NewPos(x0, p.y))
		rect.Resize(fyne.NewSize(x1-x0, p.h))
		r.objects = append(r.objects, rect)
	}
}

// drawPeaks labels each excursion with its peak humidity and duration.
func (r *scopeRenderer) drawPeaks(p plot, excursions []meter.Excursion, humidity axis) {
	for _, e := range excursions {
		center := e.StartTime.Add(e.Duration() / 2)
		x := p.timeX(center)
		y := p.valueY(humidity, e.Peak) - 15
		r.text(formatHumidity(e.Peak)+" "+formatTime(e.Duration()), limitColor, fyne.TextAlignCenter, fyne.NewPos(x-30, y))
	}
}

func (r *scopeRenderer) line(c color.Color, width float32, from, to fyne.Position) {
	l := canvas.NewLine(c)
	l.Position1 = from
	l.Position2 = to
	l.StrokeWidth = width
	r.objects = append(r.objects, l)
}

func (r *scopeRenderer) text(s string, c color.Color, align fyne.TextAlign, pos fyne.Position) {
	t := canvas.NewText(s, c)
	t.TextSize = 10
	t.Alignment = align
	t.Move(pos)
	r.objects = append(r.objects, t)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func formatTemperature(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "°C"
}

func formatHumidity(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64) + "%"
}

func formatTime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return strconv.FormatFloat(d.Seconds(), 'f', 0, 64) + "s"
	case d < time.Hour:
		return strconv.FormatFloat(d.Minutes(), 'f', 1, 64) + "m"
	}
	return strconv.FormatFloat(d.Hours(), 'f', 1, 64) + "h"
}
