package sample

import (
	"log"
	"math"
)

// NewAveragingConverter creates a converter that emits the moving average
// of the last windowSize samples for every sample it receives. A window of
// one passes samples through unchanged.
func NewAveragingConverter(windowSize int, bufSize int) func(in <-chan Sample) <-chan Sample {
	if windowSize <= 0 {
		windowSize = 1
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			buffer := make([]Sample, 0, windowSize)
			for s := range in {
				if len(buffer) == windowSize {
					copy(buffer, buffer[1:])
					buffer = buffer[:windowSize-1]
				}
				buffer = append(buffer, s)

				select {
				case out <- Average(buffer):
				default:
					log.Printf("Averaging converter output channel full")
				}
			}
		}()

		return out
	}
}

// Average returns the mean of samples, stamped with the most recent one.
// Dew points that are NaN are left out of the dew point mean.
func Average(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sumT, sumH, sumDew float64
	dewN := 0
	for _, s := range samples {
		sumT += s.Temperature
		sumH += s.Humidity
		if !math.IsNaN(s.DewPoint) {
			sumDew += s.DewPoint
			dewN++
		}
	}

	last := samples[len(samples)-1]
	n := float64(len(samples))
	dew := math.NaN()
	if dewN > 0 {
		dew = sumDew / float64(dewN)
	}

	return Sample{
		Timestamp:   last.Timestamp,
		Millis:      last.Millis,
		Temperature: sumT / n,
		Humidity:    sumH / n,
		DewPoint:    dew,
	}
}
