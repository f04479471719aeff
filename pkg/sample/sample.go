package sample

import (
	"fmt"
	"log"
	"time"

	"github.com/itohio/dhtick/pkg/monitor"
)

// Sample is a successful node reading in physical units.
type Sample struct {
	Timestamp   time.Time
	Millis      uint32  // node uptime when the sensor was read
	Temperature float64 // °C
	Humidity    float64 // %RH
	DewPoint    float64 // °C, NaN when humidity is zero
}

// Converter turns a stream of node records into a stream of samples.
type Converter func(in <-chan monitor.Record) <-chan Sample

// NewConverter creates a converter that passes successful readings through
// and hands failed reads to onFailure (which may be nil).
func NewConverter(bufSize int, onFailure func(monitor.Record)) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan monitor.Record) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for rec := range in {
				s, err := FromRecord(rec)
				if err != nil {
					if onFailure != nil {
						onFailure(rec)
					} else {
						log.Printf("Skipping record: %v", err)
					}
					continue
				}

				select {
				case out <- s:
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// FromRecord converts a record. Failed reads return an error naming the
// node's reason.
func FromRecord(rec monitor.Record) (Sample, error) {
	if rec.Failed() {
		return Sample{}, fmt.Errorf("read failed at %d ms: %s", rec.Millis, rec.Failure)
	}

	r := rec.Reading
	return Sample{
		Timestamp:   rec.Received,
		Millis:      rec.Millis,
		Temperature: float64(r.TemperatureTenths()) / 10,
		Humidity:    float64(r.HumidityTenths()) / 10,
		DewPoint:    float64(r.DewPoint()),
	}, nil
}
