package sample

import (
	"testing"
	"time"

	"github.com/itohio/dhtick/pkg/dht"
	"github.com/itohio/dhtick/pkg/monitor"
	"github.com/stretchr/testify/assert"
)

// TestConverter_GracefulShutdown tests that the converter closes its output
// channel when the input channel is closed.
func TestConverter_GracefulShutdown(t *testing.T) {
	converter := NewConverter(10, nil)
	input := make(chan monitor.Record, 10)
	output := converter(input)

	received := make(chan int, 1)
	go func() {
		count := 0
		for range output {
			count++
		}
		received <- count
	}()

	numSamples := 3
	for i := range numSamples {
		input <- monitor.Record{Millis: uint32(i) * 10000, Reading: dht.FromTenths(200, 500)}
	}
	close(input)

	select {
	case count := <-received:
		assert.Equal(t, numSamples, count, "Should receive all samples before channel closes")
	case <-time.After(2 * time.Second):
		t.Fatal("Output channel did not close within timeout")
	}
}

// TestAveragingConverter_GracefulShutdown tests that the averaging converter
// closes its output channel when the input channel is closed.
func TestAveragingConverter_GracefulShutdown(t *testing.T) {
	converter := NewAveragingConverter(3, 10)
	input := make(chan Sample, 10)
	output := converter(input)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range output {
		}
	}()

	for i := range 5 {
		input <- Sample{Temperature: float64(i)}
	}
	close(input)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Output channel did not close within timeout")
	}
}
