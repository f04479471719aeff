package sample

import (
	"math"
	"testing"
	"time"

	"github.com/itohio/dhtick/pkg/dht"
	"github.com/itohio/dhtick/pkg/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecord(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		rec     monitor.Record
		want    Sample
		wantErr bool
	}{
		{
			name: "room air",
			rec:  monitor.Record{Received: now, Millis: 10000, Reading: dht.FromTenths(234, 410)},
			want: Sample{Timestamp: now, Millis: 10000, Temperature: 23.4, Humidity: 41.0, DewPoint: 9.4},
		},
		{
			name: "below freezing",
			rec:  monitor.Record{Received: now, Millis: 20000, Reading: dht.FromTenths(-52, 803)},
			want: Sample{Timestamp: now, Millis: 20000, Temperature: -5.2, Humidity: 80.3, DewPoint: -8.1},
		},
		{
			name:    "failed read",
			rec:     monitor.Record{Received: now, Millis: 30000, Failure: "checksum"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromRecord(tt.rec)
			if tt.wantErr {
				assert.ErrorContains(t, err, "checksum")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Timestamp, got.Timestamp)
			assert.Equal(t, tt.want.Millis, got.Millis)
			assert.InDelta(t, tt.want.Temperature, got.Temperature, 1e-9)
			assert.InDelta(t, tt.want.Humidity, got.Humidity, 1e-9)
			assert.InDelta(t, tt.want.DewPoint, got.DewPoint, 0.1)
		})
	}
}

func TestFromRecord_DryAir(t *testing.T) {
	got, err := FromRecord(monitor.Record{Reading: dht.FromTenths(200, 0)})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.DewPoint))
}

func TestNewConverter_ChannelProcessing(t *testing.T) {
	var failed []monitor.Record
	converter := NewConverter(10, func(rec monitor.Record) { failed = append(failed, rec) })

	input := make(chan monitor.Record, 10)
	output := converter(input)

	input <- monitor.Record{Millis: 10000, Reading: dht.FromTenths(230, 400)}
	input <- monitor.Record{Millis: 20000, Failure: "timeout"}
	input <- monitor.Record{Millis: 30000, Reading: dht.FromTenths(240, 420)}
	close(input)

	var got []Sample
	for s := range output {
		got = append(got, s)
	}

	require.Len(t, got, 2)
	assert.Equal(t, uint32(10000), got[0].Millis)
	assert.InDelta(t, 24.0, got[1].Temperature, 1e-9)
	require.Len(t, failed, 1, "failure callback runs before the output closes")
	assert.Equal(t, "timeout", failed[0].Failure)
}

func TestNewConverter_EmptyChannel(t *testing.T) {
	converter := NewConverter(0, nil)
	input := make(chan monitor.Record)
	output := converter(input)
	close(input)

	_, ok := <-output
	assert.False(t, ok)
}
