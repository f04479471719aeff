package monitor

import (
	"context"
	"strings"
	"testing"

	"github.com/itohio/dhtick/pkg/dht"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Record
		wantErr bool
	}{
		{
			name: "valid sample",
			line: "10000,23.4,41.0",
			want: Record{Millis: 10000, Reading: dht.FromTenths(234, 410)},
		},
		{
			name: "negative temperature",
			line: "20000,-5.2,80.3",
			want: Record{Millis: 20000, Reading: dht.FromTenths(-52, 803)},
		},
		{
			name: "trailing carriage return",
			line: "16,0.0,0.0\r",
			want: Record{Millis: 16, Reading: dht.FromTenths(0, 0)},
		},
		{
			name: "whole numbers",
			line: "4294967295,25,60",
			want: Record{Millis: 4294967295, Reading: dht.FromTenths(250, 600)},
		},
		{
			name: "checksum failure",
			line: "30000,error,checksum",
			want: Record{Millis: 30000, Failure: "checksum"},
		},
		{
			name: "unknown failure reason is kept",
			line: "30000,error,brownout",
			want: Record{Millis: 30000, Failure: "brownout"},
		},
		{name: "missing reason", line: "30000,error,", wantErr: true},
		{name: "wrong number of fields", line: "10000,23.4", wantErr: true},
		{name: "too many fields", line: "10000,23.4,41.0,1", wantErr: true},
		{name: "bad millis", line: "abc,23.4,41.0", wantErr: true},
		{name: "millis overflow", line: "4294967296,23.4,41.0", wantErr: true},
		{name: "two fraction digits", line: "10000,23.45,41.0", wantErr: true},
		{name: "empty temperature", line: "10000,,41.0", wantErr: true},
		{name: "humidity over 100", line: "10000,23.4,100.1", wantErr: true},
		{name: "temperature too hot", line: "10000,125.1,41.0", wantErr: true},
		{name: "negative humidity", line: "10000,23.4,-1.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLine_Comments(t *testing.T) {
	for _, line := range []string{"", "   ", "# dhtick DHT11 ready", "#"} {
		_, err := ParseLine(line)
		assert.ErrorIs(t, err, ErrComment, "line %q", line)
	}
}

func TestRecord_Failed(t *testing.T) {
	assert.False(t, Record{}.Failed())
	assert.True(t, Record{Failure: "timeout"}.Failed())
}

func TestReadRecords(t *testing.T) {
	input := strings.Join([]string{
		"# dhtick DHT22 ready",
		"10000,23.4,41.0",
		"garbage",
		"20000,error,timeout",
		"30000,-0.5,99.9",
	}, "\r\n") + "\r\n"

	out := make(chan Record, 10)
	readRecords(context.Background(), strings.NewReader(input), out)

	var got []Record
	for rec := range out {
		assert.False(t, rec.Received.IsZero())
		got = append(got, rec)
	}
	require.Len(t, got, 3)
	assert.Equal(t, uint32(10000), got[0].Millis)
	assert.InDelta(t, 23.4, got[0].Reading.Celsius(), 1e-4)
	assert.Equal(t, "timeout", got[1].Failure)
	assert.Equal(t, int16(-5), got[2].Reading.TemperatureTenths())
	assert.Equal(t, uint16(999), got[2].Reading.HumidityTenths())
}

func TestReadRecords_DropsWhenFull(t *testing.T) {
	input := "10,1.0,2.0\r\n20,1.0,2.0\r\n30,1.0,2.0\r\n"

	out := make(chan Record, 1)
	readRecords(context.Background(), strings.NewReader(input), out)

	rec, ok := <-out
	require.True(t, ok)
	assert.Equal(t, uint32(10), rec.Millis)
	_, ok = <-out
	assert.False(t, ok, "channel closed after input ends")
}

func TestReadRecords_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan Record, 10)
	readRecords(ctx, strings.NewReader("10,1.0,2.0\r\n"), out)

	_, ok := <-out
	assert.False(t, ok)
}
