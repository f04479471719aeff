package dht

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTenths(t *testing.T) {
	tests := []struct {
		name        string
		temperature int16
		humidity    uint16
		want        Reading
	}{
		{
			name:        "room",
			temperature: 234,
			humidity:    410,
			want:        Reading{TemperatureInt: 23, TemperatureFrac: 4, HumidityInt: 41, HumidityFrac: 0},
		},
		{
			name:        "below zero",
			temperature: -101,
			humidity:    655,
			want:        Reading{Negative: true, TemperatureInt: 10, TemperatureFrac: 1, HumidityInt: 65, HumidityFrac: 5},
		},
		{
			name:        "just below zero",
			temperature: -5,
			humidity:    1000,
			want:        Reading{Negative: true, TemperatureInt: 0, TemperatureFrac: 5, HumidityInt: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromTenths(tt.temperature, tt.humidity)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.temperature, got.TemperatureTenths())
			assert.Equal(t, tt.humidity, got.HumidityTenths())
		})
	}
}

func TestNewReading(t *testing.T) {
	tests := []struct {
		name        string
		model       Model
		temperature int16
		humidity    uint16
		wantErr     bool
	}{
		{name: "dht22 room", model: DHT22, temperature: 234, humidity: 410},
		{name: "dht22 lowest", model: DHT22, temperature: -400, humidity: 0},
		{name: "dht22 highest", model: DHT22, temperature: 800, humidity: 1000},
		{name: "dht22 below range", model: DHT22, temperature: -401, humidity: 500, wantErr: true},
		{name: "dht22 above range", model: DHT22, temperature: 801, humidity: 500, wantErr: true},
		{name: "humidity wraps a byte", model: DHT22, temperature: 250, humidity: 3000, wantErr: true},
		{name: "dht11 room", model: DHT11, temperature: 230, humidity: 410},
		{name: "dht11 too hot", model: DHT11, temperature: 610, humidity: 410, wantErr: true},
		{name: "dht11 too cold", model: DHT11, temperature: -210, humidity: 410, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewReading(tt.model, tt.temperature, tt.humidity)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, FromTenths(tt.temperature, tt.humidity), got)
		})
	}
}

func TestReading_Conversions(t *testing.T) {
	r := FromTenths(250, 500)

	assert.InDelta(t, 25.0, r.Celsius(), 1e-4)
	assert.InDelta(t, 77.0, r.Fahrenheit(), 1e-4)
	assert.InDelta(t, 50.0, r.RelativeHumidity(), 1e-4)
	// 25°C at 50% RH has a dew point of about 13.9°C.
	assert.InDelta(t, 13.9, r.DewPoint(), 0.1)
}

func TestReading_DewPointZeroHumidity(t *testing.T) {
	r := FromTenths(200, 0)
	assert.True(t, math32.IsNaN(r.DewPoint()))
}

func TestReading_String(t *testing.T) {
	assert.Equal(t, "23.4°C 41.0%", FromTenths(234, 410).String())
	assert.Equal(t, "-0.5°C 99.9%", FromTenths(-5, 999).String())
	assert.Equal(t, "0.0°C 0.0%", Reading{Negative: true}.String())
}

func TestReading_AppendMatchesString(t *testing.T) {
	r := FromTenths(-101, 655)
	b := r.AppendTemperature(nil)
	b = append(b, "°C "...)
	b = r.AppendHumidity(b)
	b = append(b, '%')
	assert.Equal(t, r.String(), string(b))
	assert.Equal(t, "-10.1", string(r.AppendTemperature(nil)))
	assert.Equal(t, "65.5", string(r.AppendHumidity(nil)))
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("DHT22")
	require.NoError(t, err)
	assert.Equal(t, DHT22, m)

	m, err = ParseModel("")
	require.NoError(t, err)
	assert.Equal(t, DHT11, m)

	_, err = ParseModel("bme280")
	assert.Error(t, err)
}

func TestSim_FailureInjection(t *testing.T) {
	s := &Sim{Model: DHT22, Temperature: 21.5, Humidity: 40, Noise: 0.5, FailEvery: 3}

	for i := 1; i <= 9; i++ {
		r, err := s.Read()
		if i%3 == 0 {
			assert.ErrorIs(t, err, ErrChecksum, "read %d", i)
			continue
		}
		require.NoError(t, err, "read %d", i)
		assert.InDelta(t, 21.5, r.Celsius(), 0.6)
		assert.InDelta(t, 40, r.RelativeHumidity(), 0.6)
	}
	assert.Equal(t, 9, s.Reads())
}

func TestSim_DHT11Resolution(t *testing.T) {
	s := &Sim{Model: DHT11, Temperature: 21.5, Humidity: 40.4}
	r, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, uint8(0), r.TemperatureFrac)
	assert.Equal(t, uint8(0), r.HumidityFrac)
}
