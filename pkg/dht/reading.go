// Package dht decodes DHT11/DHT22 humidity and temperature readings.
package dht

import (
	"errors"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Model selects the sensor variant, which changes the start pulse and the
// payload encoding.
type Model uint8

const (
	DHT11 Model = iota
	DHT22
)

func (m Model) String() string {
	switch m {
	case DHT11:
		return "DHT11"
	case DHT22:
		return "DHT22"
	}
	return "DHT?"
}

// ParseModel accepts "dht11" or "dht22" in any case.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dht11", "":
		return DHT11, nil
	case "dht22", "am2302":
		return DHT22, nil
	}
	return DHT11, errors.New("dht: unknown sensor model " + strconv.Quote(s))
}

// Reading is one temperature and relative humidity measurement, each as a
// whole part and tenths.
type Reading struct {
	Negative        bool  // temperature is below zero
	TemperatureInt  uint8 // whole degrees Celsius, magnitude
	TemperatureFrac uint8 // tenths of a degree, magnitude
	HumidityInt     uint8 // whole percent relative humidity
	HumidityFrac    uint8 // tenths of a percent
}

// MaxHumidityTenths is 100.0% relative humidity.
const MaxHumidityTenths = 1000

// TemperatureRange returns the lowest and highest temperature the model
// reports, in tenths of a degree.
func (m Model) TemperatureRange() (lo, hi int16) {
	if m == DHT22 {
		return -400, 800
	}
	return -200, 600
}

// NewReading checks tenths of a degree and tenths of a percent against the
// model's range and builds a Reading. Values outside it return
// ErrOutOfRange.
func NewReading(model Model, temperature int16, humidity uint16) (Reading, error) {
	lo, hi := model.TemperatureRange()
	if temperature < lo || temperature > hi || humidity > MaxHumidityTenths {
		return Reading{}, ErrOutOfRange
	}
	return FromTenths(temperature, humidity), nil
}

// FromTenths builds a Reading from tenths of a degree and tenths of a
// percent, the unit most drivers report in. It does not check ranges; use
// NewReading for values coming off a sensor.
func FromTenths(temperature int16, humidity uint16) Reading {
	r := Reading{}
	t := int32(temperature)
	if t < 0 {
		r.Negative = true
		t = -t
	}
	r.TemperatureInt = uint8(t / 10)
	r.TemperatureFrac = uint8(t % 10)
	r.HumidityInt = uint8(humidity / 10)
	r.HumidityFrac = uint8(humidity % 10)
	return r
}

// TemperatureTenths returns the temperature in tenths of a degree Celsius.
func (r Reading) TemperatureTenths() int16 {
	t := int16(r.TemperatureInt)*10 + int16(r.TemperatureFrac)
	if r.Negative {
		return -t
	}
	return t
}

// HumidityTenths returns relative humidity in tenths of a percent.
func (r Reading) HumidityTenths() uint16 {
	return uint16(r.HumidityInt)*10 + uint16(r.HumidityFrac)
}

// Celsius returns the temperature in degrees Celsius.
func (r Reading) Celsius() float32 {
	return float32(r.TemperatureTenths()) / 10
}

// Fahrenheit returns the temperature in degrees Fahrenheit.
func (r Reading) Fahrenheit() float32 {
	return r.Celsius()*9/5 + 32
}

// RelativeHumidity returns relative humidity in percent.
func (r Reading) RelativeHumidity() float32 {
	return float32(r.HumidityTenths()) / 10
}

// Magnus formula coefficients, valid from -45°C to 60°C.
const (
	magnusA = 17.62
	magnusB = 243.12
)

// DewPoint returns the dew point in degrees Celsius, or NaN for zero
// humidity.
func (r Reading) DewPoint() float32 {
	rh := r.RelativeHumidity()
	if rh <= 0 {
		return math32.NaN()
	}
	t := r.Celsius()
	gamma := math32.Log(rh/100) + magnusA*t/(magnusB+t)
	return magnusB * gamma / (magnusA - gamma)
}

// AppendTemperature appends the temperature as "[-]whole.tenths". Zero
// prints without a sign.
func (r Reading) AppendTemperature(dst []byte) []byte {
	if r.Negative && r.TemperatureTenths() != 0 {
		dst = append(dst, '-')
	}
	return appendFixed(dst, r.TemperatureInt, r.TemperatureFrac)
}

// AppendHumidity appends relative humidity as "whole.tenths".
func (r Reading) AppendHumidity(dst []byte) []byte {
	return appendFixed(dst, r.HumidityInt, r.HumidityFrac)
}

func appendFixed(dst []byte, whole, tenths uint8) []byte {
	dst = strconv.AppendUint(dst, uint64(whole), 10)
	dst = append(dst, '.')
	return strconv.AppendUint(dst, uint64(tenths), 10)
}

func (r Reading) String() string {
	b := make([]byte, 0, 24)
	b = r.AppendTemperature(b)
	b = append(b, "°C "...)
	b = r.AppendHumidity(b)
	b = append(b, '%')
	return string(b)
}
