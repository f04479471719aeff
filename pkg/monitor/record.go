package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/dhtick/pkg/dht"
	"github.com/itohio/dhtick/pkg/report"
)

// ErrComment is returned by ParseLine for lines that carry no measurement,
// such as the startup banner.
var ErrComment = errors.New("comment line")

// Record is one parsed line of node output.
type Record struct {
	Received time.Time   // host time the line arrived
	Millis   uint32      // node uptime counter, wraps at 2^32
	Reading  dht.Reading // valid when Failure is empty
	Failure  string      // wire reason of a failed read
}

// Failed reports whether the node failed to read the sensor.
func (r Record) Failed() bool {
	return r.Failure != ""
}

// ParseLine parses one line of node output without its terminator.
// Formats: "millis,temperature,humidity" and "millis,error,reason".
// Example: 10000,23.4,41.0
func ParseLine(line string) (Record, error) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == report.CommentPrefix {
		return Record{}, ErrComment
	}

	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Record{}, fmt.Errorf("invalid line format: expected 3 comma-separated values, got %d", len(parts))
	}

	millis, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Record{}, fmt.Errorf("invalid millis: %w", err)
	}
	rec := Record{Millis: uint32(millis)}

	if parts[1] == report.ErrorTag {
		if parts[2] == "" {
			return Record{}, fmt.Errorf("missing failure reason")
		}
		rec.Failure = parts[2]
		return rec, nil
	}

	temperature, err := parseTenths(parts[1])
	if err != nil {
		return Record{}, fmt.Errorf("invalid temperature: %w", err)
	}
	if temperature < -400 || temperature > 1250 {
		return Record{}, fmt.Errorf("temperature out of range: %d tenths", temperature)
	}

	humidity, err := parseTenths(parts[2])
	if err != nil {
		return Record{}, fmt.Errorf("invalid humidity: %w", err)
	}
	if humidity < 0 || humidity > 1000 {
		return Record{}, fmt.Errorf("humidity out of range: %d tenths", humidity)
	}

	rec.Reading = dht.FromTenths(int16(temperature), uint16(humidity))
	return rec, nil
}

// parseTenths parses a decimal with at most one fractional digit into tenths.
func parseTenths(s string) (int32, error) {
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && len(frac) != 1) {
		return 0, fmt.Errorf("malformed value %q", s)
	}

	w, err := strconv.ParseUint(whole, 10, 16)
	if err != nil {
		return 0, err
	}
	v := int32(w) * 10
	if hasFrac {
		if frac[0] < '0' || frac[0] > '9' {
			return 0, fmt.Errorf("malformed value %q", s)
		}
		v += int32(frac[0] - '0')
	}
	if negative {
		v = -v
	}
	return v, nil
}
