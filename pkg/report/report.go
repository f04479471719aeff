// Package report writes the node's line protocol.
//
//	# dhtick DHT11 ready
//	10000,23.0,41.0
//	20000,error,checksum
//
// Every line ends with "\r\n". Lines are built with strconv into a fixed
// buffer so the writer runs on an 8-bit target without fmt.
package report

import (
	"errors"
	"io"
	"strconv"

	"github.com/itohio/dhtick/pkg/dht"
)

const (
	// LineEnd terminates every line.
	LineEnd = "\r\n"
	// CommentPrefix starts lines that carry no measurement.
	CommentPrefix = '#'
	// ErrorTag is the second field of a failure line.
	ErrorTag = "error"
)

// Failure reasons carried in the third field of a failure line.
const (
	ReasonChecksum   = "checksum"
	ReasonTimeout    = "timeout"
	ReasonNoResponse = "no-response"
	ReasonRange      = "range"
	ReasonRead       = "read"
)

// Reason maps a sensor error to its wire reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, dht.ErrChecksum):
		return ReasonChecksum
	case errors.Is(err, dht.ErrTimeout):
		return ReasonTimeout
	case errors.Is(err, dht.ErrNoResponse):
		return ReasonNoResponse
	case errors.Is(err, dht.ErrOutOfRange):
		return ReasonRange
	}
	return ReasonRead
}

// AppendBanner appends the startup line.
func AppendBanner(dst []byte, model dht.Model) []byte {
	dst = append(dst, CommentPrefix)
	dst = append(dst, " dhtick "...)
	dst = append(dst, model.String()...)
	dst = append(dst, " ready"...)
	return append(dst, LineEnd...)
}

// AppendSample appends "millis,temperature,humidity\r\n".
func AppendSample(dst []byte, millis uint32, r dht.Reading) []byte {
	dst = strconv.AppendUint(dst, uint64(millis), 10)
	dst = append(dst, ',')
	dst = r.AppendTemperature(dst)
	dst = append(dst, ',')
	dst = r.AppendHumidity(dst)
	return append(dst, LineEnd...)
}

// AppendFailure appends "millis,error,reason\r\n".
func AppendFailure(dst []byte, millis uint32, err error) []byte {
	dst = strconv.AppendUint(dst, uint64(millis), 10)
	dst = append(dst, ',')
	dst = append(dst, ErrorTag...)
	dst = append(dst, ',')
	dst = append(dst, Reason(err)...)
	return append(dst, LineEnd...)
}

// Writer emits lines to a character sink, one Write per line.
type Writer struct {
	w   io.Writer
	buf [48]byte
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Banner writes the startup line.
func (w *Writer) Banner(model dht.Model) error {
	return w.write(AppendBanner(w.buf[:0], model))
}

// Sample writes one reading.
func (w *Writer) Sample(millis uint32, r dht.Reading) error {
	return w.write(AppendSample(w.buf[:0], millis, r))
}

// Failure writes one failed read.
func (w *Writer) Failure(millis uint32, err error) error {
	return w.write(AppendFailure(w.buf[:0], millis, err))
}

func (w *Writer) write(line []byte) error {
	_, err := w.w.Write(line)
	return err
}
