package monitor

// Device is a source of node records (a real node on a serial port or a
// simulated one).
type Device interface {
	Connect() error
	Close() error
	Records() <-chan Record
	IsConnected() bool
}

var _ Device = (*Serial)(nil)

var _ Device = (*Mock)(nil)
