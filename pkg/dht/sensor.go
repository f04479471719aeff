package dht

// Sensor performs one blocking read.
type Sensor interface {
	Read() (Reading, error)
}

// Configurer is implemented by sensors whose pin needs setting up before
// interrupts are enabled.
type Configurer interface {
	Configure() error
}
