// Package hardware abstracts the device's analog inputs, relay outputs and
// wireless link so the agent can run against the real board or a simulation.
package hardware

// Board groups the pins the agent touches. Analog reads are assumed to
// always yield a value; relay writes may report an error but carry no fault
// feedback beyond that.
type Board interface {
	ReadAnalog(channel int) int
	WriteDigital(pin string, high bool) error
	Close() error
}
