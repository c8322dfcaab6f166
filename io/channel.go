// Package io provides the output channels for the LS-8 machine.
// PRN sends one register value per invocation to the attached channel:
// a Tape renders it as decimal text on an io.Writer, a Temporary keeps
// the raw values in a bounded FIFO.
package io

// Channel defines the interface for every output channel of the machine.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Send writes a single value to the channel.
	Send(value byte) error
}
