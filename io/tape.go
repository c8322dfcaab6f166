package io

import (
	"fmt"
	"io"
)

// Tape writes each value it receives as a decimal line on Output.
type Tape struct {
	Output io.Writer

	Count int // Values written since the last rewind.
}

var _ Channel = (*Tape)(nil)

// Rewind is not possible on a tape, only the counter restarts.
func (tc *Tape) Rewind() {
	tc.Count = 0
}

// Send writes the decimal representation of value, newline terminated.
// Returns ErrChannelClosed if no Output is attached.
func (tc *Tape) Send(value byte) (err error) {
	if tc.Output == nil {
		err = ErrChannelClosed
		return
	}

	_, err = fmt.Fprintf(tc.Output, "%d\n", value)
	if err != nil {
		return
	}

	tc.Count++

	return
}
