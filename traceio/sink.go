package traceio

import (
	"fmt"
	"io"
)

// StdoutSink implements inject.Sink by writing two framed tokens —
// insn_count then target address, each "0x%08X" — to an underlying
// writer, one emission per line.
type StdoutSink struct {
	W io.Writer
}

// Emit writes "0x%08X 0x%08X\n" for the given insnCount and addr.
func (s StdoutSink) Emit(insnCount uint64, addr uint32) {
	fmt.Fprintf(s.W, "0x%08X 0x%08X\n", insnCount, addr)
}

// RecordingSink accumulates emitted events in memory, for tests.
type RecordingSink struct {
	Events []Emission
}

// Emission is one recorded injection event.
type Emission struct {
	InsnCount uint64
	Addr      uint32
}

// Emit appends the event to Events.
func (s *RecordingSink) Emit(insnCount uint64, addr uint32) {
	s.Events = append(s.Events, Emission{InsnCount: insnCount, Addr: addr})
}
