// Package driver implements the access driver (C4): per-instruction
// dispatch that binds decoded ARM v7-A instructions to I-cache,
// D-cache, and cache-control operations on a cache.Hierarchy, and
// notifies a fault injector of each retired instruction.
package driver

import (
	"fmt"

	"github.com/sarchlab/armcachesim/armdecode"
	"github.com/sarchlab/armcachesim/cache"
)

// RegisterReader reads a guest general-purpose register by index. The
// driver depends on this only to extract DCISW's Set/Way payload from
// Rt; it is never implemented against a concrete host register file
// here.
type RegisterReader func(reg uint8) uint32

// Injector is the subset of the fault injector (C5) the driver
// notifies on every retired instruction. Implemented by *inject.Injector.
type Injector interface {
	NotifyInstruction(insnCount uint64)
}

// TextRange is the inclusive-start, exclusive-end .text address range
// configured for a run.
type TextRange struct {
	Start uint64
	End   uint64
}

// Contains reports whether addr falls within the range.
func (r TextRange) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// Driver binds decoded instructions to cache-hierarchy operations. It
// owns the global instruction, load, and store counters and holds no
// other mutable state beyond the Hierarchy and Injector it was built
// with.
type Driver struct {
	hierarchy *cache.Hierarchy
	decoder   *armdecode.Decoder
	text      TextRange
	readReg   RegisterReader
	injector  Injector

	insnCount  uint64
	loadCount  uint64
	storeCount uint64
}

// New constructs a Driver. readReg may be nil if the trace never
// contains DCISW instructions; any DCISW encountered with a nil reader
// is skipped rather than panicking.
func New(h *cache.Hierarchy, text TextRange, readReg RegisterReader, injector Injector) *Driver {
	return &Driver{
		hierarchy: h,
		decoder:   armdecode.NewDecoder(),
		text:      text,
		readReg:   readReg,
		injector:  injector,
	}
}

// InsnCount returns the number of instruction-execute events processed
// so far.
func (d *Driver) InsnCount() uint64 { return d.insnCount }

// LoadCount returns the number of data-access load events processed.
func (d *Driver) LoadCount() uint64 { return d.loadCount }

// StoreCount returns the number of data-access store events processed.
func (d *Driver) StoreCount() uint64 { return d.storeCount }

// ExecuteInstruction decodes the word at vaddr and invalidates caches
// for DCISW/ICIALLU wherever the instruction lies; if vaddr falls in
// .text it also accounts for the fetch and notifies the injector. raw
// must be exactly 4 bytes; a size mismatch is reported but never
// panics, matching the decoder's own size-mismatch handling.
func (d *Driver) ExecuteInstruction(vaddr uint64, raw []byte) (*armdecode.Instruction, error) {
	inst, err := d.decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("driver: decode at 0x%08X: %w", vaddr, err)
	}

	inText := d.text.Contains(vaddr)
	if inText {
		d.insnCount++
		d.hierarchy.ILoad(vaddr)
	}

	switch {
	case inst.IsDCISW():
		d.handleDCISW(inst)
	case inst.IsICIALLU():
		d.hierarchy.IInvalidateAll()
	}

	if inText && d.injector != nil {
		d.injector.NotifyInstruction(d.insnCount)
	}

	return inst, nil
}

// handleDCISW reads Rt, splits it into Set ([13:4]) and Way ([31:30])
// per the default D-cache's set/way payload layout, and invalidates
// that block.
func (d *Driver) handleDCISW(inst *armdecode.Instruction) {
	if d.readReg == nil {
		return
	}

	payload := d.readReg(inst.Rt)
	set := int((payload >> 4) & 0x3FF) // bits [13:4], 10-bit set field
	way := int((payload >> 30) & 0x3)  // bits [31:30], 2-bit way field

	d.hierarchy.DInvalidateBlock(set, way)
}

// Access resolves the effective access address for a decoded memory
// instruction and issues a D-cache load or store (or both, for a
// swap). Addresses within .text are skipped, since they were already
// accounted for as instruction fetches.
func (d *Driver) Access(inst *armdecode.Instruction, vaddr uint64) {
	if inst.Category == armdecode.CategoryInstOnly {
		return
	}

	if d.text.Contains(vaddr) {
		return
	}

	switch inst.Direction {
	case armdecode.DirLoad:
		d.loadCount++
		d.hierarchy.DLoad(vaddr)

	case armdecode.DirStore:
		d.storeCount++
		d.hierarchy.DStore(vaddr)

	case armdecode.DirLoadStore:
		d.loadCount++
		d.storeCount++
		d.hierarchy.DLoad(vaddr)
		d.hierarchy.DStore(vaddr)
	}
}
