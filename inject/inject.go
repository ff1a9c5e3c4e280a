// Package inject implements the fault injector (C5): a single-shot
// ARMED/FIRED state machine that, once the instruction counter reaches
// a scheduled trigger, computes and reports a corrupted byte address
// within a chosen cache.
package inject

import (
	"errors"
	"fmt"

	"github.com/sarchlab/armcachesim/cache"
)

// ErrRangeError is returned by Arm when a Plan's row/way/word_in_block
// is out of range for its target cache. A failed Arm leaves the
// injector's state and plan unchanged, permitting a retry with a
// corrected plan.
var ErrRangeError = cache.ErrRangeError

// ErrInvalidSlot is returned (wrapped) by Arm when the target cache has
// been torn down. A target slot that is not valid at fire time is not
// reported through this error: NotifyInstruction leaves the injector
// Armed without emitting.
var ErrInvalidSlot = cache.ErrInvalidSlot

// ErrAlreadyFired is returned by Arm when the injector has already
// fired; a single-shot injector cannot be rearmed within one run.
var ErrAlreadyFired = errors.New("inject: injector has already fired")

// State is the injector's lifecycle state.
type State uint8

// Injector lifecycle states.
const (
	Unarmed State = iota
	Armed
	Fired
)

// Plan is the injection target: fire after sleep_cycles instructions,
// then corrupt word_in_block within (row, way) of the named cache.
type Plan struct {
	SleepCycles uint64
	Cache       cache.Target
	Row         int
	Way         int
	WordInBlock int
}

// Sink receives the emitted injection event: the instruction count at
// fire time and the target byte address, both formatted "0x%08X". This
// is the external "socket or log" collaborator, narrowed to the one
// method the injector actually needs.
type Sink interface {
	Emit(insnCount uint64, addr uint32)
}

// Injector is the fault-injection controller (C5). It is constructed
// with New and must be armed with Arm before NotifyInstruction can fire
// it.
type Injector struct {
	hierarchy *cache.Hierarchy
	sink      Sink

	state State
	plan  Plan
}

// New constructs an Injector bound to a Hierarchy and Sink, with no
// plan armed yet.
func New(h *cache.Hierarchy, sink Sink) *Injector {
	return &Injector{hierarchy: h, sink: sink, state: Unarmed}
}

// Arm validates plan against its target cache and, if valid, arms the
// injector. It fails with ErrInvalidCache if the cache name is
// unrecognized, ErrRangeError if row/way/word_in_block are out of
// range (validated up front, at receipt, rather than deferred to fire
// time), or ErrAlreadyFired if this injector already fired — it is
// single-shot for the remainder of the run.
func (inj *Injector) Arm(plan Plan) error {
	if inj.state == Fired {
		return ErrAlreadyFired
	}

	c, err := inj.hierarchy.Lookup(plan.Cache)
	if err != nil {
		return err
	}

	if err := c.ValidateInjection(plan.Row, plan.Way, plan.WordInBlock); err != nil {
		return fmt.Errorf("inject: arm: %w", err)
	}

	inj.plan = plan
	inj.state = Armed

	return nil
}

// State returns the injector's current lifecycle state.
func (inj *Injector) State() State {
	return inj.state
}

// NotifyInstruction is called by the access driver on every retired
// instruction. Once insnCount >= the armed plan's SleepCycles, it
// fires: queries the target slot's address,
// computes the corrupted byte address, and emits it through the Sink.
// The ranges were already checked at Arm time. If the target slot is
// not valid at fire time, nothing is emitted and the injector stays
// Armed, so a later call can fire once the slot is filled;
// NotifyInstruction never returns an error so the driver can call it
// unconditionally.
func (inj *Injector) NotifyInstruction(insnCount uint64) {
	if inj.state != Armed {
		return
	}

	if insnCount < inj.plan.SleepCycles {
		return
	}

	c, err := inj.hierarchy.Lookup(inj.plan.Cache)
	if err != nil {
		return
	}

	if !c.IsBlockValid(inj.plan.Row, inj.plan.Way) {
		return
	}

	base := c.GetAddr(inj.plan.Row, inj.plan.Way)
	addr := base + uint64(inj.plan.WordInBlock)*4

	inj.state = Fired
	if inj.sink != nil {
		inj.sink.Emit(insnCount, uint32(addr))
	}
}
