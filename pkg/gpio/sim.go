package gpio

import (
	"sync"

	"github.com/golang/glog"
)

// Op names a HAL operation recorded by Sim.
type Op string

// Recorded operations.
const (
	OpSet    Op = "set"
	OpReset  Op = "reset"
	OpToggle Op = "toggle"
	OpRead   Op = "read"
	OpInit   Op = "init"
	OpDeInit Op = "deinit"
)

// Call is one recorded HAL invocation.
type Call struct {
	Op     Op
	Reg    Register
	Mask   PinMask
	Config InitConfig
}

type simRegister struct {
	output  PinMask // output data bits
	input   PinMask // externally driven levels
	inputs  PinMask // pins configured as input
	outputs PinMask // pins configured as output
}

// Sim is an in-memory GPIO bank implementing HAL.
// Pins configured as inputs read the externally driven level (see Drive),
// every other pin reads back its output data bit.
type Sim struct {
	regs  [RegisterCount]simRegister
	calls []Call
	lock  sync.Mutex
}

// NewSim creates a Sim with every pin low and unconfigured.
func NewSim() *Sim {
	return &Sim{}
}

func (s *Sim) record(c Call) *simRegister {
	s.calls = append(s.calls, c)
	glog.V(3).Infof("gpio %s %s mask=%#04x", c.Op, c.Reg, uint16(c.Mask))
	return &s.regs[c.Reg]
}

// Set implements HAL.
func (s *Sim) Set(reg Register, mask PinMask) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r := s.record(Call{Op: OpSet, Reg: reg, Mask: mask})
	r.output |= mask
}

// Reset implements HAL.
func (s *Sim) Reset(reg Register, mask PinMask) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r := s.record(Call{Op: OpReset, Reg: reg, Mask: mask})
	r.output &^= mask
}

// Toggle implements HAL.
func (s *Sim) Toggle(reg Register, mask PinMask) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r := s.record(Call{Op: OpToggle, Reg: reg, Mask: mask})
	r.output ^= mask
}

// Read implements HAL. A selection mixing high and low pins, or an
// empty selection, reads as PinInvalid. This is stricter than a hardware
// HAL which reports PinSet when any selected pin is high.
func (s *Sim) Read(reg Register, mask PinMask) PinState {
	s.lock.Lock()
	defer s.lock.Unlock()
	r := s.record(Call{Op: OpRead, Reg: reg, Mask: mask})
	if mask == 0 {
		return PinInvalid
	}
	levels := (r.input & r.inputs) | (r.output &^ r.inputs)
	switch levels & mask {
	case mask:
		return PinSet
	case 0:
		return PinReset
	default:
		return PinInvalid
	}
}

// Init implements HAL.
func (s *Sim) Init(reg Register, conf InitConfig) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r := s.record(Call{Op: OpInit, Reg: reg, Mask: conf.Pins, Config: conf})
	switch conf.Mode {
	case ModeInput:
		r.inputs |= conf.Pins
		r.outputs &^= conf.Pins
	case ModeOutputOD:
		r.outputs |= conf.Pins
		r.inputs &^= conf.Pins
	}
}

// DeInit implements HAL.
func (s *Sim) DeInit(reg Register, mask PinMask) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r := s.record(Call{Op: OpDeInit, Reg: reg, Mask: mask})
	r.inputs &^= mask
	r.outputs &^= mask
	r.output &^= mask
}

// Drive sets the external level seen by pins configured as inputs.
func (s *Sim) Drive(reg Register, mask PinMask, high bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if high {
		s.regs[reg].input |= mask
	} else {
		s.regs[reg].input &^= mask
	}
}

// Output returns the output data bits of a register.
func (s *Sim) Output(reg Register) PinMask {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.regs[reg].output
}

// Configured returns the pins configured as inputs and as outputs.
func (s *Sim) Configured(reg Register) (inputs, outputs PinMask) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.regs[reg].inputs, s.regs[reg].outputs
}

// Calls returns a copy of all recorded invocations.
func (s *Sim) Calls() []Call {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Call(nil), s.calls...)
}

// ClearCalls forgets recorded invocations.
func (s *Sim) ClearCalls() {
	s.lock.Lock()
	s.calls = nil
	s.lock.Unlock()
}
