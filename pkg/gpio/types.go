// Package gpio defines the register/pin boundary the command interpreter
// drives, and a simulated bank for hosts without real pins.
package gpio

import "fmt"

// Register identifies one of the five pin groups.
type Register int

// Registers.
const (
	RegA Register = iota
	RegB
	RegC
	RegD
	RegE

	RegisterCount = 5
)

// RegisterByName maps a lowercase register letter to a Register.
func RegisterByName(name byte) (Register, bool) {
	if name < 'a' || name >= 'a'+RegisterCount {
		return 0, false
	}
	return Register(name - 'a'), true
}

// IsValid indicates the register is one of RegA..RegE.
func (r Register) IsValid() bool {
	return r >= RegA && r < RegisterCount
}

// String implements fmt.Stringer.
func (r Register) String() string {
	if !r.IsValid() {
		return fmt.Sprintf("Register(%d)", int(r))
	}
	return string(rune('A' + r))
}

// PinMask selects one or more pins within a register.
type PinMask uint16

// Masks.
const (
	// PinAll selects every pin of a register.
	PinAll PinMask = 0xffff
	// PinMaskValid covers every bit a mask may carry.
	PinMaskValid uint64 = 0xffff
	// PinCount is the number of pins per register.
	PinCount = 16
)

// Pin returns the mask of a single pin.
func Pin(n uint) PinMask {
	return PinMask(1 << n)
}

// PinState is the result of reading pins.
type PinState int

// Pin states.
const (
	PinReset PinState = iota
	PinSet
	PinInvalid
)

// String implements fmt.Stringer.
func (s PinState) String() string {
	switch s {
	case PinSet:
		return "up"
	case PinReset:
		return "down"
	default:
		return "invalid"
	}
}

// Mode is the pin direction configured by Init.
type Mode int

// Modes.
const (
	ModeInput Mode = iota
	ModeOutputOD
)

// Pull is the pull resistor setting.
type Pull int

// Pull settings.
const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Speed is the output slew setting.
type Speed int

// Speeds.
const (
	SpeedLow Speed = iota
	SpeedMedium
	SpeedHigh
)

// InitConfig describes how pins are configured.
type InitConfig struct {
	Pins  PinMask
	Mode  Mode
	Pull  Pull
	Speed Speed
}

// HAL is the set of physical operations applied to resolved pins.
// Set/Reset/Toggle/Init/DeInit are fire-and-forget.
type HAL interface {
	Set(Register, PinMask)
	Reset(Register, PinMask)
	Toggle(Register, PinMask)
	Read(Register, PinMask) PinState
	Init(Register, InitConfig)
	DeInit(Register, PinMask)
}
