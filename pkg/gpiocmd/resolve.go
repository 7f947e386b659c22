package gpiocmd

import (
	"bytes"
	"strconv"

	"github.com/robotalks/gpiocmd/pkg/gpio"
)

// maskMarker prefixes a pin token carrying a raw mask instead of an index.
const maskMarker = 'm'

// PinSpec is a resolved register and pin selection.
type PinSpec struct {
	Reg  gpio.Register
	Mask gpio.PinMask
}

// ResolvePin reads the register token at args[argn] and the optional pin
// token at args[argn+1]. A missing pin token selects every pin.
// Malformed numbers are returned as *strconv.NumError.
func ResolvePin(args Args, argn int) (spec PinSpec, err error) {
	reg, ok := args.At(argn)
	if !ok {
		return spec, ReplyNoRegister
	}
	if len(reg) != 1 {
		return spec, ReplyInvalidRegister
	}
	if spec.Reg, ok = gpio.RegisterByName(reg[0]); !ok {
		return spec, ReplyInvalidRegisterName
	}

	pin, ok := args.At(argn + 1)
	if !ok {
		spec.Mask = gpio.PinAll
		return spec, nil
	}
	maskMode := pin[0] == maskMarker
	if maskMode {
		pin = pin[1:]
	}
	n, err := parseNumber(pin)
	if err != nil {
		return spec, err
	}
	if !maskMode {
		// shifts of 64 or more yield 0
		mask := uint64(1) << n
		if mask == 0 && n != 0 {
			return spec, ReplyInvalidPinNumber
		}
		n = mask
	}
	if n&gpio.PinMaskValid != n {
		return spec, ReplyInvalidPinMask
	}
	spec.Mask = gpio.PinMask(n)
	return spec, nil
}

// parseNumber accepts decimal and 0x/0o/0b/0 prefixed literals. Digit
// separators are not part of the grammar.
func parseNumber(tok []byte) (uint64, error) {
	if bytes.IndexByte(tok, '_') >= 0 {
		return 0, &strconv.NumError{Func: "ParseUint", Num: string(tok), Err: strconv.ErrSyntax}
	}
	return strconv.ParseUint(string(tok), 0, 64)
}
