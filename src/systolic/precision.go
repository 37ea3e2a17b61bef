// Package systolic implements a cycle-accurate functional model of an N×N
// systolic multiply-accumulate array. The array is generic over three numeric
// precisions: signed 8-bit integers and two reduced floating-point formats
// (1-4-3 and 1-5-10). The floating-point arithmetic is deliberately
// non-conforming: no NaN/Infinity/subnormal handling, truncating mantissa
// alignment and an add path that ignores operand signs. The model reproduces
// those semantics bit for bit; it does not attempt to be numerically correct.
package systolic

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Precision selects the operand encoding used by an array instance.
type Precision int

const (
	// Int8 operands are two's-complement signed 8-bit integers.
	Int8 Precision = iota
	// Float8 operands use a 1-bit sign, 4-bit exponent (bias 7) and 3-bit
	// mantissa with an implicit leading one.
	Float8
	// Float16 operands use a 1-bit sign, 5-bit exponent (bias 15) and
	// 10-bit mantissa with an implicit leading one.
	Float16
)

// String returns the lower-case precision name used on the command line.
func (p Precision) String() string {
	switch p {
	case Int8:
		return "int8"
	case Float8:
		return "float8"
	case Float16:
		return "float16"
	default:
		return "invalid"
	}
}

// ParsePrecision maps a precision name to its enum value.
func ParsePrecision(name string) (Precision, error) {
	switch name {
	case "int8":
		return Int8, nil
	case "float8":
		return Float8, nil
	case "float16":
		return Float16, nil
	default:
		return 0, configErrorf("unsupported precision %q (want int8|float8|float16)", name)
	}
}

// OperandBits returns the encoded operand width in bits.
func (p Precision) OperandBits() int {
	if p == Float16 {
		return 16
	}
	return 8
}

// OperandBytes returns the bus slot width for one operand lane.
func (p Precision) OperandBytes() int {
	return p.OperandBits() / 8
}

func (p Precision) valid() bool {
	return p == Int8 || p == Float8 || p == Float16
}

// Value is one encoded operand. Only the low OperandBits bits of the chosen
// precision are meaningful; the array never inspects the rest.
type Value uint16

// Accumulator is the bit pattern of one partial-sum register. Int8 arrays use
// a 32-bit two's-complement accumulator; floating-point arrays hold the
// format-width encoding sign-extended to the configured accumulator width.
type Accumulator uint64

// FormatAccumulator renders an accumulator pattern for human-readable
// reports: a plain integer for Int8, the format's own numeric reading plus
// the raw pattern for the floating precisions.
func (p Precision) FormatAccumulator(acc Accumulator) string {
	switch p {
	case Int8:
		return strconv.Itoa(int(int32(uint32(acc))))
	case Float8:
		return fmt.Sprintf("%g (0x%02x)", DecodeFloat8(Value(acc&0xFF)), uint8(acc))
	case Float16:
		return fmt.Sprintf("%g (0x%04x)", DecodeFloat16(Value(acc&0xFFFF)), uint16(acc))
	default:
		return fmt.Sprintf("0x%x", uint64(acc))
	}
}

// configErrorf builds a *ConfigError carrying a formatted cause.
func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{cause: errors.Errorf(format, args...)}
}

// layoutErrorf builds a *LayoutError carrying a formatted cause.
func layoutErrorf(format string, args ...interface{}) error {
	return &LayoutError{cause: errors.Errorf(format, args...)}
}

// ConfigError reports invalid construction parameters: a non-positive array
// size, an unsupported precision tag or an accumulator narrower than the
// operand format. It only occurs at construction time, never mid-run.
type ConfigError struct {
	cause error
}

func (e *ConfigError) Error() string {
	return e.cause.Error()
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ConfigError) Unwrap() error {
	return e.cause
}

// LayoutError reports a bus transfer whose shape does not match the array:
// an operand sequence of the wrong length or a flat buffer of the wrong total
// width. The array state is never altered by a rejected transfer.
type LayoutError struct {
	cause error
}

func (e *LayoutError) Error() string {
	return e.cause.Error()
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *LayoutError) Unwrap() error {
	return e.cause
}
