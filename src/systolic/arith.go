package systolic

// arithmeticUnit is the per-precision capability set the processing elements
// are written against. Implementations are pure and total: every input bit
// pattern yields an output bit pattern, even when the result is numerically
// meaningless. Nothing in this interface can fail.
type arithmeticUnit interface {
	// Precision identifies the operand encoding of this unit.
	Precision() Precision

	// Multiply returns the raw product pattern of two encoded operands:
	// a 16-bit exact two's-complement product for Int8, a format-width
	// encoding for the floating formats.
	Multiply(a, b Value) uint32

	// SignExtendIntoAccumulator widens a Multiply result into the
	// accumulator domain, replicating the sign bit through the upper bits.
	SignExtendIntoAccumulator(product uint32) Accumulator

	// Add combines two accumulator-domain values: wraparound
	// two's-complement addition for Int8, the truncating no-subtraction
	// floating add for Float8/Float16.
	Add(a, b Accumulator) Accumulator

	// Zero returns the accumulator-domain additive identity encoding.
	Zero() Accumulator

	// AccumulatorBits returns the accumulator register width.
	AccumulatorBits() int
}

// newArithmeticUnit builds the unit for a precision. accWidth is only
// meaningful for the floating formats; Int8 always accumulates in 32 bits.
// Parameter validation happens in NewArray.
func newArithmeticUnit(p Precision, accWidth int) arithmeticUnit {
	switch p {
	case Int8:
		return int8Unit{}
	case Float8:
		return float8Unit{accBits: accWidth}
	case Float16:
		return float16Unit{accBits: accWidth}
	default:
		panic("systolic: unknown precision " + p.String())
	}
}

// signExtendBits replicates bit fromBits-1 of v through bits fromBits..toBits-1.
// toBits may be up to 64.
func signExtendBits(v uint64, fromBits, toBits int) uint64 {
	if v&(uint64(1)<<(fromBits-1)) == 0 {
		return v
	}
	var upper uint64
	if toBits >= 64 {
		upper = ^uint64(0)
	} else {
		upper = uint64(1)<<toBits - 1
	}
	return v | (upper &^ (uint64(1)<<fromBits - 1))
}
