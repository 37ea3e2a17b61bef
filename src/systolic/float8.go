package systolic

import "math"

// Float8 layout: 1 sign bit, 4 exponent bits (bias 7), 3 mantissa bits with an
// implicit leading one. Every one of the 256 patterns is treated as a normal
// number; there is no zero, NaN, Infinity or subnormal encoding.
const (
	float8ExponentBias = 7
	float8MantissaBits = 3
	float8ExponentMask = 0xF
	float8MantissaMask = 0x7
)

// float8Unit implements the reduced 8-bit floating-point MAC arithmetic.
//
// Known, intentional defects reproduced here: post-operation normalization
// truncates (never rounds) and, on a carry, extracts the mantissa field one
// position too high so the leading bit is kept explicitly; the exponent wraps
// modulo 16 with no overflow or underflow clamping; the add path ignores
// operand signs entirely, so unlike-sign additions produce numerically wrong
// magnitudes. None of this may be "fixed" without breaking bit compatibility
// with the modeled hardware.
type float8Unit struct {
	accBits int
}

func (float8Unit) Precision() Precision {
	return Float8
}

func (u float8Unit) AccumulatorBits() int {
	return u.accBits
}

func (float8Unit) Multiply(a, b Value) uint32 {
	return float8MulBits(uint32(a)&0xFF, uint32(b)&0xFF)
}

func (u float8Unit) SignExtendIntoAccumulator(product uint32) Accumulator {
	return Accumulator(signExtendBits(uint64(product)&0xFF, 8, u.accBits))
}

func (u float8Unit) Add(a, b Accumulator) Accumulator {
	sum := float8AddBits(uint32(a)&0xFF, uint32(b)&0xFF)
	return Accumulator(signExtendBits(uint64(sum), 8, u.accBits))
}

func (float8Unit) Zero() Accumulator {
	return 0
}

// float8MulBits multiplies two 8-bit encodings: XOR the signs, add the
// exponents minus the bias in a width wide enough to carry, multiply the
// 4-bit extended mantissas to an 8-bit product and truncate-normalize.
func float8MulBits(a, b uint32) uint32 {
	sa := (a >> 7) & 1
	ea := (a >> float8MantissaBits) & float8ExponentMask
	ma := a & float8MantissaMask
	sb := (b >> 7) & 1
	eb := (b >> float8MantissaBits) & float8ExponentMask
	mb := b & float8MantissaMask

	sz := sa ^ sb
	ez := int(ea) + int(eb) - float8ExponentBias

	product := (ma | 0x8) * (mb | 0x8)
	var mz uint32
	if product&0x80 != 0 {
		ez++
		mz = (product >> 5) & float8MantissaMask
	} else {
		mz = (product >> 4) & float8MantissaMask
	}

	return sz<<7 | (uint32(ez)&float8ExponentMask)<<float8MantissaBits | mz
}

// float8AddBits adds two 8-bit encodings. The operand with the larger
// exponent dictates the result sign and exponent unconditionally; an exponent
// tie favors operand b. The smaller operand's extended mantissa (implicit one
// plus three guard bits) is aligned by a discarding logical right shift, the
// magnitudes are always added regardless of sign, and the 8-bit sum is
// truncate-normalized.
func float8AddBits(a, b uint32) uint32 {
	sa := (a >> 7) & 1
	ea := (a >> float8MantissaBits) & float8ExponentMask
	ma := a & float8MantissaMask
	sb := (b >> 7) & 1
	eb := (b >> float8MantissaBits) & float8ExponentMask
	mb := b & float8MantissaMask

	extA := ((ma | 0x8) << 3)
	extB := ((mb | 0x8) << 3)

	var sz, ez, sum uint32
	if ea > eb {
		sz = sa
		ez = ea
		sum = extA + (extB >> (ea - eb))
	} else {
		sz = sb
		ez = eb
		sum = extB + (extA >> (eb - ea))
	}

	var mz uint32
	if sum&0x80 != 0 {
		ez++
		mz = (sum >> 5) & float8MantissaMask
	} else {
		mz = (sum >> 4) & float8MantissaMask
	}

	return sz<<7 | (ez&float8ExponentMask)<<float8MantissaBits | mz
}

// DecodeFloat8 reads an encoding under the format's own rules, where every
// pattern is a normal number: (-1)^s * 2^(e-7) * (1 + m/8). Diagnostic use
// only; the array never converts operands to native floats.
func DecodeFloat8(v Value) float32 {
	sign := float64(1)
	if v&0x80 != 0 {
		sign = -1
	}
	exponent := int((v >> float8MantissaBits) & float8ExponentMask)
	mantissa := float64(v&float8MantissaMask)/8 + 1
	return float32(sign * mantissa * math.Pow(2, float64(exponent-float8ExponentBias)))
}

// EncodeFloat8 builds the nearest-below encoding of a native float: the
// mantissa is truncated and the exponent clamps to the representable range.
// Zero and non-finite inputs map to the all-zero pattern, which this format
// reads as 2^-7. Intended for operand generation, not precise conversion.
func EncodeFloat8(f float32) Value {
	v := float64(f)
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	var sign uint32
	if math.Signbit(v) {
		sign = 1
		v = -v
	}

	frac, exp := math.Frexp(v)
	exponent := exp - 1 + float8ExponentBias
	if exponent < 0 {
		exponent = 0
	}
	if exponent > int(float8ExponentMask) {
		exponent = int(float8ExponentMask)
	}
	mantissa := uint32(frac*16) & float8MantissaMask

	return Value(sign<<7 | uint32(exponent)<<float8MantissaBits | mantissa)
}
