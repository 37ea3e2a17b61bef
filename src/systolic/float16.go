package systolic

import (
	"github.com/x448/float16"
)

// Float16 layout: 1 sign bit, 5 exponent bits (bias 15), 10 mantissa bits
// with an implicit leading one. The bit layout matches IEEE binary16 but the
// arithmetic does not: every pattern is treated as a normal number and the
// same truncating datapath as Float8 applies, scaled to 11-bit extended
// mantissas for multiply and 15-bit extended mantissas (four guard bits) for
// add.
const (
	float16ExponentBias = 15
	float16MantissaBits = 10
	float16ExponentMask = 0x1F
	float16MantissaMask = 0x3FF
)

// float16Unit implements the reduced 16-bit floating-point MAC arithmetic.
// It carries the same intentional defects as float8Unit: truncating
// normalization with the off-by-one field extraction on carry, modulo-32
// exponent wraparound and a sign-blind add path.
type float16Unit struct {
	accBits int
}

func (float16Unit) Precision() Precision {
	return Float16
}

func (u float16Unit) AccumulatorBits() int {
	return u.accBits
}

func (float16Unit) Multiply(a, b Value) uint32 {
	return float16MulBits(uint32(a), uint32(b))
}

func (u float16Unit) SignExtendIntoAccumulator(product uint32) Accumulator {
	return Accumulator(signExtendBits(uint64(product)&0xFFFF, 16, u.accBits))
}

func (u float16Unit) Add(a, b Accumulator) Accumulator {
	sum := float16AddBits(uint32(a)&0xFFFF, uint32(b)&0xFFFF)
	return Accumulator(signExtendBits(uint64(sum), 16, u.accBits))
}

func (float16Unit) Zero() Accumulator {
	return 0
}

// float16MulBits mirrors float8MulBits scaled to the 1-5-10 layout: 11-bit
// extended mantissas, a 22-bit product and truncating normalization off the
// product's carry bit.
func float16MulBits(a, b uint32) uint32 {
	sa := (a >> 15) & 1
	ea := (a >> float16MantissaBits) & float16ExponentMask
	ma := a & float16MantissaMask
	sb := (b >> 15) & 1
	eb := (b >> float16MantissaBits) & float16ExponentMask
	mb := b & float16MantissaMask

	sz := sa ^ sb
	ez := int(ea) + int(eb) - float16ExponentBias

	product := (ma | 0x400) * (mb | 0x400)
	var mz uint32
	if product&(1<<21) != 0 {
		ez++
		mz = (product >> 12) & float16MantissaMask
	} else {
		mz = (product >> 11) & float16MantissaMask
	}

	return sz<<15 | (uint32(ez)&float16ExponentMask)<<float16MantissaBits | mz
}

// float16AddBits mirrors float8AddBits scaled to the 1-5-10 layout: 15-bit
// extended mantissas with four guard bits, a 16-bit sum, larger exponent wins
// the sign (ties favor b) and magnitudes are added regardless of sign.
func float16AddBits(a, b uint32) uint32 {
	sa := (a >> 15) & 1
	ea := (a >> float16MantissaBits) & float16ExponentMask
	ma := a & float16MantissaMask
	sb := (b >> 15) & 1
	eb := (b >> float16MantissaBits) & float16ExponentMask
	mb := b & float16MantissaMask

	extA := ((ma | 0x400) << 4)
	extB := ((mb | 0x400) << 4)

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
	if sum&(1<<15) != 0 {
		ez++
		mz = (sum >> 6) & float16MantissaMask
	} else {
		mz = (sum >> 5) & float16MantissaMask
	}

	return sz<<15 | (ez&float16ExponentMask)<<float16MantissaBits | mz
}

// DecodeFloat16 reads an encoding as a native float32. The toy layout matches
// IEEE binary16 bit for bit, so the conversion leans on the float16 package;
// patterns the toy arithmetic treats as normal but IEEE reserves (exponent 0
// or 31) decode under IEEE rules. Diagnostic use only.
func DecodeFloat16(v Value) float32 {
	return float16.Frombits(uint16(v)).Float32()
}

// EncodeFloat16 builds the IEEE binary16 encoding of a native float, which is
// the same bit layout the toy format consumes. Intended for operand
// generation; values outside the normal half range land on IEEE specials that
// the toy arithmetic will happily treat as ordinary numbers.
func EncodeFloat16(f float32) Value {
	return Value(float16.Fromfloat32(f).Bits())
}
