package systolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat16MultiplyTruncatingNormalize(t *testing.T) {
	one := uint32(0x3C00)

	// 1.0 * 1.0: the 22-bit product 0x100000 has no carry, and the
	// mantissa field from bits [20:11] keeps the leading one explicitly,
	// reporting 1.5. Same defect as the 8-bit datapath, scaled up.
	require.Equal(t, uint32(0x3E00), float16MulBits(one, one))

	// Maximal mantissas with equal exponents carry out: exponent
	// increments and the mantissa comes from bits [21:12].
	// exponents: 16+16-15 = 17, plus the carry increment = 18; mantissa
	// bits [21:12] of 0x7FF^2 = 0x3FF001 are all ones.
	a := uint32(0x43FF) // 0_10000_1111111111 = 2^1 * 1.999
	product := (uint32(0x3FF) | 0x400) * (uint32(0x3FF) | 0x400)
	require.NotZero(t, product&(1<<21), "test vector must exercise the carry branch")
	require.Equal(t, uint32(0x4BFF), float16MulBits(a, a))
}

func TestFloat16MultiplySignRules(t *testing.T) {
	one := uint32(0x3C00)
	negOne := uint32(0xBC00)

	assert.Equal(t, uint32(1), float16MulBits(one, negOne)>>15)
	assert.Equal(t, uint32(1), float16MulBits(negOne, one)>>15)
	assert.Equal(t, uint32(0), float16MulBits(negOne, negOne)>>15)
}

// Adding a positive and a negative value of similar magnitude must go through
// the unconditional add path: the magnitudes are summed as if the signs
// matched and the larger exponent (operand b on a tie) dictates the result
// sign. 1.5 + (-1.25) therefore produces -3.375, not 0.25. The assertion pins
// the exact wrong bit pattern so a well-meaning fix to true subtraction shows
// up as a failure here.
func TestFloat16AddUnlikeSignsReproducesAddPath(t *testing.T) {
	posOnePointFive := uint32(0x3E00)    // 0_01111_1000000000
	negOnePointTwoFive := uint32(0xBD00) // 1_01111_0100000000

	got := float16AddBits(posOnePointFive, negOnePointTwoFive)
	require.Equal(t, uint32(0xC2C0), got)
	assert.InDelta(t, -3.375, DecodeFloat16(Value(got)), 1e-6)

	// Reversed operands flip the tie-break and with it the sign.
	require.Equal(t, uint32(0x42C0), float16AddBits(negOnePointTwoFive, posOnePointFive))
}

func TestFloat16AddAlignmentDiscardsLowBits(t *testing.T) {
	// Delta 5: the smaller operand's mantissa shifts past its guard bits
	// and the lost bits are simply gone.
	big := uint32(0x4C00)   // 2^4 * 1.0
	small := uint32(0x3BFF) // 2^-1 * 1.999...
	// extBig = 0x4000, extSmall = 0x7FF0 >> 5 = 0x03FF; sum = 0x43FF.
	// No carry: mantissa bits [14:5] = 0x21F, exponent unchanged.
	require.Equal(t, uint32(0x4E1F), float16AddBits(big, small))
}

func TestFloat16EncodeDecodeRoundTrip(t *testing.T) {
	for _, f := range []float32{1.0, -1.0, 0.5, 1.5, -3.375, 2048} {
		v := EncodeFloat16(f)
		assert.Equal(t, f, DecodeFloat16(v), "value %v", f)
	}
}
