package systolic

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecVectorRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, precision := range []Precision{Int8, Float8, Float16} {
		for _, n := range []int{1, 3, 8} {
			codec, err := NewCodec(n, precision, 24)
			require.NoError(t, err)

			values := make([]Value, n)
			mask := Value(1)<<precision.OperandBits() - 1
			for i := range values {
				values[i] = Value(rng.Uint32()) & mask
			}

			packed, err := codec.PackVector(values)
			require.NoError(t, err)
			require.Len(t, packed, n*precision.OperandBytes())

			unpacked, err := codec.UnpackVector(packed)
			require.NoError(t, err)
			assert.Equal(t, values, unpacked, "%s n=%d", precision, n)
		}
	}
}

func TestCodecVectorLayout(t *testing.T) {
	codec, err := NewCodec(2, Float16, 16)
	require.NoError(t, err)

	// Lane 0 at the low end, little-endian within a slot.
	packed, err := codec.PackVector([]Value{0x3C00, 0xBD01})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x3C, 0x01, 0xBD}, packed)
}

func TestCodecResultsRoundTrip(t *testing.T) {
	// 40-bit accumulators occupy five-byte slots.
	codec, err := NewCodec(2, Float8, 40)
	require.NoError(t, err)
	require.Equal(t, 2*2*5, codec.ResultBytes())

	results := [][]Accumulator{
		{0xFFFFFFFF84, 0x12},
		{0x0, 0xFF00000001},
	}
	packed, err := codec.PackResults(results)
	require.NoError(t, err)

	unpacked, err := codec.UnpackResults(packed)
	require.NoError(t, err)
	assert.Equal(t, results, unpacked)
}

func TestCodecLayoutErrors(t *testing.T) {
	codec, err := NewCodec(4, Int8, 0)
	require.NoError(t, err)

	var layoutErr *LayoutError

	_, err = codec.PackVector(make([]Value, 3))
	require.ErrorAs(t, err, &layoutErr)

	_, err = codec.UnpackVector(make([]byte, 5))
	require.ErrorAs(t, err, &layoutErr)

	_, err = codec.PackResults(make([][]Accumulator, 3))
	require.ErrorAs(t, err, &layoutErr)

	ragged := [][]Accumulator{
		make([]Accumulator, 4),
		make([]Accumulator, 2),
		make([]Accumulator, 4),
		make([]Accumulator, 4),
	}
	_, err = codec.PackResults(ragged)
	require.ErrorAs(t, err, &layoutErr)

	_, err = codec.UnpackResults(make([]byte, codec.ResultBytes()-1))
	require.ErrorAs(t, err, &layoutErr)
}

func TestCodecConfigErrors(t *testing.T) {
	var configErr *ConfigError

	_, err := NewCodec(0, Int8, 32)
	require.ErrorAs(t, err, &configErr)

	_, err = NewCodec(4, Precision(42), 32)
	require.ErrorAs(t, err, &configErr)

	_, err = NewCodec(4, Float16, 8)
	require.ErrorAs(t, err, &configErr)

	// Int8 ignores the accumulator width entirely.
	_, err = NewCodec(4, Int8, 0)
	assert.False(t, errors.As(err, &configErr))
	require.NoError(t, err)
}
