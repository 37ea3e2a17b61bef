package systolic

// Codec converts between the array's per-lane scalar view and the flat byte
// layout used for host transfers. Operand lanes occupy fixed-width slots (one
// byte for Int8/Float8, two for Float16), lane 0 at the low end, ascending,
// little-endian within a slot. Result matrices are laid out row-major with
// element (i,j) in slot i*N+j, each slot as wide as the accumulator rounded
// up to whole bytes.
//
// The codec performs no validation beyond widths: malformed slot contents are
// passed through untouched, mismatched lengths fail with a *LayoutError.
type Codec struct {
	n         int
	precision Precision
	slotBytes int
	accBytes  int
}

// NewCodec builds the codec matching an array's lane count, precision and
// accumulator width. Invalid parameters fail with a *ConfigError under the
// same rules as NewArray.
func NewCodec(n int, precision Precision, accWidth int) (*Codec, error) {
	if n <= 0 {
		return nil, configErrorf("codec lane count %d: want n > 0", n)
	}
	if !precision.valid() {
		return nil, configErrorf("unsupported precision tag %d", int(precision))
	}
	if precision == Int8 {
		accWidth = int8AccumulatorBits
	} else if accWidth < precision.OperandBits() || accWidth > 64 {
		return nil, configErrorf("accumulator width %d out of range [%d, 64] for %s",
			accWidth, precision.OperandBits(), precision)
	}

	return &Codec{
		n:         n,
		precision: precision,
		slotBytes: precision.OperandBytes(),
		accBytes:  (accWidth + 7) / 8,
	}, nil
}

// ForArray builds the codec matching an existing array.
func ForArray(a *Array) *Codec {
	codec, err := NewCodec(a.Size(), a.Precision(), a.AccumulatorWidth())
	if err != nil {
		// The array already validated the same parameters.
		panic(err)
	}
	return codec
}

// VectorBytes returns the packed size of one N-lane operand vector.
func (c *Codec) VectorBytes() int {
	return c.n * c.slotBytes
}

// ResultBytes returns the packed size of one N×N result matrix.
func (c *Codec) ResultBytes() int {
	return c.n * c.n * c.accBytes
}

// PackVector flattens an N-lane operand vector into its bus layout.
func (c *Codec) PackVector(values []Value) ([]byte, error) {
	if len(values) != c.n {
		return nil, layoutErrorf("pack: got %d lanes, codec wants %d", len(values), c.n)
	}

	buf := make([]byte, 0, c.VectorBytes())
	for _, v := range values {
		for byteIdx := 0; byteIdx < c.slotBytes; byteIdx++ {
			buf = append(buf, byte(v>>(8*byteIdx)))
		}
	}
	return buf, nil
}

// UnpackVector is the inverse of PackVector.
func (c *Codec) UnpackVector(buf []byte) ([]Value, error) {
	if len(buf) != c.VectorBytes() {
		return nil, layoutErrorf("unpack: got %d bytes, codec wants %d", len(buf), c.VectorBytes())
	}

	values := make([]Value, c.n)
	for lane := 0; lane < c.n; lane++ {
		var v Value
		for byteIdx := 0; byteIdx < c.slotBytes; byteIdx++ {
			v |= Value(buf[lane*c.slotBytes+byteIdx]) << (8 * byteIdx)
		}
		values[lane] = v
	}
	return values, nil
}

// PackResults flattens an N×N result matrix row-major into its bus layout.
func (c *Codec) PackResults(results [][]Accumulator) ([]byte, error) {
	if len(results) != c.n {
		return nil, layoutErrorf("pack results: got %d rows, codec wants %d", len(results), c.n)
	}

	buf := make([]byte, 0, c.ResultBytes())
	for i, row := range results {
		if len(row) != c.n {
			return nil, layoutErrorf("pack results: row %d has %d columns, codec wants %d", i, len(row), c.n)
		}
		for _, acc := range row {
			for byteIdx := 0; byteIdx < c.accBytes; byteIdx++ {
				buf = append(buf, byte(acc>>(8*byteIdx)))
			}
		}
	}
	return buf, nil
}

// UnpackResults is the inverse of PackResults.
func (c *Codec) UnpackResults(buf []byte) ([][]Accumulator, error) {
	if len(buf) != c.ResultBytes() {
		return nil, layoutErrorf("unpack results: got %d bytes, codec wants %d", len(buf), c.ResultBytes())
	}

	results := make([][]Accumulator, c.n)
	for i := 0; i < c.n; i++ {
		results[i] = make([]Accumulator, c.n)
		for j := 0; j < c.n; j++ {
			slot := (i*c.n + j) * c.accBytes
			var acc Accumulator
			for byteIdx := 0; byteIdx < c.accBytes; byteIdx++ {
				acc |= Accumulator(buf[slot+byteIdx]) << (8 * byteIdx)
			}
			results[i][j] = acc
		}
	}
	return results, nil
}
