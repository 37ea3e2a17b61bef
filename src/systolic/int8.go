package systolic

// int8Unit implements signed 8-bit MAC arithmetic. Multiplication is exact in
// 16 bits; accumulation is ordinary two's-complement addition in 32 bits with
// wraparound on overflow, no saturation.
type int8Unit struct{}

const int8AccumulatorBits = 32

func (int8Unit) Precision() Precision {
	return Int8
}

func (int8Unit) AccumulatorBits() int {
	return int8AccumulatorBits
}

func (int8Unit) Multiply(a, b Value) uint32 {
	product := int16(int8(a)) * int16(int8(b))
	return uint32(uint16(product))
}

func (int8Unit) SignExtendIntoAccumulator(product uint32) Accumulator {
	return Accumulator(uint32(int32(int16(product))))
}

func (int8Unit) Add(a, b Accumulator) Accumulator {
	return Accumulator(uint32(a) + uint32(b))
}

func (int8Unit) Zero() Accumulator {
	return 0
}

// EncodeInt8 produces the operand encoding of a signed 8-bit integer.
func EncodeInt8(v int8) Value {
	return Value(uint8(v))
}

// DecodeInt8 reads an operand encoding back as a signed 8-bit integer.
func DecodeInt8(v Value) int8 {
	return int8(v)
}
