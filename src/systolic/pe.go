package systolic

// PEState is the register file of one processing element: the operand pair it
// forwarded last tick and its partial-sum accumulator. States are owned by
// their grid cell; neighbors only observe them through the interconnect one
// tick later.
type PEState struct {
	A   Value
	B   Value
	Acc Accumulator
}

// nextPEState computes one element's registered outputs for one tick from the
// inputs sampled at its ports: operands pass through unchanged and the
// accumulator input absorbs the product of this tick's operand pair. The
// transition is total and deterministic; no input pattern is rejected.
func nextPEState(unit arithmeticUnit, aIn, bIn Value, cIn Accumulator) PEState {
	product := unit.Multiply(aIn, bIn)
	return PEState{
		A:   aIn,
		B:   bIn,
		Acc: unit.Add(cIn, unit.SignExtendIntoAccumulator(product)),
	}
}
