package systolic

import (
	"sync"
)

// Array is an N×N grid of processing elements advanced in lock-step, one
// discrete tick at a time. Operand A values enter at the west edge and flow
// east, operand B values enter at the north edge and flow south, and partial
// sums flow diagonally south-east, picking up one product per hop. Partial
// sums entering at the north and west edges are seeded with the zero-valued
// encoding, so every tick starts a fresh reduction chain on each edge cell
// and retires one on each south/east edge cell.
//
// The chain launched from cell (0,0) traverses the full main diagonal: the
// vector pair injected on a given tick is reduced into its complete
// non-conforming dot product N-1 ticks later, one pair per tick in steady
// state. The array retires those corner values into an injection-ordered N×N
// result bank, which is what ReadResults returns; a
// full matrix product is obtained by streaming (row i of A, column j of B)
// pairs in row-major order.
//
// An Array instance is owned by a single driver; Advance must not be called
// concurrently. The per-tick cell updates themselves have no intra-tick data
// dependency and may be spread over workers (SetWorkers), with the tick
// boundary acting as the barrier.
type Array struct {
	n         int
	precision Precision
	accWidth  int
	unit      arithmeticUnit
	workers   int

	// cur holds the registered state driven out this tick; next is the
	// scratch buffer the tick update writes into before the atomic swap.
	cur  []PEState
	next []PEState

	// results is the drain bank: slot p%(n*n) receives the settled
	// reduction of the pair injected on tick p+1 when its chain retires
	// at the corner cell, one pair per tick in steady state.
	results []Accumulator

	ticks uint64
}

// NewArray builds an array of n×n processing elements for the given
// precision. accWidth configures the accumulator register width of the
// floating formats and must lie between the operand width and 64 bits; it is
// ignored for Int8, which always accumulates in 32 bits. Invalid parameters
// fail with a *ConfigError.
func NewArray(n int, precision Precision, accWidth int) (*Array, error) {
	if n <= 0 {
		return nil, configErrorf("array size %d: want n > 0", n)
	}
	if !precision.valid() {
		return nil, configErrorf("unsupported precision tag %d", int(precision))
	}
	if precision == Int8 {
		accWidth = int8AccumulatorBits
	} else {
		if accWidth < precision.OperandBits() {
			return nil, configErrorf("accumulator width %d is narrower than the %s operand width %d",
				accWidth, precision, precision.OperandBits())
		}
		if accWidth > 64 {
			return nil, configErrorf("accumulator width %d exceeds the supported maximum of 64", accWidth)
		}
	}

	a := &Array{
		n:         n,
		precision: precision,
		accWidth:  accWidth,
		unit:      newArithmeticUnit(precision, accWidth),
		workers:   1,
		cur:       make([]PEState, n*n),
		next:      make([]PEState, n*n),
		results:   make([]Accumulator, n*n),
	}
	return a, nil
}

// Size returns the array dimension N.
func (a *Array) Size() int {
	return a.n
}

// Precision returns the operand encoding the array was built for.
func (a *Array) Precision() Precision {
	return a.precision
}

// AccumulatorWidth returns the accumulator register width in bits.
func (a *Array) AccumulatorWidth() int {
	return a.accWidth
}

// Ticks returns the number of ticks advanced since construction or the last
// initialize.
func (a *Array) Ticks() uint64 {
	return a.ticks
}

// SettlingLatency returns the documented number of ticks after which a
// statically held vector pair is guaranteed fully reduced.
func (a *Array) SettlingLatency() int {
	return 2*a.n - 1
}

// SetWorkers sets how many goroutines share the per-tick cell updates.
// Values below 2, or any value on a 1×1 array, select the serial path.
func (a *Array) SetWorkers(workers int) {
	if workers < 1 {
		workers = 1
	}
	if workers > a.n {
		workers = a.n
	}
	a.workers = workers
}

// Advance moves the whole grid forward by one tick. aVec[i] is driven into
// row i at the west edge and bVec[j] into column j at the north edge; both
// must have exactly N elements or the tick is rejected with a *LayoutError
// and no state changes.
//
// When initialize is asserted the tick is a reset instead: every processing
// element, the result bank and the tick counter snap to the zero state and
// the operand vectors are ignored, mirroring the reset-dominant behavior of
// the modeled hardware.
func (a *Array) Advance(initialize bool, aVec, bVec []Value) error {
	if initialize {
		a.reset()
		return nil
	}
	if len(aVec) != a.n {
		return layoutErrorf("a vector has %d lanes, array wants %d", len(aVec), a.n)
	}
	if len(bVec) != a.n {
		return layoutErrorf("b vector has %d lanes, array wants %d", len(bVec), a.n)
	}

	if a.workers > 1 {
		a.stepParallel(aVec, bVec)
	} else {
		for i := 0; i < a.n; i++ {
			a.stepRow(i, aVec, bVec)
		}
	}

	a.cur, a.next = a.next, a.cur
	a.ticks++
	a.drain()
	return nil
}

// stepRow computes the next state of every cell in row i from the current
// grid. It only reads cur and this tick's boundary vectors, so distinct rows
// are safe to compute concurrently.
func (a *Array) stepRow(i int, aVec, bVec []Value) {
	n := a.n
	for j := 0; j < n; j++ {
		aIn := aVec[i]
		if j > 0 {
			aIn = a.cur[i*n+j-1].A
		}
		bIn := bVec[j]
		if i > 0 {
			bIn = a.cur[(i-1)*n+j].B
		}
		cIn := a.unit.Zero()
		if i > 0 && j > 0 {
			cIn = a.cur[(i-1)*n+j-1].Acc
		}
		a.next[i*n+j] = nextPEState(a.unit, aIn, bIn, cIn)
	}
}

// stepParallel spreads the row updates over the configured workers and waits
// for all of them before the caller publishes the new states.
func (a *Array) stepParallel(aVec, bVec []Value) {
	rowsPerWorker := (a.n + a.workers - 1) / a.workers

	var wg sync.WaitGroup
	for lo := 0; lo < a.n; lo += rowsPerWorker {
		hi := lo + rowsPerWorker
		if hi > a.n {
			hi = a.n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				a.stepRow(i, aVec, bVec)
			}
		}(lo, hi)
	}
	wg.Wait()
}

// drain retires the reduction chain that reached the corner cell this tick.
// The chain for the pair injected on tick p+1 arrives there on tick p+N, so
// slot p receives its settled dot product exactly once. Slots wrap modulo N²,
// so continuous streams reuse the bank ring-wise and a slot stays valid for
// N² ticks after settling.
func (a *Array) drain() {
	if a.ticks < uint64(a.n) {
		return
	}
	p := int64(a.ticks) - int64(a.n)
	slot := p % int64(a.n*a.n)
	a.results[slot] = a.cur[(a.n-1)*a.n+(a.n-1)].Acc
}

// reset snaps all processing elements, the result bank and the tick counter
// to the zero-valued state of the active precision.
func (a *Array) reset() {
	zero := PEState{A: 0, B: 0, Acc: a.unit.Zero()}
	for i := range a.cur {
		a.cur[i] = zero
		a.next[i] = zero
		a.results[i] = a.unit.Zero()
	}
	a.ticks = 0
}

// ReadResults copies the result bank out as an N×N matrix in injection order:
// slot i*N+j holds the reduction of the pair injected on tick i*N+j+1 (modulo
// bank wraparound). Reads are valid at any tick, but slots whose chain has
// not retired yet still hold their previous (zero or stale) contents; callers
// are responsible for respecting the settling latency.
func (a *Array) ReadResults() [][]Accumulator {
	out := make([][]Accumulator, a.n)
	for i := 0; i < a.n; i++ {
		out[i] = make([]Accumulator, a.n)
		copy(out[i], a.results[i*a.n:(i+1)*a.n])
	}
	return out
}

// DiagonalPartials returns the in-flight accumulators on the main diagonal,
// ordered from the freshest chain at cell (0,0) to the one about to retire at
// the corner. These are the partially accumulated, not-yet-settled values of
// the last N injected pairs.
func (a *Array) DiagonalPartials() []Accumulator {
	out := make([]Accumulator, a.n)
	for d := 0; d < a.n; d++ {
		out[d] = a.cur[d*a.n+d].Acc
	}
	return out
}

// ReferenceDot computes the left-to-right fold of the array's non-conforming
// multiply/add over one vector pair, in the exact order the systolic chain
// applies it: the accumulator starts at the zero-valued encoding and absorbs
// the products in increasing lane order. This is the settled value the array
// produces for the same pair.
func (a *Array) ReferenceDot(aVec, bVec []Value) (Accumulator, error) {
	if len(aVec) != a.n || len(bVec) != a.n {
		return 0, layoutErrorf("vector pair has %d/%d lanes, array wants %d", len(aVec), len(bVec), a.n)
	}
	acc := a.unit.Zero()
	for k := 0; k < a.n; k++ {
		product := a.unit.Multiply(aVec[k], bVec[k])
		acc = a.unit.Add(acc, a.unit.SignExtendIntoAccumulator(product))
	}
	return acc, nil
}
