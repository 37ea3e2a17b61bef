package simulator

import (
	"math/rand"

	"macsim/src/systolic"
)

// MatMulJob is one N×N × N×N matrix product expressed the way the array
// consumes it: a stream of (row i of A, column j of B) vector pairs in
// row-major order, one pair per tick, followed by N-1 drain ticks while the
// last reduction chains retire. Operand vectors are pre-packed into their bus
// layout at construction; the driver unpacks them again each tick, modeling
// the host transfer path.
type MatMulJob struct {
	Name string

	n     int
	aRows [][]systolic.Value
	bCols [][]systolic.Value

	// aWords[p] and bWords[p] are the packed vectors injected on tick p+1
	// of the job; padWord is the zero vector driven during drain ticks.
	aWords  [][]byte
	bWords  [][]byte
	padWord []byte

	// Results holds the product matrix once the job has drained.
	Results [][]systolic.Accumulator
}

// NewMatMulJob builds a job from row-major operand matrices a and b, both
// n×n where n is the codec's lane count. Shape mismatches fail with a
// *LayoutError from the codec.
func NewMatMulJob(name string, a, b [][]systolic.Value, codec *systolic.Codec) (*MatMulJob, error) {
	n := len(a)
	job := &MatMulJob{
		Name:  name,
		n:     n,
		aRows: make([][]systolic.Value, n),
		bCols: make([][]systolic.Value, n),
	}

	for i, row := range a {
		job.aRows[i] = append([]systolic.Value(nil), row...)
	}
	for j := 0; j < n; j++ {
		col := make([]systolic.Value, 0, len(b))
		for _, row := range b {
			if j < len(row) {
				col = append(col, row[j])
			}
		}
		job.bCols[j] = col
	}

	job.aWords = make([][]byte, n*n)
	job.bWords = make([][]byte, n*n)
	for p := 0; p < n*n; p++ {
		aWord, err := codec.PackVector(job.aRows[p/n])
		if err != nil {
			return nil, err
		}
		bWord, err := codec.PackVector(job.bCols[p%n])
		if err != nil {
			return nil, err
		}
		job.aWords[p] = aWord
		job.bWords[p] = bWord
	}

	pad, err := codec.PackVector(make([]systolic.Value, n))
	if err != nil {
		return nil, err
	}
	job.padWord = pad

	return job, nil
}

// Ticks returns how many ticks the job occupies the array: one per vector
// pair plus the drain tail.
func (j *MatMulJob) Ticks() int {
	return j.n*j.n + j.n - 1
}

// wordsForTick returns the packed vector pair for tick p (0-based) of the
// job; drain ticks inject the zero pad.
func (j *MatMulJob) wordsForTick(p int) (aWord, bWord []byte) {
	if p < len(j.aWords) {
		return j.aWords[p], j.bWords[p]
	}
	return j.padWord, j.padWord
}

// NewRandomMatMulJob builds a job over randomly generated operands of the
// given precision. Int8 operands stay small enough that an ordinary integer
// dot product of the sizes in play never wraps, which keeps reports easy to
// eyeball; the floating operands sit in a moderate exponent band around 1.0.
func NewRandomMatMulJob(rng *rand.Rand, name string, n int, precision systolic.Precision, codec *systolic.Codec) (*MatMulJob, error) {
	a := make([][]systolic.Value, n)
	b := make([][]systolic.Value, n)
	for i := 0; i < n; i++ {
		a[i] = make([]systolic.Value, n)
		b[i] = make([]systolic.Value, n)
		for j := 0; j < n; j++ {
			a[i][j] = randomOperand(rng, precision)
			b[i][j] = randomOperand(rng, precision)
		}
	}
	return NewMatMulJob(name, a, b, codec)
}

func randomOperand(rng *rand.Rand, precision systolic.Precision) systolic.Value {
	switch precision {
	case systolic.Int8:
		return systolic.EncodeInt8(int8(rng.Intn(17) - 8))
	case systolic.Float8:
		f := float32(rng.Float64()*3.75+0.25) * float32(1-2*rng.Intn(2))
		return systolic.EncodeFloat8(f)
	case systolic.Float16:
		f := float32(rng.Float64()*3.75+0.25) * float32(1-2*rng.Intn(2))
		return systolic.EncodeFloat16(f)
	default:
		return 0
	}
}
