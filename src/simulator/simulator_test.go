package simulator

import (
	"math/rand"
	"testing"

	"macsim/src/misc"
	"macsim/src/systolic"
)

func testConfig(n int, precision string) misc.RuntimeConfig {
	cfg := misc.DefaultRuntimeConfig()
	cfg.ArraySize = n
	cfg.PrecisionName = precision
	cfg.AccumulatorWidth = 32
	cfg.UpdateWorkers = 1
	cfg.Jobs = 1
	cfg.SelfCheck = true
	return cfg
}

func runToCompletion(t *testing.T, sim *Simulator, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if sim.IsFinished() {
			return
		}
		if err := sim.Cycle(); err != nil {
			t.Fatalf("Cycle: %v", err)
		}
	}
	t.Fatalf("simulator still busy after %d cycles", limit)
}

func encodeInt8Matrix(values [][]int8) [][]systolic.Value {
	out := make([][]systolic.Value, len(values))
	for i, row := range values {
		out[i] = make([]systolic.Value, len(row))
		for j, v := range row {
			out[i][j] = systolic.EncodeInt8(v)
		}
	}
	return out
}

func TestSimulatorInt8MatMul(t *testing.T) {
	sim, err := New(testConfig(2, "int8"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := encodeInt8Matrix([][]int8{{1, 2}, {3, 4}})
	b := encodeInt8Matrix([][]int8{{5, 6}, {7, 8}})
	job, err := NewMatMulJob("smoke", a, b, sim.Codec())
	if err != nil {
		t.Fatalf("NewMatMulJob: %v", err)
	}
	sim.Enqueue(job)

	runToCompletion(t, sim, 64)

	want := [][]int32{{19, 22}, {43, 50}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			got := int32(uint32(job.Results[i][j]))
			if got != want[i][j] {
				t.Fatalf("C[%d][%d] = %d, want %d", i, j, got, want[i][j])
			}
		}
	}
	if sim.Mismatches() != 0 {
		t.Fatalf("self-check reported %d mismatches", sim.Mismatches())
	}
	if got := sim.Cycles(); got != uint64(job.Ticks()) {
		t.Fatalf("cycles = %d, want %d", got, job.Ticks())
	}
}

func TestSimulatorRandomJobsAllPrecisions(t *testing.T) {
	for _, precision := range []string{"int8", "float8", "float16"} {
		cfg := testConfig(4, precision)
		cfg.UpdateWorkers = 2
		sim, err := New(cfg)
		if err != nil {
			t.Fatalf("%s: New: %v", precision, err)
		}

		rng := rand.New(rand.NewSource(5))
		for i := 0; i < 3; i++ {
			job, err := NewRandomMatMulJob(rng, "random", 4, sim.Array().Precision(), sim.Codec())
			if err != nil {
				t.Fatalf("%s: NewRandomMatMulJob: %v", precision, err)
			}
			sim.Enqueue(job)
		}

		runToCompletion(t, sim, 4096)

		if sim.Mismatches() != 0 {
			t.Fatalf("%s: self-check reported %d mismatches", precision, sim.Mismatches())
		}
	}
}

func TestSimulatorJobsRunInOrderWithIsolatedResults(t *testing.T) {
	sim, err := New(testConfig(2, "int8"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	identity := encodeInt8Matrix([][]int8{{1, 0}, {0, 1}})
	m := encodeInt8Matrix([][]int8{{2, 3}, {4, 5}})

	first, err := NewMatMulJob("first", m, identity, sim.Codec())
	if err != nil {
		t.Fatalf("NewMatMulJob: %v", err)
	}
	second, err := NewMatMulJob("second", identity, m, sim.Codec())
	if err != nil {
		t.Fatalf("NewMatMulJob: %v", err)
	}
	sim.Enqueue(first)
	sim.Enqueue(second)

	runToCompletion(t, sim, 128)

	// M*I == I*M == M: identical results from independent array runs.
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			wantValue := int32(systolic.DecodeInt8(m[i][j]))
			if got := int32(uint32(first.Results[i][j])); got != wantValue {
				t.Fatalf("first job C[%d][%d] = %d, want %d", i, j, got, wantValue)
			}
			if got := int32(uint32(second.Results[i][j])); got != wantValue {
				t.Fatalf("second job C[%d][%d] = %d, want %d", i, j, got, wantValue)
			}
		}
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig(4, "float32")
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unsupported precision")
	}

	cfg = testConfig(0, "int8")
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for zero array size")
	}
}
