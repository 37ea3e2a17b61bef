// Command macsim runs the cycle-accurate systolic MAC array simulator over a
// stream of randomly generated matrix products and reports the drained
// results. It exists to exercise the model end to end; the systolic package
// is the reusable piece.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"k8s.io/klog/v2"

	"macsim/src/misc"
	"macsim/src/simulator"
)

var (
	flagArraySize = flag.Int("n", 0, "systolic array dimension N (default 8)")
	flagPrecision = flag.String("precision", "", "operand precision: int8|float8|float16")
	flagAccWidth  = flag.Int("acc_width", 0, "accumulator width in bits for the floating precisions")
	flagWorkers   = flag.Int("workers", 0, "goroutines sharing the per-tick cell updates")
	flagJobs      = flag.Int("jobs", 0, "number of matrix products to stream")
	flagSeed      = flag.Int64("seed", 0, "operand generator seed")
	flagNoCheck   = flag.Bool("no_self_check", false, "skip the reference-fold self check")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	cfg := misc.DefaultRuntimeConfig()
	if *flagArraySize > 0 {
		cfg.ArraySize = *flagArraySize
	}
	if *flagPrecision != "" {
		cfg.PrecisionName = *flagPrecision
	}
	if *flagAccWidth > 0 {
		cfg.AccumulatorWidth = *flagAccWidth
	}
	if *flagWorkers > 0 {
		cfg.UpdateWorkers = *flagWorkers
	}
	if *flagJobs > 0 {
		cfg.Jobs = *flagJobs
	}
	if *flagSeed != 0 {
		cfg.Seed = *flagSeed
	}
	cfg.SelfCheck = !*flagNoCheck

	if err := run(cfg); err != nil {
		klog.Errorf("macsim: %v", err)
		os.Exit(1)
	}
}

func run(cfg misc.RuntimeConfig) error {
	sim, err := simulator.New(cfg)
	if err != nil {
		return err
	}

	precision := sim.Array().Precision()
	klog.V(1).Infof("array %dx%d precision=%s acc_width=%d workers=%d",
		cfg.ArraySize, cfg.ArraySize, precision, sim.Array().AccumulatorWidth(), cfg.UpdateWorkers)

	rng := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Jobs; i++ {
		name := fmt.Sprintf("matmul_%02d", i)
		job, err := simulator.NewRandomMatMulJob(rng, name, cfg.ArraySize, precision, sim.Codec())
		if err != nil {
			return err
		}
		sim.Enqueue(job)
	}

	for !sim.IsFinished() {
		if err := sim.Cycle(); err != nil {
			return err
		}
	}

	sim.Dump()

	if cfg.SelfCheck && sim.Mismatches() > 0 {
		return fmt.Errorf("%d result(s) diverged from the reference fold", sim.Mismatches())
	}
	return nil
}
