// Package misc holds the runtime configuration shared by the simulator
// binary: the array geometry, the active precision and the host-side driver
// knobs, with defaults and validation in one place.
package misc

import (
	"runtime"

	"github.com/pkg/errors"

	"macsim/src/systolic"
)

// RuntimeConfig collects every knob the simulator binary exposes. The zero
// value is not usable; start from DefaultRuntimeConfig.
type RuntimeConfig struct {
	// ArraySize is the systolic array dimension N.
	ArraySize int
	// PrecisionName selects the operand encoding (int8|float8|float16).
	PrecisionName string
	// AccumulatorWidth is the partial-sum register width for the floating
	// precisions; ignored for int8.
	AccumulatorWidth int
	// UpdateWorkers is the number of goroutines sharing the per-tick cell
	// updates. 1 keeps the update serial.
	UpdateWorkers int
	// Jobs is how many matrix-product workloads the driver streams.
	Jobs int
	// SelfCheck re-computes every result with the reference fold and
	// fails the run on any mismatch.
	SelfCheck bool
	// Seed drives the operand generator.
	Seed int64
}

// DefaultRuntimeConfig returns the configuration the binary starts from
// before flags are applied.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		ArraySize:        8,
		PrecisionName:    "int8",
		AccumulatorWidth: 32,
		UpdateWorkers:    runtime.NumCPU(),
		Jobs:             4,
		SelfCheck:        true,
		Seed:             1,
	}
}

// Precision resolves the configured precision name.
func (c RuntimeConfig) Precision() (systolic.Precision, error) {
	return systolic.ParsePrecision(c.PrecisionName)
}

// Validate rejects configurations the simulator cannot run. Array-level
// parameters are re-checked by the systolic package; this catches the
// driver-level knobs.
func (c RuntimeConfig) Validate() error {
	if c.ArraySize <= 0 {
		return errors.Errorf("array size %d: want > 0", c.ArraySize)
	}
	if _, err := c.Precision(); err != nil {
		return err
	}
	if c.UpdateWorkers <= 0 {
		return errors.Errorf("update workers %d: want > 0", c.UpdateWorkers)
	}
	if c.Jobs <= 0 {
		return errors.Errorf("jobs %d: want > 0", c.Jobs)
	}
	return nil
}
