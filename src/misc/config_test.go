package misc

import (
	"testing"

	"macsim/src/systolic"
)

func TestDefaultRuntimeConfigValidates(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}

	precision, err := cfg.Precision()
	if err != nil {
		t.Fatalf("default precision rejected: %v", err)
	}
	if precision != systolic.Int8 {
		t.Fatalf("default precision = %s, want int8", precision)
	}
}

func TestValidateRejectsBadKnobs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RuntimeConfig)
	}{
		{"zero array size", func(c *RuntimeConfig) { c.ArraySize = 0 }},
		{"unknown precision", func(c *RuntimeConfig) { c.PrecisionName = "bfloat16" }},
		{"zero workers", func(c *RuntimeConfig) { c.UpdateWorkers = 0 }},
		{"zero jobs", func(c *RuntimeConfig) { c.Jobs = 0 }},
	}

	for _, tc := range cases {
		cfg := DefaultRuntimeConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
