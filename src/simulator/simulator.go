// Package simulator is the host-side driver around one systolic array: it
// owns the tick loop, streams queued matrix products through the array one
// vector pair per tick and collects the drained results. The array itself
// stays a pure state machine; everything time-ordered lives here.
package simulator

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"macsim/src/misc"
	"macsim/src/systolic"
)

// Simulator drives one array instance through a queue of MatMulJobs. A
// simulator is owned by a single caller; Cycle must not be invoked
// concurrently.
type Simulator struct {
	cfg   misc.RuntimeConfig
	array *systolic.Array
	codec *systolic.Codec

	jobs      []*MatMulJob
	jobIdx    int
	tickInJob int

	cycles     uint64
	mismatches int
}

// New builds the array, its codec and the driver state from the runtime
// configuration. Configuration problems surface as *systolic.ConfigError or
// plain validation errors before any tick runs.
func New(cfg misc.RuntimeConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	precision, err := cfg.Precision()
	if err != nil {
		return nil, err
	}

	array, err := systolic.NewArray(cfg.ArraySize, precision, cfg.AccumulatorWidth)
	if err != nil {
		return nil, err
	}
	array.SetWorkers(cfg.UpdateWorkers)

	return &Simulator{
		cfg:   cfg,
		array: array,
		codec: systolic.ForArray(array),
	}, nil
}

// Array exposes the driven array, mainly for enqueue-side encoding.
func (s *Simulator) Array() *systolic.Array {
	return s.array
}

// Codec exposes the bus codec matching the array.
func (s *Simulator) Codec() *systolic.Codec {
	return s.codec
}

// Enqueue appends a job to the stream. Jobs run strictly in order.
func (s *Simulator) Enqueue(job *MatMulJob) {
	s.jobs = append(s.jobs, job)
}

// IsFinished reports whether every enqueued job has drained.
func (s *Simulator) IsFinished() bool {
	return s.jobIdx >= len(s.jobs)
}

// Cycle advances the platform by one tick: it unpacks the current job's bus
// words for this tick, drives them into the array and, on the job's final
// drain tick, snapshots the result bank into the job.
func (s *Simulator) Cycle() error {
	if s.IsFinished() {
		return nil
	}
	job := s.jobs[s.jobIdx]

	if s.tickInJob == 0 {
		// Fresh job: the array state and result bank start from zero.
		if err := s.array.Advance(true, nil, nil); err != nil {
			return err
		}
	}

	aWord, bWord := job.wordsForTick(s.tickInJob)
	aVec, err := s.codec.UnpackVector(aWord)
	if err != nil {
		return errors.Wrapf(err, "job %s tick %d", job.Name, s.tickInJob)
	}
	bVec, err := s.codec.UnpackVector(bWord)
	if err != nil {
		return errors.Wrapf(err, "job %s tick %d", job.Name, s.tickInJob)
	}
	if err := s.array.Advance(false, aVec, bVec); err != nil {
		return errors.Wrapf(err, "job %s tick %d", job.Name, s.tickInJob)
	}

	s.tickInJob++
	s.cycles++

	if s.tickInJob >= job.Ticks() {
		job.Results = s.array.ReadResults()
		if s.cfg.SelfCheck {
			s.checkJob(job)
		}
		s.jobIdx++
		s.tickInJob = 0
	}
	return nil
}

// checkJob re-computes every result with the reference fold and counts
// mismatches. The fold uses the same non-conforming arithmetic in the same
// order, so any difference is a dataflow bug, not a numerics one.
func (s *Simulator) checkJob(job *MatMulJob) {
	for i := 0; i < job.n; i++ {
		for j := 0; j < job.n; j++ {
			want, err := s.array.ReferenceDot(job.aRows[i], job.bCols[j])
			if err != nil || job.Results[i][j] != want {
				s.mismatches++
			}
		}
	}
}

// Cycles returns the total tick count across all jobs so far.
func (s *Simulator) Cycles() uint64 {
	return s.cycles
}

// Mismatches returns how many self-checked results disagreed with the
// reference fold.
func (s *Simulator) Mismatches() int {
	return s.mismatches
}

// Dump prints the run summary and, for small arrays, the full result
// matrices.
func (s *Simulator) Dump() {
	precision := s.array.Precision()
	fmt.Printf("macsim: %d job(s), %s×%s array, precision %s, %s cycles\n",
		len(s.jobs),
		humanize.Comma(int64(s.array.Size())), humanize.Comma(int64(s.array.Size())),
		precision, humanize.Comma(int64(s.cycles)))

	for _, job := range s.jobs {
		if job.Results == nil {
			fmt.Printf("  %s: not finished\n", job.Name)
			continue
		}
		fmt.Printf("  %s: settled after %s ticks\n", job.Name, humanize.Comma(int64(job.Ticks())))
		if job.n > 8 {
			continue
		}
		for i := 0; i < job.n; i++ {
			fmt.Printf("    ")
			for j := 0; j < job.n; j++ {
				fmt.Printf("%-18s", precision.FormatAccumulator(job.Results[i][j]))
			}
			fmt.Println()
		}
	}

	if s.cfg.SelfCheck {
		if s.mismatches == 0 {
			fmt.Println("  self-check: all results match the reference fold")
		} else {
			fmt.Printf("  self-check: %d result(s) diverged from the reference fold\n", s.mismatches)
		}
	}
}
