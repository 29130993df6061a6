// ============================================================================
// print-batcher Optimizer - greedy print queue batching
// ============================================================================
//
// Package: internal/optimizer
// File: optimizer.go
// Purpose: Order print jobs and group them into batches for a single printer
//
// Flow:
//   1. Stable sort by (priority asc, volume asc); equal keys keep input order
//   2. Scan left to right with one open batch
//      - job fits (volume, item count, priority rule) -> join open batch
//      - job does not fit                             -> close batch, open new one
//      - job larger than MaxVolume on its own         -> closed singleton batch
//   3. Close the trailing batch
//   4. total_time = sum of batch durations, duration = longest member
//
// Priority mixing:
//   By default a batch may hold several priority levels. print_order still
//   never goes back to a more urgent level because batching follows the sort.
//   Constraints.SeparatePriorities closes the open batch whenever the level
//   changes.
//
// ============================================================================

package optimizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ChuLiYu/print-batcher/pkg/types"
)

// ErrInvalidConstraint is returned when a batch limit is not positive.
var ErrInvalidConstraint = errors.New("optimizer: invalid constraint")

// ConstraintError names the offending constraint field.
type ConstraintError struct {
	Field string  // constraint name, e.g. "max_volume"
	Value float64 // rejected value
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("optimizer: invalid constraint %s=%g: must be positive", e.Field, e.Value)
}

func (e *ConstraintError) Unwrap() error {
	return ErrInvalidConstraint
}

// Validate checks that both batch limits are positive. NaN is not.
func Validate(c types.Constraints) error {
	if !(c.MaxVolume > 0) {
		return &ConstraintError{Field: "max_volume", Value: c.MaxVolume}
	}
	if c.MaxItems <= 0 {
		return &ConstraintError{Field: "max_items", Value: float64(c.MaxItems)}
	}
	return nil
}

// Optimize sorts jobs and batches them greedily under c.
//
// The input slice is left untouched. Jobs with non-positive volume or
// print time are scheduled as given.
func Optimize(jobs []types.Job, c types.Constraints) (types.Result, error) {
	if err := Validate(c); err != nil {
		return types.Result{}, err
	}

	result := types.Result{
		PrintOrder: make([]string, 0, len(jobs)),
		Batches:    make([]types.Batch, 0),
	}
	if len(jobs) == 0 {
		return result, nil
	}

	sorted := make([]types.Job, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Volume < sorted[j].Volume
	})

	p := planner{constraints: c, result: &result}
	for _, job := range sorted {
		p.place(job)
	}
	p.close()

	return result, nil
}

// planner holds the open batch during one Optimize call.
type planner struct {
	constraints types.Constraints
	result      *types.Result
	open        *types.Batch
}

func (p *planner) place(job types.Job) {
	if job.Volume > p.constraints.MaxVolume {
		p.close()
		p.open = newBatch(job)
		p.open.Oversized = true
		p.close()
		return
	}

	if p.fits(job) {
		p.add(job)
		return
	}

	p.close()
	p.open = newBatch(job)
}

func (p *planner) fits(job types.Job) bool {
	if p.open == nil {
		return false
	}
	if p.open.Volume+job.Volume > p.constraints.MaxVolume {
		return false
	}
	if p.open.Len()+1 > p.constraints.MaxItems {
		return false
	}
	if p.constraints.SeparatePriorities && job.Priority != p.open.Priority {
		return false
	}
	return true
}

func (p *planner) add(job types.Job) {
	p.open.JobIDs = append(p.open.JobIDs, job.ID)
	p.open.Volume += job.Volume
	if job.PrintTime > p.open.Duration {
		p.open.Duration = job.PrintTime
	}
}

// close records the open batch, if any.
func (p *planner) close() {
	if p.open == nil {
		return
	}
	b := *p.open
	p.open = nil

	p.result.Batches = append(p.result.Batches, b)
	p.result.PrintOrder = append(p.result.PrintOrder, b.JobIDs...)
	p.result.TotalTime += b.Duration
}

func newBatch(job types.Job) *types.Batch {
	return &types.Batch{
		JobIDs:   []string{job.ID},
		Priority: job.Priority,
		Volume:   job.Volume,
		Duration: job.PrintTime,
	}
}
