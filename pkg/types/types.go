// Package types defines the records shared by the print-batcher packages.
package types

// Job is one print job submitted to the single printer queue.
// The optimizer reads jobs but never modifies them.
type Job struct {
	ID        string  `json:"id" yaml:"id"`                 // unique job identifier
	Volume    float64 `json:"volume" yaml:"volume"`         // build volume the job occupies
	Priority  int     `json:"priority" yaml:"priority"`     // 1 is most urgent, larger is less urgent
	PrintTime float64 `json:"print_time" yaml:"print_time"` // printing duration
}

// Constraints bounds what a single batch may hold.
type Constraints struct {
	MaxVolume float64 `json:"max_volume" yaml:"max_volume"` // upper bound on summed batch volume
	MaxItems  int     `json:"max_items" yaml:"max_items"`   // upper bound on jobs per batch

	// SeparatePriorities forbids batches that mix priority levels.
	SeparatePriorities bool `json:"separate_priorities,omitempty" yaml:"separate_priorities"`
}

// ConstraintOverrides is a partial Constraints, as found in job files and
// requests. Nil fields keep the value they are applied to.
type ConstraintOverrides struct {
	MaxVolume          *float64 `json:"max_volume,omitempty" yaml:"max_volume,omitempty"`
	MaxItems           *int     `json:"max_items,omitempty" yaml:"max_items,omitempty"`
	SeparatePriorities *bool    `json:"separate_priorities,omitempty" yaml:"separate_priorities,omitempty"`
}

// Apply returns base with every set field of o replaced.
func (o *ConstraintOverrides) Apply(base Constraints) Constraints {
	if o == nil {
		return base
	}
	if o.MaxVolume != nil {
		base.MaxVolume = *o.MaxVolume
	}
	if o.MaxItems != nil {
		base.MaxItems = *o.MaxItems
	}
	if o.SeparatePriorities != nil {
		base.SeparatePriorities = *o.SeparatePriorities
	}
	return base
}

// Batch is a group of jobs printed together.
type Batch struct {
	JobIDs    []string `json:"job_ids"`             // members in the order they were added
	Priority  int      `json:"priority"`            // priority of the first member
	Volume    float64  `json:"volume"`              // summed member volume
	Duration  float64  `json:"duration"`            // longest member print time
	Oversized bool     `json:"oversized,omitempty"` // singleton that exceeds MaxVolume on its own
}

// Len returns the number of jobs in the batch.
func (b Batch) Len() int {
	return len(b.JobIDs)
}

// Result is the batch plan produced for one job list.
type Result struct {
	PrintOrder []string `json:"print_order"` // job ids, batch by batch
	TotalTime  float64  `json:"total_time"`  // sum of batch durations
	Batches    []Batch  `json:"batches"`     // batches in formation order
}
