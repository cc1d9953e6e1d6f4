package cohort

import (
	"maps"
	"slices"
	"time"

	"github.com/randalmurphal/healthsim/pkg/healthsim/coordinator"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
)

// Counts tallies event outcomes.
type Counts struct {
	Executed int `json:"executed" yaml:"executed"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Failed   int `json:"failed" yaml:"failed"`
}

func (c *Counts) add(status timeline.Status) {
	switch status {
	case timeline.StatusExecuted:
		c.Executed++
	case timeline.StatusSkipped:
		c.Skipped++
	case timeline.StatusFailed:
		c.Failed++
	}
}

// Report summarises one cohort advance. Entities holds only entities that
// had events due.
type Report struct {
	Cutoff   time.Time                      `json:"cutoff" yaml:"cutoff"`
	Duration time.Duration                  `json:"duration_ns" yaml:"duration_ns"`
	Products map[string]Counts              `json:"products" yaml:"products"`
	Unplaced int                            `json:"unplaced_triggers" yaml:"unplaced_triggers"`
	Entities map[string]coordinator.Results `json:"entities" yaml:"entities"`
}

func newReport(cutoff time.Time) *Report {
	return &Report{
		Cutoff:   cutoff,
		Products: make(map[string]Counts),
		Entities: make(map[string]coordinator.Results),
	}
}

func (r *Report) add(coreID string, results coordinator.Results) {
	if len(results) == 0 {
		return
	}
	r.Entities[coreID] = results
	for product, ers := range results {
		c := r.Products[product]
		for _, er := range ers {
			c.add(er.Status)
		}
		r.Products[product] = c
	}
	r.Unplaced += len(results.Unplaced())
}

// Total returns the number of events with status across all products.
func (r *Report) Total(status timeline.Status) int {
	n := 0
	for _, c := range r.Products {
		switch status {
		case timeline.StatusExecuted:
			n += c.Executed
		case timeline.StatusSkipped:
			n += c.Skipped
		case timeline.StatusFailed:
			n += c.Failed
		}
	}
	return n
}

// ProductNames returns the products with results, sorted.
func (r *Report) ProductNames() []string {
	return slices.Sorted(maps.Keys(r.Products))
}
