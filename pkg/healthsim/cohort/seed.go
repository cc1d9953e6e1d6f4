package cohort

import (
	"github.com/cespare/xxhash/v2"

	"github.com/randalmurphal/healthsim/pkg/healthsim/coordinator"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
)

// DeriveSeed returns the seed for one entity of a cohort: the xxhash of
// coreID keyed by cohortSeed. Distinct core ids get independent streams and
// the same (cohortSeed, coreID) pair always gets the same one.
func DeriveSeed(cohortSeed uint64, coreID string) uint64 {
	d := xxhash.NewWithSeed(cohortSeed)
	_, _ = d.WriteString(coreID)
	return d.Sum64()
}

// Seeded makes every entity of a coordinator draw from a source seeded by
// DeriveSeed(cohortSeed, coreID).
func Seeded(cohortSeed uint64) coordinator.Option {
	return coordinator.WithEntityRand(func(coreID string) timeline.RandomSource {
		return timeline.NewRand(DeriveSeed(cohortSeed, coreID))
	})
}
