package partition

import (
	"fmt"

	"github.com/benchgate/benchgate/internal/models"
)

// SuitePlan describes how one suite is fanned out.
type SuitePlan struct {
	Name            string
	Modes           []models.RunMode
	TotalPartitions int
}

// Job is one (suite, mode, shard) unit of work for the scheduler.
type Job struct {
	Suite           string         `json:"suite"`
	Mode            models.RunMode `json:"mode"`
	TotalPartitions int            `json:"total_partitions"`
	PartitionID     int            `json:"partition_id"`
}

// Matrix is the CI matrix document, shaped for a GitHub Actions
// `strategy.matrix` include list.
type Matrix struct {
	Include []Job `json:"include"`
}

// Plan expands suites into one job per (suite, mode, partition id), in the
// order the suites and modes are given.
func Plan(suites []SuitePlan) (*Matrix, error) {
	m := &Matrix{Include: []Job{}}
	for _, s := range suites {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: suite with empty name", models.ErrInvalidInput)
		}
		if err := (Spec{Total: s.TotalPartitions}).Validate(); err != nil {
			return nil, fmt.Errorf("suite %s: %w", s.Name, err)
		}
		if len(s.Modes) == 0 {
			return nil, fmt.Errorf("%w: suite %s has no run modes", models.ErrInvalidInput, s.Name)
		}
		for _, mode := range s.Modes {
			for id := 0; id < s.TotalPartitions; id++ {
				m.Include = append(m.Include, Job{
					Suite:           s.Name,
					Mode:            mode,
					TotalPartitions: s.TotalPartitions,
					PartitionID:     id,
				})
			}
		}
	}
	return m, nil
}
