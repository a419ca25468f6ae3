// Package partition assigns the models of a suite to parallel shards.
//
// Assignment is pure: filtered index i goes to shard i mod total. Every
// worker can compute its own shard from the full suite, the exclusion set and
// its (total, id) pair without talking to anyone else.
package partition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Spec identifies one shard.
type Spec struct {
	Total int `validate:"min=1"`
	ID    int `validate:"gte=0,ltfield=Total"`
}

// Validate checks 0 <= ID < Total and Total >= 1.
func (s Spec) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe, s))
	}
	return fmt.Errorf("%w: %s", models.ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError, s Spec) string {
	switch fe.StructField() {
	case "Total":
		return fmt.Sprintf("total_partitions must be >= 1, got %d", s.Total)
	case "ID":
		return fmt.Sprintf("partition_id must be in [0, %d), got %d", s.Total, s.ID)
	}
	return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
}

func (s Spec) String() string {
	return fmt.Sprintf("%d/%d", s.ID, s.Total)
}

// Assign returns the ordered model identifiers owned by the shard.
// An empty result is legal (more shards than models).
func Assign(suite models.ModelSuite, exclusions models.ExclusionSet, spec Spec) ([]string, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}

	filtered := suite.Filter(exclusions)
	out := make([]string, 0, len(filtered)/spec.Total+1)
	for i := spec.ID; i < len(filtered); i += spec.Total {
		out = append(out, filtered[i])
	}
	return out, nil
}

// All returns every shard for the given total, indexed by partition id.
func All(suite models.ModelSuite, exclusions models.ExclusionSet, total int) ([][]string, error) {
	if err := (Spec{Total: total}).Validate(); err != nil {
		return nil, err
	}
	shards := make([][]string, total)
	for id := range shards {
		assigned, err := Assign(suite, exclusions, Spec{Total: total, ID: id})
		if err != nil {
			return nil, err
		}
		shards[id] = assigned
	}
	return shards, nil
}

// Owner returns the partition id that owns model, or -1 when the model is
// excluded or not in the suite.
func Owner(suite models.ModelSuite, exclusions models.ExclusionSet, total int, model string) int {
	if total < 1 {
		return -1
	}
	for i, id := range suite.Filter(exclusions) {
		if id == model {
			return i % total
		}
	}
	return -1
}
