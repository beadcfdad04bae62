package app

import (
	"github.com/juju/errors"
	"github.com/samber/lo"

	"kautsky-classification/internal/domain"
)

// RandomChance is the probability that a guess drawn from the train class
// distribution hits the class of a sample drawn from the test distribution.
func RandomChance(train, test *domain.LabeledBatch) (float64, error) {
	if len(train.IDs) == 0 || len(test.IDs) == 0 {
		return 0, errors.Trace(domain.ErrEmptyBatch)
	}
	trainCount := lo.CountValues(train.IDs)
	testCount := lo.CountValues(test.IDs)

	total := 0
	for id, n := range testCount {
		m, ok := trainCount[id]
		if !ok {
			return 0, errors.Annotatef(domain.ErrUnknownClass, "class %d", id)
		}
		total += m * n
	}
	return float64(total) / float64(len(train.IDs)*len(test.IDs)), nil
}
