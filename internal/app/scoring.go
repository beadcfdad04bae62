package app

import (
	"slices"

	"github.com/juju/errors"
	"github.com/samber/lo"

	"kautsky-classification/internal/domain"
)

// ComputeScore returns the overall accuracy followed by one partial accuracy
// per distinct true label, in ascending label order. Scalar labels match
// exactly, vector labels element-wise. Labels of mixed shapes are rejected.
func ComputeScore(predicted, truth []domain.Label) ([]float64, error) {
	if len(predicted) != len(truth) {
		return nil, errors.Annotatef(domain.ErrLabelShape, "%d predictions for %d samples", len(predicted), len(truth))
	}
	if len(truth) == 0 {
		return nil, errors.Trace(domain.ErrEmptyBatch)
	}
	shape := truth[0]
	if shape.Kind != domain.LabelScalar && shape.Kind != domain.LabelVector {
		return nil, errors.Annotatef(domain.ErrLabelShape, "unrecognised label %v", shape)
	}
	for i := range truth {
		if !predicted[i].SameShape(shape) || !truth[i].SameShape(shape) {
			return nil, errors.Annotatef(domain.ErrLabelShape, "sample %d: predicted %v, true %v", i, predicted[i], truth[i])
		}
	}

	type group struct {
		label        domain.Label
		hits, totals int
	}
	groups := make(map[string]*group)
	hits := 0
	for i, y := range truth {
		g, ok := groups[y.Key()]
		if !ok {
			g = &group{label: y}
			groups[y.Key()] = g
		}
		g.totals++
		if predicted[i].Equal(y) {
			g.hits++
			hits++
		}
	}

	ordered := lo.Values(groups)
	slices.SortFunc(ordered, func(a, b *group) int {
		return a.label.Compare(b.label)
	})
	score := make([]float64, 0, len(ordered)+1)
	score = append(score, float64(hits)/float64(len(truth)))
	for _, g := range ordered {
		score = append(score, float64(g.hits)/float64(g.totals))
	}
	return score, nil
}
