package app

import (
	"github.com/juju/errors"

	"kautsky-classification/internal/domain"
	"kautsky-classification/pkg/rng"
)

// SplitTwoSets randomly divides the records of ds into two non-empty buckets
// and returns their record indices in original order. Every record but the
// first is placed by a coin flip biased towards the second bucket with
// fractionSecond. The first record is held in reserve and fills whichever
// bucket ended up empty, or follows a fresh coin flip when neither did.
func SplitTwoSets(ds *domain.DataSet, fractionSecond float64, stream *rng.Stream) ([]int, []int, error) {
	if fractionSecond < 0 || fractionSecond > 1 {
		return nil, nil, errors.Annotatef(domain.ErrInvalidFraction, "%v", fractionSecond)
	}
	n := ds.Len()
	if n < 2 {
		return nil, nil, errors.Annotatef(domain.ErrDegenerateSplit, "%s has %d records", ds.Filename, n)
	}

	second := make([]bool, n)
	count := 0
	for i := 1; i < n; i++ {
		if stream.FlipCoin(fractionSecond) {
			second[i] = true
			count++
		}
	}
	switch count {
	case 0:
		second[0] = true
	case n - 1:
		second[0] = false
	default:
		second[0] = stream.FlipCoin(fractionSecond)
	}

	var first, other []int
	for i, s := range second {
		if s {
			other = append(other, i)
		} else {
			first = append(first, i)
		}
	}
	return first, other, nil
}

// SplitTrainTest splits every data set into train and test buckets and
// concatenates them in data set order.
func SplitTrainTest(dataSets []*domain.DataSet, fractionTest float64, stream *rng.Stream, mode domain.LabelMode) (*domain.Split, error) {
	split := &domain.Split{}
	for _, ds := range dataSets {
		train, test, err := SplitTwoSets(ds, fractionTest, stream)
		if err != nil {
			return nil, errors.Trace(err)
		}
		label := ds.LabelFor(mode)
		for _, i := range train {
			split.Train.Append(ds.Records[i], label, ds.ID)
		}
		for _, i := range test {
			split.Test.Append(ds.Records[i], label, ds.ID)
		}
	}
	return split, nil
}
