package learning

import (
	"slices"

	"github.com/juju/errors"
	"github.com/samber/lo"

	"kautsky-classification/internal/domain"
)

// LabelEncoder maps labels onto dense class indices in ascending label order.
type LabelEncoder struct {
	Classes []domain.Label
	index   map[string]int
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit learns the distinct labels of ys. All labels must share one shape.
func (e *LabelEncoder) Fit(ys []domain.Label) error {
	if len(ys) == 0 {
		return errors.Trace(domain.ErrEmptyBatch)
	}
	for _, y := range ys {
		if !y.SameShape(ys[0]) {
			return errors.Annotatef(domain.ErrLabelShape, "training labels %v and %v", ys[0], y)
		}
	}
	e.Classes = lo.UniqBy(ys, domain.Label.Key)
	slices.SortFunc(e.Classes, domain.Label.Compare)
	e.index = make(map[string]int, len(e.Classes))
	for i, class := range e.Classes {
		e.index[class.Key()] = i
	}
	return nil
}

func (e *LabelEncoder) Transform(ys []domain.Label) ([]int, error) {
	encoded := make([]int, len(ys))
	for i, y := range ys {
		idx, ok := e.index[y.Key()]
		if !ok {
			return nil, errors.NotFoundf("label %v", y)
		}
		encoded[i] = idx
	}
	return encoded, nil
}

func (e *LabelEncoder) FitTransform(ys []domain.Label) ([]int, error) {
	if err := e.Fit(ys); err != nil {
		return nil, err
	}
	return e.Transform(ys)
}

func (e *LabelEncoder) Decode(idx int) domain.Label {
	return e.Classes[idx]
}
