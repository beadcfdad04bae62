package app

import (
	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"kautsky-classification/internal/domain"
)

// ConfusionMatrix counts real classes 1..classes (rows) against predicted
// classes 0..classes (columns). Column 0 collects samples for which the
// classifier gave no output.
func ConfusionMatrix(pairs []domain.ClassPair, classes int) (*mat.Dense, error) {
	if len(pairs) == 0 {
		return nil, errors.Trace(domain.ErrEmptyBatch)
	}
	if classes < 1 {
		return nil, errors.NotValidf("%d classes", classes)
	}
	m := mat.NewDense(classes, classes+1, nil)
	for _, p := range pairs {
		if p.Real < 1 || p.Real > classes || p.Predicted < 0 || p.Predicted > classes {
			return nil, errors.Annotatef(domain.ErrClassOutOfRange, "predicted %d, real %d", p.Predicted, p.Real)
		}
		m.Set(p.Real-1, p.Predicted, m.At(p.Real-1, p.Predicted)+1)
	}
	return m, nil
}

// NormalizeRows divides every row by its sum. Rows summing to zero stay
// zero.
func NormalizeRows(m *mat.Dense) *mat.Dense {
	rows, _ := m.Dims()
	out := mat.DenseCopyOf(m)
	for i := range rows {
		row := out.RawRowView(i)
		if sum := floats.Sum(row); sum > 0 {
			floats.Scale(1/sum, row)
		}
	}
	return out
}
