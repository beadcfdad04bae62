package domain

import (
	"time"

	"github.com/juju/errors"
)

// DataSet holds the records of one class, read from one input file.
type DataSet struct {
	ID       int
	Filename string
	Class    Label
	Header   []string
	Records  [][]float64
}

func (d *DataSet) Len() int {
	return len(d.Records)
}

// LabelFor returns the label a record of this data set carries in a batch.
func (d *DataSet) LabelFor(mode LabelMode) Label {
	if mode == LabelFromID {
		return ScalarLabel(d.ID)
	}
	return d.Class
}

// LabelMode selects how batch labels are derived from a data set.
type LabelMode int

const (
	LabelFromClass LabelMode = iota
	LabelFromID
)

func ParseLabelMode(s string) (LabelMode, error) {
	switch s {
	case "", "class":
		return LabelFromClass, nil
	case "id":
		return LabelFromID, nil
	default:
		return LabelFromClass, errors.NotValidf("label mode %q", s)
	}
}

// LabeledBatch keeps features, labels and class ids index aligned.
type LabeledBatch struct {
	Xs  [][]float64
	Ys  []Label
	IDs []int
}

func (b *LabeledBatch) Len() int {
	return len(b.Xs)
}

func (b *LabeledBatch) Append(x []float64, y Label, id int) {
	b.Xs = append(b.Xs, x)
	b.Ys = append(b.Ys, y)
	b.IDs = append(b.IDs, id)
}

func (b *LabeledBatch) Validate() error {
	if len(b.Xs) != len(b.Ys) || len(b.Xs) != len(b.IDs) {
		return errors.Errorf("misaligned batch: %d features, %d labels, %d ids", len(b.Xs), len(b.Ys), len(b.IDs))
	}
	return nil
}

// Split is one train/test partition of the loaded data sets.
type Split struct {
	Train LabeledBatch
	Test  LabeledBatch
}

// WorkDescriptor is the unit of work pushed by the ventilator. Data sets and
// parameters are loaded by every worker at startup and never travel here.
type WorkDescriptor struct {
	Repeat int
	Stop   bool
}

// ResultRecord is one line of the results file.
type ResultRecord struct {
	Time       time.Time
	Repeat     int
	Worker     string
	Params     []string
	Iterations int
	Score      []float64
	Baseline   float64
}

// Overall returns the accuracy over all test samples.
func (r *ResultRecord) Overall() float64 {
	if len(r.Score) == 0 {
		return 0
	}
	return r.Score[0]
}

type RawOutputRow struct {
	Repeat    int
	Predicted Label
	Truth     Label
}

// ResultMessage is what a worker pushes to the sink for one descriptor.
type ResultMessage struct {
	Record    ResultRecord
	Raw       []RawOutputRow
	Structure []string
	Err       string
}

func (m *ResultMessage) Failed() bool {
	return m.Err != ""
}

type Histogram struct {
	Bins []float64
	Vals []int
	Len  int
}

// ClassPair is one decoded line of a raw output file. Predicted is 0 when
// the classifier switched on no output; classes count from 1.
type ClassPair struct {
	Predicted int
	Real      int
}
