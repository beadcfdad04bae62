package app

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
)

// newDataSet builds n records whose first feature is the data set id, so a
// single split separates the classes.
func newDataSet(id int, class domain.Label, n int) *domain.DataSet {
	ds := &domain.DataSet{ID: id, Filename: fmt.Sprintf("class-%d.txt", id), Class: class}
	for i := range n {
		ds.Records = append(ds.Records, []float64{float64(id), float64(i % 7)})
	}
	return ds
}

func treeConfig() *domain.ClassifierConfig {
	return &domain.ClassifierConfig{
		DecisionTree: &domain.DecisionTreeParams{Criterion: "gini", MinSamplesSplit: 2},
		Path:         "params.yaml",
	}
}

func newTestExperiment(dataSets ...*domain.DataSet) (*Experiment, error) {
	if len(dataSets) == 0 {
		dataSets = []*domain.DataSet{
			newDataSet(1, domain.ScalarLabel(1), 20),
			newDataSet(2, domain.ScalarLabel(2), 20),
		}
	}
	config := domain.ExperimentConfig{
		Kind:         domain.KindDecisionTree,
		FractionTest: 0.3,
		Seed:         11,
	}
	return NewExperiment(zap.NewNop(), config, dataSets, treeConfig())
}

// memoryWriter keeps every written message.
type memoryWriter struct {
	mu       sync.Mutex
	messages []*domain.ResultMessage
	closed   bool
}

func (w *memoryWriter) WriteResult(msg *domain.ResultMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msg)
	return nil
}

func (w *memoryWriter) Close() error {
	w.closed = true
	return nil
}

func (w *memoryWriter) repeats() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	repeats := make([]int, len(w.messages))
	for i, msg := range w.messages {
		repeats[i] = msg.Record.Repeat
	}
	return repeats
}
