package infrastructure

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
)

func TestYAMLConfigReader_DataSets(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "datasets.yaml", `
datasets:
  - filename: a.txt
    class: [1, 0, 0]
  - filename: b.txt
    class: [0, 1, 0]
has_header: true
`)
	config, err := NewYAMLConfigReader(zap.NewNop()).ReadDataSetsConfig(path)
	require.NoError(t, err)
	assert.True(t, config.HasHeader)
	assert.Equal(t, 2, config.NumClasses())
	assert.Equal(t, 3, config.LabelWidth())
	assert.Equal(t, domain.VectorLabel(0, 1, 0), config.DataSets[1].Class)
	assert.Equal(t, path, config.Path)
}

func TestYAMLConfigReader_MixedClasses(t *testing.T) {
	path := writeFile(t, t.TempDir(), "datasets.yaml", `
datasets:
  - filename: a.txt
    class: 1
  - filename: b.txt
    class: [0, 1]
`)
	_, err := NewYAMLConfigReader(zap.NewNop()).ReadDataSetsConfig(path)
	assert.ErrorIs(t, err, domain.ErrLabelShape)
}

func TestYAMLConfigReader_Classifier(t *testing.T) {
	path := writeFile(t, t.TempDir(), "params.yaml", `
decision_tree:
  max_depth: 4
neural_network:
  activation: tanh
  solver: sgd
  alpha: 0.01
  hidden_layers_size: [10, 5]
  max_iterations: 300
  early_stopping: true
`)
	config, err := NewYAMLConfigReader(zap.NewNop()).ReadClassifierConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &domain.DecisionTreeParams{Criterion: "gini", MaxDepth: 4, MinSamplesSplit: 2}, config.DecisionTree)
	assert.Equal(t, []int{10, 5}, config.NeuralNetwork.HiddenLayersSize)
	assert.True(t, config.NeuralNetwork.EarlyStopping)

	params, err := config.Params(domain.KindNeuralNetwork)
	require.NoError(t, err)
	assert.Equal(t, []string{"tanh", "sgd", "0.01", "true", "300", "10", "5"}, params.Values())
}

func TestYAMLConfigReader_ClassifierDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "params.yaml", "neural_network: {}\n")
	config, err := NewYAMLConfigReader(zap.NewNop()).ReadClassifierConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "relu", config.NeuralNetwork.Activation)
	assert.Equal(t, "adam", config.NeuralNetwork.Solver)
	assert.Equal(t, []int{100}, config.NeuralNetwork.HiddenLayersSize)
	assert.Equal(t, 200, config.NeuralNetwork.MaxIterations)

	_, err = config.Params(domain.KindDecisionTree)
	assert.Error(t, err)
}

func TestYAMLConfigReader_Invalid(t *testing.T) {
	dir := t.TempDir()
	reader := NewYAMLConfigReader(zap.NewNop())

	_, err := reader.ReadClassifierConfig(writeFile(t, dir, "empty.yaml", "other: 1\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidFileFormat)

	_, err = reader.ReadDataSetsConfig(writeFile(t, dir, "broken.yaml", "datasets: [\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidFileFormat)
}

func TestYAMLConfigReader_WriteDataSets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ALL.dataset")
	reader := NewYAMLConfigReader(zap.NewNop())
	written := &domain.DataSetsConfig{
		DataSets: []domain.DataSetEntry{
			{Filename: "/data/a.txt", Class: domain.VectorLabel(1, 0)},
			{Filename: "/data/b.txt", Class: domain.VectorLabel(0, 1)},
		},
		HasHeader: true,
	}
	require.NoError(t, reader.WriteDataSetsConfig(path, written))

	read, err := reader.ReadDataSetsConfig(path)
	require.NoError(t, err)
	assert.Equal(t, written.DataSets, read.DataSets)
	assert.True(t, read.HasHeader)

	err = reader.WriteDataSetsConfig(path, &domain.DataSetsConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidFileFormat)
}
