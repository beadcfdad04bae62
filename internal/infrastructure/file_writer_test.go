package infrastructure

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	return records
}

func TestSuffix(t *testing.T) {
	t.Setenv("SGE_TASK_ID", "7")
	t.Setenv("JOB_ID", "1234")
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "pairs.yaml_nn.yaml_42_0.1_7_1234_2024-03-05-14-07-09",
		Suffix("configs/pairs.yaml", "/tmp/nn.yaml", 42, 0.1, now))
}

func TestCSVResultWriter(t *testing.T) {
	dir := t.TempDir()
	names := NewFileNames(dir, domain.KindNeuralNetwork, "s")
	assert.Equal(t, filepath.Join(dir, "neural-network_results_s.csv"), names.Results)

	params := &domain.NeuralNetworkParams{
		Activation:       "relu",
		Solver:           "adam",
		Alpha:            0.001,
		HiddenLayersSize: []int{4},
		MaxIterations:    50,
	}
	writer, err := NewCSVResultWriter(zap.NewNop(), names, params, true)
	require.NoError(t, err)

	at := time.Unix(1700000000, 500000000)
	for repeat := range 2 {
		require.NoError(t, writer.WriteResult(&domain.ResultMessage{
			Record: domain.ResultRecord{
				Time:       at,
				Repeat:     repeat,
				Params:     params.Values(),
				Iterations: 12,
				Score:      []float64{0.5, 1, 0},
				Baseline:   0.25,
			},
			Raw: []domain.RawOutputRow{
				{Repeat: repeat, Predicted: domain.VectorLabel(1, 0), Truth: domain.VectorLabel(1, 0)},
				{Repeat: repeat, Predicted: domain.VectorLabel(1, 0), Truth: domain.VectorLabel(0, 1)},
			},
			Structure: []string{"softmax", "3"},
		}))
	}
	require.NoError(t, writer.Close())
	require.NoError(t, writer.Close())

	results := readCSV(t, names.Results)
	require.Len(t, results, 3)
	assert.Equal(t, "time,run,activation,solver,alpha,early.stopping,max.iterations,hidden.layer.1.size,"+
		"num.iterations,all.score,partial.score.1,partial.score.2,random.chance.win", strings.Join(results[0], ","))
	assert.Equal(t, []string{"1700000000.500000", "1", "relu", "adam", "0.001", "false", "50", "4", "12", "0.5", "1", "0", "0.25"}, results[2])

	output := readCSV(t, names.Output)
	require.Len(t, output, 5)
	assert.Equal(t, []string{"predicted.class.1", "predicted.class.2", "real.class.1", "real.class.2", "run"}, output[0])
	assert.Equal(t, []string{"1", "0", "0", "1", "0"}, output[2])

	structure := readCSV(t, names.Structure)
	require.Len(t, structure, 2)
	assert.Equal(t, []string{"1700000000.500000", "0", "softmax", "3"}, structure[0])
}

func TestCSVResultWriter_ScalarOutput(t *testing.T) {
	dir := t.TempDir()
	names := NewFileNames(dir, domain.KindDecisionTree, "s")
	params := &domain.DecisionTreeParams{Criterion: "gini", MinSamplesSplit: 2}
	writer, err := NewCSVResultWriter(zap.NewNop(), names, params, false)
	require.NoError(t, err)
	require.NoError(t, writer.WriteResult(&domain.ResultMessage{
		Record: domain.ResultRecord{Params: params.Values(), Score: []float64{1, 1}},
		Raw:    []domain.RawOutputRow{{Predicted: domain.ScalarLabel(2), Truth: domain.ScalarLabel(2)}},
	}))
	require.NoError(t, writer.Close())

	results := readCSV(t, names.Results)
	assert.Equal(t, []string{"time", "run", "criterion", "max.depth", "min.samples.split", "all.score", "partial.score.1", "random.chance.win"}, results[0])
	output := readCSV(t, names.Output)
	assert.Equal(t, [][]string{{"predicted.class", "real.class", "run"}, {"2", "2", "0"}}, output)

	pairs, err := NewTSVFileReader(zap.NewNop()).ReadRawOutput(names.Output, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.ClassPair{{Predicted: 2, Real: 2}}, pairs)
}

func TestTXTFileWriter_WriteHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.txt")
	hist, err := domain.Hist([]float64{0, 0.5, 1, 1}, 0, 1, 3)
	require.NoError(t, err)
	require.NoError(t, NewTXTFileWriter(zap.NewNop()).WriteHistogram(path, &hist))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "X\tY", lines[0])
	assert.Equal(t, "1.00e+00\t         2", lines[3])
}
