package learning

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kautsky-classification/internal/domain"
	"kautsky-classification/pkg/rng"
)

// blobs draws n points around each center.
func blobs(stream *rng.Stream, n int, centers [][]float64, labels []domain.Label) ([][]float64, []domain.Label) {
	var xs [][]float64
	var ys []domain.Label
	for c, center := range centers {
		for range n {
			x := make([]float64, len(center))
			for j, v := range center {
				x[j] = v + stream.NormFloat64()*0.3
			}
			xs = append(xs, x)
			ys = append(ys, labels[c])
		}
	}
	return xs, ys
}

func accuracy(predicted, truth []domain.Label) float64 {
	hits := 0
	for i := range truth {
		if predicted[i].Equal(truth[i]) {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

var threeCenters = [][]float64{{0, 0}, {3, 3}, {0, 3}}

func TestLabelEncoder(t *testing.T) {
	encoder := NewLabelEncoder()
	encoded, err := encoder.FitTransform([]domain.Label{
		domain.ScalarLabel(5), domain.ScalarLabel(2), domain.ScalarLabel(5),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, encoded)
	assert.Equal(t, domain.ScalarLabel(5), encoder.Decode(1))

	_, err = encoder.Transform([]domain.Label{domain.ScalarLabel(3)})
	assert.True(t, errors.IsNotFound(err))

	err = encoder.Fit([]domain.Label{domain.ScalarLabel(1), domain.VectorLabel(1)})
	assert.ErrorIs(t, err, domain.ErrLabelShape)
}

func TestDecisionTree_Fit(t *testing.T) {
	labels := []domain.Label{domain.ScalarLabel(1), domain.ScalarLabel(2), domain.ScalarLabel(3)}
	xs, ys := blobs(rng.New(1), 30, threeCenters, labels)

	tree, err := NewDecisionTree(&domain.DecisionTreeParams{}, rng.New(2))
	require.NoError(t, err)
	require.NoError(t, tree.Fit(xs, ys))
	predicted, err := tree.Predict(xs)
	require.NoError(t, err)
	assert.Equal(t, 1.0, accuracy(predicted, ys))

	testXs, testYs := blobs(rng.New(3), 10, threeCenters, labels)
	predicted, err = tree.Predict(testXs)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(predicted, testYs), 0.9)

	dump := tree.Describe()
	assert.Equal(t, tree.NodeCount()*4+1, len(dump))
}

func TestDecisionTree_MaxDepth(t *testing.T) {
	labels := []domain.Label{domain.VectorLabel(1, 0, 0), domain.VectorLabel(0, 1, 0), domain.VectorLabel(0, 0, 1)}
	xs, ys := blobs(rng.New(1), 20, threeCenters, labels)

	tree, err := NewDecisionTree(&domain.DecisionTreeParams{Criterion: CriterionEntropy, MaxDepth: 1}, rng.New(2))
	require.NoError(t, err)
	require.NoError(t, tree.Fit(xs, ys))
	assert.Equal(t, 3, tree.NodeCount())

	predicted, err := tree.Predict(xs)
	require.NoError(t, err)
	for _, p := range predicted {
		assert.Equal(t, 3, p.Width())
	}
}

func TestDecisionTree_Errors(t *testing.T) {
	_, err := NewDecisionTree(&domain.DecisionTreeParams{Criterion: "log_loss"}, nil)
	assert.True(t, errors.IsNotValid(err))

	tree, err := NewDecisionTree(&domain.DecisionTreeParams{}, nil)
	require.NoError(t, err)
	_, err = tree.Predict([][]float64{{1}})
	assert.Error(t, err)

	require.NoError(t, tree.Fit([][]float64{{1, 2}, {3, 4}}, []domain.Label{domain.ScalarLabel(1), domain.ScalarLabel(2)}))
	_, err = tree.Predict([][]float64{{1}})
	assert.ErrorIs(t, err, domain.ErrRowWidth)

	assert.ErrorIs(t, tree.Fit(nil, nil), domain.ErrEmptyBatch)
}

func TestNeuralNetwork_Scalar(t *testing.T) {
	labels := []domain.Label{domain.ScalarLabel(1), domain.ScalarLabel(2), domain.ScalarLabel(3)}
	xs, ys := blobs(rng.New(4), 40, threeCenters, labels)

	nn, err := NewNeuralNetwork(&domain.NeuralNetworkParams{
		HiddenLayersSize: []int{16},
		Alpha:            0.0001,
		LearningRate:     0.03,
		MaxIterations:    300,
	}, rng.New(5))
	require.NoError(t, err)
	require.NoError(t, nn.Fit(xs, ys))
	assert.Positive(t, nn.Iterations())
	assert.LessOrEqual(t, nn.Iterations(), 300)

	testXs, testYs := blobs(rng.New(6), 20, threeCenters, labels)
	predicted, err := nn.Predict(testXs)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(predicted, testYs), 0.9)

	dump := nn.Describe()
	// softmax, layer count, outputs, 2*16+16*3 weights, 16+3 biases
	assert.Len(t, dump, 3+2*16+16*3+16+3)
	assert.Equal(t, []string{"softmax", "3", "3"}, dump[:3])
}

func TestNeuralNetwork_VectorEarlyStopping(t *testing.T) {
	labels := []domain.Label{domain.VectorLabel(1, 0), domain.VectorLabel(0, 1)}
	centers := [][]float64{{0, 0}, {3, 3}}
	xs, ys := blobs(rng.New(7), 60, centers, labels)

	nn, err := NewNeuralNetwork(&domain.NeuralNetworkParams{
		Activation:       ActivationTanh,
		Solver:           SolverAdam,
		HiddenLayersSize: []int{8},
		LearningRate:     0.01,
		MaxIterations:    400,
		EarlyStopping:    true,
	}, rng.New(8))
	require.NoError(t, err)
	require.NoError(t, nn.Fit(xs, ys))
	assert.Less(t, nn.Iterations(), 400)

	testXs, testYs := blobs(rng.New(9), 20, centers, labels)
	predicted, err := nn.Predict(testXs)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(predicted, testYs), 0.9)
	assert.Equal(t, "logistic", nn.Describe()[0])
}

func TestNeuralNetwork_Deterministic(t *testing.T) {
	labels := []domain.Label{domain.ScalarLabel(1), domain.ScalarLabel(2)}
	xs, ys := blobs(rng.New(1), 20, threeCenters[:2], labels)
	params := &domain.NeuralNetworkParams{HiddenLayersSize: []int{4}, Solver: SolverSGD, MaxIterations: 20}

	a, err := NewNeuralNetwork(params, rng.New(3))
	require.NoError(t, err)
	b, err := NewNeuralNetwork(params, rng.New(3))
	require.NoError(t, err)
	require.NoError(t, a.Fit(xs, ys))
	require.NoError(t, b.Fit(xs, ys))
	assert.Equal(t, a.Describe(), b.Describe())
}

func TestNeuralNetwork_InvalidParams(t *testing.T) {
	_, err := NewNeuralNetwork(&domain.NeuralNetworkParams{Activation: "softsign"}, nil)
	assert.True(t, errors.IsNotValid(err))
	_, err = NewNeuralNetwork(&domain.NeuralNetworkParams{Solver: "lbfgs"}, nil)
	assert.True(t, errors.IsNotValid(err))
	_, err = NewNeuralNetwork(&domain.NeuralNetworkParams{HiddenLayersSize: []int{0}}, nil)
	assert.True(t, errors.IsNotValid(err))
}

func TestNewFactory(t *testing.T) {
	config := &domain.ClassifierConfig{
		DecisionTree:  &domain.DecisionTreeParams{MaxDepth: 2},
		NeuralNetwork: &domain.NeuralNetworkParams{HiddenLayersSize: []int{3}},
	}
	factory, err := NewFactory(domain.KindDecisionTree, config)
	require.NoError(t, err)
	clf, err := factory(rng.New(1))
	require.NoError(t, err)
	assert.IsType(t, &DecisionTree{}, clf)

	factory, err = NewFactory(domain.KindNeuralNetwork, config)
	require.NoError(t, err)
	clf, err = factory(rng.New(1))
	require.NoError(t, err)
	assert.Implements(t, (*domain.Iterative)(nil), clf)

	_, err = NewFactory("svm", config)
	assert.ErrorIs(t, err, domain.ErrUnknownClassifier)

	_, err = NewFactory(domain.KindNeuralNetwork, &domain.ClassifierConfig{})
	assert.True(t, errors.IsNotFound(err))

	config.DecisionTree.Criterion = "bogus"
	_, err = NewFactory(domain.KindDecisionTree, config)
	assert.True(t, errors.IsNotValid(err))
}
