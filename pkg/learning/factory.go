// Package learning holds the classifiers a trial can run.
package learning

import (
	"github.com/juju/errors"

	"kautsky-classification/internal/domain"
	"kautsky-classification/pkg/rng"
)

// Factory builds a fresh classifier for one repeat. The stream seeds any
// randomness inside the classifier.
type Factory func(stream *rng.Stream) (domain.Classifier, error)

// NewFactory validates the parameters of kind once and returns a factory.
func NewFactory(kind domain.ClassifierKind, config *domain.ClassifierConfig) (Factory, error) {
	params, err := config.Params(kind)
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch p := params.(type) {
	case *domain.DecisionTreeParams:
		if _, err := NewDecisionTree(p, nil); err != nil {
			return nil, errors.Trace(err)
		}
		return func(stream *rng.Stream) (domain.Classifier, error) {
			return NewDecisionTree(p, stream)
		}, nil
	case *domain.NeuralNetworkParams:
		if _, err := NewNeuralNetwork(p, nil); err != nil {
			return nil, errors.Trace(err)
		}
		return func(stream *rng.Stream) (domain.Classifier, error) {
			return NewNeuralNetwork(p, stream)
		}, nil
	default:
		return nil, errors.Annotatef(domain.ErrUnknownClassifier, "%q", kind)
	}
}
