package infrastructure

import (
	"os"

	"github.com/juju/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"kautsky-classification/internal/domain"
)

type YAMLConfigReader struct {
	logger *zap.Logger
}

func NewYAMLConfigReader(logger *zap.Logger) *YAMLConfigReader {
	return &YAMLConfigReader{logger: logger}
}

func (r *YAMLConfigReader) ReadDataSetsConfig(path string) (*domain.DataSetsConfig, error) {
	var config domain.DataSetsConfig
	if err := r.decode(path, &config); err != nil {
		return nil, err
	}
	config.Path = path
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	r.logger.Info("data sets configuration loaded",
		zap.String("path", path),
		zap.Int("classes", config.NumClasses()),
		zap.Int("label_width", config.LabelWidth()))
	return &config, nil
}

func (r *YAMLConfigReader) ReadClassifierConfig(path string) (*domain.ClassifierConfig, error) {
	var config domain.ClassifierConfig
	if err := r.decode(path, &config); err != nil {
		return nil, err
	}
	config.Path = path
	if config.DecisionTree == nil && config.NeuralNetwork == nil {
		return nil, errors.Annotatef(domain.ErrInvalidFileFormat, "%s has no classifier section", path)
	}
	r.setDefaults(&config)
	r.logger.Info("classifier parameters loaded",
		zap.String("path", path),
		zap.Bool("decision_tree", config.DecisionTree != nil),
		zap.Bool("neural_network", config.NeuralNetwork != nil))
	return &config, nil
}

func (r *YAMLConfigReader) decode(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Annotatef(domain.ErrInvalidFileFormat, "%s: %v", path, err)
	}
	return nil
}

func (r *YAMLConfigReader) setDefaults(config *domain.ClassifierConfig) {
	if dt := config.DecisionTree; dt != nil {
		if dt.Criterion == "" {
			dt.Criterion = "gini"
		}
		if dt.MinSamplesSplit == 0 {
			dt.MinSamplesSplit = 2
		}
	}
	if nn := config.NeuralNetwork; nn != nil {
		if nn.Activation == "" {
			nn.Activation = "relu"
		}
		if nn.Solver == "" {
			nn.Solver = "adam"
		}
		if nn.Alpha == 0 {
			nn.Alpha = 0.0001
		}
		if len(nn.HiddenLayersSize) == 0 {
			nn.HiddenLayersSize = []int{100}
		}
		if nn.MaxIterations == 0 {
			nn.MaxIterations = 200
		}
	}
}

// WriteDataSetsConfig saves a data set configuration in the format
// ReadDataSetsConfig reads.
func (r *YAMLConfigReader) WriteDataSetsConfig(path string, config *domain.DataSetsConfig) error {
	if err := config.Validate(); err != nil {
		return errors.Trace(err)
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Trace(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Trace(err)
	}
	r.logger.Info("data sets configuration written",
		zap.String("path", path),
		zap.Int("classes", config.NumClasses()))
	return nil
}
