package domain

import (
	"fmt"
	"strconv"

	"github.com/juju/errors"
)

// DataSetEntry is one `{filename, class}` pair of the data set configuration.
type DataSetEntry struct {
	Filename string `yaml:"filename"`
	Class    Label  `yaml:"class"`
}

// DataSetsConfig lists the files that make up one experiment.
type DataSetsConfig struct {
	DataSets  []DataSetEntry `yaml:"datasets"`
	HasHeader bool           `yaml:"has_header"`
	Path      string         `yaml:"-"`
}

func (c *DataSetsConfig) NumClasses() int {
	return len(c.DataSets)
}

// LabelWidth is the width shared by every configured class label.
func (c *DataSetsConfig) LabelWidth() int {
	if len(c.DataSets) == 0 {
		return 0
	}
	return c.DataSets[0].Class.Width()
}

// Validate checks that all classes share one label shape.
func (c *DataSetsConfig) Validate() error {
	if len(c.DataSets) == 0 {
		return errors.Annotatef(ErrInvalidFileFormat, "%s lists no data sets", c.Path)
	}
	first := c.DataSets[0].Class
	for i, entry := range c.DataSets {
		if entry.Filename == "" {
			return errors.Annotatef(ErrInvalidFileFormat, "data set %d has no filename", i+1)
		}
		if entry.Class.Kind == LabelUnknown {
			return errors.Annotatef(ErrLabelShape, "data set %s has no class", entry.Filename)
		}
		if !entry.Class.SameShape(first) {
			return errors.Annotatef(ErrLabelShape, "class %v of %s does not match class %v of %s",
				entry.Class, entry.Filename, first, c.DataSets[0].Filename)
		}
	}
	return nil
}

// ClassifierKind selects the learning algorithm.
type ClassifierKind string

const (
	KindDecisionTree  ClassifierKind = "decision-tree"
	KindNeuralNetwork ClassifierKind = "neural-network"
)

func ParseClassifierKind(s string) (ClassifierKind, error) {
	switch s {
	case "decision-tree", "decision_tree":
		return KindDecisionTree, nil
	case "neural-network", "neural_network":
		return KindNeuralNetwork, nil
	default:
		return "", errors.Annotatef(ErrUnknownClassifier, "%q", s)
	}
}

// ParamSet is a hyper-parameter section echoed into the results file.
type ParamSet interface {
	Header() []string
	Values() []string
}

type DecisionTreeParams struct {
	Criterion       string `yaml:"criterion"`
	MaxDepth        int    `yaml:"max_depth"`
	MinSamplesSplit int    `yaml:"min_samples_split"`
}

func (p *DecisionTreeParams) Header() []string {
	return []string{"criterion", "max.depth", "min.samples.split"}
}

func (p *DecisionTreeParams) Values() []string {
	return []string{p.Criterion, strconv.Itoa(p.MaxDepth), strconv.Itoa(p.MinSamplesSplit)}
}

type NeuralNetworkParams struct {
	Activation       string  `yaml:"activation"`
	Solver           string  `yaml:"solver"`
	Alpha            float64 `yaml:"alpha"`
	LearningRate     float64 `yaml:"learning_rate"`
	HiddenLayersSize []int   `yaml:"hidden_layers_size"`
	MaxIterations    int     `yaml:"max_iterations"`
	EarlyStopping    bool    `yaml:"early_stopping"`
}

func (p *NeuralNetworkParams) Header() []string {
	header := []string{"activation", "solver", "alpha", "early.stopping", "max.iterations"}
	for i := range p.HiddenLayersSize {
		header = append(header, fmt.Sprintf("hidden.layer.%d.size", i+1))
	}
	return header
}

func (p *NeuralNetworkParams) Values() []string {
	values := []string{
		p.Activation,
		p.Solver,
		strconv.FormatFloat(p.Alpha, 'g', -1, 64),
		strconv.FormatBool(p.EarlyStopping),
		strconv.Itoa(p.MaxIterations),
	}
	for _, size := range p.HiddenLayersSize {
		values = append(values, strconv.Itoa(size))
	}
	return values
}

// ClassifierConfig has one section per classifier kind.
type ClassifierConfig struct {
	DecisionTree  *DecisionTreeParams  `yaml:"decision_tree"`
	NeuralNetwork *NeuralNetworkParams `yaml:"neural_network"`
	Path          string               `yaml:"-"`
}

// Params returns the section for kind.
func (c *ClassifierConfig) Params(kind ClassifierKind) (ParamSet, error) {
	switch kind {
	case KindDecisionTree:
		if c.DecisionTree == nil {
			return nil, errors.NotFoundf("decision_tree section in %s", c.Path)
		}
		return c.DecisionTree, nil
	case KindNeuralNetwork:
		if c.NeuralNetwork == nil {
			return nil, errors.NotFoundf("neural_network section in %s", c.Path)
		}
		return c.NeuralNetwork, nil
	default:
		return nil, errors.Annotatef(ErrUnknownClassifier, "%q", kind)
	}
}

// ExperimentConfig is what every repeat of a batch shares.
type ExperimentConfig struct {
	Kind         ClassifierKind
	FractionTest float64
	Seed         int64
	LabelMode    LabelMode
}
