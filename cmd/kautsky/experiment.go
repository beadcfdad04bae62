package main

import (
	"time"

	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"kautsky-classification/internal/app"
	"kautsky-classification/internal/domain"
	"kautsky-classification/internal/infrastructure"
)

func addExperimentFlags(flags *pflag.FlagSet) {
	flags.String("data-sets", "", "YAML file listing the data sets and their classes")
	flags.String("params", "", "YAML file with the classifier parameters")
	flags.String("classifier", string(domain.KindNeuralNetwork), "classifier to run (decision-tree, neural-network)")
	flags.Float64("fraction-test", 0.1, "probability that a record goes to the test set")
	flags.Int64("seed", 0, "seed of the random number generator")
	flags.String("label-mode", "class", "labels learned by the classifier (class, id)")
}

func addBatchFlags(flags *pflag.FlagSet) {
	flags.Int("repeats", 1, "number of repeats")
	flags.String("output-dir", ".", "directory receiving the result files")
	flags.Int("histogram-bins", 0, "write a histogram of the scores with this many bins, 0 disables")
}

// settings are the experiment flags once parsed.
type settings struct {
	DataSetsPath string
	ParamsPath   string
	Experiment   domain.ExperimentConfig
}

func readSettings(v *viper.Viper) (*settings, error) {
	s := &settings{
		DataSetsPath: v.GetString("data-sets"),
		ParamsPath:   v.GetString("params"),
	}
	if s.DataSetsPath == "" {
		return nil, errors.NotValidf("empty --data-sets")
	}
	if s.ParamsPath == "" {
		return nil, errors.NotValidf("empty --params")
	}
	kind, err := domain.ParseClassifierKind(v.GetString("classifier"))
	if err != nil {
		return nil, errors.Trace(err)
	}
	mode, err := domain.ParseLabelMode(v.GetString("label-mode"))
	if err != nil {
		return nil, errors.Trace(err)
	}
	fraction := v.GetFloat64("fraction-test")
	if fraction < 0 || fraction > 1 {
		return nil, errors.Annotatef(domain.ErrInvalidFraction, "--fraction-test %v", fraction)
	}
	s.Experiment = domain.ExperimentConfig{
		Kind:         kind,
		FractionTest: fraction,
		Seed:         v.GetInt64("seed"),
		LabelMode:    mode,
	}
	return s, nil
}

// loadExperiment reads both YAML documents and every data set.
func loadExperiment(logger *zap.Logger, configs domain.ConfigReader, files domain.DataSetReader, s *settings) (*app.Experiment, *domain.ClassifierConfig, error) {
	dataSetsConfig, err := configs.ReadDataSetsConfig(s.DataSetsPath)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	classifierConfig, err := configs.ReadClassifierConfig(s.ParamsPath)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	dataSets, err := files.ReadDataSets(dataSetsConfig, domain.NewClassRegistry())
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	experiment, err := app.NewExperiment(logger, s.Experiment, dataSets, classifierConfig)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return experiment, classifierConfig, nil
}

// openWriter creates the result files of a batch.
func openWriter(logger *zap.Logger, v *viper.Viper, s *settings, classifiers *domain.ClassifierConfig) (*infrastructure.CSVResultWriter, string, error) {
	params, err := classifiers.Params(s.Experiment.Kind)
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	suffix := infrastructure.Suffix(s.DataSetsPath, s.ParamsPath, s.Experiment.Seed, s.Experiment.FractionTest, time.Now())
	names := infrastructure.NewFileNames(v.GetString("output-dir"), s.Experiment.Kind, suffix)
	writer, err := infrastructure.NewCSVResultWriter(logger, names, params, s.Experiment.Kind == domain.KindNeuralNetwork)
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	return writer, suffix, nil
}

// writeHistogram saves the score histogram when --histogram-bins is set.
func writeHistogram(logger *zap.Logger, v *viper.Viper, s *settings, suffix string, summary *app.Summary) error {
	bins := v.GetInt("histogram-bins")
	if bins == 0 || summary == nil || len(summary.Scores) == 0 {
		return nil
	}
	hist, err := summary.Histogram(bins)
	if err != nil {
		return errors.Trace(err)
	}
	names := infrastructure.NewFileNames(v.GetString("output-dir"), s.Experiment.Kind, suffix)
	return infrastructure.NewTXTFileWriter(logger).WriteHistogram(names.Histogram, &hist)
}
