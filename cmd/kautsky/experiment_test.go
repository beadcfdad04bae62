package main

import (
	"testing"

	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
)

type stubConfigs struct {
	dataSets    *domain.DataSetsConfig
	classifiers *domain.ClassifierConfig
}

func (s *stubConfigs) ReadDataSetsConfig(string) (*domain.DataSetsConfig, error) {
	return s.dataSets, nil
}

func (s *stubConfigs) ReadClassifierConfig(string) (*domain.ClassifierConfig, error) {
	if s.classifiers == nil {
		return nil, errors.NotFoundf("classifier config")
	}
	return s.classifiers, nil
}

type stubFiles struct {
	configs []*domain.DataSetsConfig
}

func (s *stubFiles) ReadDataSets(config *domain.DataSetsConfig, registry *domain.ClassRegistry) ([]*domain.DataSet, error) {
	s.configs = append(s.configs, config)
	var dataSets []*domain.DataSet
	for _, entry := range config.DataSets {
		ds := &domain.DataSet{ID: registry.Assign(), Filename: entry.Filename, Class: entry.Class}
		for i := range 10 {
			ds.Records = append(ds.Records, []float64{float64(ds.ID), float64(i)})
		}
		dataSets = append(dataSets, ds)
	}
	return dataSets, nil
}

func newSettingsViper(t *testing.T, args ...string) *viper.Viper {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addExperimentFlags(flags)
	require.NoError(t, flags.Parse(args))
	v := viper.New()
	require.NoError(t, v.BindPFlags(flags))
	return v
}

func TestReadSettings(t *testing.T) {
	s, err := readSettings(newSettingsViper(t,
		"--data-sets", "pairs.dataset", "--params", "dt.yaml",
		"--classifier", "decision-tree", "--seed", "9", "--label-mode", "id"))
	require.NoError(t, err)
	assert.Equal(t, domain.KindDecisionTree, s.Experiment.Kind)
	assert.Equal(t, int64(9), s.Experiment.Seed)
	assert.Equal(t, 0.1, s.Experiment.FractionTest)

	_, err = readSettings(newSettingsViper(t, "--params", "dt.yaml"))
	assert.True(t, errors.IsNotValid(err))

	_, err = readSettings(newSettingsViper(t, "--data-sets", "a", "--params", "b", "--fraction-test", "1.5"))
	assert.ErrorIs(t, err, domain.ErrInvalidFraction)
}

func TestLoadExperiment(t *testing.T) {
	s, err := readSettings(newSettingsViper(t,
		"--data-sets", "pairs.dataset", "--params", "dt.yaml", "--classifier", "decision-tree"))
	require.NoError(t, err)

	configs := &stubConfigs{
		dataSets: &domain.DataSetsConfig{DataSets: []domain.DataSetEntry{
			{Filename: "a.txt", Class: domain.ScalarLabel(1)},
			{Filename: "b.txt", Class: domain.ScalarLabel(2)},
		}},
		classifiers: &domain.ClassifierConfig{DecisionTree: &domain.DecisionTreeParams{Criterion: "gini"}},
	}
	files := &stubFiles{}
	experiment, classifiers, err := loadExperiment(zap.NewNop(), configs, files, s)
	require.NoError(t, err)
	assert.Same(t, configs.classifiers, classifiers)
	require.Len(t, files.configs, 1)
	assert.Same(t, configs.dataSets, files.configs[0])

	msg, err := experiment.Run(0)
	require.NoError(t, err)
	assert.Equal(t, 0, msg.Record.Repeat)

	configs.classifiers = nil
	_, _, err = loadExperiment(zap.NewNop(), configs, files, s)
	assert.True(t, errors.IsNotFound(err))
}
