package app

import (
	"path/filepath"
	"strings"

	"github.com/juju/errors"

	"kautsky-classification/internal/domain"
)

// NamedDataSets is a generated data set configuration and the file name it
// should be saved under.
type NamedDataSets struct {
	Name   string
	Config *domain.DataSetsConfig
}

// DataSetsOptions control how data set configurations are generated.
type DataSetsOptions struct {
	Prefix string
	Suffix string
	// OneHot labels classes with one-hot vectors instead of 1-based ids.
	OneHot    bool
	HasHeader bool
}

// PairwiseDataSets returns one two-class configuration for every unordered
// pair of files, in file order.
func PairwiseDataSets(files []string, options DataSetsOptions) ([]NamedDataSets, error) {
	if len(files) < 2 {
		return nil, errors.NotValidf("pairwise data sets from %d files", len(files))
	}
	var out []NamedDataSets
	for i, a := range files {
		for _, b := range files[i+1:] {
			name := options.Prefix + baseLabel(a) + "_VS_" + baseLabel(b) + options.Suffix + ".dataset"
			out = append(out, NamedDataSets{
				Name:   name,
				Config: dataSetsConfig([]string{a, b}, options),
			})
		}
	}
	return out, nil
}

// AllDataSets returns a single configuration with one class per file.
func AllDataSets(files []string, options DataSetsOptions) (NamedDataSets, error) {
	if len(files) == 0 {
		return NamedDataSets{}, errors.NotValidf("data sets from no files")
	}
	return NamedDataSets{
		Name:   options.Prefix + "ALL" + options.Suffix + ".dataset",
		Config: dataSetsConfig(files, options),
	}, nil
}

func dataSetsConfig(files []string, options DataSetsOptions) *domain.DataSetsConfig {
	config := &domain.DataSetsConfig{HasHeader: options.HasHeader}
	for i, f := range files {
		class := domain.ScalarLabel(i + 1)
		if options.OneHot {
			values := make([]int, len(files))
			values[i] = 1
			class = domain.VectorLabel(values...)
		}
		config.DataSets = append(config.DataSets, domain.DataSetEntry{Filename: f, Class: class})
	}
	return config
}

func baseLabel(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
