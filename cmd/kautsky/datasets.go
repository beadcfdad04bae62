package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"kautsky-classification/internal/app"
	"kautsky-classification/internal/infrastructure"
)

var dataSetsCommand = &cobra.Command{
	Use:   "datasets FILE...",
	Short: "Write data set configurations for the given data files.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, func(ctx context.Context, logger *zap.Logger, v *viper.Viper) error {
			return runDataSets(logger, v, args)
		})
	},
}

func init() {
	flags := dataSetsCommand.Flags()
	flags.Bool("pairwise", false, "write one configuration per pair of data files")
	flags.Bool("all", false, "write one configuration with every data file")
	flags.Bool("one-hot", true, "label classes with one-hot vectors instead of 1-based ids")
	flags.Bool("has-header", false, "the data files start with a header row")
	flags.String("prefix", "", "prefix of the generated file names")
	flags.String("suffix", "", "suffix of the generated file names")
	flags.String("output-dir", ".", "directory receiving the configurations")
}

func runDataSets(logger *zap.Logger, v *viper.Viper, args []string) error {
	var files []string
	for _, f := range args {
		path, err := filepath.Abs(f)
		if err != nil {
			return errors.Trace(err)
		}
		if _, err := os.Stat(path); err != nil {
			logger.Warn("data file skipped", zap.String("file", f), zap.Error(err))
			continue
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return errors.NotFoundf("data files")
	}

	options := app.DataSetsOptions{
		Prefix:    v.GetString("prefix"),
		Suffix:    v.GetString("suffix"),
		OneHot:    v.GetBool("one-hot"),
		HasHeader: v.GetBool("has-header"),
	}
	var generated []app.NamedDataSets
	if v.GetBool("pairwise") {
		pairs, err := app.PairwiseDataSets(files, options)
		if err != nil {
			return errors.Trace(err)
		}
		generated = append(generated, pairs...)
	}
	if v.GetBool("all") {
		all, err := app.AllDataSets(files, options)
		if err != nil {
			return errors.Trace(err)
		}
		generated = append(generated, all)
	}
	if len(generated) == 0 {
		return errors.NotValidf("neither --pairwise nor --all")
	}

	writer := infrastructure.NewYAMLConfigReader(logger)
	dir := v.GetString("output-dir")
	for _, g := range generated {
		if err := writer.WriteDataSetsConfig(filepath.Join(dir, g.Name), g.Config); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
