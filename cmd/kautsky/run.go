package main

import (
	"context"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"kautsky-classification/internal/app"
	"kautsky-classification/internal/infrastructure"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run a whole batch on this host with a pool of in-process workers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, runLocal)
	},
}

func init() {
	flags := runCommand.Flags()
	addExperimentFlags(flags)
	addBatchFlags(flags)
	flags.Int("workers", max(1, runtime.NumCPU()-1), "number of workers")
	flags.Bool("keep-going", false, "keep pulling after a failed trial")
}

func runLocal(ctx context.Context, logger *zap.Logger, v *viper.Viper) error {
	s, err := readSettings(v)
	if err != nil {
		return err
	}
	experiment, classifiers, err := loadExperiment(logger,
		infrastructure.NewYAMLConfigReader(logger),
		infrastructure.NewTSVFileReader(logger),
		s)
	if err != nil {
		return err
	}
	writer, suffix, err := openWriter(logger, v, s, classifiers)
	if err != nil {
		return err
	}
	defer writer.Close()

	cluster := app.NewCluster(logger, experiment, app.ClusterConfig{
		Workers:   v.GetInt("workers"),
		Repeats:   v.GetInt("repeats"),
		KeepGoing: v.GetBool("keep-going"),
		Progress:  os.Stderr,
	})
	summary, runErr := cluster.Run(ctx, writer)
	if err := writeHistogram(logger, v, s, suffix, summary); err != nil {
		logger.Error("failed to write histogram", zap.Error(err))
	}
	if err := writer.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
