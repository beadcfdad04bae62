package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"kautsky-classification/internal/app"
	"kautsky-classification/internal/infrastructure"
)

var masterCommand = &cobra.Command{
	Use:   "master",
	Short: "Push repeat indices to the workers and collect their results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, runMaster)
	},
}

func init() {
	flags := masterCommand.Flags()
	addExperimentFlags(flags)
	addBatchFlags(flags)
	flags.Int("workers", runtime.NumCPU(), "number of workers to stop once the batch is done")
	flags.Duration("stop-grace", 30*time.Second, "how long to wait for idle workers to take their stop descriptor, 0 waits forever")
	flags.String("bind", infrastructure.DefaultBindHost, "address the ventilator and sink bind to")
	flags.Int("ventilator", infrastructure.DefaultVentilatorPort, "port number used by the ventilator to send requests to the workers")
	flags.Int("sink", infrastructure.DefaultSinkPort, "port number used by the sink to receive results from the workers")
}

func runMaster(ctx context.Context, logger *zap.Logger, v *viper.Viper) error {
	s, err := readSettings(v)
	if err != nil {
		return err
	}
	classifiers, err := infrastructure.NewYAMLConfigReader(logger).ReadClassifierConfig(s.ParamsPath)
	if err != nil {
		return errors.Trace(err)
	}

	bind := v.GetString("bind")
	push, err := infrastructure.BindDispatcher(ctx, logger, infrastructure.Endpoint(bind, v.GetInt("ventilator")))
	if err != nil {
		return errors.Trace(err)
	}
	defer push.Close()
	pull, err := infrastructure.BindPull(ctx, logger, infrastructure.Endpoint(bind, v.GetInt("sink")))
	if err != nil {
		return errors.Trace(err)
	}
	defer pull.Close()

	writer, suffix, err := openWriter(logger, v, s, classifiers)
	if err != nil {
		return err
	}
	defer writer.Close()

	master := app.NewMaster(logger,
		app.NewVentilator(logger, push),
		app.NewSink(logger, pull),
		writer,
		app.MasterOptions{
			Repeats:   v.GetInt("repeats"),
			Workers:   v.GetInt("workers"),
			StopGrace: v.GetDuration("stop-grace"),
			Progress:  os.Stderr,
		})
	summary, runErr := master.Run(ctx)
	if err := writeHistogram(logger, v, s, suffix, summary); err != nil {
		logger.Error("failed to write histogram", zap.Error(err))
	}
	if err := writer.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
