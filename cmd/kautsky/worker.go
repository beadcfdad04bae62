package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"kautsky-classification/internal/app"
	"kautsky-classification/internal/infrastructure"
)

var workerCommand = &cobra.Command{
	Use:   "worker",
	Short: "Pull repeat indices from the master, run one trial each and push the results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, runWorker)
	},
}

func init() {
	flags := workerCommand.Flags()
	addExperimentFlags(flags)
	flags.String("server", infrastructure.DefaultServer, "IP address where the ventilator and sink process are running")
	flags.Int("ventilator", infrastructure.DefaultVentilatorPort, "port number used by the ventilator to send requests to the workers")
	flags.Int("sink", infrastructure.DefaultSinkPort, "port number used by the sink to receive results from the workers")
	flags.String("name", "", "worker name written to the results, random if empty")
	flags.Int("quota", 0, "stop after this many repeats, 0 means no limit")
	flags.Bool("keep-going", false, "keep pulling after a failed trial")
}

func runWorker(ctx context.Context, logger *zap.Logger, v *viper.Viper) error {
	s, err := readSettings(v)
	if err != nil {
		return err
	}
	name := v.GetString("name")
	if name == "" {
		name = uuid.NewString()
	}
	logger = logger.With(zap.String("worker", name))

	experiment, _, err := loadExperiment(logger,
		infrastructure.NewYAMLConfigReader(logger),
		infrastructure.NewTSVFileReader(logger),
		s)
	if err != nil {
		return err
	}

	server := v.GetString("server")
	pull, err := infrastructure.ConnectRequester(ctx, logger, infrastructure.Endpoint(server, v.GetInt("ventilator")))
	if err != nil {
		return errors.Trace(err)
	}
	defer pull.Close()
	push, err := infrastructure.ConnectPush(ctx, logger, infrastructure.Endpoint(server, v.GetInt("sink")))
	if err != nil {
		return errors.Trace(err)
	}
	defer push.Close()

	worker := app.NewWorker(logger, name, experiment, pull, push, app.WorkerOptions{
		Quota:     v.GetInt("quota"),
		KeepGoing: v.GetBool("keep-going"),
	})
	return worker.Serve(ctx)
}
