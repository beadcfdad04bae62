package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
	"kautsky-classification/internal/infrastructure"
)

var errWorkersGone = errors.New("every worker stopped before the batch finished")

type ClusterConfig struct {
	Name      string
	Workers   int
	Repeats   int
	KeepGoing bool
	Progress  io.Writer
}

// Cluster runs a master and a pool of workers inside one process, joined by
// in-memory pipes instead of sockets.
type Cluster struct {
	logger     *zap.Logger
	experiment *Experiment
	config     ClusterConfig
}

func NewCluster(logger *zap.Logger, experiment *Experiment, config ClusterConfig) *Cluster {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Name == "" {
		config.Name = "local"
	}
	return &Cluster{logger: logger, experiment: experiment, config: config}
}

func (c *Cluster) Run(ctx context.Context, writer domain.ResultWriter) (*Summary, error) {
	tasks := infrastructure.NewPipe(c.config.Workers * 2)
	results := infrastructure.NewPipe(c.config.Repeats)
	defer tasks.Close()
	defer results.Close()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	workerErrs := make([]error, c.config.Workers)
	for i := range c.config.Workers {
		wg.Add(1)
		name := fmt.Sprintf("%s-%d", c.config.Name, i)
		c.logger.Info("starting worker", zap.String("name", name))
		worker := NewWorker(c.logger, name, c.experiment, tasks.ReceiverEnd(), results.SenderEnd(), WorkerOptions{
			KeepGoing: c.config.KeepGoing,
		})
		go func(id int) {
			defer wg.Done()
			workerErrs[id] = worker.Serve(ctx)
		}(i)
	}

	go func() {
		wg.Wait()
		cancel(errWorkersGone)
	}()

	master := NewMaster(c.logger,
		NewVentilator(c.logger, tasks.SenderEnd()),
		NewSink(c.logger, results.ReceiverEnd()),
		writer,
		MasterOptions{
			Repeats:  c.config.Repeats,
			Workers:  c.config.Workers,
			Progress: c.config.Progress,
		})
	summary, err := master.Run(ctx)
	if err != nil {
		cancel(err)
	}
	wg.Wait()

	if err != nil && errors.Is(err, context.Canceled) && errors.Is(context.Cause(ctx), errWorkersGone) {
		for _, workerErr := range workerErrs {
			if workerErr != nil {
				return summary, errors.Annotate(workerErr, "worker")
			}
		}
		return summary, errors.Trace(errWorkersGone)
	}
	return summary, err
}
