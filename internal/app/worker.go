package app

import (
	"context"
	"time"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
	"kautsky-classification/internal/infrastructure"
)

type WorkerState string

const (
	StateConnecting WorkerState = "connecting"
	StateReady      WorkerState = "ready"
	StatePulling    WorkerState = "pulling"
	StateProcessing WorkerState = "processing"
	StatePushing    WorkerState = "pushing"
	StateStopped    WorkerState = "stopped"
)

type WorkerOptions struct {
	// Quota stops the worker after this many descriptors. Zero means no limit.
	Quota int
	// KeepGoing keeps pulling after a failed trial.
	KeepGoing bool
}

// Worker pulls descriptors, runs one trial each and pushes the result.
type Worker struct {
	logger     *zap.Logger
	name       string
	experiment *Experiment
	pull       domain.Receiver
	push       domain.Sender
	options    WorkerOptions

	state     WorkerState
	processed int
}

func NewWorker(logger *zap.Logger, name string, experiment *Experiment, pull domain.Receiver, push domain.Sender, options WorkerOptions) *Worker {
	w := &Worker{
		logger:     logger.With(zap.String("worker", name)),
		name:       name,
		experiment: experiment,
		pull:       pull,
		push:       push,
		options:    options,
	}
	w.setState(StateConnecting)
	return w
}

func (w *Worker) State() WorkerState {
	return w.state
}

func (w *Worker) Processed() int {
	return w.processed
}

// Serve runs until a stop descriptor arrives, ctx is cancelled or the quota
// is used up. A failed trial is reported to the sink before Serve returns
// ErrTrialFailed, unless KeepGoing is set.
func (w *Worker) Serve(ctx context.Context) error {
	defer w.setState(StateStopped)
	w.setState(StateReady)

	for w.options.Quota == 0 || w.processed < w.options.Quota {
		w.setState(StatePulling)
		payload, err := w.pull.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Annotate(err, "pull descriptor")
		}
		descriptor, err := infrastructure.DecodeDescriptor(payload)
		if err != nil {
			return errors.Trace(err)
		}
		if descriptor.Stop {
			w.logger.Info("stop descriptor received", zap.Int("processed", w.processed))
			return nil
		}

		w.setState(StateProcessing)
		msg, runErr := w.experiment.Run(descriptor.Repeat)
		if runErr != nil {
			TrialsTotal.WithLabelValues(statusFailed).Inc()
			w.logger.Error("trial failed", zap.Int("repeat", descriptor.Repeat), zap.Error(runErr))
			msg = &domain.ResultMessage{
				Record: domain.ResultRecord{Time: time.Now(), Repeat: descriptor.Repeat},
				Err:    runErr.Error(),
			}
		} else {
			TrialsTotal.WithLabelValues(statusSucceeded).Inc()
		}
		msg.Record.Worker = w.name

		w.setState(StatePushing)
		out, err := infrastructure.EncodeResult(msg)
		if err != nil {
			return errors.Trace(err)
		}
		if err := w.push.Send(ctx, out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Annotatef(err, "push repeat %d", descriptor.Repeat)
		}
		w.processed++

		if runErr != nil && !w.options.KeepGoing {
			return errors.Annotatef(domain.ErrTrialFailed, "repeat %d: %v", descriptor.Repeat, runErr)
		}
	}
	w.logger.Info("quota reached", zap.Int("processed", w.processed))
	return nil
}

func (w *Worker) setState(state WorkerState) {
	w.state = state
	w.logger.Debug("worker state", zap.String("state", string(state)))
}
