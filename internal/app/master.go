package app

import (
	"context"
	"io"
	"time"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"kautsky-classification/internal/domain"
)

type MasterOptions struct {
	Repeats int
	Workers int
	// StopGrace bounds the wait for workers to take their stop descriptor
	// once every result is in. Zero waits forever.
	StopGrace time.Duration
	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// Master drives one batch: it pushes the descriptors, drains the results
// into the writer and finally stops the workers.
type Master struct {
	logger     *zap.Logger
	ventilator *Ventilator
	sink       *Sink
	writer     domain.ResultWriter
	options    MasterOptions
}

func NewMaster(logger *zap.Logger, ventilator *Ventilator, sink *Sink, writer domain.ResultWriter, options MasterOptions) *Master {
	return &Master{
		logger:     logger,
		ventilator: ventilator,
		sink:       sink,
		writer:     writer,
		options:    options,
	}
}

// Summary aggregates the results of a batch.
type Summary struct {
	Received     int
	Failed       int
	Scores       []float64
	Baselines    []float64
	MeanScore    float64
	StdScore     float64
	MeanBaseline float64
}

// Histogram bins the overall scores over [0, 1].
func (s *Summary) Histogram(bins int) (domain.Histogram, error) {
	return domain.Hist(s.Scores, 0, 1, bins)
}

func (m *Master) Run(ctx context.Context) (*Summary, error) {
	progress := m.options.Progress
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(m.options.Repeats,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("collecting results"),
		progressbar.OptionShowCount())

	collectCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	pushed := make(chan error, 1)
	go func() {
		err := m.ventilator.Push(collectCtx, m.options.Repeats)
		if err != nil {
			cancel(err)
		}
		pushed <- err
	}()

	m.logger.Info("collecting results",
		zap.Int("repeats", m.options.Repeats),
		zap.Int("workers", m.options.Workers))
	summary := &Summary{}
	err := m.sink.Collect(collectCtx, m.options.Repeats, func(msg *domain.ResultMessage) error {
		summary.Received++
		_ = bar.Add(1)
		if msg.Failed() {
			summary.Failed++
			m.logger.Error("repeat failed",
				zap.Int("repeat", msg.Record.Repeat),
				zap.String("worker", msg.Record.Worker),
				zap.String("error", msg.Err))
			return nil
		}
		if err := m.writer.WriteResult(msg); err != nil {
			return errors.Trace(err)
		}
		score := msg.Record.Overall()
		OverallScore.Observe(score)
		summary.Scores = append(summary.Scores, score)
		summary.Baselines = append(summary.Baselines, msg.Record.Baseline)
		return nil
	})
	if err != nil {
		cancel(err)
	}
	// A failed push ends the collection through collectCtx; report the push
	// error rather than the cancellation it caused.
	pushErr := <-pushed
	if pushErr != nil && (err == nil || errors.Is(context.Cause(collectCtx), pushErr)) {
		err = pushErr
	}
	_ = bar.Finish()
	if err != nil {
		return summary, errors.Trace(err)
	}

	if err := m.stopWorkers(ctx); err != nil {
		return summary, errors.Trace(err)
	}

	if len(summary.Scores) > 0 {
		summary.MeanScore, summary.StdScore = stat.MeanStdDev(summary.Scores, nil)
		if len(summary.Scores) == 1 {
			summary.StdScore = 0
		}
		summary.MeanBaseline = stat.Mean(summary.Baselines, nil)
	}
	m.logger.Info("batch finished",
		zap.Int("received", summary.Received),
		zap.Int("failed", summary.Failed),
		zap.Float64("mean_score", summary.MeanScore),
		zap.Float64("std_score", summary.StdScore),
		zap.Float64("mean_random_chance", summary.MeanBaseline))
	if summary.Failed > 0 {
		return summary, errors.Annotatef(domain.ErrTrialFailed, "%d of %d repeats", summary.Failed, summary.Received)
	}
	return summary, nil
}

func (m *Master) stopWorkers(ctx context.Context) error {
	if m.options.StopGrace <= 0 {
		return m.ventilator.Stop(ctx, m.options.Workers)
	}
	stopCtx, cancel := context.WithTimeout(ctx, m.options.StopGrace)
	defer cancel()
	err := m.ventilator.Stop(stopCtx, m.options.Workers)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		m.logger.Warn("not every worker took a stop descriptor",
			zap.Int("workers", m.options.Workers),
			zap.Duration("grace", m.options.StopGrace))
		return nil
	}
	return err
}
