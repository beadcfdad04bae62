package app

import (
	"context"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
	"kautsky-classification/internal/infrastructure"
)

// Sink collects result messages pushed by the workers.
type Sink struct {
	logger   *zap.Logger
	receiver domain.Receiver
}

func NewSink(logger *zap.Logger, receiver domain.Receiver) *Sink {
	return &Sink{logger: logger, receiver: receiver}
}

// Collect calls handle for each result until expected distinct repeats have
// arrived. Results are matched by their repeat index; a repeat seen twice is
// dropped.
func (s *Sink) Collect(ctx context.Context, expected int, handle func(*domain.ResultMessage) error) error {
	seen := make(map[int]struct{}, expected)
	for len(seen) < expected {
		payload, err := s.receiver.Recv(ctx)
		if err != nil {
			return errors.Annotatef(err, "%d of %d results received", len(seen), expected)
		}
		msg, err := infrastructure.DecodeResult(payload)
		if err != nil {
			return errors.Trace(err)
		}
		repeat := msg.Record.Repeat
		if repeat < 0 || repeat >= expected {
			s.logger.Warn("result for unknown repeat dropped", zap.Int("repeat", repeat))
			continue
		}
		if _, ok := seen[repeat]; ok {
			s.logger.Warn("duplicate result dropped",
				zap.Int("repeat", repeat),
				zap.String("worker", msg.Record.Worker))
			continue
		}
		seen[repeat] = struct{}{}

		status := statusSucceeded
		if msg.Failed() {
			status = statusFailed
		}
		ResultsReceivedTotal.WithLabelValues(status).Inc()
		s.logger.Debug("result received",
			zap.Int("repeat", repeat),
			zap.String("worker", msg.Record.Worker),
			zap.String("status", status))
		if err := handle(msg); err != nil {
			return errors.Annotatef(err, "repeat %d", repeat)
		}
	}
	return nil
}
