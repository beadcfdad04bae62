package app

import (
	"context"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
	"kautsky-classification/internal/infrastructure"
)

// Ventilator pushes work descriptors to whichever worker pulls next.
type Ventilator struct {
	logger *zap.Logger
	sender domain.Sender
}

func NewVentilator(logger *zap.Logger, sender domain.Sender) *Ventilator {
	return &Ventilator{logger: logger, sender: sender}
}

// Push sends one descriptor per repeat index, ascending from 0.
func (v *Ventilator) Push(ctx context.Context, repeats int) error {
	for i := range repeats {
		if err := v.send(ctx, domain.WorkDescriptor{Repeat: i}); err != nil {
			return errors.Annotatef(err, "push repeat %d", i)
		}
		DescriptorsPushedTotal.Inc()
		v.logger.Debug("descriptor pushed", zap.Int("repeat", i))
	}
	v.logger.Info("all descriptors pushed", zap.Int("repeats", repeats))
	return nil
}

// Stop sends one stop descriptor per worker.
func (v *Ventilator) Stop(ctx context.Context, workers int) error {
	for range workers {
		if err := v.send(ctx, domain.WorkDescriptor{Stop: true}); err != nil {
			return errors.Annotate(err, "push stop")
		}
	}
	v.logger.Info("stop descriptors pushed", zap.Int("workers", workers))
	return nil
}

func (v *Ventilator) send(ctx context.Context, d domain.WorkDescriptor) error {
	payload, err := infrastructure.EncodeDescriptor(d)
	if err != nil {
		return errors.Trace(err)
	}
	return v.sender.Send(ctx, payload)
}
