package infrastructure

import (
	"context"
	"slices"
	"sync"

	"github.com/juju/errors"

	"kautsky-classification/internal/domain"
)

var ErrClosed = errors.New("transport closed")

// Pipe is an in-process push/pull channel. Any number of ends may send and
// receive concurrently; each payload is delivered to exactly one receiver.
type Pipe struct {
	ch     chan []byte
	closed chan struct{}
	once   sync.Once
}

func NewPipe(capacity int) *Pipe {
	return &Pipe{
		ch:     make(chan []byte, capacity),
		closed: make(chan struct{}),
	}
}

func (p *Pipe) Send(ctx context.Context, payload []byte) error {
	select {
	case <-p.closed:
		return errors.Trace(ErrClosed)
	default:
	}
	select {
	case p.ch <- slices.Clone(payload):
		return nil
	case <-ctx.Done():
		return errors.Trace(ctx.Err())
	case <-p.closed:
		return errors.Trace(ErrClosed)
	}
}

func (p *Pipe) Recv(ctx context.Context) ([]byte, error) {
	select {
	case payload := <-p.ch:
		return payload, nil
	case <-ctx.Done():
		return nil, errors.Trace(ctx.Err())
	case <-p.closed:
		return nil, errors.Trace(ErrClosed)
	}
}

// Close releases every blocked sender and receiver.
func (p *Pipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

// SenderEnd returns a view of the pipe whose Close does nothing, for
// components that do not own it.
func (p *Pipe) SenderEnd() domain.Sender {
	return pipeEnd{p}
}

func (p *Pipe) ReceiverEnd() domain.Receiver {
	return pipeEnd{p}
}

type pipeEnd struct {
	pipe *Pipe
}

func (e pipeEnd) Send(ctx context.Context, payload []byte) error {
	return e.pipe.Send(ctx, payload)
}

func (e pipeEnd) Recv(ctx context.Context) ([]byte, error) {
	return e.pipe.Recv(ctx)
}

func (e pipeEnd) Close() error {
	return nil
}
