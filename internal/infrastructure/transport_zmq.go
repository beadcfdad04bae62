package infrastructure

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	DefaultServer         = "192.92.149.171"
	DefaultBindHost       = "0.0.0.0"
	DefaultVentilatorPort = 4557
	DefaultSinkPort       = 4558
)

// readyFrame is what a worker sends to ask the ventilator for one payload.
var readyFrame = []byte("ready")

// Endpoint formats a TCP endpoint for host and port.
func Endpoint(host string, port int) string {
	return fmt.Sprintf("tcp://%s", net.JoinHostPort(host, fmt.Sprint(port)))
}

// ZMQSocket adapts a ZeroMQ socket to the domain transport. A background
// loop owns the socket receives, so Recv can return as soon as its context
// is done without losing a message to an abandoned read.
type ZMQSocket struct {
	logger   *zap.Logger
	socket   zmq4.Socket
	endpoint string

	once     sync.Once
	incoming chan zmq4.Msg
	failed   chan struct{}
	err      error
	closed   chan struct{}
	shutdown sync.Once
}

// BindPull opens the sink side of the result channel.
func BindPull(ctx context.Context, logger *zap.Logger, endpoint string) (*ZMQSocket, error) {
	return open(logger, zmq4.NewPull(ctx), endpoint, true)
}

// ConnectPush opens the worker side of the result channel.
func ConnectPush(ctx context.Context, logger *zap.Logger, endpoint string) (*ZMQSocket, error) {
	return open(logger, zmq4.NewPush(ctx), endpoint, false)
}

func open(logger *zap.Logger, socket zmq4.Socket, endpoint string, bind bool) (*ZMQSocket, error) {
	var err error
	if bind {
		err = socket.Listen(endpoint)
	} else {
		err = socket.Dial(endpoint)
	}
	if err != nil {
		_ = socket.Close()
		return nil, errors.Annotatef(err, "%s %s", socket.Type(), endpoint)
	}
	logger.Debug("socket open",
		zap.String("type", string(socket.Type())),
		zap.String("endpoint", endpoint),
		zap.Bool("bind", bind))
	return &ZMQSocket{
		logger:   logger,
		socket:   socket,
		endpoint: endpoint,
		incoming: make(chan zmq4.Msg),
		failed:   make(chan struct{}),
		closed:   make(chan struct{}),
	}, nil
}

func (s *ZMQSocket) Send(ctx context.Context, payload []byte) error {
	return s.sendFrames(ctx, payload)
}

func (s *ZMQSocket) sendFrames(ctx context.Context, frames ...[]byte) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	if err := s.socket.Send(zmq4.NewMsgFrom(frames...)); err != nil {
		return errors.Annotatef(err, "send to %s", s.endpoint)
	}
	return nil
}

func (s *ZMQSocket) Recv(ctx context.Context) ([]byte, error) {
	msg, err := s.recvMsg(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

func (s *ZMQSocket) recvMsg(ctx context.Context) (zmq4.Msg, error) {
	s.once.Do(func() { go s.pump() })
	select {
	case msg := <-s.incoming:
		return msg, nil
	case <-ctx.Done():
		return zmq4.Msg{}, errors.Trace(ctx.Err())
	case <-s.failed:
		return zmq4.Msg{}, errors.Annotatef(s.err, "receive from %s", s.endpoint)
	}
}

// pump hands every received message to exactly one recvMsg call.
func (s *ZMQSocket) pump() {
	for {
		msg, err := s.socket.Recv()
		if err != nil {
			s.err = err
			close(s.failed)
			return
		}
		select {
		case s.incoming <- msg:
		case <-s.closed:
			return
		}
	}
}

// Addr is the bound address, useful when binding port 0.
func (s *ZMQSocket) Addr() net.Addr {
	return s.socket.Addr()
}

func (s *ZMQSocket) Close() error {
	var err error
	s.shutdown.Do(func() {
		close(s.closed)
		s.logger.Debug("socket closed", zap.String("endpoint", s.endpoint))
		err = errors.Trace(s.socket.Close())
	})
	return err
}

// ZMQDispatcher is the ventilator side of the work channel. It binds a
// ROUTER socket and answers each ready request from a worker with one
// payload, so every payload reaches exactly one worker.
type ZMQDispatcher struct {
	*ZMQSocket
}

func BindDispatcher(ctx context.Context, logger *zap.Logger, endpoint string) (*ZMQDispatcher, error) {
	socket, err := open(logger, zmq4.NewRouter(ctx), endpoint, true)
	if err != nil {
		return nil, err
	}
	return &ZMQDispatcher{socket}, nil
}

// Send waits for the next idle worker and hands it payload.
func (d *ZMQDispatcher) Send(ctx context.Context, payload []byte) error {
	request, err := d.recvMsg(ctx)
	if err != nil {
		return errors.Annotate(err, "wait for a ready worker")
	}
	if len(request.Frames) < 2 {
		return errors.Errorf("malformed work request from %s: %d frames", d.endpoint, len(request.Frames))
	}
	peer := request.Frames[0]
	d.logger.Debug("work request", zap.String("peer", string(peer)))
	return d.sendFrames(ctx, peer, payload)
}

// ZMQRequester is the worker side of the work channel: a DEALER socket that
// asks for one payload per Recv.
type ZMQRequester struct {
	*ZMQSocket
}

func ConnectRequester(ctx context.Context, logger *zap.Logger, endpoint string) (*ZMQRequester, error) {
	socket, err := open(logger, zmq4.NewDealer(ctx), endpoint, false)
	if err != nil {
		return nil, err
	}
	return &ZMQRequester{socket}, nil
}

func (r *ZMQRequester) Recv(ctx context.Context) ([]byte, error) {
	if err := r.sendFrames(ctx, readyFrame); err != nil {
		return nil, errors.Annotate(err, "request work")
	}
	return r.ZMQSocket.Recv(ctx)
}
