package domain

import "context"

// Classifier is any learning algorithm with a fit/predict pair.
type Classifier interface {
	Fit(xs [][]float64, ys []Label) error
	Predict(xs [][]float64) ([]Label, error)
}

// Describer is implemented by classifiers able to dump their learned
// structure as one row of the structure file.
type Describer interface {
	Describe() []string
}

// Iterative is implemented by classifiers trained over several epochs.
type Iterative interface {
	Iterations() int
}

// Sender enqueues an opaque payload for some connected receiver.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Receiver blocks until a payload is available or ctx is done.
type Receiver interface {
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}
