package infrastructure

import (
	"bytes"
	"encoding/gob"

	"github.com/juju/errors"

	"kautsky-classification/internal/domain"
)

// Encode serializes a message crossing the transport. The transport itself
// never looks inside the payload.
func Encode[T any](v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, errors.Trace(err)
	}
	return buf.Bytes(), nil
}

func Decode[T any](payload []byte) (T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&v); err != nil {
		return v, errors.Annotatef(err, "decode %T", v)
	}
	return v, nil
}

func EncodeDescriptor(d domain.WorkDescriptor) ([]byte, error) {
	return Encode(d)
}

func DecodeDescriptor(payload []byte) (domain.WorkDescriptor, error) {
	return Decode[domain.WorkDescriptor](payload)
}

func EncodeResult(msg *domain.ResultMessage) ([]byte, error) {
	return Encode(msg)
}

func DecodeResult(payload []byte) (*domain.ResultMessage, error) {
	msg, err := Decode[domain.ResultMessage](payload)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
