package domain

import (
	"errors"
)

var (
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrRowWidth          = errors.New("wrong number of columns")
	ErrClassOutOfRange   = errors.New("class out of range")
	ErrLabelShape        = errors.New("label shape mismatch")
	ErrEmptyBatch        = errors.New("empty batch")
	ErrUnknownClass      = errors.New("class id missing from training set")
	ErrDegenerateSplit   = errors.New("data set too small to split")
	ErrInvalidFraction   = errors.New("fraction outside [0, 1]")
	ErrUnknownClassifier = errors.New("unknown classifier")
	ErrTrialFailed       = errors.New("trial failed")
)
