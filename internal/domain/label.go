package domain

import (
	"slices"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

type LabelKind uint8

const (
	LabelUnknown LabelKind = iota
	LabelScalar
	LabelVector
)

// Label is either a scalar class or a fixed-length vector (one-hot or
// multi-output). Exactly one of Scalar and Vector is meaningful, chosen by Kind.
type Label struct {
	Kind   LabelKind
	Scalar int
	Vector []int
}

func ScalarLabel(v int) Label {
	return Label{Kind: LabelScalar, Scalar: v}
}

func VectorLabel(v ...int) Label {
	return Label{Kind: LabelVector, Vector: slices.Clone(v)}
}

// Width is 1 for scalars and the vector length otherwise.
func (l Label) Width() int {
	if l.Kind == LabelVector {
		return len(l.Vector)
	}
	return 1
}

// SameShape reports whether two labels can be compared.
func (l Label) SameShape(o Label) bool {
	switch {
	case l.Kind != o.Kind:
		return false
	case l.Kind == LabelScalar:
		return true
	case l.Kind == LabelVector:
		return len(l.Vector) == len(o.Vector)
	default:
		return false
	}
}

func (l Label) Equal(o Label) bool {
	if !l.SameShape(o) {
		return false
	}
	if l.Kind == LabelScalar {
		return l.Scalar == o.Scalar
	}
	return slices.Equal(l.Vector, o.Vector)
}

// Compare orders scalars numerically and vectors lexicographically.
// Labels of different shapes are ordered by kind then width.
func (l Label) Compare(o Label) int {
	if l.Kind != o.Kind {
		return int(l.Kind) - int(o.Kind)
	}
	if l.Kind == LabelScalar {
		return l.Scalar - o.Scalar
	}
	return slices.Compare(l.Vector, o.Vector)
}

// Key is a string usable as a map key; equal labels have equal keys.
func (l Label) Key() string {
	return l.String()
}

// Values flattens the label into the columns of a raw output row.
func (l Label) Values() []int {
	if l.Kind == LabelVector {
		return slices.Clone(l.Vector)
	}
	return []int{l.Scalar}
}

func (l Label) String() string {
	switch l.Kind {
	case LabelScalar:
		return strconv.Itoa(l.Scalar)
	case LabelVector:
		parts := make([]string, len(l.Vector))
		for i, v := range l.Vector {
			parts[i] = strconv.Itoa(v)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return "?"
	}
}

// UnmarshalYAML accepts `class: 3` as well as `class: [0, 1, 0]`.
func (l *Label) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v int
		if err := value.Decode(&v); err != nil {
			return errors.Annotatef(err, "line %d", value.Line)
		}
		*l = ScalarLabel(v)
	case yaml.SequenceNode:
		var v []int
		if err := value.Decode(&v); err != nil {
			return errors.Annotatef(err, "line %d", value.Line)
		}
		if len(v) == 0 {
			return errors.Annotatef(ErrLabelShape, "empty class vector at line %d", value.Line)
		}
		*l = VectorLabel(v...)
	default:
		return errors.Annotatef(ErrLabelShape, "class at line %d is neither an integer nor a list", value.Line)
	}
	return nil
}

// MarshalYAML writes the form UnmarshalYAML reads.
func (l Label) MarshalYAML() (interface{}, error) {
	if l.Kind == LabelVector {
		return l.Vector, nil
	}
	return l.Scalar, nil
}
