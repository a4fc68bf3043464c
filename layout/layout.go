package layout

import (
	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout/internal/abi"
)

// Layout describes how one logical value is translated to and from bytes.
//
// A non-negative Span is the exact byte length of every encoding; a negative
// Span means the length depends on the value and must be computed with GetSpan.
// An empty Property marks padding: aggregates skip it on decode and leave its
// bytes untouched on encode.
//
// Layouts are immutable once composition is complete and may be shared freely
// between aggregates and goroutines.
type Layout interface {
	Span() int
	Property() string
	GetSpan(b []byte, offset int) (int, error)
	Decode(b []byte, offset int) (any, error)
	Encode(src any, b []byte, offset int) (int, error)
	// WithProperty returns a shallow copy carrying a different label.
	WithProperty(property string) Layout
}

// ExternalLayout supplies a count, offset or discriminant that another layout
// consults. Its bytes may live outside the aggregate it governs.
type ExternalLayout interface {
	Layout
	// IsCount reports whether the decoded value is an unsigned integer
	// suitable as an element count or discriminant.
	IsCount() bool
}

// Decode decodes the value l describes at offset.
func Decode(l Layout, b []byte, offset int) (any, error) {
	if err := checkOffset(errors.PhaseDecode, b, offset); err != nil {
		return nil, err
	}
	return l.Decode(b, offset)
}

// Encode writes src at offset and returns the number of bytes written.
func Encode(l Layout, src any, b []byte, offset int) (int, error) {
	if err := checkOffset(errors.PhaseEncode, b, offset); err != nil {
		return 0, err
	}
	return l.Encode(src, b, offset)
}

// GetSpan returns the byte length of the value encoded at offset.
func GetSpan(l Layout, b []byte, offset int) (int, error) {
	if err := checkOffset(errors.PhaseSpan, b, offset); err != nil {
		return 0, err
	}
	return l.GetSpan(b, offset)
}

// Must panics if err is non-nil. Intended for package-level layout composition.
func Must[T any](l T, err error) T {
	if err != nil {
		panic(err)
	}
	return l
}

type base struct {
	property string
	span     int
}

func (b *base) Span() int {
	return b.span
}

func (b *base) Property() string {
	return b.property
}

func (b *base) staticSpan(name string) (int, error) {
	if b.span < 0 {
		return 0, errors.IndeterminateSpan(name, nil)
	}
	return b.span, nil
}

func checkOffset(phase errors.Phase, b []byte, offset int) error {
	if offset < 0 || offset > len(b) {
		return errors.OutOfBounds(phase, nil, offset, 0, len(b))
	}
	return nil
}

func checkBounds(phase errors.Phase, b []byte, offset, span int) error {
	if !abi.InBounds(offset, span, len(b)) {
		return errors.OutOfBounds(phase, nil, offset, span, len(b))
	}
	return nil
}

func typeMismatch(phase errors.Phase, src any, name, detail string) error {
	return errors.New(phase, errors.KindTypeMismatch).
		GoType(abi.TypeName(src)).
		Layout(name).
		Detail("%s", detail).
		Build()
}
