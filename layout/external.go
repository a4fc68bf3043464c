package layout

import (
	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout/internal/abi"
)

// GreedyCount derives an element count from the bytes remaining after the
// offset. It never occupies or writes any bytes.
type GreedyCount struct {
	base
	elementSpan int
}

// NewGreedyCount creates a count equal to floor((len(b)-offset)/elementSpan).
func NewGreedyCount(elementSpan int, property string) (*GreedyCount, error) {
	if elementSpan <= 0 {
		return nil, errors.InvalidLayout("greedy", "element span must be a positive integer")
	}
	return &GreedyCount{base: base{span: -1, property: property}, elementSpan: elementSpan}, nil
}

func (g *GreedyCount) IsCount() bool { return true }

func (g *GreedyCount) ElementSpan() int { return g.elementSpan }

func (g *GreedyCount) WithProperty(property string) Layout {
	c := *g
	c.property = property
	return &c
}

func (g *GreedyCount) GetSpan([]byte, int) (int, error) {
	return g.staticSpan("greedy")
}

func (g *GreedyCount) Decode(b []byte, offset int) (any, error) {
	rem := len(b) - offset
	if rem < 0 {
		rem = 0
	}
	return uint64(rem / g.elementSpan), nil
}

// Encode is a no-op; the count is recomputed from the buffer on every decode.
func (g *GreedyCount) Encode(any, []byte, int) (int, error) {
	return 0, nil
}

// Offset views another layout at a fixed displacement from the offset it is
// given. It expresses counts and discriminants stored before or after the
// aggregate they govern.
type Offset struct {
	base
	layout       Layout
	displacement int
	count        bool
}

// NewOffset wraps l at displacement. An empty property inherits l's.
func NewOffset(l Layout, displacement int, property string) *Offset {
	if property == "" {
		property = l.Property()
	}
	i, ok := l.(*Int)
	return &Offset{
		base:         base{span: l.Span(), property: property},
		layout:       l,
		displacement: displacement,
		count:        ok && !i.signed,
	}
}

// IsCount reports whether the wrapped layout is an unsigned integer.
func (o *Offset) IsCount() bool { return o.count }

func (o *Offset) Layout() Layout { return o.layout }

func (o *Offset) Displacement() int { return o.displacement }

func (o *Offset) WithProperty(property string) Layout {
	c := *o
	c.property = property
	return &c
}

func (o *Offset) at(phase errors.Phase, b []byte, offset int) (int, error) {
	at := offset + o.displacement
	if at < 0 || at > len(b) {
		return 0, errors.OutOfBounds(phase, nil, at, 0, len(b))
	}
	return at, nil
}

func (o *Offset) GetSpan(b []byte, offset int) (int, error) {
	at, err := o.at(errors.PhaseSpan, b, offset)
	if err != nil {
		return 0, err
	}
	return o.layout.GetSpan(b, at)
}

func (o *Offset) Decode(b []byte, offset int) (any, error) {
	at, err := o.at(errors.PhaseDecode, b, offset)
	if err != nil {
		return nil, err
	}
	return o.layout.Decode(b, at)
}

func (o *Offset) Encode(src any, b []byte, offset int) (int, error) {
	at, err := o.at(errors.PhaseEncode, b, offset)
	if err != nil {
		return 0, err
	}
	return o.layout.Encode(src, b, at)
}

// decodeCount resolves an external count to a non-negative int.
func decodeCount(ext ExternalLayout, phase errors.Phase, b []byte, offset int) (int, error) {
	v, err := ext.Decode(b, offset)
	if err != nil {
		return 0, err
	}
	n, ok := abi.CoerceToInt(v)
	if !ok {
		return 0, errors.New(phase, errors.KindInvalidData).
			GoType(abi.TypeName(v)).
			Value(v).
			Detail("count %v is not a non-negative integer", v).
			Build()
	}
	return n, nil
}
