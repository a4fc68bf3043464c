package layout

import (
	"reflect"
	"strconv"

	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout/internal/abi"
)

// maxPrealloc bounds slice preallocation for counts read from untrusted input.
const maxPrealloc = 4096

// Sequence is a run of elements sharing one layout. The element count is
// fixed or read from an external count layout. It decodes to []any.
type Sequence struct {
	base
	elem  Layout
	count int
	ext   ExternalLayout
}

// NewSequence creates a sequence of exactly count elements.
func NewSequence(elem Layout, count int, property string) (*Sequence, error) {
	if elem == nil {
		return nil, errors.InvalidLayout("seq", "element layout is required")
	}
	if count < 0 {
		return nil, errors.New(errors.PhaseCompose, errors.KindRange).
			Layout("seq").
			Value(count).
			Detail("count must be non-negative, got %d", count).
			Build()
	}
	span := -1
	if es := elem.Span(); es >= 0 {
		n, ok := abi.SafeMul(count, es)
		if !ok {
			return nil, errors.InvalidLayout("seq", "span overflows int")
		}
		span = n
	}
	return &Sequence{base: base{span: span, property: property}, elem: elem, count: count}, nil
}

// NewDynamicSequence creates a sequence whose count is read from count.
// Elements must occupy at least one byte, so the decoded count is bounded by
// the input length.
func NewDynamicSequence(elem Layout, count ExternalLayout, property string) (*Sequence, error) {
	if elem == nil {
		return nil, errors.InvalidLayout("seq", "element layout is required")
	}
	if count == nil || !count.IsCount() {
		return nil, errors.InvalidLayout("seq", "count must be an unsigned count layout")
	}
	if elem.Span() == 0 {
		return nil, errors.InvalidLayout("seq", "element layout with a counted length must not be empty")
	}
	return &Sequence{base: base{span: -1, property: property}, elem: elem, ext: count}, nil
}

func (s *Sequence) Element() Layout { return s.elem }

// Count returns the static count and the external count layout, if any.
func (s *Sequence) Count() (int, ExternalLayout) { return s.count, s.ext }

func (s *Sequence) WithProperty(property string) Layout {
	c := *s
	c.property = property
	return &c
}

func (s *Sequence) resolveCount(phase errors.Phase, b []byte, offset int) (int, error) {
	if s.ext == nil {
		return s.count, nil
	}
	return decodeCount(s.ext, phase, b, offset)
}

func (s *Sequence) GetSpan(b []byte, offset int) (int, error) {
	if s.span >= 0 {
		return s.span, nil
	}
	count, err := s.resolveCount(errors.PhaseSpan, b, offset)
	if err != nil {
		return 0, err
	}
	if es := s.elem.Span(); es > 0 {
		n, ok := abi.SafeMul(count, es)
		if !ok {
			return 0, errors.IndeterminateSpan("seq", nil)
		}
		return n, nil
	}
	span := 0
	for i := 0; i < count; i++ {
		n, err := s.elem.GetSpan(b, offset+span)
		if err != nil {
			return 0, indeterminate("seq", index(i), err)
		}
		span += n
	}
	return span, nil
}

func (s *Sequence) Decode(b []byte, offset int) (any, error) {
	count, err := s.resolveCount(errors.PhaseDecode, b, offset)
	if err != nil {
		return nil, err
	}
	if es := s.elem.Span(); es > 0 {
		n, ok := abi.SafeMul(count, es)
		if !ok || !abi.InBounds(offset, n, len(b)) {
			return nil, errors.OutOfBounds(errors.PhaseDecode, nil, offset, n, len(b))
		}
	}
	out := make([]any, 0, min(count, maxPrealloc))
	for i := 0; i < count; i++ {
		v, err := s.elem.Decode(b, offset)
		if err != nil {
			return nil, errors.Prefix(err, index(i))
		}
		out = append(out, v)
		n, err := s.elem.GetSpan(b, offset)
		if err != nil {
			return nil, errors.Prefix(err, index(i))
		}
		offset += n
	}
	return out, nil
}

// Encode writes the source elements in order. A static count caps the number
// of elements written; a short source leaves the remaining bytes untouched.
// An external count is written after the elements.
func (s *Sequence) Encode(src any, b []byte, offset int) (int, error) {
	items, ok := sequenceSource(src)
	if !ok {
		return 0, typeMismatch(errors.PhaseEncode, src, "seq", "value must be a slice or array")
	}
	if s.ext == nil && len(items) > s.count {
		items = items[:s.count]
	}
	span := 0
	for i, v := range items {
		n, err := s.elem.Encode(v, b, offset+span)
		if err != nil {
			return 0, errors.Prefix(err, index(i))
		}
		span += n
	}
	if s.ext != nil {
		if _, err := s.ext.Encode(uint64(len(items)), b, offset); err != nil {
			return 0, err
		}
	}
	return span, nil
}

func sequenceSource(src any) ([]any, bool) {
	switch v := src.(type) {
	case []any:
		return v, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(src)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func index(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// indeterminate reports a nested span failure under segment. Errors that are
// already span-indeterminacy errors only gain the path segment.
func indeterminate(name, segment string, err error) error {
	err = errors.Prefix(err, segment)
	e, ok := err.(*errors.Error)
	if ok && e.Kind == errors.KindIndeterminateSpan {
		return err
	}
	ie := errors.IndeterminateSpan(name, err)
	if ok {
		ie.Path = e.Path
	}
	return ie
}
