package layout

import (
	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout/internal/abi"
)

// StructureOption configures a Structure.
type StructureOption func(*Structure)

// WithDecodePrefixes lets Decode stop cleanly when the buffer ends exactly at
// a field boundary, leaving later fields absent from the result.
func WithDecodePrefixes() StructureOption {
	return func(s *Structure) {
		s.decodePrefixes = true
	}
}

// Structure is an ordered list of member layouts. Labelled members project
// into a *Record; unlabelled members are padding.
type Structure struct {
	base
	fields         []Layout
	decodePrefixes bool
}

// NewStructure creates a structure over fields. A variable-length member must
// carry a label.
func NewStructure(fields []Layout, property string, opts ...StructureOption) (*Structure, error) {
	span := 0
	for i, f := range fields {
		if f == nil {
			return nil, errors.New(errors.PhaseCompose, errors.KindInvalidLayout).
				Layout("struct").
				Value(i).
				Detail("field %d is nil", i).
				Build()
		}
		if f.Span() < 0 && f.Property() == "" {
			return nil, errors.InvalidLayout("struct", "fields cannot contain unnamed variable-length layout")
		}
		if span >= 0 {
			if f.Span() < 0 {
				span = -1
			} else if n, ok := abi.SafeAdd(span, f.Span()); ok {
				span = n
			} else {
				return nil, errors.InvalidLayout("struct", "span overflows int")
			}
		}
	}
	s := &Structure{
		base:   base{span: span, property: property},
		fields: append([]Layout(nil), fields...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fields returns the member layouts in declaration order.
func (s *Structure) Fields() []Layout {
	return append([]Layout(nil), s.fields...)
}

func (s *Structure) DecodePrefixes() bool { return s.decodePrefixes }

func (s *Structure) WithProperty(property string) Layout {
	c := *s
	c.property = property
	return &c
}

// LayoutFor returns the member labelled property, or nil.
func (s *Structure) LayoutFor(property string) Layout {
	for _, f := range s.fields {
		if f.Property() == property {
			return f
		}
	}
	return nil
}

// OffsetOf returns the byte offset of the member labelled property. The offset
// is -1 when a variable-length member precedes it; ok is false when no member
// has the label.
func (s *Structure) OffsetOf(property string) (offset int, ok bool) {
	for _, f := range s.fields {
		if f.Property() == property {
			return offset, true
		}
		if f.Span() < 0 {
			offset = -1
		} else if offset >= 0 {
			offset += f.Span()
		}
	}
	return 0, false
}

// FromValues assigns values to the labelled members in order. Surplus values
// are dropped and missing ones leave members absent.
func (s *Structure) FromValues(values ...any) *Record {
	r := NewRecord()
	for _, f := range s.fields {
		if len(values) == 0 {
			break
		}
		if f.Property() == "" {
			continue
		}
		r.Set(f.Property(), values[0])
		values = values[1:]
	}
	return r
}

func (s *Structure) GetSpan(b []byte, offset int) (int, error) {
	if s.span >= 0 {
		return s.span, nil
	}
	span := 0
	for _, f := range s.fields {
		n, err := f.GetSpan(b, offset+span)
		if err != nil {
			return 0, indeterminate("struct", f.Property(), err)
		}
		span += n
	}
	return span, nil
}

func (s *Structure) Decode(b []byte, offset int) (any, error) {
	dest := NewRecord()
	for _, f := range s.fields {
		if p := f.Property(); p != "" {
			v, err := f.Decode(b, offset)
			if err != nil {
				return nil, errors.Prefix(err, p)
			}
			dest.Set(p, v)
		}
		n, err := f.GetSpan(b, offset)
		if err != nil {
			return nil, errors.Prefix(err, f.Property())
		}
		offset += n
		if s.decodePrefixes && offset == len(b) {
			break
		}
	}
	return dest, nil
}

// Encode writes every member present in src, a *Record or map[string]any.
// Absent members leave their bytes untouched. The result runs from the first
// member's start to the end of the last member, excluding an unset trailing
// variable-length member.
func (s *Structure) Encode(src any, b []byte, offset int) (int, error) {
	in, ok := asSource(src)
	if !ok {
		return 0, typeMismatch(errors.PhaseEncode, src, "struct", "value must be *Record or map[string]any")
	}
	first := offset
	last, lastWrote := first, 0
	for _, f := range s.fields {
		span := f.Span()
		lastWrote = max(span, 0)
		p := f.Property()
		if v, present := lookup(in, p); present {
			n, err := f.Encode(v, b, offset)
			if err != nil {
				return 0, errors.Prefix(err, p)
			}
			lastWrote = n
			if span < 0 {
				if span, err = f.GetSpan(b, offset); err != nil {
					return 0, errors.Prefix(err, p)
				}
			}
		} else if span < 0 {
			// skip whatever the buffer currently holds for the member
			n, err := f.GetSpan(b, offset)
			if err != nil {
				n = 0
			}
			span = n
		}
		last = offset
		offset += span
	}
	return last + lastWrote - first, nil
}

func lookup(in source, label string) (any, bool) {
	if label == "" {
		return nil, false
	}
	return in.lookup(label)
}
