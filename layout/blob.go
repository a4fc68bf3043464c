package layout

import (
	"bytes"

	"github.com/wippyai/buffer-layout/errors"
)

// Blob is a run of raw bytes whose length is fixed or read from an external
// count. It decodes to a fresh []byte.
type Blob struct {
	base
	length ExternalLayout
}

// NewBlob creates a blob of exactly length bytes.
func NewBlob(length int, property string) (*Blob, error) {
	if length < 0 {
		return nil, errors.New(errors.PhaseCompose, errors.KindRange).
			Layout("blob").
			Value(length).
			Detail("length must be non-negative, got %d", length).
			Build()
	}
	return &Blob{base: base{span: length, property: property}}, nil
}

// NewDynamicBlob creates a blob whose length is given by count.
func NewDynamicBlob(count ExternalLayout, property string) (*Blob, error) {
	if count == nil || !count.IsCount() {
		return nil, errors.InvalidLayout("blob", "length must be an unsigned count layout")
	}
	return &Blob{base: base{span: -1, property: property}, length: count}, nil
}

func (l *Blob) WithProperty(property string) Layout {
	c := *l
	c.property = property
	return &c
}

func (l *Blob) GetSpan(b []byte, offset int) (int, error) {
	if l.length == nil {
		return l.span, nil
	}
	return decodeCount(l.length, errors.PhaseSpan, b, offset)
}

func (l *Blob) Decode(b []byte, offset int) (any, error) {
	span, err := l.GetSpan(b, offset)
	if err != nil {
		return nil, err
	}
	if err := checkBounds(errors.PhaseDecode, b, offset, span); err != nil {
		return nil, err
	}
	return bytes.Clone(b[offset : offset+span : offset+span]), nil
}

// Encode copies src, a []byte or string. A fixed blob requires an exact
// length match; a dynamic blob writes its count after the bytes.
func (l *Blob) Encode(src any, b []byte, offset int) (int, error) {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return 0, typeMismatch(errors.PhaseEncode, src, "blob", "value must be []byte or string")
	}
	span := l.span
	if l.length != nil {
		span = len(data)
	} else if len(data) != span {
		return 0, errors.Range(errors.PhaseEncode, nil, "blob",
			"source length does not match fixed blob length")
	}
	if err := overrun("blob", b, offset, span); err != nil {
		return 0, err
	}
	copy(b[offset:], data)
	if l.length != nil {
		if _, err := l.length.Encode(uint64(span), b, offset); err != nil {
			return 0, err
		}
	}
	return span, nil
}

// CString is NUL-terminated text. Its span is the scanned length plus the
// terminator.
type CString struct {
	base
}

func NewCString(property string) *CString {
	return &CString{base: base{span: -1, property: property}}
}

func (s *CString) WithProperty(property string) Layout {
	c := *s
	c.property = property
	return &c
}

func (s *CString) GetSpan(b []byte, offset int) (int, error) {
	if err := checkOffset(errors.PhaseSpan, b, offset); err != nil {
		return 0, err
	}
	n := bytes.IndexByte(b[offset:], 0)
	if n < 0 {
		n = len(b) - offset
	}
	return n + 1, nil
}

func (s *CString) Decode(b []byte, offset int) (any, error) {
	span, err := s.GetSpan(b, offset)
	if err != nil {
		return nil, err
	}
	end := min(offset+span-1, len(b))
	return string(b[offset:end]), nil
}

// Encode writes the text and one zero byte. Text containing a zero byte is
// rejected since it could not be decoded back.
func (s *CString) Encode(src any, b []byte, offset int) (int, error) {
	text, ok := textSource(src)
	if !ok {
		return 0, typeMismatch(errors.PhaseEncode, src, "cstr", "value must be string or []byte")
	}
	if i := bytes.IndexByte(text, 0); i >= 0 {
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Layout("cstr").
			Value(i).
			Detail("text contains a NUL byte at index %d", i).
			Build()
	}
	span := len(text) + 1
	if err := overrun("cstr", b, offset, span); err != nil {
		return 0, err
	}
	copy(b[offset:], text)
	b[offset+len(text)] = 0
	return span, nil
}

// UTF8 is text extending to the end of the buffer, optionally capped at a
// maximum span.
type UTF8 struct {
	base
	maxSpan int
}

// NewUTF8 creates an unterminated string. A negative maxSpan means unbounded.
func NewUTF8(maxSpan int, property string) *UTF8 {
	if maxSpan < 0 {
		maxSpan = -1
	}
	return &UTF8{base: base{span: -1, property: property}, maxSpan: maxSpan}
}

func (s *UTF8) MaxSpan() int { return s.maxSpan }

func (s *UTF8) WithProperty(property string) Layout {
	c := *s
	c.property = property
	return &c
}

func (s *UTF8) GetSpan(b []byte, offset int) (int, error) {
	if err := checkOffset(errors.PhaseSpan, b, offset); err != nil {
		return 0, err
	}
	return len(b) - offset, nil
}

func (s *UTF8) Decode(b []byte, offset int) (any, error) {
	span, err := s.GetSpan(b, offset)
	if err != nil {
		return nil, err
	}
	if s.maxSpan >= 0 && span > s.maxSpan {
		return nil, errors.Range(errors.PhaseDecode, nil, "utf8", "text exceeds maximum span")
	}
	return string(b[offset : offset+span]), nil
}

func (s *UTF8) Encode(src any, b []byte, offset int) (int, error) {
	text, ok := textSource(src)
	if !ok {
		return 0, typeMismatch(errors.PhaseEncode, src, "utf8", "value must be string or []byte")
	}
	span := len(text)
	if s.maxSpan >= 0 && span > s.maxSpan {
		return 0, errors.Range(errors.PhaseEncode, nil, "utf8", "text exceeds maximum span")
	}
	if err := overrun("utf8", b, offset, span); err != nil {
		return 0, err
	}
	copy(b[offset:], text)
	return span, nil
}

func textSource(src any) ([]byte, bool) {
	switch v := src.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	}
	return nil, false
}

func overrun(name string, b []byte, offset, span int) error {
	if offset < 0 || offset+span > len(b) {
		return errors.New(errors.PhaseEncode, errors.KindRange).
			Layout(name).
			Value(span).
			Detail("encoding %d bytes at offset %d overruns buffer of length %d", span, offset, len(b)).
			Build()
	}
	return nil
}
