package layout

import (
	"go.uber.org/zap"

	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout/internal/abi"
)

// BitStructure is an unsigned word of up to 32 bits divided into bit fields.
// Fields are allocated in registration order, starting from the least or most
// significant bit.
//
// The packed word is passed explicitly to each field, so a BitStructure holds
// no per-call state and may be used concurrently once fields are registered.
type BitStructure struct {
	base
	word   *Int
	msb    bool
	fields *[]*BitField
}

// NewBitStructure creates a bit word backed by word. msb selects allocation
// from the most significant bit.
func NewBitStructure(word *Int, msb bool, property string) (*BitStructure, error) {
	if word == nil || word.signed {
		return nil, errors.InvalidLayout("bits", "word must be an unsigned integer layout")
	}
	if word.span > 4 {
		return nil, errors.New(errors.PhaseCompose, errors.KindRange).
			Layout("bits").
			Value(word.span).
			Detail("word cannot exceed 32 bits").
			Build()
	}
	return &BitStructure{
		base:   base{span: word.span, property: property},
		word:   word,
		msb:    msb,
		fields: new([]*BitField),
	}, nil
}

func (s *BitStructure) Word() *Int { return s.word }

func (s *BitStructure) MSB() bool { return s.msb }

func (s *BitStructure) WithProperty(property string) Layout {
	c := *s
	c.property = property
	return &c
}

// Fields returns the registered bit fields in allocation order.
func (s *BitStructure) Fields() []*BitField {
	return append([]*BitField(nil), *s.fields...)
}

// FieldFor returns the field labelled property, or nil.
func (s *BitStructure) FieldFor(property string) *BitField {
	for _, f := range *s.fields {
		if f.property == property {
			return f
		}
	}
	return nil
}

func (s *BitStructure) usedBits() int {
	n := 0
	for _, f := range *s.fields {
		n += f.bits
	}
	return n
}

// AddField allocates the next bits bits. An empty property reserves padding.
func (s *BitStructure) AddField(bits int, property string) (*BitField, error) {
	return s.add(bits, property, false)
}

// AddBoolean allocates a single bit that decodes to bool.
func (s *BitStructure) AddBoolean(property string) (*BitField, error) {
	return s.add(1, property, true)
}

func (s *BitStructure) add(bits int, property string, boolean bool) (*BitField, error) {
	if bits <= 0 {
		return nil, errors.InvalidLayout("bits", "bits must be a positive integer")
	}
	total := 8 * s.span
	used := s.usedBits()
	if bits+used > total {
		return nil, errors.New(errors.PhaseCompose, errors.KindRange).
			Layout("bits").
			Path(property).
			Value(bits).
			Detail("bits too long for span remainder (%d of %d remain)", total-used, total).
			Build()
	}
	start := used
	if s.msb {
		start = total - used - bits
	}
	valueMask := uint32(1)<<uint(bits) - 1
	if bits == 32 {
		valueMask = 0xFFFFFFFF
	}
	f := &BitField{
		property:  property,
		bits:      bits,
		start:     start,
		valueMask: valueMask,
		wordMask:  valueMask << uint(start),
		boolean:   boolean,
	}
	*s.fields = append(*s.fields, f)

	Logger().Debug("bit field allocated",
		zap.String("word", s.property),
		zap.String("field", property),
		zap.Int("start", start),
		zap.Int("bits", bits),
		zap.Bool("boolean", boolean))
	return f, nil
}

func (s *BitStructure) GetSpan([]byte, int) (int, error) {
	return s.span, nil
}

func (s *BitStructure) readWord(phase errors.Phase, b []byte, offset int) (uint32, error) {
	v, err := s.word.read(phase, b, offset)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func (s *BitStructure) Decode(b []byte, offset int) (any, error) {
	word, err := s.readWord(errors.PhaseDecode, b, offset)
	if err != nil {
		return nil, err
	}
	dest := NewRecord()
	for _, f := range *s.fields {
		if f.property != "" {
			dest.Set(f.property, f.Value(word))
		}
	}
	return dest, nil
}

// Encode overlays the fields present in src onto the word already in the
// buffer and writes it back once. Bits of absent fields are preserved.
func (s *BitStructure) Encode(src any, b []byte, offset int) (int, error) {
	in, ok := asSource(src)
	if !ok {
		return 0, typeMismatch(errors.PhaseEncode, src, "bits", "value must be *Record or map[string]any")
	}
	word, err := s.readWord(errors.PhaseEncode, b, offset)
	if err != nil {
		return 0, err
	}
	for _, f := range *s.fields {
		v, present := lookup(in, f.property)
		if !present {
			continue
		}
		if word, err = f.Insert(word, v); err != nil {
			return 0, errors.Prefix(err, f.property)
		}
	}
	if err := s.word.write(errors.PhaseEncode, uint64(word), b, offset); err != nil {
		return 0, err
	}
	return s.span, nil
}

// BitField is a contiguous run of bits inside a BitStructure word.
type BitField struct {
	property  string
	bits      int
	start     int
	valueMask uint32
	wordMask  uint32
	boolean   bool
}

func (f *BitField) Property() string { return f.property }
func (f *BitField) Bits() int { return f.bits }
func (f *BitField) Start() int { return f.start }
func (f *BitField) Boolean() bool { return f.boolean }

// Value extracts the field from word: uint64 for value fields, bool for
// boolean fields.
func (f *BitField) Value(word uint32) any {
	v := (word & f.wordMask) >> uint(f.start)
	if f.boolean {
		return v != 0
	}
	return uint64(v)
}

// Insert returns word with the field set to v. Values outside the field's
// range, and non-integers, are type errors. Boolean fields also accept bool.
func (f *BitField) Insert(word uint32, v any) (uint32, error) {
	if b, ok := v.(bool); ok && f.boolean {
		v = uint64(0)
		if b {
			v = uint64(1)
		}
	}
	u, ok := abi.CoerceToUint64(v)
	if !ok || u > uint64(f.valueMask) {
		return 0, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			GoType(abi.TypeName(v)).
			Layout("bitfield").
			Value(v).
			Detail("value must be integer not exceeding %d", f.valueMask).
			Build()
	}
	return word&^f.wordMask | uint32(u)<<uint(f.start), nil
}
