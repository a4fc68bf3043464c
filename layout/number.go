package layout

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout/internal/abi"
)

// MaxIntSpan is the widest general integer descriptor, in bytes.
const MaxIntSpan = 6

// Int is a 1 to 6 byte integer, unsigned or two's-complement, in either byte
// order. Unsigned values decode to uint64, signed values to int64.
type Int struct {
	base
	signed    bool
	bigEndian bool
}

func newInt(span int, signed, bigEndian bool, property string) (*Int, error) {
	if span < 1 || span > MaxIntSpan {
		return nil, errors.New(errors.PhaseCompose, errors.KindRange).
			Layout(intName(span, signed, bigEndian)).
			Value(span).
			Detail("span must be between 1 and %d bytes, got %d", MaxIntSpan, span).
			Build()
	}
	return &Int{base: base{span: span, property: property}, signed: signed, bigEndian: bigEndian}, nil
}

// NewUInt creates a little-endian unsigned integer of span bytes.
func NewUInt(span int, property string) (*Int, error) {
	return newInt(span, false, false, property)
}

// NewUIntBE creates a big-endian unsigned integer of span bytes.
func NewUIntBE(span int, property string) (*Int, error) {
	return newInt(span, false, true, property)
}

// NewInt creates a little-endian signed integer of span bytes.
func NewInt(span int, property string) (*Int, error) {
	return newInt(span, true, false, property)
}

// NewIntBE creates a big-endian signed integer of span bytes.
func NewIntBE(span int, property string) (*Int, error) {
	return newInt(span, true, true, property)
}

func fixedInt(span int, signed, bigEndian bool, property string) *Int {
	return &Int{base: base{span: span, property: property}, signed: signed, bigEndian: bigEndian}
}

func U8(property string) *Int { return fixedInt(1, false, false, property) }
func U16(property string) *Int { return fixedInt(2, false, false, property) }
func U24(property string) *Int { return fixedInt(3, false, false, property) }
func U32(property string) *Int { return fixedInt(4, false, false, property) }
func U40(property string) *Int { return fixedInt(5, false, false, property) }
func U48(property string) *Int { return fixedInt(6, false, false, property) }
func U16BE(property string) *Int { return fixedInt(2, false, true, property) }
func U24BE(property string) *Int { return fixedInt(3, false, true, property) }
func U32BE(property string) *Int { return fixedInt(4, false, true, property) }
func U40BE(property string) *Int { return fixedInt(5, false, true, property) }
func U48BE(property string) *Int { return fixedInt(6, false, true, property) }
func S8(property string) *Int { return fixedInt(1, true, false, property) }
func S16(property string) *Int { return fixedInt(2, true, false, property) }
func S24(property string) *Int { return fixedInt(3, true, false, property) }
func S32(property string) *Int { return fixedInt(4, true, false, property) }
func S40(property string) *Int { return fixedInt(5, true, false, property) }
func S48(property string) *Int { return fixedInt(6, true, false, property) }
func S16BE(property string) *Int { return fixedInt(2, true, true, property) }
func S24BE(property string) *Int { return fixedInt(3, true, true, property) }
func S32BE(property string) *Int { return fixedInt(4, true, true, property) }
func S40BE(property string) *Int { return fixedInt(5, true, true, property) }
func S48BE(property string) *Int { return fixedInt(6, true, true, property) }

func intName(span int, signed, bigEndian bool) string {
	name := "u"
	if signed {
		name = "s"
	}
	name += strconv.Itoa(span * 8)
	if bigEndian {
		name += "be"
	}
	return name
}

func (i *Int) Name() string { return intName(i.span, i.signed, i.bigEndian) }
func (i *Int) Signed() bool { return i.signed }
func (i *Int) BigEndian() bool { return i.bigEndian }

func (i *Int) WithProperty(property string) Layout {
	c := *i
	c.property = property
	return &c
}

func (i *Int) GetSpan([]byte, int) (int, error) {
	return i.span, nil
}

// read returns the raw unsigned bit pattern at offset.
func (i *Int) read(phase errors.Phase, b []byte, offset int) (uint64, error) {
	if err := checkBounds(phase, b, offset, i.span); err != nil {
		return 0, err
	}
	var v uint64
	if i.bigEndian {
		for k := 0; k < i.span; k++ {
			v = v<<8 | uint64(b[offset+k])
		}
	} else {
		for k := i.span - 1; k >= 0; k-- {
			v = v<<8 | uint64(b[offset+k])
		}
	}
	return v, nil
}

func (i *Int) write(phase errors.Phase, v uint64, b []byte, offset int) error {
	if err := checkBounds(phase, b, offset, i.span); err != nil {
		return err
	}
	if i.bigEndian {
		for k := i.span - 1; k >= 0; k-- {
			b[offset+k] = byte(v)
			v >>= 8
		}
	} else {
		for k := 0; k < i.span; k++ {
			b[offset+k] = byte(v)
			v >>= 8
		}
	}
	return nil
}

func (i *Int) Decode(b []byte, offset int) (any, error) {
	v, err := i.read(errors.PhaseDecode, b, offset)
	if err != nil {
		return nil, err
	}
	if !i.signed {
		return v, nil
	}
	shift := 64 - 8*uint(i.span)
	return int64(v<<shift) >> shift, nil
}

func (i *Int) Encode(src any, b []byte, offset int) (int, error) {
	bits := 8 * uint(i.span)
	var raw uint64
	if i.signed {
		v, ok := abi.CoerceToInt64(src)
		if !ok {
			return 0, i.badSource(src)
		}
		lo, hi := -int64(1)<<(bits-1), int64(1)<<(bits-1)-1
		if v < lo || v > hi {
			return 0, errors.Overflow(errors.PhaseEncode, nil, src, i.Name())
		}
		raw = uint64(v)
	} else {
		v, ok := abi.CoerceToUint64(src)
		if !ok {
			return 0, i.badSource(src)
		}
		if bits < 64 && v >= uint64(1)<<bits {
			return 0, errors.Overflow(errors.PhaseEncode, nil, src, i.Name())
		}
		raw = v
	}
	if err := i.write(errors.PhaseEncode, raw, b, offset); err != nil {
		return 0, err
	}
	return i.span, nil
}

func (i *Int) badSource(src any) error {
	if _, ok := abi.CoerceToFloat64(src); ok {
		// numeric but not representable: negative, fractional or too large
		return errors.Overflow(errors.PhaseEncode, nil, src, i.Name())
	}
	return typeMismatch(errors.PhaseEncode, src, i.Name(), "value must be an integer")
}

// Bool is a single byte that decodes to bool. Any nonzero byte is true.
// Encode accepts bool or the integers 0 and 1.
type Bool struct {
	base
}

func NewBool(property string) *Bool { return &Bool{base: base{span: 1, property: property}} }

func (*Bool) Name() string { return "bool" }

func (v *Bool) WithProperty(property string) Layout {
	c := *v
	c.property = property
	return &c
}

func (*Bool) GetSpan([]byte, int) (int, error) {
	return 1, nil
}

func (*Bool) Decode(b []byte, offset int) (any, error) {
	if err := checkBounds(errors.PhaseDecode, b, offset, 1); err != nil {
		return nil, err
	}
	return b[offset] != 0, nil
}

func (v *Bool) Encode(src any, b []byte, offset int) (int, error) {
	var bit byte
	switch s := src.(type) {
	case bool:
		if s {
			bit = 1
		}
	default:
		u, ok := abi.CoerceToUint64(src)
		if !ok {
			if _, numeric := abi.CoerceToFloat64(src); numeric {
				return 0, errors.Overflow(errors.PhaseEncode, nil, src, v.Name())
			}
			return 0, typeMismatch(errors.PhaseEncode, src, v.Name(), "value must be bool")
		}
		if u > 1 {
			return 0, errors.Overflow(errors.PhaseEncode, nil, src, v.Name())
		}
		bit = byte(u)
	}
	if err := checkBounds(errors.PhaseEncode, b, offset, 1); err != nil {
		return 0, err
	}
	b[offset] = bit
	return 1, nil
}

const two32 = 4294967296.0

// NearInt64 is an 8-byte integer handled as two 32-bit halves and recombined
// as hi*2^32 + lo in a float64. Magnitudes above 2^53 may round.
type NearInt64 struct {
	base
	signed    bool
	bigEndian bool
}

func nearInt(signed, bigEndian bool, property string) *NearInt64 {
	return &NearInt64{base: base{span: 8, property: property}, signed: signed, bigEndian: bigEndian}
}

func NU64(property string) *NearInt64 { return nearInt(false, false, property) }
func NU64BE(property string) *NearInt64 { return nearInt(false, true, property) }
func NS64(property string) *NearInt64 { return nearInt(true, false, property) }
func NS64BE(property string) *NearInt64 { return nearInt(true, true, property) }

func (n *NearInt64) Name() string {
	name := "nu64"
	if n.signed {
		name = "ns64"
	}
	if n.bigEndian {
		name += "be"
	}
	return name
}

func (n *NearInt64) WithProperty(property string) Layout {
	c := *n
	c.property = property
	return &c
}

func (n *NearInt64) GetSpan([]byte, int) (int, error) {
	return 8, nil
}

func (n *NearInt64) halves(b []byte, offset int) (hi, lo uint32) {
	if n.bigEndian {
		return binary.BigEndian.Uint32(b[offset:]), binary.BigEndian.Uint32(b[offset+4:])
	}
	return binary.LittleEndian.Uint32(b[offset+4:]), binary.LittleEndian.Uint32(b[offset:])
}

func (n *NearInt64) Decode(b []byte, offset int) (any, error) {
	if err := checkBounds(errors.PhaseDecode, b, offset, 8); err != nil {
		return nil, err
	}
	hi, lo := n.halves(b, offset)
	if n.signed {
		return float64(int32(hi))*two32 + float64(lo), nil
	}
	return float64(hi)*two32 + float64(lo), nil
}

func (n *NearInt64) Encode(src any, b []byte, offset int) (int, error) {
	hi, lo, err := n.split(src)
	if err != nil {
		return 0, err
	}
	if err := checkBounds(errors.PhaseEncode, b, offset, 8); err != nil {
		return 0, err
	}
	if n.bigEndian {
		binary.BigEndian.PutUint32(b[offset:], hi)
		binary.BigEndian.PutUint32(b[offset+4:], lo)
	} else {
		binary.LittleEndian.PutUint32(b[offset:], lo)
		binary.LittleEndian.PutUint32(b[offset+4:], hi)
	}
	return 8, nil
}

// split divides src into its high and low 32-bit words. Integer sources are
// split exactly; float sources go through floor division.
func (n *NearInt64) split(src any) (hi, lo uint32, err error) {
	switch v := src.(type) {
	case uint64, uint, uint32, uint16, uint8:
		u, _ := abi.CoerceToUint64(v)
		if n.signed && u > math.MaxInt64 {
			return 0, 0, errors.Overflow(errors.PhaseEncode, nil, src, n.Name())
		}
		return uint32(u >> 32), uint32(u), nil
	case int64, int, int32, int16, int8:
		s, _ := abi.CoerceToInt64(v)
		if !n.signed && s < 0 {
			return 0, 0, errors.Overflow(errors.PhaseEncode, nil, src, n.Name())
		}
		return uint32(uint64(s) >> 32), uint32(uint64(s)), nil
	}

	f, ok := abi.CoerceToFloat64(src)
	if !ok {
		return 0, 0, typeMismatch(errors.PhaseEncode, src, n.Name(), "value must be numeric")
	}
	minF, maxF := 0.0, 18446744073709551616.0
	if n.signed {
		minF, maxF = -9223372036854775808.0, 9223372036854775808.0
	}
	if f != math.Trunc(f) || f < minF || f >= maxF {
		return 0, 0, errors.Overflow(errors.PhaseEncode, nil, src, n.Name())
	}
	h := math.Floor(f / two32)
	l := f - h*two32
	if n.signed {
		return uint32(int32(h)), uint32(l), nil
	}
	return uint32(h), uint32(l), nil
}

// Float is an IEEE-754 single or double in either byte order. Both decode to
// float64.
type Float struct {
	base
	bigEndian bool
}

func F32(property string) *Float { return &Float{base: base{span: 4, property: property}} }
func F32BE(property string) *Float { return &Float{base: base{span: 4, property: property}, bigEndian: true} }
func F64(property string) *Float { return &Float{base: base{span: 8, property: property}} }
func F64BE(property string) *Float { return &Float{base: base{span: 8, property: property}, bigEndian: true} }

func (f *Float) Name() string {
	name := "f" + strconv.Itoa(f.span*8)
	if f.bigEndian {
		name += "be"
	}
	return name
}

func (f *Float) WithProperty(property string) Layout {
	c := *f
	c.property = property
	return &c
}

func (f *Float) GetSpan([]byte, int) (int, error) {
	return f.span, nil
}

func (f *Float) order() binary.ByteOrder {
	if f.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (f *Float) Decode(b []byte, offset int) (any, error) {
	if err := checkBounds(errors.PhaseDecode, b, offset, f.span); err != nil {
		return nil, err
	}
	if f.span == 4 {
		return float64(math.Float32frombits(f.order().Uint32(b[offset:]))), nil
	}
	return math.Float64frombits(f.order().Uint64(b[offset:])), nil
}

func (f *Float) Encode(src any, b []byte, offset int) (int, error) {
	v, ok := abi.CoerceToFloat64(src)
	if !ok {
		return 0, typeMismatch(errors.PhaseEncode, src, f.Name(), "value must be numeric")
	}
	if err := checkBounds(errors.PhaseEncode, b, offset, f.span); err != nil {
		return 0, err
	}
	if f.span == 4 {
		f.order().PutUint32(b[offset:], math.Float32bits(float32(v)))
	} else {
		f.order().PutUint64(b[offset:], math.Float64bits(v))
	}
	return f.span, nil
}
