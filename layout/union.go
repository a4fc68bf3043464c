package layout

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout/internal/abi"
)

// DiscriminantKind records where a union reads its discriminant from.
type DiscriminantKind uint8

const (
	// DiscriminantPrefix is an unsigned integer immediately before the payload.
	DiscriminantPrefix DiscriminantKind = iota
	// DiscriminantExternal is a count layout addressed independently of the payload.
	DiscriminantExternal
)

func (k DiscriminantKind) String() string {
	if k == DiscriminantPrefix {
		return "prefix"
	}
	return "external"
}

const (
	defaultContentProperty = "content"
	defaultVariantProperty = "variant"
)

// SourceVariantFunc selects the variant used to encode src. Returning a nil
// variant and nil error selects the default layout.
type SourceVariantFunc func(u *Union, src any) (*Variant, error)

type registry struct {
	variants      map[uint64]*Variant
	tags          []uint64
	sourceVariant SourceVariantFunc
}

// Union is a discriminated union. A registered discriminant decodes through its
// variant alone; an unregistered one decodes through the default layout with
// the raw discriminant attached under the discriminant's label.
type Union struct {
	base
	kind       DiscriminantKind
	discr      ExternalLayout
	discrProp  string
	prefixSpan int
	deflt      Layout
	reg        *registry
}

// NewUnion creates a union whose discriminant is the unsigned integer prefix
// stored immediately before the payload. defaultLayout may be nil.
func NewUnion(prefix *Int, defaultLayout Layout, property string) (*Union, error) {
	if prefix == nil || prefix.signed {
		return nil, errors.InvalidLayout("union", "prefix discriminant must be an unsigned integer layout")
	}
	return newUnion(DiscriminantPrefix, NewOffset(prefix, 0, ""), prefix.span, defaultLayout, property)
}

// NewExternalUnion creates a union whose discriminant is read through discr at
// the union's offset. The payload starts at the union's offset.
func NewExternalUnion(discr ExternalLayout, defaultLayout Layout, property string) (*Union, error) {
	if discr == nil || !discr.IsCount() {
		return nil, errors.InvalidLayout("union", "discriminant must be an unsigned count layout")
	}
	return newUnion(DiscriminantExternal, discr, 0, defaultLayout, property)
}

func newUnion(kind DiscriminantKind, discr ExternalLayout, prefixSpan int, deflt Layout, property string) (*Union, error) {
	span := -1
	if deflt != nil {
		if deflt.Span() < 0 {
			return nil, errors.InvalidLayout("union", "default layout must have static span")
		}
		if deflt.Property() == "" {
			deflt = deflt.WithProperty(defaultContentProperty)
		}
		span = deflt.Span() + prefixSpan
	}
	discrProp := discr.Property()
	if discrProp == "" {
		discrProp = defaultVariantProperty
	}
	return &Union{
		base:       base{span: span, property: property},
		kind:       kind,
		discr:      discr,
		discrProp:  discrProp,
		prefixSpan: prefixSpan,
		deflt:      deflt,
		reg:        &registry{variants: make(map[uint64]*Variant)},
	}, nil
}

func (u *Union) DiscriminantKind() DiscriminantKind { return u.kind }

// DiscriminantProperty is the label raw discriminants decode under.
func (u *Union) DiscriminantProperty() string { return u.discrProp }

func (u *Union) DefaultLayout() Layout { return u.deflt }

func (u *Union) WithProperty(property string) Layout {
	c := *u
	c.property = property
	return &c
}

// SetSourceVariant replaces the encode-time variant inference. A nil fn
// restores the default rules.
func (u *Union) SetSourceVariant(fn SourceVariantFunc) {
	u.reg.sourceVariant = fn
}

// Variant returns the variant registered under tag, or nil.
func (u *Union) Variant(tag uint64) *Variant {
	return u.reg.variants[tag]
}

// Variants returns the registered variants in ascending tag order.
func (u *Union) Variants() []*Variant {
	out := make([]*Variant, 0, len(u.reg.tags))
	for _, tag := range u.reg.tags {
		out = append(out, u.reg.variants[tag])
	}
	return out
}

// AddVariant registers payload under tag. payload may be nil for a variant
// that decodes to a presence marker.
func (u *Union) AddVariant(tag int, payload Layout, property string) (*Variant, error) {
	if tag < 0 {
		return nil, errors.New(errors.PhaseCompose, errors.KindRange).
			Layout("union").
			Value(tag).
			Detail("variant must be a non-negative integer").
			Build()
	}
	t := uint64(tag)
	if u.kind == DiscriminantPrefix && u.prefixSpan < 8 && t >= uint64(1)<<(8*uint(u.prefixSpan)) {
		return nil, errors.New(errors.PhaseCompose, errors.KindRange).
			Layout("union").
			Value(tag).
			Detail("variant %d does not fit a %d-byte discriminant", tag, u.prefixSpan).
			Build()
	}
	if _, dup := u.reg.variants[t]; dup {
		return nil, errors.Duplicate("union", "variant", tag)
	}
	if payload != nil {
		if u.deflt != nil && payload.Span() >= 0 && payload.Span() > u.deflt.Span() {
			return nil, errors.InvalidLayout("union", "variant span exceeds span of containing union")
		}
		if property == "" {
			return nil, errors.InvalidLayout("union", "variant with a payload must have a property")
		}
	} else if property == "" && u.kind != DiscriminantPrefix {
		return nil, errors.InvalidLayout("union", "variant without payload must have a property")
	}

	span := u.span
	if span < 0 {
		span = 0
		if payload != nil {
			span = payload.Span()
		}
		if span >= 0 {
			span += u.prefixSpan
		}
	}
	v := &Variant{
		base:    base{span: span, property: property},
		union:   u,
		tag:     t,
		payload: payload,
	}
	u.reg.variants[t] = v
	i, _ := slices.BinarySearch(u.reg.tags, t)
	u.reg.tags = slices.Insert(u.reg.tags, i, t)

	Logger().Debug("variant registered",
		zap.String("union", u.property),
		zap.Uint64("tag", t),
		zap.String("property", property),
		zap.Bool("payload", payload != nil))
	return v, nil
}

func (u *Union) discriminant(phase errors.Phase, b []byte, offset int) (uint64, error) {
	raw, err := u.discr.Decode(b, offset)
	if err != nil {
		return 0, errors.Prefix(err, u.discrProp)
	}
	d, ok := abi.CoerceToUint64(raw)
	if !ok {
		return 0, errors.New(phase, errors.KindInvalidData).
			Path(u.discrProp).
			GoType(abi.TypeName(raw)).
			Detail("discriminant must be an unsigned integer").
			Build()
	}
	return d, nil
}

// VariantFor returns the registered variant selected by the discriminant in b,
// or nil when the discriminant is not registered.
func (u *Union) VariantFor(b []byte, offset int) (*Variant, error) {
	d, err := u.discriminant(errors.PhaseDecode, b, offset)
	if err != nil {
		return nil, err
	}
	return u.reg.variants[d], nil
}

func (u *Union) GetSpan(b []byte, offset int) (int, error) {
	if u.span >= 0 {
		return u.span, nil
	}
	d, err := u.discriminant(errors.PhaseSpan, b, offset)
	if err != nil {
		return 0, err
	}
	v := u.reg.variants[d]
	if v == nil {
		return 0, errors.InvalidDiscriminant(errors.PhaseSpan, nil, d)
	}
	return v.GetSpan(b, offset)
}

func (u *Union) Decode(b []byte, offset int) (any, error) {
	d, err := u.discriminant(errors.PhaseDecode, b, offset)
	if err != nil {
		return nil, err
	}
	if v := u.reg.variants[d]; v != nil {
		return v.Decode(b, offset)
	}
	if u.deflt == nil {
		return nil, errors.InvalidDiscriminant(errors.PhaseDecode, nil, d)
	}
	content, err := u.deflt.Decode(b, offset+u.prefixSpan)
	if err != nil {
		return nil, errors.Prefix(err, u.deflt.Property())
	}
	return NewRecord(
		Entry{Label: u.discrProp, Value: d},
		Entry{Label: u.deflt.Property(), Value: content},
	), nil
}

// Encode writes src through the variant it is inferred to represent, or
// through the default layout.
func (u *Union) Encode(src any, b []byte, offset int) (int, error) {
	v, err := u.sourceVariant(src)
	if err != nil {
		return 0, err
	}
	if v != nil {
		return v.Encode(src, b, offset)
	}
	in, _ := asSource(src)
	if u.deflt == nil || in == nil {
		return 0, u.unmatched(src)
	}
	d, ok := in.lookup(u.discrProp)
	if !ok {
		return 0, errors.FieldMissing(errors.PhaseEncode, nil, u.discrProp)
	}
	content, ok := in.lookup(u.deflt.Property())
	if !ok {
		return 0, errors.FieldMissing(errors.PhaseEncode, nil, u.deflt.Property())
	}
	if _, err := u.discr.Encode(d, b, offset); err != nil {
		return 0, errors.Prefix(err, u.discrProp)
	}
	n, err := u.deflt.Encode(content, b, offset+u.prefixSpan)
	if err != nil {
		return 0, errors.Prefix(err, u.deflt.Property())
	}
	return u.prefixSpan + n, nil
}

func (u *Union) sourceVariant(src any) (*Variant, error) {
	if fn := u.reg.sourceVariant; fn != nil {
		return fn(u, src)
	}
	return u.DefaultSourceVariant(src)
}

// DefaultSourceVariant applies the standard inference rules in order:
//
//  1. src carries both the discriminant label and the default layout's label:
//     the default layout.
//  2. src carries the discriminant label and the variant registered for that
//     value has no payload or its label is present: that variant.
//  3. The first variant, by ascending tag, whose label is present in src.
//
// Anything else is an error.
func (u *Union) DefaultSourceVariant(src any) (*Variant, error) {
	in, ok := asSource(src)
	if !ok {
		return nil, typeMismatch(errors.PhaseEncode, src, "union", "value must be *Record or map[string]any")
	}
	if d, ok := in.lookup(u.discrProp); ok {
		if u.deflt != nil && has(in, u.deflt.Property()) {
			return nil, nil
		}
		if tag, ok := abi.CoerceToUint64(d); ok {
			if v := u.reg.variants[tag]; v != nil && (v.payload == nil || has(in, v.property)) {
				return v, nil
			}
		}
	}
	for _, tag := range u.reg.tags {
		if v := u.reg.variants[tag]; has(in, v.property) {
			return v, nil
		}
	}
	return nil, u.unmatched(src)
}

func (u *Union) unmatched(src any) error {
	return errors.New(errors.PhaseEncode, errors.KindInvalidVariant).
		GoType(abi.TypeName(src)).
		Layout("union").
		Detail("unable to infer src variant").
		Build()
}

// Variant is one tagged alternative of a Union. It may also be used directly
// as a layout for values known to carry its tag.
type Variant struct {
	base
	union   *Union
	tag     uint64
	payload Layout
}

func (v *Variant) Tag() uint64 { return v.tag }

func (v *Variant) Union() *Union { return v.union }

// Payload returns the variant's payload layout, nil for presence-only variants.
func (v *Variant) Payload() Layout { return v.payload }

func (v *Variant) WithProperty(property string) Layout {
	c := *v
	c.property = property
	return &c
}

func (v *Variant) GetSpan(b []byte, offset int) (int, error) {
	if v.span >= 0 {
		return v.span, nil
	}
	n, err := v.payload.GetSpan(b, offset+v.union.prefixSpan)
	if err != nil {
		return 0, indeterminate("variant", v.property, err)
	}
	return v.union.prefixSpan + n, nil
}

func (v *Variant) Decode(b []byte, offset int) (any, error) {
	d, err := v.union.discriminant(errors.PhaseDecode, b, offset)
	if err != nil {
		return nil, err
	}
	if d != v.tag {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidVariant).
			Path(v.property).
			Value(d).
			Detail("variant mismatch: buffer holds %d, expected %d", d, v.tag).
			Build()
	}
	switch {
	case v.payload != nil:
		content, err := v.payload.Decode(b, offset+v.union.prefixSpan)
		if err != nil {
			return nil, errors.Prefix(err, v.property)
		}
		return NewRecord(Entry{Label: v.property, Value: content}), nil
	case v.property != "":
		return NewRecord(Entry{Label: v.property, Value: true}), nil
	default:
		return NewRecord(Entry{Label: v.union.discrProp, Value: v.tag}), nil
	}
}

func (v *Variant) Encode(src any, b []byte, offset int) (int, error) {
	in, ok := asSource(src)
	if !ok {
		return 0, typeMismatch(errors.PhaseEncode, src, "variant", "value must be *Record or map[string]any")
	}
	var content any
	if v.payload != nil {
		if content, ok = in.lookup(v.property); !ok {
			return 0, errors.FieldMissing(errors.PhaseEncode, nil, v.property)
		}
	}
	if _, err := v.union.discr.Encode(v.tag, b, offset); err != nil {
		return 0, errors.Prefix(err, v.union.discrProp)
	}
	span := v.union.prefixSpan
	if v.payload == nil {
		return span, nil
	}
	at := offset + span
	if _, err := v.payload.Encode(content, b, at); err != nil {
		return 0, errors.Prefix(err, v.property)
	}
	n, err := v.payload.GetSpan(b, at)
	if err != nil {
		return 0, errors.Prefix(err, v.property)
	}
	span += n
	if v.union.span >= 0 && span > v.union.span {
		return 0, errors.Range(errors.PhaseEncode, []string{v.property}, "variant",
			"encoded variant overruns containing union")
	}
	return span, nil
}
