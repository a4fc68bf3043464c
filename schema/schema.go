// Package schema loads layout descriptions from YAML.
//
// A schema file names a set of layouts:
//
//	layouts:
//	  header:
//	    type: struct
//	    fields:
//	      - {name: kind, type: u8}
//	      - {name: size, type: u32be}
//	  packet:
//	    type: struct
//	    fields:
//	      - {name: head, ref: header}
//	      - {name: body, type: blob, length: 16}
//
// A scalar node is shorthand for its type, so "u8" is the same as
// {type: u8}. Nodes may refer to other named layouts with ref; reference
// cycles are rejected when the schema is compiled.
package schema

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout"
)

// File is the decoded form of a schema document.
type File struct {
	Layouts map[string]*Node `yaml:"layouts"`
}

// Node describes one layout. Which fields apply depends on Type.
type Node struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
	Ref  string `yaml:"ref"`

	// uint, int
	Span      int  `yaml:"span"`
	BigEndian bool `yaml:"big_endian"`

	// const
	Value any `yaml:"value"`

	// blob
	Length     *int  `yaml:"length"`
	LengthFrom *Node `yaml:"length_from"`

	// utf8
	Max *int `yaml:"max"`

	// seq
	Element   *Node `yaml:"element"`
	Count     *int  `yaml:"count"`
	CountFrom *Node `yaml:"count_from"`

	// struct
	Fields         []*Node `yaml:"fields"`
	DecodePrefixes bool    `yaml:"decode_prefixes"`

	// bits
	Word *Node     `yaml:"word"`
	MSB  bool      `yaml:"msb"`
	Bits []BitNode `yaml:"bits"`

	// union
	Discriminant *Node         `yaml:"discriminant"`
	External     *Node         `yaml:"external"`
	Default      *Node         `yaml:"default"`
	Variants     []VariantNode `yaml:"variants"`

	// greedy
	ElementSpan int `yaml:"element_span"`

	// offset
	Layout       *Node `yaml:"layout"`
	Displacement int   `yaml:"displacement"`
}

// BitNode describes one bit field of a bits node.
type BitNode struct {
	Name    string `yaml:"name"`
	Width   int    `yaml:"width"`
	Boolean bool   `yaml:"boolean"`
}

// VariantNode describes one union variant. Layout may be omitted for a
// payload-less variant.
type VariantNode struct {
	Tag    int    `yaml:"tag"`
	Name   string `yaml:"name"`
	Layout *Node  `yaml:"layout"`
}

var nodeKeys = map[string]bool{
	"type": true, "name": true, "ref": true,
	"span": true, "big_endian": true, "value": true,
	"length": true, "length_from": true, "max": true,
	"element": true, "count": true, "count_from": true,
	"fields": true, "decode_prefixes": true,
	"word": true, "msb": true, "bits": true,
	"discriminant": true, "external": true, "default": true, "variants": true,
	"element_span": true, "layout": true, "displacement": true,
}

// UnmarshalYAML accepts a bare scalar as a type name. Mapping keys are
// checked here because a decoder's KnownFields setting does not reach
// custom unmarshalers.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		n.Type = value.Value
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i]
			if !nodeKeys[key.Value] {
				return errors.InvalidData(errors.PhaseSchema, nil,
					fmt.Sprintf("line %d: unknown key %q", key.Line, key.Value))
			}
		}
	}
	type plain Node
	return value.Decode((*plain)(n))
}

// Parse decodes a schema document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(errors.PhaseSchema, errors.KindInvalidData, err, "parse schema")
	}
	if len(f.Layouts) == 0 {
		return nil, errors.InvalidData(errors.PhaseSchema, nil, "schema defines no layouts")
	}
	return &f, nil
}

// Load reads, parses and compiles the schema at path.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSchema, errors.KindNotFound, err, "read schema")
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Compile(f)
}

// Set holds the compiled layouts of a schema.
type Set struct {
	layouts map[string]layout.Layout
}

// Layout returns the named layout.
func (s *Set) Layout(name string) (layout.Layout, error) {
	l, ok := s.layouts[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseSchema, "layout", name)
	}
	return l, nil
}

// Names returns the layout names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.layouts))
	for name := range s.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile builds every layout in f. Each named layout is built once and
// shared by all nodes that reference it.
func Compile(f *File) (*Set, error) {
	c := &compiler{
		nodes:  f.Layouts,
		done:   make(map[string]layout.Layout, len(f.Layouts)),
		active: make(map[string]bool),
	}
	names := make([]string, 0, len(f.Layouts))
	for name := range f.Layouts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := c.named(name); err != nil {
			return nil, err
		}
	}
	return &Set{layouts: c.done}, nil
}

type compiler struct {
	nodes  map[string]*Node
	done   map[string]layout.Layout
	active map[string]bool
}

func (c *compiler) named(name string) (layout.Layout, error) {
	if l, ok := c.done[name]; ok {
		return l, nil
	}
	n, ok := c.nodes[name]
	if !ok || n == nil {
		return nil, errors.NotFound(errors.PhaseSchema, "layout", name)
	}
	if c.active[name] {
		return nil, errors.New(errors.PhaseSchema, errors.KindInvalidLayout).
			Layout(name).
			Detail("reference cycle through %q", name).
			Build()
	}
	c.active[name] = true
	defer delete(c.active, name)

	l, err := c.node(n)
	if err != nil {
		return nil, errors.Prefix(err, name)
	}
	c.done[name] = l
	return l, nil
}

func (c *compiler) node(n *Node) (layout.Layout, error) {
	if n.Ref != "" {
		if n.Type != "" {
			return nil, invalid("node sets both type %q and ref %q", n.Type, n.Ref)
		}
		l, err := c.named(n.Ref)
		if err != nil {
			return nil, err
		}
		return l.WithProperty(n.Name), nil
	}

	if l, ok := scalar(n.Type, n.Name); ok {
		return l, nil
	}

	switch n.Type {
	case "uint", "int":
		return c.genericInt(n)
	case "const":
		return layout.NewConstant(n.Value, n.Name), nil
	case "blob":
		return c.blob(n)
	case "cstring":
		return layout.NewCString(n.Name), nil
	case "utf8":
		maxSpan := -1
		if n.Max != nil {
			maxSpan = *n.Max
		}
		return layout.NewUTF8(maxSpan, n.Name), nil
	case "seq":
		return c.sequence(n)
	case "struct":
		return c.structure(n)
	case "bits":
		return c.bits(n)
	case "union":
		return c.union(n)
	case "greedy":
		span := n.ElementSpan
		if span == 0 {
			span = 1
		}
		return layout.NewGreedyCount(span, n.Name)
	case "offset":
		if n.Layout == nil {
			return nil, invalid("offset requires a layout")
		}
		inner, err := c.node(n.Layout)
		if err != nil {
			return nil, err
		}
		return layout.NewOffset(inner, n.Displacement, n.Name), nil
	case "":
		return nil, invalid("node has neither type nor ref")
	default:
		return nil, invalid("unknown type %q", n.Type)
	}
}

var intName = regexp.MustCompile(`^([us])(8|16|24|32|40|48)(be)?$`)

// scalar resolves the fixed-width type names: u8..u48, s8..s48 with an
// optional "be" suffix, nu64/ns64 and f32/f64 with the same suffix.
func scalar(typ, property string) (layout.Layout, bool) {
	if m := intName.FindStringSubmatch(typ); m != nil {
		bits, _ := strconv.Atoi(m[2])
		l, err := newInt(bits/8, m[1] == "s", m[3] != "", property)
		return l, err == nil
	}
	switch typ {
	case "nu64":
		return layout.NU64(property), true
	case "nu64be":
		return layout.NU64BE(property), true
	case "ns64":
		return layout.NS64(property), true
	case "ns64be":
		return layout.NS64BE(property), true
	case "f32":
		return layout.F32(property), true
	case "f32be":
		return layout.F32BE(property), true
	case "f64":
		return layout.F64(property), true
	case "f64be":
		return layout.F64BE(property), true
	}
	return nil, false
}

func newInt(span int, signed, bigEndian bool, property string) (*layout.Int, error) {
	switch {
	case signed && bigEndian:
		return layout.NewIntBE(span, property)
	case signed:
		return layout.NewInt(span, property)
	case bigEndian:
		return layout.NewUIntBE(span, property)
	default:
		return layout.NewUInt(span, property)
	}
}

func (c *compiler) genericInt(n *Node) (layout.Layout, error) {
	return newInt(n.Span, n.Type == "int", n.BigEndian, n.Name)
}

func (c *compiler) blob(n *Node) (layout.Layout, error) {
	switch {
	case n.Length != nil && n.LengthFrom != nil:
		return nil, invalid("blob sets both length and length_from")
	case n.Length != nil:
		return layout.NewBlob(*n.Length, n.Name)
	case n.LengthFrom != nil:
		ext, err := c.external(n.LengthFrom, "length_from")
		if err != nil {
			return nil, err
		}
		return layout.NewDynamicBlob(ext, n.Name)
	default:
		return nil, invalid("blob requires length or length_from")
	}
}

func (c *compiler) sequence(n *Node) (layout.Layout, error) {
	if n.Element == nil {
		return nil, invalid("seq requires an element")
	}
	elem, err := c.node(n.Element)
	if err != nil {
		return nil, err
	}
	switch {
	case n.Count != nil && n.CountFrom != nil:
		return nil, invalid("seq sets both count and count_from")
	case n.Count != nil:
		return layout.NewSequence(elem, *n.Count, n.Name)
	case n.CountFrom != nil:
		ext, err := c.external(n.CountFrom, "count_from")
		if err != nil {
			return nil, err
		}
		return layout.NewDynamicSequence(elem, ext, n.Name)
	default:
		return nil, invalid("seq requires count or count_from")
	}
}

func (c *compiler) structure(n *Node) (layout.Layout, error) {
	fields := make([]layout.Layout, 0, len(n.Fields))
	for i, fn := range n.Fields {
		if fn == nil {
			return nil, invalid("field %d is empty", i)
		}
		f, err := c.node(fn)
		if err != nil {
			return nil, errors.Prefix(err, segment(fn.Name, i))
		}
		fields = append(fields, f)
	}
	var opts []layout.StructureOption
	if n.DecodePrefixes {
		opts = append(opts, layout.WithDecodePrefixes())
	}
	return layout.NewStructure(fields, n.Name, opts...)
}

func (c *compiler) bits(n *Node) (layout.Layout, error) {
	word := layout.U32("")
	if n.Word != nil {
		w, err := c.intNode(n.Word, "word")
		if err != nil {
			return nil, err
		}
		word = w
	}
	s, err := layout.NewBitStructure(word, n.MSB, n.Name)
	if err != nil {
		return nil, err
	}
	for i, b := range n.Bits {
		if b.Boolean {
			if b.Width != 0 && b.Width != 1 {
				return nil, errors.Prefix(invalid("boolean field has width %d", b.Width), segment(b.Name, i))
			}
			_, err = s.AddBoolean(b.Name)
		} else {
			_, err = s.AddField(b.Width, b.Name)
		}
		if err != nil {
			return nil, errors.Prefix(err, segment(b.Name, i))
		}
	}
	return s, nil
}

func (c *compiler) union(n *Node) (layout.Layout, error) {
	var deflt layout.Layout
	if n.Default != nil {
		d, err := c.node(n.Default)
		if err != nil {
			return nil, errors.Prefix(err, "default")
		}
		deflt = d
	}

	var (
		u   *layout.Union
		err error
	)
	switch {
	case n.Discriminant != nil && n.External != nil:
		return nil, invalid("union sets both discriminant and external")
	case n.External != nil:
		ext, xerr := c.external(n.External, "external")
		if xerr != nil {
			return nil, xerr
		}
		u, err = layout.NewExternalUnion(ext, deflt, n.Name)
	default:
		prefix := layout.U8("")
		if n.Discriminant != nil {
			p, perr := c.intNode(n.Discriminant, "discriminant")
			if perr != nil {
				return nil, perr
			}
			prefix = p
		}
		u, err = layout.NewUnion(prefix, deflt, n.Name)
	}
	if err != nil {
		return nil, err
	}

	for _, v := range n.Variants {
		var payload layout.Layout
		if v.Layout != nil {
			p, perr := c.node(v.Layout)
			if perr != nil {
				return nil, errors.Prefix(perr, v.Name)
			}
			payload = p
		}
		if _, err := u.AddVariant(v.Tag, payload, v.Name); err != nil {
			return nil, errors.Prefix(err, v.Name)
		}
	}
	return u, nil
}

func (c *compiler) intNode(n *Node, role string) (*layout.Int, error) {
	l, err := c.node(n)
	if err != nil {
		return nil, errors.Prefix(err, role)
	}
	i, ok := l.(*layout.Int)
	if !ok {
		return nil, invalid("%s must be an integer layout, got %T", role, l)
	}
	return i, nil
}

func (c *compiler) external(n *Node, role string) (layout.ExternalLayout, error) {
	l, err := c.node(n)
	if err != nil {
		return nil, errors.Prefix(err, role)
	}
	ext, ok := l.(layout.ExternalLayout)
	if !ok {
		return nil, invalid("%s must be greedy or offset, got %T", role, l)
	}
	return ext, nil
}

func segment(name string, i int) string {
	if name != "" {
		return name
	}
	return "[" + strconv.Itoa(i) + "]"
}

func invalid(format string, args ...any) error {
	return errors.New(errors.PhaseSchema, errors.KindInvalidLayout).Detail(format, args...).Build()
}
