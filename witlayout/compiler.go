// Package witlayout compiles WIT types into packed binary layouts.
//
// The mapping is byte-packed with no alignment padding, which suits wire
// formats described in WIT rather than Canonical ABI memory:
//
//	WIT             Layout
//	──────────────────────────────────────────────
//	bool            Bool, one byte
//	u8/s8           U8 / S8
//	u16..u32        little-endian ints
//	u64/s64         NU64 / NS64
//	f32/f64         F32 / F64
//	char            U32 code point
//	string          CString
//	record, tuple   Structure (tuple labels "0".."n")
//	list<T>         u32 count + Sequence
//	variant         Union with a 1/2/4-byte prefix
//	option<T>       Union: 0 none, 1 some
//	result<T, E>    Union: 0 ok, 1 err
//	enum            unsigned int of discriminant width
//	flags           BitStructure of booleans, LSB first
//	own/borrow      U32 handle
package witlayout

import (
	"fmt"
	"strconv"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout"
)

// ItemsProperty labels the element sequence of a standalone list.
const ItemsProperty = "items"

// Compiler converts WIT types to layouts, caching compiled type definitions.
// A Compiler is not safe for concurrent use.
type Compiler struct {
	cache map[*wit.TypeDef]layout.Layout
}

func NewCompiler() *Compiler {
	return &Compiler{
		cache: make(map[*wit.TypeDef]layout.Layout),
	}
}

// Compile returns the layout for t labelled property.
func (c *Compiler) Compile(t wit.Type, property string) (layout.Layout, error) {
	l, err := c.compile(t)
	if err != nil {
		return nil, err
	}
	return l.WithProperty(property), nil
}

func (c *Compiler) compile(t wit.Type) (layout.Layout, error) {
	switch typ := t.(type) {
	case wit.Bool:
		return layout.NewBool(""), nil
	case wit.U8:
		return layout.U8(""), nil
	case wit.S8:
		return layout.S8(""), nil
	case wit.U16:
		return layout.U16(""), nil
	case wit.S16:
		return layout.S16(""), nil
	case wit.U32, wit.Char:
		return layout.U32(""), nil
	case wit.S32:
		return layout.S32(""), nil
	case wit.U64:
		return layout.NU64(""), nil
	case wit.S64:
		return layout.NS64(""), nil
	case wit.F32:
		return layout.F32(""), nil
	case wit.F64:
		return layout.F64(""), nil
	case wit.String:
		return layout.NewCString(""), nil
	case *wit.TypeDef:
		return c.compileTypeDef(typ)
	case nil:
		return nil, errors.Unsupported(errors.PhaseCompose, "nil WIT type")
	default:
		return nil, errors.Unsupported(errors.PhaseCompose, "WIT type "+typeName(t))
	}
}

func (c *Compiler) compileTypeDef(t *wit.TypeDef) (layout.Layout, error) {
	if cached, ok := c.cache[t]; ok {
		return cached, nil
	}

	var (
		l   layout.Layout
		err error
	)
	switch kind := t.Kind.(type) {
	case *wit.Record:
		l, err = c.compileRecord(kind)
	case *wit.Tuple:
		l, err = c.compileTuple(kind)
	case *wit.List:
		l, err = c.compileList(kind)
	case *wit.Variant:
		l, err = c.compileVariant(kind)
	case *wit.Option:
		l, err = c.compileOption(kind)
	case *wit.Result:
		l, err = c.compileResult(kind)
	case *wit.Enum:
		l, err = c.compileEnum(kind)
	case *wit.Flags:
		l, err = c.compileFlags(kind)
	case *wit.Own, *wit.Borrow:
		l = layout.U32("")
	case wit.Type:
		l, err = c.compile(kind)
	default:
		err = errors.Unsupported(errors.PhaseCompose, "WIT type definition "+typeName(t))
	}
	if err != nil {
		return nil, err
	}

	c.cache[t] = l
	return l, nil
}

// members returns the layouts a named member expands to. Lists need an
// unlabelled count word ahead of their elements.
func (c *Compiler) members(t wit.Type, name string) ([]layout.Layout, error) {
	if list, ok := listOf(t); ok {
		seq, err := c.listSequence(list, name)
		if err != nil {
			return nil, err
		}
		return []layout.Layout{layout.U32(""), seq}, nil
	}
	l, err := c.compile(t)
	if err != nil {
		return nil, errors.Prefix(err, name)
	}
	return []layout.Layout{l.WithProperty(name)}, nil
}

func (c *Compiler) compileRecord(r *wit.Record) (layout.Layout, error) {
	fields := make([]layout.Layout, 0, len(r.Fields))
	for _, f := range r.Fields {
		ms, err := c.members(f.Type, f.Name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, ms...)
	}
	return layout.NewStructure(fields, "")
}

func (c *Compiler) compileTuple(t *wit.Tuple) (layout.Layout, error) {
	fields := make([]layout.Layout, 0, len(t.Types))
	for i, typ := range t.Types {
		ms, err := c.members(typ, strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		fields = append(fields, ms...)
	}
	return layout.NewStructure(fields, "")
}

func (c *Compiler) compileList(l *wit.List) (layout.Layout, error) {
	seq, err := c.listSequence(l, ItemsProperty)
	if err != nil {
		return nil, err
	}
	return layout.NewStructure([]layout.Layout{layout.U32(""), seq}, "")
}

// listSequence reads its count from the u32 immediately before it.
func (c *Compiler) listSequence(l *wit.List, name string) (layout.Layout, error) {
	elem, err := c.compile(l.Type)
	if err != nil {
		return nil, errors.Prefix(err, name)
	}
	return layout.NewDynamicSequence(elem, layout.NewOffset(layout.U32(""), -4, ""), name)
}

func (c *Compiler) compileVariant(v *wit.Variant) (layout.Layout, error) {
	u, err := layout.NewUnion(discriminant(len(v.Cases)), nil, "")
	if err != nil {
		return nil, err
	}
	for i, cs := range v.Cases {
		if err := c.addCase(u, i, cs.Type, cs.Name); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (c *Compiler) compileOption(o *wit.Option) (layout.Layout, error) {
	u, err := layout.NewUnion(layout.U8(""), nil, "")
	if err != nil {
		return nil, err
	}
	if err := c.addCase(u, 0, nil, "none"); err != nil {
		return nil, err
	}
	if err := c.addCase(u, 1, o.Type, "some"); err != nil {
		return nil, err
	}
	return u, nil
}

func (c *Compiler) compileResult(r *wit.Result) (layout.Layout, error) {
	u, err := layout.NewUnion(layout.U8(""), nil, "")
	if err != nil {
		return nil, err
	}
	if err := c.addCase(u, 0, r.OK, "ok"); err != nil {
		return nil, err
	}
	if err := c.addCase(u, 1, r.Err, "err"); err != nil {
		return nil, err
	}
	return u, nil
}

func (c *Compiler) addCase(u *layout.Union, tag int, t wit.Type, name string) error {
	var payload layout.Layout
	if t != nil {
		l, err := c.compile(t)
		if err != nil {
			return errors.Prefix(err, name)
		}
		payload = l.WithProperty(name)
	}
	_, err := u.AddVariant(tag, payload, name)
	return err
}

func (c *Compiler) compileEnum(e *wit.Enum) (layout.Layout, error) {
	return discriminant(len(e.Cases)), nil
}

func (c *Compiler) compileFlags(f *wit.Flags) (layout.Layout, error) {
	n := len(f.Flags)
	if n == 0 {
		return layout.NewConstant(layout.NewRecord(), ""), nil
	}
	if n > 32 {
		return nil, errors.Unsupported(errors.PhaseCompose, "flags with more than 32 members")
	}
	var word *layout.Int
	switch {
	case n <= 8:
		word = layout.U8("")
	case n <= 16:
		word = layout.U16("")
	default:
		word = layout.U32("")
	}
	bits, err := layout.NewBitStructure(word, false, "")
	if err != nil {
		return nil, err
	}
	for _, flag := range f.Flags {
		if _, err := bits.AddBoolean(flag.Name); err != nil {
			return nil, err
		}
	}
	return bits, nil
}

// discriminant returns the smallest unsigned prefix able to index n cases.
func discriminant(n int) *layout.Int {
	switch {
	case n <= 256:
		return layout.U8("")
	case n <= 65536:
		return layout.U16("")
	default:
		return layout.U32("")
	}
}

func listOf(t wit.Type) (*wit.List, bool) {
	for {
		td, ok := t.(*wit.TypeDef)
		if !ok {
			return nil, false
		}
		switch kind := td.Kind.(type) {
		case *wit.List:
			return kind, true
		case wit.Type:
			t = kind
		default:
			return nil, false
		}
	}
}

func typeName(t any) string {
	if td, ok := t.(*wit.TypeDef); ok && td.Name != nil {
		return *td.Name
	}
	return fmt.Sprintf("%T", t)
}
