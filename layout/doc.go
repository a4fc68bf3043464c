// Package layout provides composable descriptors for binary wire layouts.
//
// A Layout translates one logical value to and from bytes at an offset in a
// caller-supplied buffer. Layouts compose into sequences, structures, bit
// words and discriminated unions, and are immutable once composition is
// complete.
//
// # Spans
//
// Every layout has a Span. A non-negative span is the exact byte length of
// every encoding. A negative span means the length depends on the encoded
// value and is computed from the buffer with GetSpan:
//
//	Layout          Span        Decodes to
//	───────────────────────────────────────────
//	U8..U48/S8..S48 1..6        uint64 / int64
//	NU64/NS64       8           float64
//	F32/F64         4/8         float64
//	Constant        0           configured value
//	Blob            n or -1     []byte
//	CString         -1          string
//	UTF8            -1          string
//	Sequence        n*elem/-1   []any
//	Structure       sum/-1      *Record
//	BitStructure    1..4        *Record
//	Union           varies      *Record
//
// # Labels
//
// A layout's Property is the label its value takes inside a Structure, Union
// or BitStructure. An unlabelled member is padding: it is skipped on decode
// and its bytes are left untouched on encode. WithProperty returns a relabelled
// copy, so one layout may appear under different labels in several aggregates.
//
// # External Layouts
//
// An ExternalLayout supplies a count or discriminant that another layout
// consults. GreedyCount derives a count from the bytes remaining in the
// buffer; Offset reads a value stored at a displacement from the governed
// layout:
//
//	count := layout.NewOffset(layout.U8(""), -1, "")
//	items := layout.Must(layout.NewDynamicSequence(layout.U16("v"), count, "items"))
//	msg := layout.Must(layout.NewStructure([]layout.Layout{
//		layout.U8("n"),
//		items,
//	}, ""))
//
// Dynamic counts are written after the elements they count.
//
// # Unions
//
// A Union reads its discriminant either from an unsigned integer prefix or
// from an external layout. Encode infers the variant from the labels present
// in the source value; see Union.DefaultSourceVariant for the exact rules.
//
// # Values
//
// Aggregates decode to *Record, an ordered label/value list. Encoders accept
// either *Record or map[string]any; a label mapped to nil counts as absent.
// Numeric encoders accept any Go integer or float that fits the layout.
//
// # Errors
//
// All failures are *errors.Error values carrying a phase, a kind and the label
// path of the failing member.
//
// # Thread Safety
//
// Composition (AddVariant, AddField, AddBoolean, SetSourceVariant) must finish
// before a layout is shared. After that every layout, bit words included, is
// safe for concurrent use on distinct buffers.
package layout
