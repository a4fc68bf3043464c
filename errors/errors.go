package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompose Phase = "compose" // descriptor construction and registration
	PhaseEncode  Phase = "encode"  // Go value to bytes
	PhaseDecode  Phase = "decode"  // bytes to Go value
	PhaseSpan    Phase = "span"    // span computation
	PhaseSchema  Phase = "schema"  // schema loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidLayout     Kind = "invalid_layout"
	KindRange             Kind = "range"
	KindTypeMismatch      Kind = "type_mismatch"
	KindOverflow          Kind = "overflow"
	KindFieldMissing      Kind = "field_missing"
	KindIndeterminateSpan Kind = "indeterminate_span"
	KindInvalidVariant    Kind = "invalid_variant"
	KindDuplicate         Kind = "duplicate"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidData       Kind = "invalid_data"
	KindUnsupported       Kind = "unsupported"
	KindNotFound          Kind = "not_found"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Layout string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Layout != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Layout != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", layout ")
			b.WriteString(e.Layout)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("layout ")
			b.WriteString(e.Layout)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Layout != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the label path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Layout sets the descriptor name
func (b *Builder) Layout(name string) *Builder {
	b.err.Layout = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Prefix returns err with segment prepended to its label path.
// Errors that are not *Error are returned unchanged.
func Prefix(err error, segment string) error {
	if segment == "" {
		return err
	}
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	cp := *e
	cp.Path = make([]string, 0, len(e.Path)+1)
	cp.Path = append(cp.Path, segment)
	cp.Path = append(cp.Path, e.Path...)
	return &cp
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, layout string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Layout: layout,
	}
}

// InvalidLayout creates a composition error for a malformed descriptor
func InvalidLayout(layout, detail string) *Error {
	return &Error{
		Phase:  PhaseCompose,
		Kind:   KindInvalidLayout,
		Layout: layout,
		Detail: detail,
	}
}

// Range creates a range error
func Range(phase Phase, path []string, layout, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRange,
		Path:   path,
		Layout: layout,
		Detail: detail,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// InvalidDiscriminant creates an error for a discriminant with no registered variant
func InvalidDiscriminant(phase Phase, path []string, disc uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d has no registered variant", disc),
		Value:  disc,
	}
}

// Duplicate creates a re-registration error
func Duplicate(layout string, what string, key any) *Error {
	return &Error{
		Phase:  PhaseCompose,
		Kind:   KindDuplicate,
		Layout: layout,
		Detail: fmt.Sprintf("%s %v already registered", what, key),
		Value:  key,
	}
}

// IndeterminateSpan creates a span-indeterminacy error
func IndeterminateSpan(layout string, cause error) *Error {
	return &Error{
		Phase:  PhaseSpan,
		Kind:   KindIndeterminateSpan,
		Layout: layout,
		Detail: "indeterminate span",
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, offset, span, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("%d bytes at offset %d overrun buffer (length %d)", span, offset, length),
		Value:  offset,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, layout string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Layout: layout,
		Detail: fmt.Sprintf("value %v overflows %s", value, layout),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
