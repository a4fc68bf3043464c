// Package errors provides structured error types for the buffer-layout library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: label path, Go type and descriptor names, and
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
//		Path("transfer", "amount").
//		GoType("string").
//		Layout("u32").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseEncode, path, "string", "u32")
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 10, 4, 12)
//
// Aggregate descriptors extend the path of errors raised by their members with
// Prefix, so a failure deep in a tree reports where it happened:
//
//	[encode] overflow at transfer.amount: layout u8 - value 300 overflows u8
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
