// Package abi provides internal utilities for layout encoding/decoding.
//
// This package contains type coercion helpers and overflow-checked span
// arithmetic used by the layout package. Encoders accept any Go numeric type
// (including float64 values produced by YAML or JSON decoders) and coerce it
// to the descriptor's native representation here.
//
// # Contents
//
//   - coerce.go: Coercion from arbitrary Go values to uint64/int64/float64/int
//   - helpers.go: Checked span arithmetic and type naming for errors
//
// This package is internal to the layout package.
package abi
