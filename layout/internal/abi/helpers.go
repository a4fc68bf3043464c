package abi

import (
	"math"
	"reflect"
)

// SafeMul multiplies two non-negative spans, reporting overflow.
func SafeMul(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if b != 0 && a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// SafeAdd adds two non-negative spans, reporting overflow.
func SafeAdd(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// InBounds reports whether span bytes at offset fit inside a buffer of length n.
func InBounds(offset, span, n int) bool {
	return offset >= 0 && span >= 0 && offset <= n && span <= n-offset
}
