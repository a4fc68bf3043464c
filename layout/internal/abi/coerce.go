package abi

import "math"

// CoerceToUint64 handles JSON/YAML decoded numbers (float64, int) and other numeric types.
func CoerceToUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case int8:
		if v >= 0 {
			return uint64(v), true
		}
	case int16:
		if v >= 0 {
			return uint64(v), true
		}
	case int32:
		if v >= 0 {
			return uint64(v), true
		}
	case float64:
		if v >= 0 && v < 18446744073709551616.0 && v == math.Trunc(v) {
			return uint64(v), true
		}
	case float32:
		// Use float64 for range check to avoid precision loss
		f := float64(v)
		if f >= 0 && f < 18446744073709551616.0 && f == math.Trunc(f) {
			return uint64(f), true
		}
	case int:
		if v >= 0 {
			return uint64(v), true
		}
	case int64:
		if v >= 0 {
			return uint64(v), true
		}
	}
	return 0, false
}

func CoerceToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case float64:
		if v >= -9223372036854775808.0 && v < 9223372036854775808.0 && v == math.Trunc(v) {
			return int64(v), true
		}
	case float32:
		f := float64(v)
		if f >= -9223372036854775808.0 && f < 9223372036854775808.0 && f == math.Trunc(f) {
			return int64(f), true
		}
	}
	return 0, false
}

// CoerceToFloat64 accepts any Go numeric. Integers above 2^53 round.
func CoerceToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// CoerceToInt converts a decoded count or discriminant to a non-negative int.
func CoerceToInt(value any) (int, bool) {
	u, ok := CoerceToUint64(value)
	if !ok || u > math.MaxInt {
		return 0, false
	}
	return int(u), true
}
