package encoder

import (
	"encoding/json"
	"math"
	"strconv"
)

type kind uint8

const (
	kindString kind = iota
	kindInt
	kindFloat
	kindBool
)

// Field is one scalar entry of an event's data object.
// Only the constructors below produce fields, so data can never hold a non-scalar value.
type Field struct {
	Key  string
	str  string
	num  int64
	flt  float64
	kind kind
}

// String is a quoted string field.
func String(key, v string) Field {
	return Field{Key: key, kind: kindString, str: v}
}

// Int is an unquoted integer field.
func Int(key string, v int) Field {
	return Field{Key: key, kind: kindInt, num: int64(v)}
}

// Int64 is an unquoted integer field.
func Int64(key string, v int64) Field {
	return Field{Key: key, kind: kindInt, num: v}
}

// Float is an unquoted floating point field. NaN and infinities encode as null.
func Float(key string, v float64) Field {
	return Field{Key: key, kind: kindFloat, flt: v}
}

// Bool is an unquoted boolean field.
func Bool(key string, v bool) Field {
	f := Field{Key: key, kind: kindBool}
	if v {
		f.num = 1
	}
	return f
}

// Value returns the field value as a Go scalar.
func (f Field) Value() any {
	switch f.kind {
	case kindString:
		return f.str
	case kindInt:
		return f.num
	case kindFloat:
		return f.flt
	default:
		return f.num == 1
	}
}

func (f Field) appendJSON(dst []byte) []byte {
	dst = appendString(dst, f.Key)
	dst = append(dst, ':')
	switch f.kind {
	case kindString:
		return appendString(dst, f.str)
	case kindInt:
		return strconv.AppendInt(dst, f.num, 10)
	case kindFloat:
		return appendFloat(dst, f.flt)
	default:
		return strconv.AppendBool(dst, f.num == 1)
	}
}

func appendString(dst []byte, s string) []byte {
	// json.Marshal never fails for a string.
	q, _ := json.Marshal(s)
	return append(dst, q...)
}

// appendFloat uses the same shortest-form rules as encoding/json, independent of locale.
func appendFloat(dst []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(dst, "null"...)
	}
	format := byte('f')
	if abs := math.Abs(v); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.AppendFloat(dst, v, format, -1, 64)
}
