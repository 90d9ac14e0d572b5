package synapse

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ValueType is the declared type of an annotation on the wire.
type ValueType string

const (
	TypeString    ValueType = "STRING"
	TypeBoolean   ValueType = "BOOLEAN"
	TypeLong      ValueType = "LONG"
	TypeDouble    ValueType = "DOUBLE"
	TypeTimestamp ValueType = "TIMESTAMP_MS"
)

// Value is one annotation in wire form: a type tag and every value rendered
// as a string.
type Value struct {
	Type  ValueType `json:"type"`
	Value []string  `json:"value"`
}

// Record is an annotation set as held by the caller. Annotations values may
// be strings, bools, integers, floats, time.Time, or slices of one of those.
type Record struct {
	ID          string
	Etag        string
	Annotations map[string]any
}

// Annotations is the annotations2 resource, used as both request body and
// response.
type Annotations struct {
	ID          string           `json:"id"`
	Etag        string           `json:"etag"`
	Annotations map[string]Value `json:"annotations"`
}

var timeType = reflect.TypeOf(time.Time{})

// ToWire converts caller annotations to wire form. Scalars become one-element
// lists. A list is typed BOOLEAN, LONG, DOUBLE or TIMESTAMP_MS only when every
// element fits; integers mixed with floats are DOUBLE and anything else falls
// back to STRING.
func ToWire(in map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(in))
	for name, v := range in {
		elems, err := flatten(v)
		if err != nil {
			return nil, errors.Wrapf(err, "annotation %q", name)
		}
		out[name] = convert(elems)
	}
	return out, nil
}

func flatten(v any) ([]reflect.Value, error) {
	if v == nil {
		return nil, errors.New("nil value")
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == timeType || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		if err := checkScalar(rv); err != nil {
			return nil, err
		}
		return []reflect.Value{rv}, nil
	}

	elems := make([]reflect.Value, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		e := rv.Index(i)
		if e.Kind() == reflect.Interface {
			if e.IsNil() {
				return nil, errors.Newf("nil element at index %d", i)
			}
			e = e.Elem()
		}
		if e.Type() != timeType && (e.Kind() == reflect.Slice || e.Kind() == reflect.Array) {
			return nil, errors.Newf("nested list at index %d", i)
		}
		if err := checkScalar(e); err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		elems = append(elems, e)
	}
	return elems, nil
}

func checkScalar(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer, reflect.Invalid:
		return errors.Newf("unsupported value of type %s", v.Type())
	}
	return nil
}

func convert(elems []reflect.Value) Value {
	switch {
	case len(elems) == 0:
		return Value{Type: TypeString, Value: []string{}}
	case lo.EveryBy(elems, isBool):
		return Value{Type: TypeBoolean, Value: lo.Map(elems, func(e reflect.Value, _ int) string {
			return strconv.FormatBool(e.Bool())
		})}
	case lo.EveryBy(elems, isInt):
		return Value{Type: TypeLong, Value: lo.Map(elems, func(e reflect.Value, _ int) string {
			return formatInt(e)
		})}
	case lo.EveryBy(elems, isNumber):
		return Value{Type: TypeDouble, Value: lo.Map(elems, func(e reflect.Value, _ int) string {
			if isInt(e) {
				return formatInt(e)
			}
			return formatFloat(e.Float())
		})}
	case lo.EveryBy(elems, isTime):
		return Value{Type: TypeTimestamp, Value: lo.Map(elems, func(e reflect.Value, _ int) string {
			return strconv.FormatInt(e.Interface().(time.Time).UnixMilli(), 10)
		})}
	default:
		return Value{Type: TypeString, Value: lo.Map(elems, func(e reflect.Value, _ int) string {
			return fmt.Sprint(e.Interface())
		})}
	}
}

func isBool(v reflect.Value) bool { return v.Kind() == reflect.Bool }

func isTime(v reflect.Value) bool { return v.Type() == timeType }

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func formatInt(v reflect.Value) string {
	if v.CanInt() {
		return strconv.FormatInt(v.Int(), 10)
	}
	return strconv.FormatUint(v.Uint(), 10)
}

// formatFloat renders the spellings Java's Double.parseDouble accepts.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FromWire converts wire annotations back to Go values: string, bool, int64,
// float64 or time.Time (UTC). Single-element lists become scalars; other
// lengths become []any.
func FromWire(in map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for name, wv := range in {
		vals := make([]any, 0, len(wv.Value))
		for _, s := range wv.Value {
			v, err := parseWire(wv.Type, s)
			if err != nil {
				return nil, errors.Wrapf(err, "annotation %q", name)
			}
			vals = append(vals, v)
		}
		if len(vals) == 1 {
			out[name] = vals[0]
		} else {
			out[name] = vals
		}
	}
	return out, nil
}

func parseWire(t ValueType, s string) (any, error) {
	switch t {
	case TypeString:
		return s, nil
	case TypeBoolean:
		return strconv.ParseBool(s)
	case TypeLong:
		return strconv.ParseInt(s, 10, 64)
	case TypeDouble:
		switch s {
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return strconv.ParseFloat(s, 64)
	case TypeTimestamp:
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return nil, errors.Newf("unknown annotation type %q", t)
	}
}
