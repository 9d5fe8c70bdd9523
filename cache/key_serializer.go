package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

var timeType = reflect.TypeOf(time.Time{})

// KeySeparator defines the delimiter used between fingerprint segments.
const KeySeparator = ":"

// maxSegment is the longest rendered composite segment kept verbatim; longer
// segments are replaced by their xxhash digest.
const maxSegment = 64

// defaultKeySerializer builds fingerprints such as "profile:42:full".
// Scalars are rendered verbatim so substring invalidation by entity and id
// keeps working. Composite values (slices, maps, structs) are rendered
// deterministically and hashed once they grow past maxSegment.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey joins namespace and the serialized args with KeySeparator.
// Empty string args are skipped so optional parameters do not leave "::".
func (s *defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	if namespace != "" {
		parts = append(parts, namespace)
	}

	for _, arg := range args {
		if str, ok := arg.(string); ok && str == "" {
			continue
		}
		parts = append(parts, s.segment(arg))
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) segment(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "nil"
		}
		rv = rv.Elem()
	}

	if isScalar(rv.Kind()) {
		return scalar(rv)
	}

	if rv.Type() == timeType {
		return s.render(rv)
	}

	if str, ok := v.(fmt.Stringer); ok {
		return str.String()
	}

	rendered := s.render(rv)
	if len(rendered) > maxSegment {
		return "h" + strconv.FormatUint(xxhash.Sum64String(rendered), 16)
	}
	return rendered
}

// render produces a deterministic representation of composite values.
func (s *defaultKeySerializer) render(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.render(rv.Elem())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "[]"
		}
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = s.render(rv.Index(i))
		}
		return "[" + strings.Join(parts, ",") + "]"

	case reflect.Map:
		if rv.IsNil() {
			return "{}"
		}
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, s.render(iter.Key())+"="+s.render(iter.Value()))
		}
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ",") + "}"

	case reflect.Struct:
		if rv.Type() == timeType && rv.CanInterface() {
			return rv.Interface().(time.Time).UTC().Format(time.RFC3339Nano)
		}
		rt := rv.Type()
		parts := make([]string, 0, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			fv := rv.Field(i)
			if fv.IsZero() {
				continue
			}
			parts = append(parts, fieldName(field)+"="+s.render(fv))
		}
		return "{" + strings.Join(parts, ",") + "}"

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.Kind().String()

	default:
		if isScalar(rv.Kind()) {
			return scalar(rv)
		}
		return jsonFallback(rv)
	}
}

func fieldName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

func isScalar(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func scalar(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	default:
		return strconv.FormatInt(rv.Int(), 10)
	}
}

func jsonFallback(rv reflect.Value) string {
	if !rv.CanInterface() {
		return rv.Type().String()
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return rv.Type().String()
	}
	return string(data)
}
