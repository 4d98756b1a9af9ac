package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator delimits cache key segments in serialized form.
const KeySeparator = "::"

// maxSegmentLen bounds the serialized length of a single key segment.
// Longer segments (large filter maps, deep params) are replaced with an
// xxhash digest so store keys stay short and comparable without losing
// determinism.
const maxSegmentLen = 64

// defaultKeySerializer walks key segments with reflection, producing the
// same string for structurally equal values: map keys are sorted, slices
// serialized element-wise, structs by exported field, with JSON as the
// fallback for anything else.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer returns the serializer used when none is provided.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

func (s *defaultKeySerializer) SerializeKey(key Key) string {
	parts := make([]string, 0, len(key))
	for _, seg := range key {
		parts = append(parts, digestIfLong(s.segment(seg)))
	}
	return strings.Join(parts, KeySeparator)
}

// digestIfLong swaps oversized segments for a fixed-width hash.
func digestIfLong(s string) string {
	if len(s) <= maxSegmentLen {
		return s
	}
	return "x" + strconv.FormatUint(xxhash.Sum64String(s), 16)
}

func (s *defaultKeySerializer) segment(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.segment(rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			return "[]"
		}
		return s.sequence(rv)

	case reflect.Array:
		return s.sequence(rv)

	case reflect.Map:
		if rv.IsNil() {
			return "{}"
		}
		return s.sortedMap(rv)

	case reflect.Struct:
		return s.structFields(rv)

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return fmt.Sprintf("%v", v)

	case reflect.Func, reflect.Chan:
		// Not meaningful as key material; identity is the best we can do.
		return fmt.Sprintf("%s:%p", rv.Kind(), v)

	default:
		return s.jsonFallback(v)
	}
}

func (s *defaultKeySerializer) sequence(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.segment(rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// sortedMap serializes map entries in key-sorted order so iteration order
// never leaks into the cache key.
func (s *defaultKeySerializer) sortedMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.segment(iter.Key().Interface())+"="+s.segment(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}

func (s *defaultKeySerializer) structFields(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.segment(rv.Field(i).Interface()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "opaque:" + reflect.TypeOf(v).String()
	}
	return string(data)
}
