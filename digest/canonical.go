package digest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrNotSerializable marks a value the canonical JSON form cannot represent.
var ErrNotSerializable = errors.New("value is not serializable")

// Canonical returns the canonical JSON encoding of v: object keys sorted
// bytewise at every nesting level, compact separators, no HTML escaping,
// numeric literals carried through unchanged. Two values that decode to the
// same JSON document always canonicalize to the same bytes regardless of
// original key order.
func Canonical(v interface{}) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	out, err := appendCanonical(make([]byte, 0, 256), normalized)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// normalize round trips v through encoding/json so arbitrary marshalable
// values (structs, typed maps, named slices) collapse into the generic
// JSON data model before ordering is applied. Numbers are kept as
// json.Number so their literals survive the trip.
func normalize(v interface{}) (interface{}, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}

	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	var normalized interface{}
	if err := dec.Decode(&normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	return normalized, nil
}

func appendCanonical(buf []byte, v interface{}) ([]byte, error) {
	switch tv := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if tv {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case json.Number:
		return append(buf, tv.String()...), nil
	case string:
		return appendJSONString(buf, tv)
	case []interface{}:
		buf = append(buf, '[')
		for i, item := range tv {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendCanonical(buf, item)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendJSONString(buf, k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, ':')
			buf, err = appendCanonical(buf, tv[k])
			if err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		return nil, fmt.Errorf("%w: unexpected type %T", ErrNotSerializable, v)
	}
}

// appendJSONString appends the JSON encoding of s without HTML escaping.
func appendJSONString(buf []byte, s string) ([]byte, error) {
	var sb bytes.Buffer
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	b := sb.Bytes()
	// Encoder.Encode terminates with a newline.
	return append(buf, b[:len(b)-1]...), nil
}
