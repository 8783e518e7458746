package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// Normalize converts one raw JSON record into a typed Product row.
// Pure function of its input: no side effects, no I/O.
//
// Validation rules:
//   - "id" must be present and coercible to an integer (JSON number or a
//     numeric string); otherwise the record is rejected.
//   - "price" is optional, but when present it must be a non-negative JSON
//     number; otherwise the record is rejected.
//   - "name", "url_key", "description" are best-effort: missing or
//     non-string values become NULL.
//   - "images" is coerced to an ordered list of strings; a non-list value
//     becomes an empty list and non-string entries are dropped silently.
//
// Rejections are returned as *tikiload.MalformedRecordError carrying the
// source file and record index.
func Normalize(raw json.RawMessage, sourceFile string, index int, now time.Time) (tikiload.Product, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return tikiload.Product{}, &tikiload.MalformedRecordError{
			File:   sourceFile,
			Index:  index,
			Reason: "record is not a JSON object",
		}
	}

	id, ok := coerceID(obj["id"])
	if !ok {
		return tikiload.Product{}, &tikiload.MalformedRecordError{
			File:   sourceFile,
			Index:  index,
			Reason: "missing or invalid 'id'",
		}
	}

	price, err := coercePrice(obj["price"])
	if err != nil {
		return tikiload.Product{}, &tikiload.MalformedRecordError{
			File:   sourceFile,
			Index:  index,
			Reason: err.Error(),
		}
	}

	return tikiload.Product{
		ID:          id,
		Name:        optionalString(obj["name"]),
		URLKey:      optionalString(obj["url_key"]),
		Description: optionalString(obj["description"]),
		Price:       price,
		Images:      coerceImages(obj["images"]),
		SourceFile:  sourceFile,
		IngestedAt:  now,
	}, nil
}

// coerceID accepts a JSON number (truncated toward zero when fractional)
// or a string holding a base-10 integer.
func coerceID(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if id, err := n.Int64(); err == nil {
			return id, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func coercePrice(v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return nil, fmt.Errorf("wrong type for 'price': %T", v)
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid 'price': %s", n.String())
	}
	if f < 0 {
		return nil, fmt.Errorf("negative 'price': %s", n.String())
	}
	return &f, nil
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// coerceImages keeps only string entries, preserving their order. Non-list
// values and non-string entries are dropped silently; this is documented
// lossy behavior rather than a record failure.
func coerceImages(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	images := make([]string, 0, len(list))
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			images = append(images, s)
		}
	}
	return images
}
