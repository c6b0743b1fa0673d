package hrapi

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"
)

// countKeys are the numeric fields probed, in order, when data is an object.
var countKeys = []string{"count", "total", "unreadCount", "pending"}

// listKeys are the array fields probed when no numeric field is present.
var listKeys = []string{"items", "rows", "data"}

// Count fetches path and reduces the envelope data to a single count.
func (s *Session) Count(ctx context.Context, path string, query url.Values) (int, error) {
	data, err := s.Get(ctx, path, query)
	if err != nil {
		return 0, err
	}
	return CountFromData(data), nil
}

// CountFromData reads a count out of an envelope's data:
//   - an array counts its elements
//   - a number is taken as is
//   - an object yields the first numeric count/total/unreadCount/pending field,
//     or else the length of its items/rows/data array
//
// Anything else counts as 0. Negative values are clamped to 0.
func CountFromData(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	r := gjson.ParseBytes(data)

	n := 0
	switch {
	case r.IsArray():
		n = len(r.Array())
	case r.Type == gjson.Number:
		n = int(r.Int())
	case r.IsObject():
		n = countObject(r)
	}
	if n < 0 {
		return 0
	}
	return n
}

func countObject(r gjson.Result) int {
	for _, k := range countKeys {
		if v := r.Get(k); v.Type == gjson.Number {
			return int(v.Int())
		}
	}
	for _, k := range listKeys {
		if v := r.Get(k); v.IsArray() {
			return len(v.Array())
		}
	}
	return 0
}
