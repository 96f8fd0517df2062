package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidBody = errors.New("invalid request body")

// dateLayouts are tried in order; layouts without a zone are read in the service time zone.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Input holds request fields merged from the query string, form and JSON body (body wins).
type Input map[string]interface{}

// FromRequest collects every input field of r.
func FromRequest(r *http.Request) (Input, error) {
	in := Input{}
	for key, values := range r.URL.Query() {
		in.setValues(key, values)
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"),
		strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseForm(); err != nil {
			return nil, ErrInvalidBody
		}
		for key, values := range r.PostForm {
			in.setValues(key, values)
		}
	case r.Body != nil && r.Body != http.NoBody:
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, ErrInvalidBody
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return in, nil
		}
		body := map[string]interface{}{}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, ErrInvalidBody
		}
		for k, v := range body {
			in[k] = v
		}
	}
	return in, nil
}

// setValues maps `a=1` to a scalar and `a[]=1&a[]=2` or repeated keys to a list.
func (in Input) setValues(key string, values []string) {
	list := strings.HasSuffix(key, "[]")
	key = strings.TrimSuffix(key, "[]")
	if !list && len(values) == 1 {
		in[key] = values[0]
		return
	}
	items := make([]interface{}, 0, len(values))
	for _, v := range values {
		items = append(items, v)
	}
	in[key] = items
}

// Has reports whether field is present and non-empty.
func (in Input) Has(field string) bool {
	v, ok := in[field]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []interface{}:
		return len(t) > 0
	}
	return true
}

func (in Input) String(field string) string {
	switch t := in[field].(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return ""
}

// Int returns field as an integer, accepting JSON numbers and decimal strings.
func (in Input) Int(field string) (int64, bool) {
	return toInt(in[field])
}

// Uint returns field as a positive identifier.
func (in Input) Uint(field string) (uint, bool) {
	n, ok := toInt(in[field])
	if !ok || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

// UintSlice returns field as a list of positive identifiers.
func (in Input) UintSlice(field string) ([]uint, error) {
	items, ok := in[field].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s is not an array", field)
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		n, ok := toInt(item)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("%s contains an invalid identifier", field)
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}

// Time parses field as a date. Values without an offset are read in loc.
func (in Input) Time(field string, loc *time.Location) (time.Time, bool) {
	s, ok := in[field].(string)
	if !ok {
		return time.Time{}, false
	}
	return parseDate(strings.TrimSpace(s), loc)
}

// RawJSON returns field as a JSON document. Strings must contain valid JSON text;
// numbers, booleans, objects and arrays sent directly in a JSON body are re-encoded.
func (in Input) RawJSON(field string) ([]byte, bool) {
	switch t := in[field].(type) {
	case string:
		if !json.Valid([]byte(t)) {
			return nil, false
		}
		return []byte(t), true
	case json.Number, float64, bool, map[string]interface{}, []interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toInt(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
