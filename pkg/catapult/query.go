package catapult

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// queryTimeLayout is ISO-8601 in UTC with seven fractional digits, the
// format the API echoes back for date filters.
const queryTimeLayout = "2006-01-02T15:04:05.0000000Z"

// Param is one query-string parameter.
type Param struct {
	Name  string
	Value any
}

// Query is an ordered list of query-string parameters. Encode keeps the
// declaration order.
type Query []Param

// Add returns q with one more parameter.
func (q Query) Add(name string, value any) Query {
	return append(q, Param{Name: name, Value: value})
}

// Encode renders the query string without the leading '?'.
//
// Nil values, nil pointers, zero times and empty strings are omitted.
// Times are converted to UTC. Names have their first letter lowercased and
// values are percent-encoded.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range q {
		v, ok := formatQueryValue(p.Value)
		if !ok || v == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escapeQuery(lowerFirst(p.Name)))
		b.WriteByte('=')
		b.WriteString(escapeQuery(v))
	}
	return b.String()
}

func formatQueryValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		elem := rv.Elem().Interface()
		// Pointer-receiver Stringers like *url.URL.
		if _, ok := elem.(fmt.Stringer); !ok {
			if s, ok := v.(fmt.Stringer); ok {
				return s.String(), true
			}
		}
		return formatQueryValue(elem)
	}
	switch t := v.(type) {
	case string:
		return t, true
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.UTC().Format(queryTimeLayout), true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// escapeQuery percent-encodes s, spaces included.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// positive maps non-positive counters to "unset".
func positive(n int) any {
	if n > 0 {
		return n
	}
	return nil
}

// PageQuery selects a page of a list endpoint. Pages start at 0.
type PageQuery struct {
	Page int
	Size int
}

// Params returns the query parameters.
func (q PageQuery) Params() Query {
	return Query{
		{"page", positive(q.Page)},
		{"size", positive(q.Size)},
	}
}
