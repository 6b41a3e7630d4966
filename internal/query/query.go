package query

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/zarick1/natours/internal/errors"
)

// Reserved keys are never treated as filter fields.
const (
	keyPage   = "page"
	keySort   = "sort"
	keyLimit  = "limit"
	keyFields = "fields"
)

// Pagination defaults applied when the parameters are absent or unusable.
const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpGt  Op = ">"
	OpLte Op = "<="
	OpLt  Op = "<"
)

// operator suffixes accepted in bracket notation, e.g. price[gte]=500.
var ops = map[string]Op{
	"gte": OpGte,
	"gt":  OpGt,
	"lte": OpLte,
	"lt":  OpLt,
}

var bracketKey = regexp.MustCompile(`^([A-Za-z0-9_]+)\[([A-Za-z0-9_]+)\]$`)

// Filter is a single field/operator/value predicate.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// SortKey is one ordering term. A leading '-' in the raw parameter marks it
// descending.
type SortKey struct {
	Field string
	Desc  bool
}

// Spec is the structured query description built from raw query-string
// parameters. It describes a filter predicate set, an ordering, a field
// projection, and a page window; it never executes anything itself.
type Spec struct {
	Filters []Filter
	Sort    []SortKey
	Fields  []string
	Page    int
	Limit   int
}

// Offset returns the row offset implied by Page and Limit.
func (s *Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// Build translates raw query parameters into a Spec.
//
// Every key that is not one of the reserved keys (page, sort, limit, fields)
// becomes a filter predicate: plain keys are exact-match equality, bracketed
// keys (field[gte], field[gt], field[lte], field[lt]) become comparisons.
// An unrecognized operator suffix is rejected rather than passed through.
// Non-numeric or non-positive page/limit values fall back to the defaults.
func Build(params url.Values) (*Spec, error) {
	spec := &Spec{
		Page:  positiveIntOr(params.Get(keyPage), DefaultPage),
		Limit: positiveIntOr(params.Get(keyLimit), DefaultLimit),
	}

	for key, values := range params {
		switch key {
		case keyPage, keySort, keyLimit, keyFields:
			continue
		}

		field, op := key, OpEq
		if m := bracketKey.FindStringSubmatch(key); m != nil {
			known, ok := ops[m[2]]
			if !ok {
				return nil, apperrors.InvalidInput(
					fmt.Sprintf("unknown filter operator %q for field %q", m[2], m[1]))
			}
			field, op = m[1], known
		}

		for _, v := range values {
			spec.Filters = append(spec.Filters, Filter{Field: field, Op: op, Value: v})
		}
	}

	for _, raw := range splitList(params.Get(keySort)) {
		key := SortKey{Field: raw}
		if strings.HasPrefix(raw, "-") {
			key = SortKey{Field: raw[1:], Desc: true}
		}
		if key.Field == "" {
			continue
		}
		spec.Sort = append(spec.Sort, key)
	}

	spec.Fields = splitList(params.Get(keyFields))

	return spec, nil
}

func positiveIntOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
