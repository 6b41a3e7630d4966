package query

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/zarick1/natours/internal/errors"
)

// Kind is the value domain of a column. Filter values are checked and
// bound against it, so a mistyped value fails the request as invalid
// input instead of reaching Postgres as a type error.
type Kind int

const (
	Text Kind = iota
	Numeric
	Bool
)

// Col maps one exposed API field name to its SQL column expression and
// value kind. The zero Kind is Text.
type Col struct {
	Field string
	SQL   string
	Kind  Kind
}

// Columns is the per-entity allow-list driving SQL rendering. Fields the
// caller never registered can never reach a SQL clause: filters, sort keys
// and projections referencing them are rejected.
type Columns struct {
	id    string
	order []string
	sql   map[string]string
	kinds map[string]Kind
}

// NewColumns builds an allow-list. idField names the unique column used as
// the stable sort tiebreaker and must be one of cols; a mismatch is a
// programmer error and panics at startup.
func NewColumns(idField string, cols ...Col) Columns {
	c := Columns{
		id:    idField,
		sql:   make(map[string]string, len(cols)),
		kinds: make(map[string]Kind, len(cols)),
	}
	for _, col := range cols {
		if _, dup := c.sql[col.Field]; dup {
			panic(fmt.Sprintf("query: duplicate column field %q", col.Field))
		}
		c.sql[col.Field] = col.SQL
		c.kinds[col.Field] = col.Kind
		c.order = append(c.order, col.Field)
	}
	if _, ok := c.sql[idField]; !ok {
		panic(fmt.Sprintf("query: id field %q is not a registered column", idField))
	}
	return c
}

// Fields returns the registered API field names in declaration order.
func (c Columns) Fields() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c Columns) lookup(field string) (string, error) {
	col, ok := c.sql[field]
	if !ok {
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown field %q", field))
	}
	return col, nil
}

// Where renders the filter predicates as a SQL conjunction with positional
// placeholders starting at startArg. Values are bound according to the
// column's Kind; a value that does not fit the kind is rejected as invalid
// input. An empty filter set yields an empty clause.
func (s *Spec) Where(cols Columns, startArg int) (string, []any, error) {
	if len(s.Filters) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(s.Filters))
	args := make([]any, 0, len(s.Filters))
	for _, f := range s.Filters {
		col, err := cols.lookup(f.Field)
		if err != nil {
			return "", nil, err
		}
		arg, err := bindValue(cols.kinds[f.Field], f.Field, f.Value)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, fmt.Sprintf("%s %s $%d", col, f.Op, startArg+len(args)))
		args = append(args, arg)
	}
	return strings.Join(conds, " AND "), args, nil
}

// OrderBy renders the sort keys as a SQL ORDER BY expression. The id column
// is always appended ascending as a tiebreaker so pagination stays stable;
// with no sort keys at all the result is ascending id order.
func (s *Spec) OrderBy(cols Columns) (string, error) {
	terms := make([]string, 0, len(s.Sort)+1)
	idSeen := false
	for _, k := range s.Sort {
		col, err := cols.lookup(k.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
		if k.Field == cols.id {
			idSeen = true
		}
	}
	if !idSeen {
		terms = append(terms, cols.sql[cols.id]+" ASC")
	}
	return strings.Join(terms, ", "), nil
}

// ValidateFields checks the requested projection against the allow-list so
// a bad field name fails the request up front instead of silently vanishing
// from the response.
func (s *Spec) ValidateFields(cols Columns) error {
	for _, f := range s.Fields {
		if _, err := cols.lookup(f); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every field the spec references, filters and sort keys
// included, so a request naming an unknown or disallowed column, or a
// filter value that does not fit the column's kind, fails before any SQL
// is built.
func (s *Spec) Validate(cols Columns) error {
	for _, f := range s.Filters {
		if _, err := cols.lookup(f.Field); err != nil {
			return err
		}
		if _, err := bindValue(cols.kinds[f.Field], f.Field, f.Value); err != nil {
			return err
		}
	}
	for _, k := range s.Sort {
		if _, err := cols.lookup(k.Field); err != nil {
			return err
		}
	}
	return s.ValidateFields(cols)
}

// bindValue converts a raw filter value to the Go type matching the
// column's kind. Integers stay integral so Postgres compares them natively.
func bindValue(kind Kind, field, raw string) (any, error) {
	switch kind {
	case Numeric:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
		return nil, apperrors.InvalidInput(fmt.Sprintf("field %q requires a numeric value, got %q", field, raw))
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("field %q requires a boolean value, got %q", field, raw))
		}
		return b, nil
	default:
		return raw, nil
	}
}
