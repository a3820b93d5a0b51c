// Package querybuilder renders the small set of Postgres statements the row
// store needs: keyset-paged selects and insert-or-update of keyed rows.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// params collects positional arguments and hands out their placeholders.
type params struct {
	values []any
}

func (p *params) add(v any) string {
	p.values = append(p.values, v)
	return "$" + strconv.Itoa(len(p.values))
}

type Condition interface {
	render(buf *strings.Builder, p *params)
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) render(buf *strings.Builder, p *params) {
	buf.WriteString(c.column)
	buf.WriteString(" = ")
	buf.WriteString(p.add(c.value))
}

type afterCondition struct {
	columns []string
	values  []any
}

// After renders a keyset pagination predicate: (a, b) > ($1, $2).
func After(columns []string, values ...any) Condition {
	return afterCondition{columns: columns, values: values}
}

func (c afterCondition) render(buf *strings.Builder, p *params) {
	if len(c.columns) == 0 || len(c.columns) != len(c.values) {
		buf.WriteString("1=0")
		return
	}
	buf.WriteString("(")
	buf.WriteString(strings.Join(c.columns, ", "))
	buf.WriteString(") > (")
	for i, v := range c.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(p.add(v))
	}
	buf.WriteString(")")
}

type containsCondition struct {
	column string
	doc    string
}

// Contains matches rows whose jsonb column contains doc.
func Contains(column, doc string) Condition {
	return containsCondition{column: column, doc: doc}
}

func (c containsCondition) render(buf *strings.Builder, p *params) {
	buf.WriteString(c.column)
	buf.WriteString(" @> ")
	buf.WriteString(p.add(c.doc))
	buf.WriteString("::jsonb")
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, columns...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var buf strings.Builder
	p := &params{values: make([]any, 0, len(b.where)+2)}
	fmt.Fprintf(&buf, "SELECT %s FROM %s", strings.Join(b.columns, ", "), b.table)
	for i, c := range b.where {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		c.render(&buf, p)
	}
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}
	return buf.String(), p.values, nil
}
