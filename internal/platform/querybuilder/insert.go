package querybuilder

import (
	"fmt"
	"strings"
)

// InsertBuilder renders a single-row insert. With OnConflict set a duplicate
// key either updates the listed columns or, with none listed, is ignored.
type InsertBuilder struct {
	table    string
	columns  []string
	values   []any
	conflict []string
	update   []string
	touch    []string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// Set appends one column value pair.
func (b *InsertBuilder) Set(column string, value any) *InsertBuilder {
	b.columns = append(b.columns, column)
	b.values = append(b.values, value)
	return b
}

func (b *InsertBuilder) OnConflict(keys ...string) *InsertBuilder {
	b.conflict = append([]string(nil), keys...)
	return b
}

// DoUpdate replaces columns with the incoming values on conflict.
func (b *InsertBuilder) DoUpdate(columns ...string) *InsertBuilder {
	b.update = append(b.update, columns...)
	return b
}

// Touch sets columns to NOW() on conflict.
func (b *InsertBuilder) Touch(columns ...string) *InsertBuilder {
	b.touch = append(b.touch, columns...)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.conflict) == 0 && (len(b.update) > 0 || len(b.touch) > 0) {
		return "", nil, fmt.Errorf("conflict update requires conflict keys")
	}

	var buf strings.Builder
	p := &params{values: make([]any, 0, len(b.values))}
	placeholders := make([]string, len(b.values))
	for i, v := range b.values {
		placeholders[i] = p.add(v)
	}
	fmt.Fprintf(&buf, "INSERT INTO %s (%s) VALUES (%s)", b.table, strings.Join(b.columns, ", "), strings.Join(placeholders, ", "))

	if len(b.conflict) == 0 {
		return buf.String(), p.values, nil
	}
	fmt.Fprintf(&buf, " ON CONFLICT (%s)", strings.Join(b.conflict, ", "))
	if len(b.update) == 0 && len(b.touch) == 0 {
		buf.WriteString(" DO NOTHING")
		return buf.String(), p.values, nil
	}
	assignments := make([]string, 0, len(b.update)+len(b.touch))
	for _, col := range b.update {
		assignments = append(assignments, col+" = EXCLUDED."+col)
	}
	for _, col := range b.touch {
		assignments = append(assignments, col+" = NOW()")
	}
	buf.WriteString(" DO UPDATE SET ")
	buf.WriteString(strings.Join(assignments, ", "))
	return buf.String(), p.values, nil
}
