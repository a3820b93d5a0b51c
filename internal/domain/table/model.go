package table

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

const (
	ColumnPartitionKey = "PartitionKey"
	ColumnRowKey       = "RowKey"
)

// Row is the persisted unit. Columns hold int64, float64, string, bool,
// time.Time or nil; PartitionKey and RowKey never appear in Columns.
type Row struct {
	PartitionKey string
	RowKey       string
	Columns      map[string]any
}

type Key struct {
	PartitionKey string
	RowKey       string
}

func (k Key) String() string {
	return k.PartitionKey + "|" + k.RowKey
}

func (r Row) Key() Key {
	return Key{PartitionKey: r.PartitionKey, RowKey: r.RowKey}
}

func (r Row) Validate() error {
	if strings.TrimSpace(r.PartitionKey) == "" {
		return fmt.Errorf("%w: partition key is empty", ErrInvalidRow)
	}
	if strings.TrimSpace(r.RowKey) == "" {
		return fmt.Errorf("%w: row key is empty", ErrInvalidRow)
	}
	return nil
}

// Value resolves a column, including the two key columns.
func (r Row) Value(column string) (any, bool) {
	switch column {
	case ColumnPartitionKey:
		return r.PartitionKey, true
	case ColumnRowKey:
		return r.RowKey, true
	}
	v, ok := r.Columns[column]
	return v, ok
}

// Project keeps only the named columns. An empty projection keeps everything.
func (r Row) Project(columns []string) Row {
	out := Row{PartitionKey: r.PartitionKey, RowKey: r.RowKey}
	if len(columns) == 0 {
		out.Columns = maps.Clone(r.Columns)
		return out
	}
	out.Columns = make(map[string]any, len(columns))
	for _, column := range columns {
		if column == ColumnPartitionKey || column == ColumnRowKey {
			continue
		}
		if v, ok := r.Columns[column]; ok {
			out.Columns[column] = v
		}
	}
	return out
}

// Properties flattens the row into a single map including key columns.
func (r Row) Properties() map[string]any {
	out := make(map[string]any, len(r.Columns)+2)
	maps.Copy(out, r.Columns)
	out[ColumnPartitionKey] = r.PartitionKey
	out[ColumnRowKey] = r.RowKey
	return out
}

// RowFromProperties is the inverse of Properties.
func RowFromProperties(props map[string]any) Row {
	row := Row{Columns: make(map[string]any, len(props))}
	for k, v := range props {
		switch k {
		case ColumnPartitionKey:
			row.PartitionKey = stringValue(v)
		case ColumnRowKey:
			row.RowKey = stringValue(v)
		default:
			row.Columns[k] = v
		}
	}
	return row
}

// Condition is a single column equality.
type Condition struct {
	Column string
	Value  any
}

func Eq(column string, value any) Condition {
	return Condition{Column: column, Value: value}
}

// Filter is a conjunction of equality conditions.
type Filter []Condition

func Where(conditions ...Condition) Filter {
	return Filter(conditions)
}

// PartitionKey reports the partition pinned by the filter, if any.
func (f Filter) PartitionKey() (string, bool) {
	for _, c := range f {
		if c.Column == ColumnPartitionKey {
			return stringValue(c.Value), true
		}
	}
	return "", false
}

func (f Filter) Matches(row Row) bool {
	for _, c := range f {
		v, ok := row.Value(c.Column)
		if !ok || !ValuesEqual(v, c.Value) {
			return false
		}
	}
	return true
}

// String renders the filter in the table-service query syntax, for logs.
func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, c := range f {
		parts = append(parts, c.Column+" eq "+literal(c.Value))
	}
	return strings.Join(parts, " and ")
}

func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return "datetime'" + t.UTC().Format(time.RFC3339) + "'"
	default:
		return fmt.Sprint(t)
	}
}

// ValuesEqual compares column values across numeric widths, since backends
// decode numbers as float64 or int64 depending on their wire format.
func ValuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

type WriteOutcome int

const (
	OutcomeFailed WriteOutcome = iota
	OutcomeCreated
	OutcomeUpserted
	OutcomeDropped
)

func (o WriteOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpserted:
		return "upserted"
	case OutcomeDropped:
		return "dropped"
	default:
		return "failed"
	}
}

type WriteResult struct {
	Key      Key
	Outcome  WriteOutcome
	Attempts int
	Err      error
}

func (r WriteResult) Persisted() bool {
	return r.Outcome == OutcomeCreated || r.Outcome == OutcomeUpserted
}

type BatchResult struct {
	Created  int
	Upserted int
	Dropped  int
	Failed   int
	Results  []WriteResult
}

func (b *BatchResult) Add(r WriteResult) {
	switch r.Outcome {
	case OutcomeCreated:
		b.Created++
	case OutcomeUpserted:
		b.Upserted++
	case OutcomeDropped:
		b.Dropped++
	default:
		b.Failed++
	}
	b.Results = append(b.Results, r)
}

func (b BatchResult) Total() int {
	return len(b.Results)
}
