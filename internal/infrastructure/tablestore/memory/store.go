package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/valyala/bytebufferpool"
)

const defaultPageSize = 1000

// Store is an in-process table service. Both dial methods return the same
// store, so every handler sharing it sees the same tables.
type Store struct {
	mu        sync.RWMutex
	tables    map[string]*Table
	outputDir string
	pageSize  int
}

type Option func(*Store)

// WithOutputDir dumps each table as JSON lines into dir on Close.
func WithOutputDir(dir string) Option {
	return func(s *Store) {
		s.outputDir = strings.TrimSpace(dir)
	}
}

func WithPageSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		tables:   make(map[string]*Table),
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) DialConnectionString(_ context.Context, _ string) (table.Service, error) {
	return s, nil
}

func (s *Store) DialSharedKey(_ context.Context, _, _ string) (table.Service, error) {
	return s, nil
}

func (s *Store) CreateTableIfNotExists(_ context.Context, name string) (table.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("table name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[name]; ok {
		return t, nil
	}
	t := &Table{name: name, rows: make(map[table.Key]table.Row), pageSize: s.pageSize}
	s.tables[name] = t
	return t, nil
}

// Table returns a table without creating it.
func (s *Store) Table(name string) (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

func (s *Store) Close() error {
	if s.outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", s.outputDir, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, t := range s.tables {
		if err := t.dump(filepath.Join(s.outputDir, name+".jsonl")); err != nil {
			return err
		}
	}
	return nil
}

type Table struct {
	name     string
	mu       sync.RWMutex
	rows     map[table.Key]table.Row
	pageSize int
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Rows returns a sorted snapshot.
func (t *Table) Rows() []table.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]table.Row, 0, len(t.rows))
	for _, key := range t.sortedKeysLocked() {
		out = append(out, t.rows[key].Project(nil))
	}
	return out
}

func (t *Table) CreateEntity(_ context.Context, row table.Row) error {
	if err := row.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[row.Key()]; ok {
		return fmt.Errorf("%w: table=%s key=%s", table.ErrConflict, t.name, row.Key())
	}
	t.rows[row.Key()] = row.Project(nil)
	return nil
}

func (t *Table) UpsertEntity(_ context.Context, row table.Row) error {
	if err := row.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[row.Key()] = row.Project(nil)
	return nil
}

func (t *Table) GetEntity(_ context.Context, partitionKey, rowKey string, projection []string) (table.Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[table.Key{PartitionKey: partitionKey, RowKey: rowKey}]
	if !ok {
		return table.Row{}, table.ErrNotFound
	}
	return row.Project(projection), nil
}

func (t *Table) QueryEntities(_ context.Context, filter table.Filter, projection []string, pageToken string) (table.Page, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	after, hasCursor := table.DecodeCursor(pageToken)
	var page table.Page
	for _, key := range t.sortedKeysLocked() {
		if hasCursor && !keyAfter(key, after) {
			continue
		}
		row := t.rows[key]
		if !filter.Matches(row) {
			continue
		}
		if len(page.Rows) == t.pageSize {
			page.NextToken = table.EncodeCursor(page.Rows[len(page.Rows)-1].Key())
			break
		}
		page.Rows = append(page.Rows, row.Project(projection))
	}
	return page, nil
}

func (t *Table) sortedKeysLocked() []table.Key {
	keys := make([]table.Key, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

func (t *Table) dump(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump file %s: %w", path, err)
	}
	defer f.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for _, row := range t.Rows() {
		line, err := sonic.Marshal(row.Properties())
		if err != nil {
			return fmt.Errorf("marshal row %s: %w", row.Key(), err)
		}
		_, _ = buf.Write(line)
		_ = buf.WriteByte('\n')
	}
	if _, err := buf.WriteTo(f); err != nil {
		return fmt.Errorf("write dump file %s: %w", path, err)
	}
	return nil
}

func compareKeys(a, b table.Key) int {
	if c := strings.Compare(a.PartitionKey, b.PartitionKey); c != 0 {
		return c
	}
	return strings.Compare(a.RowKey, b.RowKey)
}

func keyAfter(k, cursor table.Key) bool {
	return compareKeys(k, cursor) > 0
}
