package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	qb "github.com/riskibarqy/clash-tables/internal/platform/querybuilder"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const defaultPageSize = 500

var tableNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,62}$`)

var keyColumns = []string{"partition_key", "row_key"}

// Dialer opens Postgres-backed table services. Only connection strings are
// supported.
type Dialer struct {
	applicationName string
	pageSize        int
	logger          *logging.Logger
}

func NewDialer(applicationName string, pageSize int, logger *logging.Logger) *Dialer {
	if logger == nil {
		logger = logging.Default()
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Dialer{
		applicationName: applicationName,
		pageSize:        pageSize,
		logger:          logger.Named("postgres"),
	}
}

func (d *Dialer) DialConnectionString(ctx context.Context, dsn string) (table.Service, error) {
	dsn = normalizeDSN(dsn, d.applicationName)
	db, err := otelsqlx.Open("postgres", dsn, otelsql.WithDBName(dbNameFromDSN(dsn)))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", classify(err))
	}
	return NewService(db, d.pageSize, d.logger), nil
}

func (d *Dialer) DialSharedKey(context.Context, string, string) (table.Service, error) {
	return nil, fmt.Errorf("%w: postgres backend requires a connection string", table.ErrUnsupported)
}

type Service struct {
	db       *sqlx.DB
	pageSize int
	logger   *logging.Logger
}

func NewService(db *sqlx.DB, pageSize int, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Service{db: db, pageSize: pageSize, logger: logger}
}

func (s *Service) CreateTableIfNotExists(ctx context.Context, name string) (table.Client, error) {
	if !tableNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	ident := pq.QuoteIdentifier(name)
	query := createTableSQL(ident)
	s.logger.DebugContext(ctx, "ensure table", "query", formatQueryForLog(query))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return nil, fmt.Errorf("create table %s: %w", name, classify(err))
	}
	return &Client{db: s.db, table: ident, pageSize: s.pageSize, logger: s.logger}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

func createTableSQL(ident string) string {
	return `CREATE TABLE IF NOT EXISTS ` + ident + ` (
    partition_key TEXT NOT NULL,
    row_key TEXT NOT NULL,
    properties JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (partition_key, row_key)
)`
}

type Client struct {
	db       *sqlx.DB
	table    string
	pageSize int
	logger   *logging.Logger
}

func (c *Client) CreateEntity(ctx context.Context, row table.Row) error {
	return c.insert(ctx, row, false)
}

func (c *Client) UpsertEntity(ctx context.Context, row table.Row) error {
	return c.insert(ctx, row, true)
}

func (c *Client) insert(ctx context.Context, row table.Row, upsert bool) error {
	model, err := toTableModel(row)
	if err != nil {
		return fmt.Errorf("encode row %s: %w", row.Key(), err)
	}
	b := qb.InsertInto(c.table).
		Set("partition_key", model.PartitionKey).
		Set("row_key", model.RowKey).
		Set("properties", string(model.Properties))
	if upsert {
		b = b.OnConflict(keyColumns...).DoUpdate("properties").Touch("updated_at")
	}
	query, args, err := b.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert row query: %w", err)
	}
	c.logger.DebugContext(ctx, "insert row", "query", formatQueryForLog(query), "key", row.Key().String())
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err)
	}
	return nil
}

func (c *Client) GetEntity(ctx context.Context, partitionKey, rowKey string, projection []string) (table.Row, error) {
	query, args, err := qb.Select(rowSelectColumns...).From(c.table).
		Where(
			qb.Eq("partition_key", partitionKey),
			qb.Eq("row_key", rowKey),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return table.Row{}, fmt.Errorf("build get row query: %w", err)
	}

	var model rowTableModel
	if err := c.db.GetContext(ctx, &model, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return table.Row{}, table.ErrNotFound
		}
		return table.Row{}, classify(err)
	}
	row, err := model.toRow()
	if err != nil {
		return table.Row{}, fmt.Errorf("decode row %s|%s: %w", partitionKey, rowKey, err)
	}
	return row.Project(projection), nil
}

func (c *Client) QueryEntities(ctx context.Context, filter table.Filter, projection []string, pageToken string) (table.Page, error) {
	query, args, err := buildQuery(c.table, filter, pageToken, c.pageSize)
	if err != nil {
		return table.Page{}, err
	}
	c.logger.DebugContext(ctx, "query rows", "query", formatQueryForLog(query), "filter", filter.String())

	var models []rowTableModel
	if err := c.db.SelectContext(ctx, &models, query, args...); err != nil {
		return table.Page{}, classify(err)
	}

	page := table.Page{Rows: make([]table.Row, 0, min(len(models), c.pageSize))}
	for i, model := range models {
		if i == c.pageSize {
			last := page.Rows[len(page.Rows)-1]
			page.NextToken = table.EncodeCursor(last.Key())
			break
		}
		row, err := model.toRow()
		if err != nil {
			return table.Page{}, fmt.Errorf("decode row %s|%s: %w", model.PartitionKey, model.RowKey, err)
		}
		page.Rows = append(page.Rows, row.Project(projection))
	}
	return page, nil
}

// buildQuery fetches one row past the page size so the caller can tell
// whether another page exists.
func buildQuery(tableIdent string, filter table.Filter, pageToken string, pageSize int) (string, []any, error) {
	conditions := make([]qb.Condition, 0, len(filter)+2)
	properties := make(map[string]any)
	for _, cond := range filter {
		switch cond.Column {
		case table.ColumnPartitionKey:
			conditions = append(conditions, qb.Eq("partition_key", cond.Value))
		case table.ColumnRowKey:
			conditions = append(conditions, qb.Eq("row_key", cond.Value))
		default:
			properties[cond.Column] = cond.Value
		}
	}
	if len(properties) > 0 {
		doc, err := sonic.MarshalString(properties)
		if err != nil {
			return "", nil, fmt.Errorf("encode property filter: %w", err)
		}
		conditions = append(conditions, qb.Contains("properties", doc))
	}
	if key, ok := table.DecodeCursor(pageToken); ok {
		conditions = append(conditions, qb.After(keyColumns, key.PartitionKey, key.RowKey))
	}

	query, args, err := qb.Select(rowSelectColumns...).From(tableIdent).
		Where(conditions...).
		OrderBy(keyColumns...).
		Limit(pageSize + 1).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build query rows query: %w", err)
	}
	return query, args, nil
}
