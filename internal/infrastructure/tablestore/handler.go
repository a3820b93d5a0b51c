package tablestore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/cache"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/riskibarqy/clash-tables/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	reconnectFlightKey = "reconnect"
	// knownKeyCapacity bounds the keys remembered per table for one run.
	knownKeyCapacity = 200_000
)

type Config struct {
	TableName     string
	UpsertEnabled bool
	// RetryCount bounds reconnect-and-retry cycles after an auth failure.
	RetryCount   int
	RetryBackoff time.Duration
	Workers      int
}

var _ table.Writer = (*Handler)(nil)

// Handler owns the connection lifecycle for one table and exposes the
// write/read operations used by the scrapers. Auth failures trigger a
// reconnect that is shared by every in-flight caller.
type Handler struct {
	dialer table.Dialer
	creds  table.Credentials
	cfg    Config
	logger *logging.Logger

	mu         sync.Mutex
	current    *lease
	generation uint64

	flight resilience.SingleFlight[table.Client]
	known  *cache.Store[struct{}]
}

// lease pins a service while callers use a client obtained from it. A
// replaced service is closed once its last lease is released.
type lease struct {
	svc     table.Service
	client  table.Client
	refs    int
	retired bool
}

// retire marks l replaced and reports whether it can be closed now. Callers
// hold h.mu.
func (l *lease) retire() bool {
	if l == nil || l.retired {
		return false
	}
	l.retired = true
	return l.refs == 0
}

// NewHandler connects eagerly. A failed connection is logged and left for the
// first operation to retry.
func NewHandler(ctx context.Context, dialer table.Dialer, creds table.Credentials, cfg Config, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}

	h := &Handler{
		dialer: dialer,
		creds:  creds,
		cfg:    cfg,
		logger: logger.Named("tablestore").With("table", cfg.TableName),
		known:  cache.NewStore[struct{}](0, knownKeyCapacity),
	}

	if _, err := h.reconnect(ctx, 0); err != nil {
		h.logger.ErrorContext(ctx, "initial table store connection failed", "error", err)
	}
	return h
}

func (h *Handler) TableName() string {
	return h.cfg.TableName
}

// Connect opens a service handle, trying the connection string before the
// shared key pair.
func (h *Handler) Connect(ctx context.Context) (table.Service, error) {
	if !h.creds.HasConnectionString() && !h.creds.HasSharedKey() {
		h.logger.ErrorContext(ctx, "at least one of (account_name + access_key) or connection_string must contain a value")
		return nil, fmt.Errorf("%w: no credentials configured", table.ErrAuth)
	}

	var errs []error
	if h.creds.HasConnectionString() {
		h.logger.InfoContext(ctx, "connecting to table store via connection string")
		svc, err := h.dialer.DialConnectionString(ctx, h.creds.ConnectionString)
		if err == nil {
			return svc, nil
		}
		h.logger.WarnContext(ctx, "connection string dial failed", "error", err)
		errs = append(errs, err)
	}
	if h.creds.HasSharedKey() {
		h.logger.InfoContext(ctx, "connecting to table store via account name and access key", "account_name", h.creds.AccountName)
		svc, err := h.dialer.DialSharedKey(ctx, h.creds.AccountName, h.creds.AccessKey)
		if err == nil {
			return svc, nil
		}
		h.logger.WarnContext(ctx, "shared key dial failed", "error", err)
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	h.logger.ErrorContext(ctx, "all table store credential forms failed", "error", err)
	return nil, fmt.Errorf("%w: %w", table.ErrAuth, err)
}

func (h *Handler) EnsureTable(ctx context.Context, svc table.Service) (table.Client, error) {
	if svc == nil {
		return nil, table.ErrDisconnected
	}
	client, err := svc.CreateTableIfNotExists(ctx, h.cfg.TableName)
	if err != nil {
		return nil, fmt.Errorf("ensure table %s: %w", h.cfg.TableName, err)
	}
	return client, nil
}

// reconnect replaces the client unless another caller already did so since
// generation seen was observed.
func (h *Handler) reconnect(ctx context.Context, seen uint64) (table.Client, error) {
	client, err, _ := h.flight.Do(ctx, reconnectFlightKey, func(ctx context.Context) (table.Client, error) {
		h.mu.Lock()
		current, generation := h.current, h.generation
		h.mu.Unlock()
		if current != nil && generation != seen {
			return current.client, nil
		}

		svc, err := h.Connect(ctx)
		if err != nil {
			return nil, err
		}
		client, err := h.EnsureTable(ctx, svc)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}

		h.mu.Lock()
		old := h.current
		h.current = &lease{svc: svc, client: client}
		h.generation++
		closeOld := old.retire()
		h.mu.Unlock()

		if closeOld {
			_ = old.svc.Close()
		}
		h.logger.DebugContext(ctx, "table store connected", "generation", generation+1)
		return client, nil
	})
	return client, err
}

// acquire leases the current client. The returned release must be called
// once the caller is done with the client.
func (h *Handler) acquire() (table.Client, uint64, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	l := h.current
	if l == nil {
		return nil, h.generation, func() {}, table.ErrDisconnected
	}
	l.refs++
	return l.client, h.generation, func() { h.release(l) }, nil
}

func (h *Handler) release(l *lease) {
	h.mu.Lock()
	l.refs--
	closeNow := l.retired && l.refs == 0
	h.mu.Unlock()
	if closeNow {
		if err := l.svc.Close(); err != nil {
			h.logger.Warn("close replaced table store service", "error", err)
		}
	}
}

// Close releases the service handle. Callers still holding a client keep the
// service open until they finish.
func (h *Handler) Close() error {
	h.mu.Lock()
	l := h.current
	h.current = nil
	h.generation++
	closeNow := l.retire()
	h.mu.Unlock()
	if !closeNow {
		return nil
	}
	return l.svc.Close()
}

func isAuthFailure(err error) bool {
	return errors.Is(err, table.ErrAuth) || errors.Is(err, table.ErrDisconnected)
}

// withRetry runs fn against the current client, reconnecting and retrying on
// auth failures up to the configured bound.
func (h *Handler) withRetry(ctx context.Context, op string, fn func(context.Context, table.Client) error) error {
	var generation uint64
	retrier := resilience.Retrier{
		Retries:   h.cfg.RetryCount,
		Backoff:   resilience.LinearBackoff(h.cfg.RetryBackoff),
		Retryable: isAuthFailure,
		OnRetry: func(ctx context.Context, attempt int, err error) {
			h.logger.WarnContext(ctx, "table store auth failure, reconnecting", "operation", op, "attempt", attempt+1, "error", err)
			if _, reconnectErr := h.reconnect(ctx, generation); reconnectErr != nil {
				h.logger.WarnContext(ctx, "table store reconnect failed", "operation", op, "error", reconnectErr)
			}
		},
	}

	return retrier.Do(ctx, func(ctx context.Context, _ int) error {
		client, gen, release, err := h.acquire()
		generation = gen
		if err != nil {
			return err
		}
		defer release()
		return fn(ctx, client)
	})
}

// WriteRow creates the row, falling back to an upsert on conflict when the
// upsert policy is enabled. Rows are discarded after retries run out.
func (h *Handler) WriteRow(ctx context.Context, row table.Row) table.WriteResult {
	result := table.WriteResult{Key: row.Key()}
	if err := row.Validate(); err != nil {
		result.Err = err
		h.logger.ErrorContext(ctx, "discarding invalid row", "key", row.Key().String(), "error", err)
		return result
	}

	span := trace.SpanFromContext(ctx)
	err := h.withRetry(ctx, "write", func(ctx context.Context, client table.Client) error {
		result.Attempts++
		err := client.CreateEntity(ctx, row)
		if err == nil {
			result.Outcome = table.OutcomeCreated
			return nil
		}
		if !errors.Is(err, table.ErrConflict) {
			return err
		}

		if !h.cfg.UpsertEnabled {
			h.logger.WarnContext(ctx, "entity already exists, dropping row", "key", row.Key().String())
			result.Outcome = table.OutcomeDropped
			return nil
		}

		h.logger.DebugContext(ctx, "entity already exists, upserting", "key", row.Key().String())
		if err := client.UpsertEntity(ctx, row); err != nil {
			return err
		}
		result.Outcome = table.OutcomeUpserted
		return nil
	})
	if err != nil {
		result.Outcome = table.OutcomeFailed
		result.Err = err
		h.logger.ErrorContext(ctx, "discarding row after failed write", "key", row.Key().String(), "attempts", result.Attempts, "error", err)
		return result
	}

	h.known.Set(ctx, row.Key().String(), struct{}{})
	if span.IsRecording() {
		span.AddEvent("table.write", trace.WithAttributes(
			attribute.String("table.name", h.cfg.TableName),
			attribute.String("table.key", row.Key().String()),
			attribute.String("table.outcome", result.Outcome.String()),
		))
	}
	return result
}

// WriteBatch writes rows concurrently on a bounded pool. Every row is
// attempted regardless of the others; result order follows the input.
func (h *Handler) WriteBatch(ctx context.Context, rows []table.Row) (table.BatchResult, error) {
	var batch table.BatchResult
	if len(rows) == 0 {
		return batch, nil
	}

	workers := min(h.cfg.Workers, len(rows))
	pool, err := ants.NewPool(workers)
	if err != nil {
		return batch, fmt.Errorf("create write pool: %w", err)
	}
	defer pool.Release()

	results := make([]table.WriteResult, len(rows))
	var wg sync.WaitGroup
	for i, row := range rows {
		if ctxErr := ctx.Err(); ctxErr != nil {
			results[i] = table.WriteResult{Key: row.Key(), Err: ctxErr}
			continue
		}

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = h.writeIsolated(ctx, row)
		}); err != nil {
			wg.Done()
			results[i] = table.WriteResult{Key: row.Key(), Err: fmt.Errorf("submit row to write pool: %w", err)}
			h.logger.ErrorContext(ctx, "could not schedule row write", "key", row.Key().String(), "error", err)
		}
	}
	wg.Wait()

	for _, r := range results {
		batch.Add(r)
	}
	h.logger.InfoContext(ctx, "batch write finished",
		"rows", len(rows),
		"created", batch.Created,
		"upserted", batch.Upserted,
		"dropped", batch.Dropped,
		"failed", batch.Failed,
	)
	return batch, nil
}

func (h *Handler) writeIsolated(ctx context.Context, row table.Row) (result table.WriteResult) {
	defer func() {
		if r := recover(); r != nil {
			result = table.WriteResult{Key: row.Key(), Err: fmt.Errorf("panic writing row: %v", r)}
			h.logger.ErrorContext(ctx, "recovered panic while writing row", "key", row.Key().String(), "panic", r)
		}
	}()
	return h.WriteRow(ctx, row)
}

// GetRow returns table.ErrNotFound when the key is absent.
func (h *Handler) GetRow(ctx context.Context, partitionKey, rowKey string, projection ...string) (table.Row, error) {
	var row table.Row
	err := h.withRetry(ctx, "get", func(ctx context.Context, client table.Client) error {
		var err error
		row, err = client.GetEntity(ctx, partitionKey, rowKey, projection)
		return err
	})
	if err != nil {
		return table.Row{}, err
	}
	return row, nil
}

// QueryRows lazily walks every page of the filter's result. Each range over
// the returned sequence issues a fresh query.
func (h *Handler) QueryRows(ctx context.Context, filter table.Filter, projection ...string) iter.Seq2[table.Row, error] {
	return func(yield func(table.Row, error) bool) {
		token := ""
		for {
			var page table.Page
			err := h.withRetry(ctx, "query", func(ctx context.Context, client table.Client) error {
				var err error
				page, err = client.QueryEntities(ctx, filter, projection, token)
				return err
			})
			if err != nil {
				yield(table.Row{}, err)
				return
			}
			for _, row := range page.Rows {
				if !yield(row, nil) {
					return
				}
			}
			if page.NextToken == "" {
				return
			}
			token = page.NextToken
		}
	}
}

// Known reports whether this process already persisted or observed the key.
func (h *Handler) Known(ctx context.Context, key table.Key) bool {
	return h.known.Has(ctx, key.String())
}

func (h *Handler) remember(ctx context.Context, key table.Key) {
	h.known.Set(ctx, key.String(), struct{}{})
}
