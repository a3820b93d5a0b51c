package tablestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore/memory"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/riskibarqy/clash-tables/internal/platform/resilience"
)

type fakeDialer struct {
	store       *memory.Store
	connErr     error
	sharedErr   error
	connDials   atomic.Int32
	sharedDials atomic.Int32
	wrap        func(table.Client) table.Client
}

func (d *fakeDialer) DialConnectionString(_ context.Context, _ string) (table.Service, error) {
	d.connDials.Add(1)
	if d.connErr != nil {
		return nil, d.connErr
	}
	return fakeService{d: d}, nil
}

func (d *fakeDialer) DialSharedKey(_ context.Context, _, _ string) (table.Service, error) {
	d.sharedDials.Add(1)
	if d.sharedErr != nil {
		return nil, d.sharedErr
	}
	return fakeService{d: d}, nil
}

type fakeService struct {
	d *fakeDialer
}

func (s fakeService) CreateTableIfNotExists(ctx context.Context, name string) (table.Client, error) {
	client, err := s.d.store.CreateTableIfNotExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.d.wrap != nil {
		return s.d.wrap(client), nil
	}
	return client, nil
}

func (s fakeService) Close() error { return nil }

type flakyClient struct {
	table.Client
	authFailures *atomic.Int32
	panicKey     string
	failKey      string
}

func (c flakyClient) authFailure() error {
	if c.authFailures != nil && c.authFailures.Add(-1) >= 0 {
		return fmt.Errorf("%w: token expired", table.ErrAuth)
	}
	return nil
}

func (c flakyClient) CreateEntity(ctx context.Context, row table.Row) error {
	if err := c.authFailure(); err != nil {
		return err
	}
	if row.PartitionKey == c.panicKey {
		panic("simulated write failure")
	}
	if row.PartitionKey == c.failKey {
		return errors.New("simulated backend error")
	}
	return c.Client.CreateEntity(ctx, row)
}

func (c flakyClient) GetEntity(ctx context.Context, pk, rk string, projection []string) (table.Row, error) {
	if err := c.authFailure(); err != nil {
		return table.Row{}, err
	}
	return c.Client.GetEntity(ctx, pk, rk, projection)
}

func (c flakyClient) QueryEntities(ctx context.Context, filter table.Filter, projection []string, token string) (table.Page, error) {
	if err := c.authFailure(); err != nil {
		return table.Page{}, err
	}
	return c.Client.QueryEntities(ctx, filter, projection, token)
}

var connCreds = table.Credentials{ConnectionString: "Endpoint=memory"}

func newTestHandler(t *testing.T, dialer *fakeDialer, creds table.Credentials, cfg Config) *Handler {
	t.Helper()
	if cfg.TableName == "" {
		cfg.TableName = "clans"
	}
	return NewHandler(context.Background(), dialer, creds, cfg, logging.NewNop())
}

func storedRows(t *testing.T, store *memory.Store, name string) []table.Row {
	t.Helper()
	tbl, ok := store.Table(name)
	if !ok {
		return nil
	}
	return tbl.Rows()
}

func clanRow(points int64) table.Row {
	return table.Row{PartitionKey: "2PP", RowKey: "2024-05-15", Columns: map[string]any{"Points": points}}
}

func TestHandler_ConnectPrefersConnectionString(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{store: memory.NewStore()}
	newTestHandler(t, dialer, table.Credentials{
		ConnectionString: "Endpoint=memory",
		AccountName:      "acct",
		AccessKey:        "key",
	}, Config{})

	if dialer.connDials.Load() != 1 || dialer.sharedDials.Load() != 0 {
		t.Fatalf("expected only connection string dial, got conn=%d shared=%d", dialer.connDials.Load(), dialer.sharedDials.Load())
	}
}

func TestHandler_ConnectFallsBackToSharedKey(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{store: memory.NewStore(), connErr: errors.New("malformed connection string")}
	h := newTestHandler(t, dialer, table.Credentials{
		ConnectionString: "garbage",
		AccountName:      "acct",
		AccessKey:        "key",
	}, Config{})

	if dialer.connDials.Load() != 1 || dialer.sharedDials.Load() != 1 {
		t.Fatalf("expected both dials, got conn=%d shared=%d", dialer.connDials.Load(), dialer.sharedDials.Load())
	}
	if res := h.WriteRow(context.Background(), clanRow(1)); res.Outcome != table.OutcomeCreated {
		t.Fatalf("expected write through shared key connection, got %s (%v)", res.Outcome, res.Err)
	}
}

func TestHandler_NoCredentialsFailsOperationsWithoutPanic(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{store: memory.NewStore()}
	h := newTestHandler(t, dialer, table.Credentials{}, Config{RetryCount: 2})

	res := h.WriteRow(context.Background(), clanRow(1))
	if res.Outcome != table.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", res.Outcome)
	}
	if !errors.Is(res.Err, table.ErrAuth) && !errors.Is(res.Err, table.ErrDisconnected) {
		t.Fatalf("expected auth-class error, got %v", res.Err)
	}
	if dialer.connDials.Load() != 0 || dialer.sharedDials.Load() != 0 {
		t.Fatalf("expected no dial attempts without credentials")
	}
}

func TestHandler_ConflictDroppedWhenUpsertDisabled(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	h := newTestHandler(t, &fakeDialer{store: store}, connCreds, Config{UpsertEnabled: false})
	ctx := context.Background()

	if res := h.WriteRow(ctx, clanRow(10)); res.Outcome != table.OutcomeCreated {
		t.Fatalf("expected created, got %s", res.Outcome)
	}
	if res := h.WriteRow(ctx, clanRow(20)); res.Outcome != table.OutcomeDropped || res.Err != nil {
		t.Fatalf("expected dropped without error, got %s (%v)", res.Outcome, res.Err)
	}

	rows := storedRows(t, store, "clans")
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(rows))
	}
	if rows[0].Columns["Points"] != int64(10) {
		t.Fatalf("expected first write to survive, got %v", rows[0].Columns["Points"])
	}
}

func TestHandler_ConflictUpsertedWhenEnabled(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	h := newTestHandler(t, &fakeDialer{store: store}, connCreds, Config{UpsertEnabled: true})
	ctx := context.Background()

	h.WriteRow(ctx, clanRow(10))
	if res := h.WriteRow(ctx, clanRow(20)); res.Outcome != table.OutcomeUpserted {
		t.Fatalf("expected upserted, got %s (%v)", res.Outcome, res.Err)
	}

	rows := storedRows(t, store, "clans")
	if len(rows) != 1 || rows[0].Columns["Points"] != int64(20) {
		t.Fatalf("expected one row holding the second write, got %+v", rows)
	}
}

func TestHandler_AuthFailureReconnectsWithinBudget(t *testing.T) {
	t.Parallel()

	var failures atomic.Int32
	failures.Store(3)
	store := memory.NewStore()
	dialer := &fakeDialer{store: store, wrap: func(c table.Client) table.Client {
		return flakyClient{Client: c, authFailures: &failures}
	}}
	h := newTestHandler(t, dialer, connCreds, Config{RetryCount: 3})

	res := h.WriteRow(context.Background(), clanRow(1))
	if res.Outcome != table.OutcomeCreated {
		t.Fatalf("expected created after retries, got %s (%v)", res.Outcome, res.Err)
	}
	if res.Attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", res.Attempts)
	}
	if got := dialer.connDials.Load(); got != 4 {
		t.Fatalf("expected initial dial plus 3 reconnects, got %d", got)
	}
	if len(storedRows(t, store, "clans")) != 1 {
		t.Fatalf("expected row to be persisted")
	}
}

func TestHandler_AuthFailureExhaustedDiscardsRow(t *testing.T) {
	t.Parallel()

	var failures atomic.Int32
	failures.Store(4)
	store := memory.NewStore()
	dialer := &fakeDialer{store: store, wrap: func(c table.Client) table.Client {
		return flakyClient{Client: c, authFailures: &failures}
	}}
	h := newTestHandler(t, dialer, connCreds, Config{RetryCount: 3})

	res := h.WriteRow(context.Background(), clanRow(1))
	if res.Outcome != table.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", res.Outcome)
	}
	if !errors.Is(res.Err, resilience.ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", res.Err)
	}
	if len(storedRows(t, store, "clans")) != 0 {
		t.Fatalf("expected row to be discarded")
	}
}

func TestHandler_WriteBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	dialer := &fakeDialer{store: store, wrap: func(c table.Client) table.Client {
		return flakyClient{Client: c, panicKey: "row-2", failKey: "row-4"}
	}}
	h := newTestHandler(t, dialer, connCreds, Config{TableName: "troops", Workers: 3})

	rows := make([]table.Row, 0, 6)
	for i := range 6 {
		rows = append(rows, table.Row{PartitionKey: fmt.Sprintf("row-%d", i), RowKey: "2024-05"})
	}

	batch, err := h.WriteBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if batch.Created != 4 || batch.Failed != 2 {
		t.Fatalf("expected 4 created and 2 failed, got %+v", batch)
	}
	if batch.Results[2].Outcome != table.OutcomeFailed || batch.Results[4].Outcome != table.OutcomeFailed {
		t.Fatalf("expected failures at input positions 2 and 4")
	}
	if got := len(storedRows(t, store, "troops")); got != 4 {
		t.Fatalf("expected 4 persisted rows, got %d", got)
	}
}

func TestHandler_WriteBatchStopsSubmittingAfterCancel(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	h := newTestHandler(t, &fakeDialer{store: store}, connCreds, Config{TableName: "troops", Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	batch, err := h.WriteBatch(ctx, []table.Row{{PartitionKey: "a", RowKey: "1"}, {PartitionKey: "b", RowKey: "1"}})
	if err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if batch.Failed != 2 {
		t.Fatalf("expected every row to fail after cancel, got %+v", batch)
	}
}

func TestHandler_GetRowNotFound(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeDialer{store: memory.NewStore()}, connCreds, Config{})
	if _, err := h.GetRow(context.Background(), "missing", "2024-05-15"); !errors.Is(err, table.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHandler_QueryRowsIsLazyAndRestartable(t *testing.T) {
	t.Parallel()

	store := memory.NewStore(memory.WithPageSize(2))
	h := newTestHandler(t, &fakeDialer{store: store}, connCreds, Config{TableName: "troops"})
	ctx := context.Background()
	for i := range 5 {
		h.WriteRow(ctx, table.Row{PartitionKey: fmt.Sprintf("%d_1", i), RowKey: "2024-05", Columns: map[string]any{"Name": "Barbarian"}})
	}

	seq := h.QueryRows(ctx, table.Where(table.Eq(table.ColumnRowKey, "2024-05"), table.Eq("Name", "Barbarian")))

	count := 0
	for _, err := range seq {
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Fatalf("expected 5 rows across pages, got %d", count)
	}

	first := 0
	for range seq {
		first++
		break
	}
	if first != 1 {
		t.Fatalf("expected early break to stop after one row")
	}
}

var errPoolClosed = errors.New("sql: database is closed")

// trackingDialer hands out a distinct service per dial so tests can observe
// which one a client came from and when it is closed.
type trackingDialer struct {
	store  *memory.Store
	create func(svc *trackedService, row table.Row) error

	mu       sync.Mutex
	services []*trackedService
}

func (d *trackingDialer) dial() *trackedService {
	d.mu.Lock()
	defer d.mu.Unlock()
	svc := &trackedService{d: d}
	d.services = append(d.services, svc)
	return svc
}

func (d *trackingDialer) service(i int) *trackedService {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.services[i]
}

func (d *trackingDialer) DialConnectionString(context.Context, string) (table.Service, error) {
	return d.dial(), nil
}

func (d *trackingDialer) DialSharedKey(context.Context, string, string) (table.Service, error) {
	return d.dial(), nil
}

type trackedService struct {
	d      *trackingDialer
	closed atomic.Bool
}

func (s *trackedService) CreateTableIfNotExists(ctx context.Context, name string) (table.Client, error) {
	client, err := s.d.store.CreateTableIfNotExists(ctx, name)
	if err != nil {
		return nil, err
	}
	return pooledClient{Client: client, svc: s}, nil
}

func (s *trackedService) Close() error {
	s.closed.Store(true)
	return nil
}

// pooledClient fails like a database/sql client whose pool was closed.
type pooledClient struct {
	table.Client
	svc *trackedService
}

func (c pooledClient) CreateEntity(ctx context.Context, row table.Row) error {
	if c.svc.closed.Load() {
		return errPoolClosed
	}
	if c.svc.d.create != nil {
		if err := c.svc.d.create(c.svc, row); err != nil {
			return err
		}
	}
	if c.svc.closed.Load() {
		return errPoolClosed
	}
	return c.Client.CreateEntity(ctx, row)
}

func waitForPartition(store *memory.Store, name, partitionKey string) error {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tbl, ok := store.Table(name); ok {
			for _, row := range tbl.Rows() {
				if row.PartitionKey == partitionKey {
					return nil
				}
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("row %s never reached table %s", partitionKey, name)
}

func TestHandler_ReconnectKeepsReplacedServiceOpenForInFlightWrites(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	dialer := &trackingDialer{store: store}

	slowEntered := make(chan struct{})
	var enterOnce sync.Once
	var authFailed atomic.Bool
	dialer.create = func(svc *trackedService, row table.Row) error {
		switch row.PartitionKey {
		case "SLOW":
			if svc != dialer.service(0) {
				return nil
			}
			enterOnce.Do(func() { close(slowEntered) })
			// Hold the first client until the sibling has reconnected and
			// written through the replacement.
			return waitForPartition(store, "clans", "FAST")
		case "FAST":
			if authFailed.CompareAndSwap(false, true) {
				<-slowEntered
				return fmt.Errorf("%w: password authentication failed", table.ErrAuth)
			}
		}
		return nil
	}

	h := NewHandler(context.Background(), dialer, connCreds, Config{TableName: "clans", RetryCount: 2, Workers: 2}, logging.NewNop())

	rows := []table.Row{
		{PartitionKey: "SLOW", RowKey: "2024-05-15", Columns: map[string]any{"Points": int64(1)}},
		{PartitionKey: "FAST", RowKey: "2024-05-15", Columns: map[string]any{"Points": int64(2)}},
	}
	batch, err := h.WriteBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if batch.Created != 2 || batch.Failed != 0 {
		for _, res := range batch.Results {
			t.Logf("%s: outcome=%s attempts=%d err=%v", res.Key, res.Outcome, res.Attempts, res.Err)
		}
		t.Fatalf("expected both rows created, got created=%d failed=%d", batch.Created, batch.Failed)
	}
	if got := len(storedRows(t, store, "clans")); got != 2 {
		t.Fatalf("expected 2 stored rows, got %d", got)
	}

	if !dialer.service(0).closed.Load() {
		t.Fatalf("expected replaced service to close once its last writer finished")
	}
	if dialer.service(1).closed.Load() {
		t.Fatalf("current service must stay open")
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close handler: %v", err)
	}
	if !dialer.service(1).closed.Load() {
		t.Fatalf("expected handler close to release the current service")
	}
}
