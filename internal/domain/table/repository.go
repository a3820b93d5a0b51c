package table

import (
	"context"
	"strings"

	sonic "github.com/bytedance/sonic"
)

// Credentials carries both supported credential forms. The connection string
// is preferred when both are present.
type Credentials struct {
	ConnectionString string
	AccountName      string
	AccessKey        string
}

func (c Credentials) HasConnectionString() bool {
	return strings.TrimSpace(c.ConnectionString) != ""
}

func (c Credentials) HasSharedKey() bool {
	return strings.TrimSpace(c.AccountName) != "" && strings.TrimSpace(c.AccessKey) != ""
}

// Dialer opens a service handle for one credential form.
type Dialer interface {
	DialConnectionString(ctx context.Context, connectionString string) (Service, error)
	DialSharedKey(ctx context.Context, accountName, accessKey string) (Service, error)
}

type Service interface {
	CreateTableIfNotExists(ctx context.Context, name string) (Client, error)
	Close() error
}

// Client is bound to one table. CreateEntity fails with ErrConflict on a
// duplicate key and GetEntity with ErrNotFound on a miss; authentication
// failures carry ErrAuth.
type Client interface {
	CreateEntity(ctx context.Context, row Row) error
	UpsertEntity(ctx context.Context, row Row) error
	GetEntity(ctx context.Context, partitionKey, rowKey string, projection []string) (Row, error)
	QueryEntities(ctx context.Context, filter Filter, projection []string, pageToken string) (Page, error)
}

// Page is one slice of a query result. An empty NextToken ends the sequence.
type Page struct {
	Rows      []Row
	NextToken string
}

type cursor struct {
	PartitionKey string `json:"pk"`
	RowKey       string `json:"rk"`
}

// EncodeCursor turns the last key of a page into an opaque page token.
func EncodeCursor(k Key) string {
	raw, err := sonic.MarshalString(cursor{PartitionKey: k.PartitionKey, RowKey: k.RowKey})
	if err != nil {
		return ""
	}
	return raw
}

func DecodeCursor(token string) (Key, bool) {
	if strings.TrimSpace(token) == "" {
		return Key{}, false
	}
	var c cursor
	if err := sonic.UnmarshalString(token, &c); err != nil {
		return Key{}, false
	}
	return Key{PartitionKey: c.PartitionKey, RowKey: c.RowKey}, true
}
