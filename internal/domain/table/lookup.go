package table

import "context"

// Lookup identifies what an existence check looks for: an exact key, or any
// row matching a filter when the partition key is unknown before the fetch.
type Lookup struct {
	key    *Key
	filter Filter
}

func PointLookup(partitionKey, rowKey string) Lookup {
	return Lookup{key: &Key{PartitionKey: partitionKey, RowKey: rowKey}}
}

func RangeLookup(filter Filter) Lookup {
	return Lookup{filter: filter}
}

// Point returns the exact key of a point lookup.
func (l Lookup) Point() (Key, bool) {
	if l.key == nil {
		return Key{}, false
	}
	return *l.key, true
}

func (l Lookup) Filter() Filter {
	return l.filter
}

func (l Lookup) String() string {
	if l.key != nil {
		return l.key.String()
	}
	return l.filter.String()
}

// Writer is the write side of a table handler.
type Writer interface {
	TableName() string
	WriteRow(ctx context.Context, row Row) WriteResult
	WriteBatch(ctx context.Context, rows []Row) (BatchResult, error)
}

// ExistenceChecker reports whether a scrape can be skipped because its rows
// are already stored.
type ExistenceChecker interface {
	ShouldAbandon(ctx context.Context, lookup Lookup) bool
}
