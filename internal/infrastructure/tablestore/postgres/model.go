package postgres

import (
	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
)

var rowSelectColumns = []string{
	"partition_key",
	"row_key",
	"properties",
}

type rowTableModel struct {
	PartitionKey string `db:"partition_key"`
	RowKey       string `db:"row_key"`
	Properties   []byte `db:"properties"`
}

func toTableModel(row table.Row) (rowTableModel, error) {
	columns := row.Columns
	if columns == nil {
		columns = map[string]any{}
	}
	raw, err := sonic.Marshal(columns)
	if err != nil {
		return rowTableModel{}, err
	}
	return rowTableModel{
		PartitionKey: row.PartitionKey,
		RowKey:       row.RowKey,
		Properties:   raw,
	}, nil
}

func (m rowTableModel) toRow() (table.Row, error) {
	columns := map[string]any{}
	if len(m.Properties) > 0 {
		if err := sonic.Unmarshal(m.Properties, &columns); err != nil {
			return table.Row{}, err
		}
	}
	return table.Row{
		PartitionKey: m.PartitionKey,
		RowKey:       m.RowKey,
		Columns:      columns,
	}, nil
}
