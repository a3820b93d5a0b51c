package table

import (
	"errors"
	"testing"
)

func TestFilter_MatchesAcrossNumericWidths(t *testing.T) {
	t.Parallel()

	row := Row{
		PartitionKey: "4000000_3",
		RowKey:       "2024-05",
		Columns: map[string]any{
			"Name":          "Barbarian",
			"Level":         float64(3),
			"IsHomeVillage": true,
		},
	}

	filter := Where(Eq(ColumnRowKey, "2024-05"), Eq("Name", "Barbarian"), Eq("Level", int64(3)), Eq("IsHomeVillage", true))
	if !filter.Matches(row) {
		t.Fatalf("expected filter to match row")
	}
	if Where(Eq("IsHomeVillage", false)).Matches(row) {
		t.Fatalf("expected mismatching bool to fail")
	}
	if Where(Eq("Missing", "x")).Matches(row) {
		t.Fatalf("expected missing column to fail")
	}
}

func TestFilter_String(t *testing.T) {
	t.Parallel()

	got := Where(Eq(ColumnRowKey, "2024-05"), Eq("Name", "Giant's Hammer"), Eq("IsHomeVillage", true)).String()
	want := "RowKey eq '2024-05' and Name eq 'Giant''s Hammer' and IsHomeVillage eq true"
	if got != want {
		t.Fatalf("unexpected filter string:\n got=%s\nwant=%s", got, want)
	}
}

func TestFilter_PartitionKey(t *testing.T) {
	t.Parallel()

	if _, ok := Where(Eq("Name", "x")).PartitionKey(); ok {
		t.Fatalf("expected no pinned partition")
	}
	pk, ok := Where(Eq("Name", "x"), Eq(ColumnPartitionKey, "2PP")).PartitionKey()
	if !ok || pk != "2PP" {
		t.Fatalf("expected pinned partition 2PP, got %q ok=%v", pk, ok)
	}
}

func TestRow_ProjectAndProperties(t *testing.T) {
	t.Parallel()

	row := Row{PartitionKey: "2PP", RowKey: "2024-05-15", Columns: map[string]any{"Name": "Clan", "Level": int64(10)}}

	projected := row.Project([]string{ColumnPartitionKey})
	if len(projected.Columns) != 0 || projected.PartitionKey != "2PP" {
		t.Fatalf("unexpected projection: %+v", projected)
	}

	back := RowFromProperties(row.Properties())
	if back.Key() != row.Key() || back.Columns["Name"] != "Clan" {
		t.Fatalf("properties round trip lost data: %+v", back)
	}
}

func TestRow_Validate(t *testing.T) {
	t.Parallel()

	if err := (Row{RowKey: "05"}).Validate(); !errors.Is(err, ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}
	if err := (Row{PartitionKey: "2024", RowKey: "05"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	key := Key{PartitionKey: "28000000_2", RowKey: "2024-05"}
	got, ok := DecodeCursor(EncodeCursor(key))
	if !ok || got != key {
		t.Fatalf("cursor round trip failed: got=%+v ok=%v", got, ok)
	}
	if _, ok := DecodeCursor(""); ok {
		t.Fatalf("expected empty token to decode as no cursor")
	}
}

func TestBatchResult_Add(t *testing.T) {
	t.Parallel()

	var b BatchResult
	b.Add(WriteResult{Outcome: OutcomeCreated})
	b.Add(WriteResult{Outcome: OutcomeUpserted})
	b.Add(WriteResult{Outcome: OutcomeDropped})
	b.Add(WriteResult{Outcome: OutcomeFailed})
	b.Add(WriteResult{Outcome: OutcomeCreated})

	if b.Created != 2 || b.Upserted != 1 || b.Dropped != 1 || b.Failed != 1 || b.Total() != 5 {
		t.Fatalf("unexpected counters: %+v", b)
	}
}
