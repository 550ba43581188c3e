package postgres

import (
	"testing"
	"time"
)

type testEmbedded struct {
	ID      string `db:"id"`
	Version int    `db:"version"`
}

type testRecord struct {
	testEmbedded
	Name      string     `db:"name"`
	Skipped   string     `db:"-"`
	Untagged  string
	UpdatedAt *time.Time `db:"updated_at"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[testRecord]()
	want := []string{"id", "version", "name", "updated_at"}
	if len(cols) != len(want) {
		t.Fatalf("got %v, want %v", cols, want)
	}
	for i, col := range want {
		if cols[i] != col {
			t.Errorf("cols[%d] = %s, want %s", i, cols[i], col)
		}
	}
}

func TestExtractDBColumns_PointerType(t *testing.T) {
	cols := ExtractDBColumns[*testRecord]()
	if len(cols) != 4 {
		t.Fatalf("pointer type should flatten the same columns, got %v", cols)
	}
}

func TestStructToMap(t *testing.T) {
	rec := testRecord{
		testEmbedded: testEmbedded{ID: "abc", Version: 3},
		Name:         "EVER GIVEN",
		Skipped:      "hidden",
		Untagged:     "hidden",
	}

	m := StructToMap(rec)
	if m["id"] != "abc" || m["version"] != 3 || m["name"] != "EVER GIVEN" {
		t.Errorf("unexpected map: %v", m)
	}
	if _, ok := m["-"]; ok {
		t.Error("ignored field leaked into map")
	}
	if len(m) != 4 {
		t.Errorf("expected 4 entries, got %d: %v", len(m), m)
	}
}

func TestStructToMap_Pointer(t *testing.T) {
	rec := &testRecord{testEmbedded: testEmbedded{ID: "x"}}
	m := StructToMap(rec)
	if m["id"] != "x" {
		t.Errorf("pointer input not handled: %v", m)
	}
}

func TestStructToMap_NonStruct(t *testing.T) {
	if m := StructToMap(42); m != nil {
		t.Errorf("expected nil for non-struct, got %v", m)
	}
}
