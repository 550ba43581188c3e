package record_repo

import (
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
)

type testRecord struct {
	ID        string `db:"id"`
	Version   int    `db:"version"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
	CreatedBy string `db:"created_by"`
	UpdatedAt string `db:"updated_at"`
	UpdatedBy string `db:"updated_by"`
}

func newTestRepo(t *testing.T) *BaseRecordRepo[*testRecord] {
	t.Helper()
	return NewBaseRecordRepo(nil, Config[*testRecord]{
		Table:      "test_records",
		EntityName: "test record",
		SearchCols: []string{"name"},
		NewFn:      func() *testRecord { return &testRecord{} },
	})
}

func TestUpdateBuilder_VersionBumpAndImmutableColumns(t *testing.T) {
	repo := newTestRepo(t)

	data := map[string]any{
		"id":         "abc",
		"version":    3,
		"name":       "updated",
		"created_at": "2026-01-01",
		"created_by": "alice",
		"updated_at": "2026-01-02",
		"updated_by": "bob",
	}

	q := repo.updateBuilder(data).
		Where(squirrel.Eq{"id": data["id"]}).
		Where(squirrel.Eq{"version": data["version"]}).
		Suffix("RETURNING version")

	sql, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	if !strings.Contains(sql, "version = version + 1") {
		t.Errorf("expected version bump in SQL, got: %s", sql)
	}
	if !strings.Contains(sql, "RETURNING version") {
		t.Errorf("expected RETURNING clause in SQL, got: %s", sql)
	}
	for _, forbidden := range []string{"created_at =", "created_by =", "id ="} {
		// Immutable columns may appear in WHERE but never in SET.
		setClause := sql[:strings.Index(sql, "WHERE")]
		if strings.Contains(setClause, forbidden) {
			t.Errorf("immutable column assigned in SET clause: %s\nsql: %s", forbidden, sql)
		}
	}

	// Args: name, updated_at, updated_by in SET plus id and version in WHERE.
	if len(args) != 5 {
		t.Errorf("args count mismatch\nwant: 5\ngot:  %d (%v)", len(args), args)
	}
}

func TestUpdateBuilder_ExpectedVersionPredicate(t *testing.T) {
	repo := newTestRepo(t)

	q := repo.updateBuilder(map[string]any{"name": "x"}).
		Where(squirrel.Eq{"id": "abc"}).
		Where(squirrel.Eq{"version": 7})

	sql, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if !strings.Contains(sql, "version = $") {
		t.Errorf("expected version predicate in WHERE, got: %s", sql)
	}
	if args[len(args)-1] != 7 {
		t.Errorf("expected version 7 as last arg, got: %v", args)
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo(t)

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{name: "empty defaults to updated_at desc", orderBy: "", want: "updated_at DESC"},
		{name: "plain field is ascending", orderBy: "name", want: "name ASC"},
		{name: "minus prefix is descending", orderBy: "-name", want: "name DESC"},
		{name: "plus prefix is ascending", orderBy: "+name", want: "name ASC"},
		{name: "unknown field rejected", orderBy: "evil; DROP TABLE", wantErr: true},
		{name: "bare minus rejected", orderBy: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if !apperror.IsAppError(err) {
					t.Errorf("expected AppError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOrderBy failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("orderBy mismatch\nwant: %s\ngot:  %s", tt.want, got)
			}
		})
	}
}

func TestBaseSelect_ColumnsFromTags(t *testing.T) {
	repo := newTestRepo(t)

	sql, _, err := repo.baseSelect().ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	want := "SELECT id, version, name, created_at, created_by, updated_at, updated_by FROM test_records"
	if sql != want {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", want, sql)
	}
}
