package ddl

import (
	"context"
	"errors"
	"strings"
	"testing"

	gddl "tablekit/internal/ddl"
	"tablekit/internal/storage"
	"tablekit/internal/table"
)

// TestFromSchemaMissingTableOrColumns verifies that FromSchema returns clear
// errors when the table name or schema is missing.
func TestFromSchemaMissingTableOrColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fqn       string
		schema    table.Schema
		wantError string
	}{
		{
			name:      "missing table",
			fqn:       "",
			schema:    table.Schema{{Name: "id", Type: table.Int}},
			wantError: "table name is required",
		},
		{
			name:      "missing columns",
			fqn:       "public.users",
			schema:    nil,
			wantError: "schema must not be empty",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FromSchema(tt.fqn, tt.schema)
			if err == nil {
				t.Fatalf("FromSchema() error = nil, want non-nil")
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Fatalf("FromSchema() error = %q, want substring %q", err.Error(), tt.wantError)
			}
			if got.FQN != "" || len(got.Columns) != 0 {
				t.Fatalf("FromSchema() result not empty on error: %+v", got)
			}
		})
	}
}

// TestFromSchemaTypesAndOrder verifies that FromSchema maps engine column
// types via MapType, preserves column order, and marks every column nullable.
func TestFromSchemaTypesAndOrder(t *testing.T) {
	t.Parallel()

	s := table.Schema{
		{Name: "id", Type: table.Int},
		{Name: "ratio", Type: table.Float},
		{Name: "active", Type: table.Bool},
		{Name: "seen_at", Type: table.Date},
		{Name: "region", Type: table.String},
	}

	got, err := FromSchema("public.events", s)
	if err != nil {
		t.Fatalf("FromSchema() error = %v", err)
	}

	if got.FQN != "public.events" {
		t.Fatalf("FromSchema().FQN = %q, want %q", got.FQN, "public.events")
	}
	if len(got.Columns) != len(s) {
		t.Fatalf("FromSchema().Columns length = %d, want %d", len(got.Columns), len(s))
	}

	want := []gddl.ColumnDef{
		{Name: "id", SQLType: MapType(table.Int), Nullable: true},
		{Name: "ratio", SQLType: MapType(table.Float), Nullable: true},
		{Name: "active", SQLType: MapType(table.Bool), Nullable: true},
		{Name: "seen_at", SQLType: MapType(table.Date), Nullable: true},
		{Name: "region", SQLType: MapType(table.String), Nullable: true},
	}

	for i := range want {
		if got.Columns[i].Name != want[i].Name {
			t.Errorf("column[%d].Name = %q, want %q", i, got.Columns[i].Name, want[i].Name)
		}
		if got.Columns[i].SQLType != want[i].SQLType {
			t.Errorf("column[%d].SQLType = %q, want %q", i, got.Columns[i].SQLType, want[i].SQLType)
		}
		if got.Columns[i].Nullable != want[i].Nullable {
			t.Errorf("column[%d].Nullable = %v, want %v", i, got.Columns[i].Nullable, want[i].Nullable)
		}
	}
}

// fakeRepository is a test double for storage.Repository used to verify
// EnsureTable behavior without hitting a real database.
type fakeRepository struct {
	storage.Repository
	execCalls int
	lastSQL   string
	err       error
}

// Exec records the executed SQL and returns the configured error.
func (f *fakeRepository) Exec(ctx context.Context, sqlText string) error {
	f.execCalls++
	f.lastSQL = sqlText
	return f.err
}

// TestEnsureTableExecutesSQL verifies that EnsureTable calls Exec with a
// CREATE TABLE statement and propagates any Exec errors.
func TestEnsureTableExecutesSQL(t *testing.T) {
	t.Parallel()

	def := gddl.TableDef{
		FQN: "public.users",
		Columns: []gddl.ColumnDef{
			{Name: "id", SQLType: "BIGINT", PrimaryKey: true},
		},
	}

	var repo fakeRepository
	ctx := context.Background()

	if err := EnsureTable(ctx, &repo, def); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}

	if repo.execCalls != 1 {
		t.Fatalf("repo.Exec called %d times, want 1", repo.execCalls)
	}
	if repo.lastSQL == "" {
		t.Fatalf("repo.Exec was called with empty SQL")
	}
	if !strings.HasPrefix(repo.lastSQL, "CREATE TABLE IF NOT EXISTS") {
		t.Fatalf("repo.Exec SQL does not start with CREATE TABLE IF NOT EXISTS:\n%s", repo.lastSQL)
	}
}

// TestEnsureTablePropagatesErrors verifies that both build and Exec failures
// surface to the caller.
func TestEnsureTablePropagatesErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Invalid definition: Exec must never be called.
	var repo fakeRepository
	if err := EnsureTable(ctx, &repo, gddl.TableDef{}); err == nil {
		t.Fatalf("EnsureTable() error = nil for empty definition, want non-nil")
	}
	if repo.execCalls != 0 {
		t.Fatalf("repo.Exec called %d times for invalid definition, want 0", repo.execCalls)
	}

	// Exec failure propagates.
	wantErr := errors.New("connection reset")
	failing := fakeRepository{err: wantErr}
	def := gddl.TableDef{
		FQN:     "public.users",
		Columns: []gddl.ColumnDef{{Name: "id", SQLType: "BIGINT"}},
	}
	if err := EnsureTable(ctx, &failing, def); !errors.Is(err, wantErr) {
		t.Fatalf("EnsureTable() error = %v, want %v", err, wantErr)
	}
}

// BenchmarkFromSchema measures the performance of schema-driven inference.
func BenchmarkFromSchema(b *testing.B) {
	s := table.Schema{
		{Name: "id", Type: table.Int},
		{Name: "name", Type: table.String},
		{Name: "created_at", Type: table.Date},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := FromSchema("public.users", s); err != nil {
			b.Fatalf("FromSchema() error = %v", err)
		}
	}
}
