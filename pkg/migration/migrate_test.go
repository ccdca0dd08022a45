package migration

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migration.db"))
	if err != nil {
		t.Fatalf("DBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCollect はマイグレーションファイルの収集を検証する。
func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("up.sqlのみをバージョン順に収集すること", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"m/000002_second.up.sql":  {Data: []byte("SELECT 1;")},
			"m/000001_first.up.sql":   {Data: []byte("SELECT 1;")},
			"m/000001_first.down.sql": {Data: []byte("SELECT 1;")},
			"m/README.md":             {Data: []byte("doc")},
			"m/notanumber_x.up.sql":   {Data: []byte("SELECT 1;")},
		}

		files, err := Collect(fsys, "m")
		if err != nil {
			t.Fatalf("Collect()でエラーが発生: %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("ファイル数 = %d, want 2", len(files))
		}
		if files[0].Version != 1 || files[0].Name != "first" {
			t.Errorf("files[0] = %+v, want version=1 name=first", files[0])
		}
		if files[1].Path != "m/000002_second.up.sql" {
			t.Errorf("files[1].Path = %q, want %q", files[1].Path, "m/000002_second.up.sql")
		}
	})

	t.Run("バージョンが重複している場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"m/000001_a.up.sql": {Data: []byte("SELECT 1;")},
			"m/000001_b.up.sql": {Data: []byte("SELECT 1;")},
		}
		if _, err := Collect(fsys, "m"); err == nil {
			t.Fatal("重複バージョンでエラーが返るべき")
		}
	})
}

// TestRun はマイグレーションの適用を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"m/000001_create.up.sql": {Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY);")},
		"m/000002_index.up.sql":  {Data: []byte("CREATE INDEX idx_items_id ON items(id);")},
	}

	t.Run("2回実行しても適用済みのものはスキップされること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		if err := Run(t.Context(), db, fsys, "m"); err != nil {
			t.Fatalf("1回目のRun()でエラーが発生: %v", err)
		}
		if err := Run(t.Context(), db, fsys, "m"); err != nil {
			t.Fatalf("2回目のRun()でエラーが発生: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("件数の取得に失敗: %v", err)
		}
		if count != 2 {
			t.Errorf("適用済み件数 = %d, want 2", count)
		}
	})

	t.Run("SQLが不正な場合はバージョンが記録されないこと", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		broken := fstest.MapFS{
			"m/000001_broken.up.sql": {Data: []byte("CREATE TABLE (;")},
		}
		if err := Run(t.Context(), db, broken, "m"); err == nil {
			t.Fatal("不正なSQLでエラーが返るべき")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("件数の取得に失敗: %v", err)
		}
		if count != 0 {
			t.Errorf("適用済み件数 = %d, want 0", count)
		}
	})
}
