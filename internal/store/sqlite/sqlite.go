// Package sqlite はSQLite（modernc.org/sqlite）によるstore.Storeの実装を提供する。
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/todo/internal/store"
	"github.com/nao1215/todo/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// dsnPragmas は接続ごとに適用するPRAGMA。外部キー制約を有効にする。
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Store はSQLiteをバックエンドとするストア。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open はpathのSQLiteデータベースを開き、マイグレーションを適用する。
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}
	if err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser はユーザーを保存する。
// メールアドレスの一意制約に衝突した場合は何も書き込まずに store.ErrDuplicateEmail を返す。
func (s *Store) CreateUser(ctx context.Context, user store.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("ユーザーの保存に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ユーザーの保存結果の取得に失敗: %w", err)
	}
	if n == 0 {
		return store.ErrDuplicateEmail
	}
	return nil
}

// GetUserByEmail はメールアドレスでユーザーを取得する。
func (s *Store) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	var (
		u         store.User
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	u.CreatedAt = time.Unix(0, createdAt).UTC()
	return u, nil
}

// ListTodos は所有者のTodoを挿入順で返す。
func (s *Store) ListTodos(ctx context.Context, userID string) ([]store.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, task, completed, created_at FROM todos WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("Todo一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	todos := make([]store.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("Todoの読み取りに失敗: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Todo一覧の走査に失敗: %w", err)
	}
	return todos, nil
}

// CreateTodo はTodoを保存する。
func (s *Store) CreateTodo(ctx context.Context, todo store.Todo) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (id, user_id, task, completed, created_at) VALUES (?, ?, ?, ?, ?)`,
		todo.ID, todo.UserID, todo.Task, todo.Completed, todo.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("Todoの保存に失敗: %w", err)
	}
	return nil
}

// FindOneAndUpdate はIDと所有者が一致するTodoを1文のUPDATEで更新する。
// patchのnilフィールドはCOALESCEにより現在値のまま残る。
func (s *Store) FindOneAndUpdate(ctx context.Context, id, userID string, patch store.TodoPatch) (store.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE todos
		    SET task = COALESCE(?, task),
		        completed = COALESCE(?, completed)
		  WHERE id = ? AND user_id = ?
		RETURNING id, user_id, task, completed, created_at`,
		patch.Task, patch.Completed, id, userID)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Todo{}, store.ErrNotFound
	}
	if err != nil {
		return store.Todo{}, fmt.Errorf("Todoの更新に失敗: %w", err)
	}
	return t, nil
}

// FindOneAndDelete はIDと所有者が一致するTodoを1文のDELETEで削除し、削除前の値を返す。
func (s *Store) FindOneAndDelete(ctx context.Context, id, userID string) (store.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`DELETE FROM todos
		  WHERE id = ? AND user_id = ?
		RETURNING id, user_id, task, completed, created_at`,
		id, userID)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Todo{}, store.ErrNotFound
	}
	if err != nil {
		return store.Todo{}, fmt.Errorf("Todoの削除に失敗: %w", err)
	}
	return t, nil
}

// scanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(sc scanner) (store.Todo, error) {
	var (
		t         store.Todo
		createdAt int64
	)
	if err := sc.Scan(&t.ID, &t.UserID, &t.Task, &t.Completed, &createdAt); err != nil {
		return store.Todo{}, err
	}
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	return t, nil
}
