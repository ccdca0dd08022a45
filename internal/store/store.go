// Package store はユーザーとTodoの永続化インターフェースとドメインレコードを定義する。
//
// 実装はSQLite（internal/store/sqlite）とMongoDB（internal/store/mongo）の2種類。
// Todoの更新・削除は「IDかつ所有者が一致するレコード」を1回の操作で
// 検索して変更する条件付き操作としてのみ提供する。
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound は条件に一致するレコードが存在しないことを表す。
	// 他ユーザーが所有するTodoに対する操作もこのエラーになる。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail は同じメールアドレスのユーザーが既に存在することを表す。
	ErrDuplicateEmail = errors.New("email already registered")
)

// User はユーザーレコード。
type User struct {
	// ID はユーザーの一意識別子（UUID）。
	ID string
	// Email はメールアドレス。保存された文字列のまま大文字小文字を区別する。
	Email string
	// PasswordHash はbcryptハッシュ。平文パスワードは保存しない。
	PasswordHash string
	// CreatedAt は登録日時。
	CreatedAt time.Time
}

// Todo はTodoレコード。必ず1人のユーザーに所属する。
type Todo struct {
	// ID はTodoの一意識別子（UUID）。
	ID string `json:"id"`
	// UserID は所有者のユーザーID。
	UserID string `json:"user_id"`
	// Task はタスクの内容。空文字列にはならない。
	Task string `json:"task"`
	// Completed は完了フラグ。
	Completed bool `json:"completed"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
}

// TodoPatch はTodoの部分更新内容。nilのフィールドは変更しない。
type TodoPatch struct {
	Task      *string
	Completed *bool
}

// IsEmpty は変更対象のフィールドが1つもない場合にtrueを返す。
func (p TodoPatch) IsEmpty() bool {
	return p.Task == nil && p.Completed == nil
}

// UserStore はユーザーレコードの永続化を担う。
type UserStore interface {
	// CreateUser はユーザーを保存する。メールアドレスが重複する場合は
	// 何も書き込まずに ErrDuplicateEmail を返す。
	CreateUser(ctx context.Context, user User) error
	// GetUserByEmail はメールアドレスでユーザーを取得する。
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// TodoStore はTodoレコードの永続化を担う。
type TodoStore interface {
	// ListTodos は所有者のTodoを返す。
	// 書き込みがない限り、繰り返し呼んでも同じ順序になる。
	ListTodos(ctx context.Context, userID string) ([]Todo, error)
	// CreateTodo はTodoを保存する。
	CreateTodo(ctx context.Context, todo Todo) error
	// FindOneAndUpdate はIDと所有者が一致するTodoに patch を適用し、更新後のレコードを返す。
	// 検索と更新は1回の不可分な操作で行う。
	FindOneAndUpdate(ctx context.Context, id, userID string, patch TodoPatch) (Todo, error)
	// FindOneAndDelete はIDと所有者が一致するTodoを削除し、削除前のレコードを返す。
	FindOneAndDelete(ctx context.Context, id, userID string) (Todo, error)
}

// Store はアプリケーションが使用するすべての永続化操作をまとめたもの。
type Store interface {
	UserStore
	TodoStore
	// Close は接続を解放する。
	Close() error
}
