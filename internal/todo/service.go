// Package todo はユーザーごとのTodo操作を提供する。
//
// すべての操作は呼び出し元のユーザーIDを明示的な引数として受け取り、
// そのユーザーが所有するTodoだけを対象にする。他ユーザーのTodoに対する
// 更新・削除は、存在しないTodoと同じ store.ErrNotFound になる。
package todo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/todo/internal/store"
)

// ErrValidation はタスクが空であることを表す。
var ErrValidation = errors.New("task is required")

// Service はTodoの一覧・作成・更新・削除を扱う。
type Service struct {
	todos store.TodoStore
	now   func() time.Time
}

// NewService は新しいServiceを生成する。
func NewService(todos store.TodoStore) *Service {
	return &Service{todos: todos, now: time.Now}
}

// List はユーザーのTodoを返す。
func (s *Service) List(ctx context.Context, userID string) ([]store.Todo, error) {
	return s.todos.ListTodos(ctx, userID)
}

// Create はユーザーのTodoを作成する。completedはfalseで作成される。
func (s *Service) Create(ctx context.Context, userID, task string) (store.Todo, error) {
	if isBlank(task) {
		return store.Todo{}, ErrValidation
	}

	todo := store.Todo{
		ID:        uuid.New().String(),
		UserID:    userID,
		Task:      task,
		Completed: false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.todos.CreateTodo(ctx, todo); err != nil {
		return store.Todo{}, err
	}
	return todo, nil
}

// Update はユーザーが所有するTodoを部分更新し、更新後の値を返す。
// タスクを空文字列に変更しようとした場合は ErrValidation を返す。
func (s *Service) Update(ctx context.Context, userID, id string, patch store.TodoPatch) (store.Todo, error) {
	if patch.Task != nil && isBlank(*patch.Task) {
		return store.Todo{}, ErrValidation
	}
	return s.todos.FindOneAndUpdate(ctx, id, userID, patch)
}

// Delete はユーザーが所有するTodoを削除し、削除前の値を返す。
func (s *Service) Delete(ctx context.Context, userID, id string) (store.Todo, error) {
	return s.todos.FindOneAndDelete(ctx, id, userID)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
