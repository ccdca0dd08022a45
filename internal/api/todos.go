package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/todo/internal/store"
	"github.com/nao1215/todo/internal/todo"
	"github.com/nao1215/todo/pkg/middleware"
)

// createTodoRequest はTodo作成リクエストのJSON構造。
type createTodoRequest struct {
	// Task はタスクの内容。
	Task string `json:"task"`
}

// updateTodoRequest はTodo更新リクエストのJSON構造。
// 省略またはnullのフィールドは変更しない。
type updateTodoRequest struct {
	Task      *string `json:"task"`
	Completed *bool   `json:"completed"`
}

// requireIdentity はAuthミドルウェアが設定したIdentityを取得する。
// 取得できない場合は401を返してfalseを返す。
func requireIdentity(c *gin.Context) (middleware.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || identity.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access Denied. No token provided."})
		return middleware.Identity{}, false
	}
	return identity, true
}

// handleListTodos はユーザーのTodo一覧取得を処理するハンドラを返す。
func (s *Server) handleListTodos() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		todos, err := s.todos.List(c.Request.Context(), identity.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching todos"})
			log.Printf("Todo一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, todos)
	}
}

// handleCreateTodo はTodo作成を処理するハンドラを返す。
func (s *Server) handleCreateTodo() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		var req createTodoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Task is required"})
			return
		}

		created, err := s.todos.Create(c.Request.Context(), identity.UserID, req.Task)
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, created)
		case errors.Is(err, todo.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Task is required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving the todo"})
			log.Printf("Todo作成エラー: %v", err)
		}
	}
}

// handleUpdateTodo はTodo更新を処理するハンドラを返す。
// 所有者でないTodoと存在しないTodoは区別せず404を返す。
func (s *Server) handleUpdateTodo() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		var req updateTodoRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		updated, err := s.todos.Update(c.Request.Context(), identity.UserID, c.Param("id"), store.TodoPatch{
			Task:      req.Task,
			Completed: req.Completed,
		})
		switch {
		case err == nil:
			c.JSON(http.StatusOK, updated)
		case errors.Is(err, todo.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Task is required"})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating the todo"})
			log.Printf("Todo更新エラー: %v", err)
		}
	}
}

// handleDeleteTodo はTodo削除を処理するハンドラを返す。
// レスポンスは削除前のTodo。
func (s *Server) handleDeleteTodo() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := requireIdentity(c)
		if !ok {
			return
		}

		deleted, err := s.todos.Delete(c.Request.Context(), identity.UserID, c.Param("id"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, deleted)
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting the todo"})
			log.Printf("Todo削除エラー: %v", err)
		}
	}
}
