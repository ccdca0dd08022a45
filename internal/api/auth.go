package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/todo/internal/account"
	"github.com/nao1215/todo/internal/store"
)

// credentialsRequest は登録・ログインリクエストのJSON構造。
type credentialsRequest struct {
	// Email はメールアドレス。
	Email string `json:"email"`
	// Password は平文パスワード。
	Password string `json:"password"`
}

// handleRegister はユーザー登録を処理するハンドラを返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
			return
		}

		_, err := s.accounts.Register(c.Request.Context(), req.Email, req.Password)
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully."})
		case errors.Is(err, account.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
		case errors.Is(err, store.ErrDuplicateEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Error registering user or email already exists."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error registering user."})
			log.Printf("ユーザー登録エラー: %v", err)
		}
	}
}

// handleLogin はログインを処理するハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
			return
		}

		token, err := s.accounts.Login(c.Request.Context(), req.Email, req.Password)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"token": token})
		case errors.Is(err, account.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		case errors.Is(err, account.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid password."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error logging in user."})
			log.Printf("ログインエラー: %v", err)
		}
	}
}
