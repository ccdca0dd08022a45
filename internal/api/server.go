package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/todo/internal/account"
	"github.com/nao1215/todo/internal/config"
	"github.com/nao1215/todo/internal/store"
	"github.com/nao1215/todo/internal/todo"
	"github.com/nao1215/todo/pkg/middleware"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// Server はTodo APIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// tokens はトークンの発行と検証を行う。
	tokens *middleware.TokenService
	// accounts はユーザー登録とログインを扱う。
	accounts *account.Service
	// todos はユーザーごとのTodo操作を扱う。
	todos *todo.Service
}

// NewServer は新しいTodo APIサーバーを生成する。
// ストアは呼び出し元が開き、閉じる責任を持つ。
func NewServer(cfg config.Config, st store.Store, opts ...account.Option) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	tokens := middleware.NewTokenService(cfg.JWTSecret)
	s := &Server{
		router:   router,
		port:     cfg.Port,
		tokens:   tokens,
		accounts: account.NewService(st, tokens, opts...),
		todos:    todo.NewService(st),
	}
	s.setupRoutes()

	return s
}

// Handler はルーティング済みのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルに停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("シャットダウンを開始します")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("シャットダウンに失敗: %w", err)
		}
		return nil
	}
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証不要のエンドポイント
	s.router.POST("/register", s.handleRegister())
	s.router.POST("/login", s.handleLogin())

	// トークン必須のエンドポイント
	todos := s.router.Group("/todos")
	todos.Use(middleware.Auth(s.tokens))
	{
		todos.GET("", s.handleListTodos())
		todos.POST("", s.handleCreateTodo())
		todos.PUT("/:id", s.handleUpdateTodo())
		todos.DELETE("/:id", s.handleDeleteTodo())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "todo"})
	})
}
