package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// headerAuthorization はトークンを運ぶHTTPヘッダー。サーバーと同じく生のトークンを設定する。
const headerAuthorization = "Authorization"

// Todo はAPIが返すTodo。
type Todo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Task      string    `json:"task"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoUpdate はTodoの部分更新内容。nilのフィールドは送信しない。
type TodoUpdate struct {
	Task      *string `json:"task,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// StatusError は2xx以外のレスポンスを表す。
type StatusError struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Message はレスポンスの "error" フィールド。
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, error=%s", e.StatusCode, e.Message)
}

// Client はTodo APIのHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先のベースURL。
	baseURL string

	mu    sync.RWMutex
	token string
}

// New は新しいクライアントを生成する。
// baseURLには接続先のベースURL（例: "http://localhost:5000"）を指定する。
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// SetToken は以降のリクエストで使うトークンを設定する。
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token は保持しているトークンを返す。
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register はユーザーを登録する。
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/register", credentials{Email: email, Password: password}, nil)
}

// Login はログインし、受け取ったトークンを保持して返す。
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	c.SetToken(resp.Token)
	return resp.Token, nil
}

// ListTodos はログイン中のユーザーのTodo一覧を取得する。
func (c *Client) ListTodos(ctx context.Context) ([]Todo, error) {
	var todos []Todo
	if err := c.doJSON(ctx, http.MethodGet, "/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// CreateTodo はTodoを作成する。
func (c *Client) CreateTodo(ctx context.Context, task string) (Todo, error) {
	var todo Todo
	err := c.doJSON(ctx, http.MethodPost, "/todos", map[string]string{"task": task}, &todo)
	return todo, err
}

// UpdateTodo はTodoを部分更新する。
func (c *Client) UpdateTodo(ctx context.Context, id string, update TodoUpdate) (Todo, error) {
	var todo Todo
	err := c.doJSON(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), update, &todo)
	return todo, err
}

// DeleteTodo はTodoを削除し、削除前の値を返す。
func (c *Client) DeleteTodo(ctx context.Context, id string) (Todo, error) {
	var todo Todo
	err := c.doJSON(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, &todo)
	return todo, err
}

// doJSON はJSON形式のHTTPリクエストを実行する共通処理。
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set(headerAuthorization, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		var errBody struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errBody); err != nil || errBody.Error == "" {
			errBody.Error = string(respBody)
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}
