package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nao1215/todo/pkg/httpclient"
)

// TestClientRoundTrip はGoクライアントから実際のHTTPサーバーを操作する一連の流れを検証する。
func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(setupTestServer(t).Handler())
	t.Cleanup(ts.Close)

	client := httpclient.New(ts.URL)

	// トークンを送らない一覧取得は401
	_, err := client.ListTodos(t.Context())
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("未ログインの一覧取得 err = %v, want 401", err)
	}

	if err := client.Register(t.Context(), "a@x.com", "pw1"); err != nil {
		t.Fatalf("Register()でエラーが発生: %v", err)
	}
	if _, err := client.Login(t.Context(), "a@x.com", "wrong"); !errors.As(err, &statusErr) || statusErr.Message != "Invalid password." {
		t.Fatalf("誤ったパスワードのログイン err = %v", err)
	}
	if client.Token() != "" {
		t.Fatal("ログイン失敗時にトークンが保持された")
	}
	if _, err := client.Login(t.Context(), "a@x.com", "pw1"); err != nil {
		t.Fatalf("Login()でエラーが発生: %v", err)
	}

	created, err := client.CreateTodo(t.Context(), "buy milk")
	if err != nil {
		t.Fatalf("CreateTodo()でエラーが発生: %v", err)
	}
	if created.Completed || created.Task != "buy milk" {
		t.Errorf("created = %+v", created)
	}

	done := true
	updated, err := client.UpdateTodo(t.Context(), created.ID, httpclient.TodoUpdate{Completed: &done})
	if err != nil {
		t.Fatalf("UpdateTodo()でエラーが発生: %v", err)
	}
	if !updated.Completed || updated.ID != created.ID {
		t.Errorf("updated = %+v", updated)
	}

	todos, err := client.ListTodos(t.Context())
	if err != nil {
		t.Fatalf("ListTodos()でエラーが発生: %v", err)
	}
	if len(todos) != 1 || !todos[0].Completed || !todos[0].CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("todos = %+v", todos)
	}

	deleted, err := client.DeleteTodo(t.Context(), created.ID)
	if err != nil {
		t.Fatalf("DeleteTodo()でエラーが発生: %v", err)
	}
	if deleted.ID != created.ID {
		t.Errorf("deleted = %+v", deleted)
	}

	todos, err = client.ListTodos(t.Context())
	if err != nil {
		t.Fatalf("ListTodos()でエラーが発生: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("削除後のtodos = %+v", todos)
	}
}
