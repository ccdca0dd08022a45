// Package httpclient はTodo APIを呼び出すGoクライアントを提供する。
//
// Loginで受け取ったトークンを保持し、/todos 配下のすべての呼び出しで
// Authorizationヘッダーに付与する。2xx以外のレスポンスは *StatusError になる。
package httpclient
