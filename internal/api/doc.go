// Package api はTodo APIのHTTPレイヤーを提供する。
//
// /register と /login は認証不要、/todos 配下はAuthミドルウェアで
// トークンを検証したうえで、検証済みのユーザーIDを明示的に
// Todoサービスへ渡す。レスポンスはすべてJSONで、失敗時は
// {"error": "..."} の形式になる。
package api
