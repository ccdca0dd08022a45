// Package middleware はTodo APIで使用するGinミドルウェアとトークン処理を提供する。
//
// 署名付きトークンの発行と検証（TokenService）、保護されたルートの
// 認証ゲートウェイ（Auth）、パニックリカバリ、CORS設定を含む。
package middleware
