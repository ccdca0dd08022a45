// Package config はプロセス起動時に一度だけ読み込むアプリケーション設定を提供する。
//
// 値は環境変数から読み込み、カレントディレクトリに .env があれば先に取り込む。
// 読み込んだ Config は各コンポーネントのコンストラクタに明示的に渡す。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// devSecret はJWT_SECRET未設定時に使う開発用の署名鍵。
const devSecret = "dev-secret-key"

const (
	// DriverSQLite はSQLiteストアを表す。
	DriverSQLite = "sqlite"
	// DriverMongo はMongoDBストアを表す。
	DriverMongo = "mongo"
)

// Config はアプリケーション設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string
	// StoreDriver は永続化先（"sqlite" または "mongo"）。
	StoreDriver string
	// SQLitePath はSQLiteデータベースファイルのパス。
	SQLitePath string
	// MongoURI はMongoDBの接続文字列。
	MongoURI string
	// MongoDatabase はMongoDBのデータベース名。
	MongoDatabase string
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string
}

// Load は .env と環境変数から設定を読み込み、検証する。
func Load(envFiles ...string) (Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:           getEnvOr("PORT", "5000"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		StoreDriver:    getEnvOr("STORE_DRIVER", DriverSQLite),
		SQLitePath:     getEnvOr("SQLITE_PATH", "/data/todo.db"),
		MongoURI:       getEnvOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnvOr("MONGO_DATABASE", "todoapp"),
		AllowedOrigins: splitList(getEnvOr("ALLOWED_ORIGINS", "*")),
	}
	if cfg.JWTSecret == "" {
		log.Printf("[Config] JWT_SECRETが未設定のため開発用の署名鍵を使用します")
		cfg.JWTSecret = devSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORTが空です")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRETが空です")
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATHが空です")
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return errors.New("MONGO_URIとMONGO_DATABASEは必須です")
		}
	default:
		return fmt.Errorf("不明なSTORE_DRIVERです: %q", c.StoreDriver)
	}
	return nil
}

// loadDotEnv は .env ファイルを環境変数に取り込む。既存の環境変数は上書きしない。
// ファイルが存在しない場合は何もしない。
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%sの読み込みに失敗: %w", f, err)
		}
	}
	return nil
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// splitList はカンマ区切りの値を空要素を除いて分割する。
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
