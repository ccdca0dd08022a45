package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// clearEnv は設定に関わる環境変数を空にする。t.Setenvを使うため並列実行はできない。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "JWT_SECRET", "STORE_DRIVER", "SQLITE_PATH", "MONGO_URI", "MONGO_DATABASE", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
}

// TestLoad は環境変数からの設定読み込みを検証する。
func TestLoad(t *testing.T) {
	t.Run("未設定の場合はデフォルト値になること", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.Port != "5000" {
			t.Errorf("Port = %q, want %q", cfg.Port, "5000")
		}
		if cfg.JWTSecret != devSecret {
			t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, devSecret)
		}
		if cfg.StoreDriver != DriverSQLite {
			t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverSQLite)
		}
		if !slices.Equal(cfg.AllowedOrigins, []string{"*"}) {
			t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
		}
	})

	t.Run("環境変数の値が反映されること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "8080")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("STORE_DRIVER", DriverMongo)
		t.Setenv("ALLOWED_ORIGINS", "http://a.example, ,http://b.example")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.Port != "8080" || cfg.JWTSecret != "s3cret" || cfg.StoreDriver != DriverMongo {
			t.Errorf("cfg = %+v", cfg)
		}
		if !slices.Equal(cfg.AllowedOrigins, []string{"http://a.example", "http://b.example"}) {
			t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
		}
	})

	t.Run(".envファイルの値が取り込まれること", func(t *testing.T) {
		clearEnv(t)
		os.Unsetenv("SQLITE_PATH")
		t.Cleanup(func() { os.Unsetenv("SQLITE_PATH") })

		envFile := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envFile, []byte("SQLITE_PATH=/tmp/from-dotenv.db\n"), 0o600); err != nil {
			t.Fatalf(".envの作成に失敗: %v", err)
		}

		cfg, err := Load(envFile)
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.SQLitePath != "/tmp/from-dotenv.db" {
			t.Errorf("SQLitePath = %q, want %q", cfg.SQLitePath, "/tmp/from-dotenv.db")
		}
	})

	t.Run("不明なドライバーはエラーになること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_DRIVER", "postgres")

		if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
			t.Fatal("不明なドライバーでエラーが返るべき")
		}
	})
}

// TestValidate は設定の検証を検証する。
func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{Port: "5000", JWTSecret: "x", StoreDriver: DriverSQLite, SQLitePath: "/tmp/x.db"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "正常な設定", mutate: func(*Config) {}},
		{name: "ポートが空", mutate: func(c *Config) { c.Port = "" }, wantErr: true},
		{name: "秘密鍵が空", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
		{name: "SQLiteパスが空", mutate: func(c *Config) { c.SQLitePath = "" }, wantErr: true},
		{name: "Mongoでデータベース名が空", mutate: func(c *Config) {
			c.StoreDriver = DriverMongo
			c.MongoURI = "mongodb://localhost"
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
