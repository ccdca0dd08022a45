// Todo APIサーバーのエントリポイント。
// ユーザー登録・ログインと、ユーザーごとのTodoのCRUDを提供する。
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/todo/internal/api"
	"github.com/nao1215/todo/internal/config"
	"github.com/nao1215/todo/internal/store"
	"github.com/nao1215/todo/internal/store/mongo"
	"github.com/nao1215/todo/internal/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Todoサービスの起動に失敗: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("ストアのクローズに失敗: %v", err)
		}
	}()

	server := api.NewServer(cfg, st)
	log.Printf("Todoサービスを起動します: :%s (store=%s)", cfg.Port, cfg.StoreDriver)
	return server.Run(ctx)
}

// openStore は設定に応じたストアを開く。
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		st, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("MongoDBストアの初期化に失敗: %w", err)
		}
		return st, nil
	default:
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("SQLiteストアの初期化に失敗: %w", err)
		}
		return st, nil
	}
}
