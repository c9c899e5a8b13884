// カレンダーサービスのエントリポイント。
// ユーザー・イベント・カテゴリのREST APIを提供する。
package main

import (
	"context"
	"log"

	"github.com/nao1215/calendar/internal/config"
	"github.com/nao1215/calendar/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	log.Printf("設定: %s", cfg)

	srv, err := server.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("カレンダーサーバーの初期化に失敗: %v", err)
	}
	defer srv.Close()

	log.Printf("カレンダーサービスを起動します: :%s", cfg.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("カレンダーサービスの起動に失敗: %v", err)
	}
}
