// 入学出願管理システムのエントリポイント。
// ユーザー登録・ログイン、入学申込の受付、証明書アップロード、
// 管理コンソールのAPIを単一のHTTPサーバーとして提供する。
package main

import (
	"log"

	"github.com/nao1215/enroll/internal/config"
	"github.com/nao1215/enroll/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("サーバーの初期化に失敗: %v", err)
	}

	log.Printf("サーバーを起動します: :%s", cfg.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("サーバーの起動に失敗: %v", err)
	}
}
