// Package config は環境変数からのサーバー設定の読み込みを提供する。
// 設定はプロセス起動時に一度だけ読み込み、各コンポーネントへ値として渡す。
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config はサーバーの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT" env-default:"8080"`
	// DBPath はSQLiteデータベースのファイルパス。
	DBPath string `env:"DB_PATH" env-default:"enroll.db"`
	// JWTSecret はトークン署名用の秘密鍵。差し替えると発行済みの全トークンが
	// 無効になる。本番環境では必ず既定値以外を設定すること。
	JWTSecret string `env:"JWT_SECRET" env-default:"dev-secret-key"`
	// TokenTTL はトークンの有効期間。
	TokenTTL time.Duration `env:"JWT_TTL" env-default:"168h"`
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string `env:"FRONTEND_URL" env-default:"http://localhost:3000"`
	// BcryptCost はパスワードハッシュのコストパラメータ。
	BcryptCost int `env:"BCRYPT_COST" env-default:"10"`
}

// Load は環境変数から設定を読み込む。未設定の項目には既定値を使用する。
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	return cfg, nil
}
