// Package config は環境変数からカレンダーサービスの設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config はサービス全体の設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// Database はストレージの接続設定。
	Database DatabaseConfig
	// Auth はセッショントークンの設定。
	Auth AuthConfig
	// AllowedOrigins はCORSで許可するブラウザクライアントのオリジン。
	AllowedOrigins []string
}

// DatabaseConfig はストレージの接続設定。
type DatabaseConfig struct {
	// Driver は "sqlite" または "pgx"。
	Driver string
	// DSN はドライバに渡す接続文字列。
	DSN string
}

// AuthConfig はセッショントークンの設定。
type AuthConfig struct {
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string
	// TokenTTL はトークンの有効期間。
	TokenTTL time.Duration
}

// Load は環境変数から設定を読み込み、値を検証する。
//
//	PORT          リッスンポート（既定: 8080）
//	DB_DRIVER     sqlite | pgx（既定: sqlite）
//	DB_DSN        接続文字列（既定: /data/calendar.db）
//	JWT_SECRET    トークン署名鍵（既定: dev-secret-key）
//	TOKEN_TTL     トークンの有効期間（既定: 24h）
//	FRONTEND_URL  CORSで許可するオリジン。カンマ区切り（既定: http://localhost:3000）
func Load() (*Config, error) {
	ttl, err := time.ParseDuration(getEnvOr("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTLの形式が不正です: %w", err)
	}

	cfg := &Config{
		Port: getEnvOr("PORT", "8080"),
		Database: DatabaseConfig{
			Driver: getEnvOr("DB_DRIVER", "sqlite"),
			DSN:    getEnvOr("DB_DSN", "/data/calendar.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOr("JWT_SECRET", "dev-secret-key"),
			TokenTTL:  ttl,
		},
		AllowedOrigins: splitList(getEnvOr("FRONTEND_URL", "http://localhost:3000")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("DB_DRIVERはsqliteまたはpgxを指定してください: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSNが空です")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRETが空です")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTLは正の値を指定してください: %s", c.Auth.TokenTTL)
	}
	return nil
}

// String は秘密鍵をマスクした設定の文字列表現を返す。
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, DB: %s, TokenTTL: %s, Origins: %v, JWTSecret: ***}",
		c.Port, c.Database.Driver, c.Auth.TokenTTL, c.AllowedOrigins)
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
