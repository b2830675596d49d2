// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// MinTokenSecretLength はトークン署名鍵の最小バイト数です（HS256の鍵長）。
const MinTokenSecretLength = 32

// Config はアプリケーションの設定を保持する構造体です。
// 起動時に一度だけ構築し、以降は読み取り専用として扱います。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// データベース設定
	DatabaseURL string // postgres:// で始まればPostgreSQL、それ以外はSQLiteのパス

	// 認証設定
	BcryptCost    int           // パスワードハッシュのコスト（BCRYPT_SALT）
	TokenSecret   string        // セッショントークン署名用の秘密鍵
	TokenTTL      time.Duration // セッショントークンの有効期間
	SessionSecret string        // セッションクッキー署名用の秘密鍵

	// Redis設定
	CacheRedisURL string        // ユーザーキャッシュ用Redis（空なら無効）
	UserCacheTTL  time.Duration // ユーザーキャッシュの保持期間
	QueueRedisURL string        // 監査イベントキュー用Redis（空ならリクエスト内で直接保存）
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	cost, err := requireEnvAsInt("BCRYPT_SALT")
	if err != nil {
		return nil, err
	}
	tokenTTL, err := getEnvAsDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	userCacheTTL, err := getEnvAsDuration("USER_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		DatabaseURL: getEnv("DATABASE_URL", "postboard.db"),

		BcryptCost:    cost,
		TokenSecret:   getEnv("TOKEN_SECRET", ""),
		TokenTTL:      tokenTTL,
		SessionSecret: getEnv("SESSION_SECRET", ""),

		CacheRedisURL: getEnv("CACHE_REDIS_URL", ""),
		UserCacheTTL:  userCacheTTL,
		QueueRedisURL: getEnv("QUEUE_REDIS_URL", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// ローカル開発ではセッション鍵をトークン鍵から派生させる
	if config.SessionSecret == "" {
		sum := sha256.Sum256([]byte("session:" + config.TokenSecret))
		config.SessionSecret = hex.EncodeToString(sum[:])
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
// ハッシュコストと署名鍵はどのモードでも必須です。
func (c *Config) Validate() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_SALT must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET is required")
	}
	if len(c.TokenSecret) < MinTokenSecretLength {
		return fmt.Errorf("TOKEN_SECRET must be at least %d bytes", MinTokenSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.GinMode == "release" && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in release mode")
	}
	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// requireEnvAsInt は必須の整数環境変数を取得します。
func requireEnvAsInt(key string) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// getEnvAsDuration は環境変数を time.Duration として取得します。
// 未設定ならデフォルト値、解釈できない値はエラーです。
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 24h: %w", key, err)
	}
	return value, nil
}
