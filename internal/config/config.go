// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// 認証設定
	PasswordHash string // ソルト付きハッシュ化パスワード（bcrypt または sha256:salt:digest 形式）
	Token        string // 長期有効な静的トークン
	OneTimeToken string // 一回限りの起動時トークン（"auto" で自動生成）

	// セッション設定
	SessionSecret     string // セッションCookie署名用の秘密鍵
	CookieName        string // セッションCookieの名前
	ForceSecureCookie bool   // TLS終端が上流にある場合でも Secure 属性を付与する

	// サーバー設定
	BindAddress string // バインド先アドレス（空文字は全インターフェース）
	Port        string // APIサーバーのポート番号
	GinMode     string // Ginの実行モード (debug, release, test)
	BasePath    string // サーバーをマウントするURLプレフィックス
	TLSCert     string // TLS証明書のパス（空なら平文HTTP）
	TLSKey      string // TLS秘密鍵のパス

	// クロスオリジン設定
	AllowOrigin        string         // 完全一致で許可するオリジン
	AllowOriginPat     *regexp.Regexp // 正規表現で許可するオリジン（nil なら無効）
	CORSAllowedOrigins string         // CORSミドルウェア用の許可オリジン（カンマ区切り）

	// ファイル制限
	MaxFileSize int64 // 単一アップロードの最大サイズ（バイト）
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		PasswordHash: getEnv("APP_PASSWORD_HASH", ""),
		Token:        getEnv("APP_TOKEN", ""),
		OneTimeToken: getEnv("APP_ONE_TIME_TOKEN", ""),

		SessionSecret:     getEnv("SESSION_SECRET", ""),
		CookieName:        getEnv("SESSION_COOKIE_NAME", "nf_session"),
		ForceSecureCookie: getEnvAsBool("FORCE_SECURE_COOKIE", false),

		BindAddress: getEnv("BIND_ADDRESS", "127.0.0.1"),
		Port:        getEnv("PORT", "8888"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		BasePath:    normalizeBasePath(getEnv("BASE_PATH", "/")),
		TLSCert:     getEnv("TLS_CERT", ""),
		TLSKey:      getEnv("TLS_KEY", ""),

		AllowOrigin:        getEnv("ALLOW_ORIGIN", ""),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 104857600), // 100MB
	}

	if pat := getEnv("ALLOW_ORIGIN_PAT", ""); pat != "" {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid ALLOW_ORIGIN_PAT: %w", err)
		}
		config.AllowOriginPat = re
	}

	if config.SessionSecret == "" {
		// 署名鍵が未設定の場合はプロセス限りの乱数鍵を使う。
		// 再起動すると既存セッションは全て無効になる。
		secret, err := randomHex(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		config.SessionSecret = secret
	}

	if config.OneTimeToken == "auto" {
		token, err := randomHex(24)
		if err != nil {
			return nil, fmt.Errorf("failed to generate one-time token: %w", err)
		}
		config.OneTimeToken = token
	}

	if err := config.Validate(); err != nil {
		return nil, err
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
func (c *Config) Validate() error {
	if c.TLSCert != "" && c.TLSKey == "" {
		return fmt.Errorf("TLS_KEY is required when TLS_CERT is set")
	}
	if c.TLSCert == "" && c.TLSKey != "" {
		return fmt.Errorf("TLS_CERT is required when TLS_KEY is set")
	}
	return nil
}

// LoginAvailable はログイン手段（パスワードまたはトークン）が構成されているかを返します。
func (c *Config) LoginAvailable() bool {
	return c.PasswordHash != "" || c.Token != ""
}

// TLSEnabled はこのプロセス自身がTLS終端を行うかを返します。
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// BindsAllInterfaces は全インターフェースで待ち受ける設定かを返します。
func (c *Config) BindsAllInterfaces() bool {
	return c.BindAddress == "" || c.BindAddress == "0.0.0.0" || c.BindAddress == "::"
}

// LogSecurityWarnings は起動時のセキュリティ構成を点検し、問題があれば警告します。
// 意図的に「安全ではないが使える」構成を許すため、エラーにはしません。
func (c *Config) LogSecurityWarnings(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}

	if c.BindsAllInterfaces() {
		warning := "WARNING: the server is listening on all IP addresses"
		if !c.TLSEnabled() {
			logger.Printf("%s and not using encryption. This is not recommended.", warning)
		}
		if !c.LoginAvailable() {
			logger.Printf("%s and not using authentication. This is highly insecure and not recommended.", warning)
		}
		return
	}

	if !c.LoginAvailable() {
		logger.Printf("WARNING: all authentication is disabled. Anyone who can connect to this server will have full access.")
	}
}

func normalizeBasePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 は環境変数を64ビット整数として取得します。
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
