// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/note-forge/internal/auth"
	"github.com/yourusername/note-forge/internal/config"
	"github.com/yourusername/note-forge/internal/convert"
)

//go:embed templates/*.html
var templatesFS embed.FS

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := log.Default()

	// 危険な構成（認証なし・全インターフェース待ち受けなど）は起動を止めず警告のみ
	cfg.LogSecurityWarnings(logger)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	// セッションストアの設定（クッキー署名鍵は必須）
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     cfg.BasePath,
		HttpOnly: true,
		Secure:   cfg.ForceSecureCookie || cfg.TLSEnabled(),
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(cfg.CookieName, store))

	// CORSミドルウェアの設定（許可オリジンが構成されている場合のみ）
	if cfg.CORSAllowedOrigins != "" {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		}
		router.Use(cors.New(corsConfig))
	}

	authManager := auth.NewManager(cfg, logger)

	// 識別の解決はリクエストごとに一度だけ行い、結果をコンテキストで共有する
	router.Use(authManager.ResolveIdentity())

	// ルーティングの設定
	setupRoutes(router, cfg, authManager)

	if cfg.OneTimeToken != "" {
		logger.Printf("one-time login URL: %s?token=%s", loginURL(cfg), cfg.OneTimeToken)
	}

	// サーバーの起動
	addr := cfg.BindAddress + ":" + cfg.Port
	logger.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if cfg.TLSEnabled() {
		err = router.RunTLS(addr, cfg.TLSCert, cfg.TLSKey)
	} else {
		err = router.Run(addr)
	}
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "note-forge-api",
		"version": "0.1.0",
	})
}

// setupRoutes はログインフローと保護対象APIの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, authManager *auth.Manager) {
	base := router.Group(cfg.BasePath)

	// まずは誰でも叩けるヘルスチェックを登録
	base.GET("health", handleHealth)

	base.GET("login", authManager.LoginGET)
	base.POST("login", authManager.LoginPOST)
	base.GET("logout", authManager.Logout)

	convertService := convert.NewService(cfg)

	// トークン認証されたリクエストはオリジン検証を免除、それ以外は検証必須
	api := base.Group("api", authManager.RequireValidOrigin(), authManager.RequireLogin())
	{
		api.GET("convert/formats", convert.FormatsHandler(convertService))
		api.POST("convert/inspect", convert.InspectHandler(convertService))
	}
}

// loginURL はローカルからアクセスできるログインURLを組み立てます。
func loginURL(cfg *config.Config) string {
	scheme := "http"
	if cfg.TLSEnabled() {
		scheme = "https"
	}
	host := cfg.BindAddress
	if cfg.BindsAllInterfaces() {
		host = "localhost"
	}
	return scheme + "://" + host + ":" + cfg.Port + cfg.BasePath + "login"
}
