// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/postboard/internal/audit"
	"github.com/yourusername/postboard/internal/auth"
	"github.com/yourusername/postboard/internal/config"
	"github.com/yourusername/postboard/internal/posts"
	"github.com/yourusername/postboard/internal/store"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)
	logger := log.Default()

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 認証ゲートのユーザー解決（Redis が設定されていればキャッシュを挟む）
	var users auth.UserFinder = db
	if cfg.CacheRedisURL != "" {
		cache, err := setupUserCache(cfg, db, logger)
		if err != nil {
			log.Fatalf("Failed to set up user cache: %v", err)
		}
		users = cache
	}

	recorder, shutdownAudit, err := setupAudit(cfg, db, logger)
	if err != nil {
		log.Fatalf("Failed to set up audit recorder: %v", err)
	}
	defer shutdownAudit()

	router, err := newRouter(cfg, db, users, recorder, logger)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newRouter は認証部品とサービスを組み立て、ミドルウェアとルートを設定したルーターを返します。
func newRouter(cfg *config.Config, db *store.Store, users auth.UserFinder, recorder audit.Recorder, logger *log.Logger) (*gin.Engine, error) {
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	tokens, err := auth.NewTokenIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// セッションストアの設定（ブラウザ向けにトークンと CSRF トークンを保持）
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, sessionStore))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(cfg.CORSAllowedOrigins)
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		"X-CSRF-Token", // CSRF保護用ヘッダー
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token"}
	router.Use(cors.New(corsConfig))

	router.Use(clientIPMiddleware())

	authService := auth.NewService(db, hasher, tokens, recorder, logger)
	authManager := auth.NewManager(authService, tokens, users, logger)
	postHandler := posts.NewHandler(posts.NewService(db, recorder, logger), logger)

	setupRoutes(router, authManager, postHandler, db, logger)
	return router, nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "postboard-api",
		"version": "0.1.0",
	})
}

// setupRoutes は公開ルートと認証必須ルートの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager, postHandler *posts.Handler, activity activityLister, logger *log.Logger) {
	router.GET("/health", handleHealth)

	// サインアップとログインはセッション未生成なので CSRF 検証は不要
	router.POST("/signup", authManager.Signup)
	router.POST("/login", authManager.Login)
	router.POST("/logout",
		authManager.RequireLogin(),
		authManager.VerifyCSRF(),
		authManager.Logout,
	)

	protected := router.Group("")
	protected.Use(authManager.RequireLogin(), authManager.VerifyCSRF())
	{
		protected.GET("/me/activity", auth.WithIdentity(activityHandler(activity, logger)))
	}

	postHandler.RegisterRoutes(router, protected)
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
