package server

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/enroll/internal/auth"
	"github.com/nao1215/enroll/internal/config"
	"github.com/nao1215/enroll/internal/store"
	"github.com/nao1215/enroll/pkg/middleware"
)

// Server は入学出願管理システムのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はサーバー設定。
	cfg config.Config
	// queries はデータベースへのクエリ実行オブジェクト。
	queries *store.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// authService は認証サービス。
	authService *auth.Service
}

// New は新しいサーバーを生成する。
// SQLiteデータベースを開いてマイグレーションを適用し、設定から認証サービスを
// 構築する。署名鍵はここで一度だけ渡し、以後の参照はすべて構築済みの
// TokenIssuer経由になる。
func New(cfg config.Config) (*Server, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("データベースの初期化に失敗: %w", err)
	}

	queries := store.New(db)
	authService := auth.NewService(
		queries,
		auth.NewHasher(cfg.BcryptCost),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
	)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:      router,
		cfg:         cfg,
		queries:     queries,
		db:          db,
		authService: authService,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.cfg.Port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証エンドポイント（登録・ログインは認証不要）
	authAPI := s.router.Group("/api/auth")
	{
		authAPI.POST("/register", s.handleRegister())
		authAPI.POST("/login", s.handleLogin())
		authAPI.POST("/logout", s.handleLogout())
	}

	// 入学申込の送信（公開フォームのため認証不要）
	s.router.POST("/api/applications", s.handleSubmitApplication())

	// 認証必須のエンドポイント
	api := s.router.Group("/api")
	api.Use(middleware.Auth(s.authService))
	{
		api.GET("/auth/me", s.handleMe())

		profile := api.Group("/profile")
		{
			// プロフィール取得（証明書を含む）
			profile.GET("", s.handleGetProfile())
			// プロフィール更新
			profile.PUT("", s.handleUpdateProfile())
			// プロフィール画像アップロード
			profile.POST("/image", s.handleUploadProfileImage())
		}

		certificates := api.Group("/certificates")
		{
			// 証明書一覧取得
			certificates.GET("", s.handleListCertificates())
			// 証明書アップロード
			certificates.POST("/:kind", s.handleUploadCertificate())
			// 証明書取得
			certificates.GET("/:id", s.handleGetCertificate())
			// 証明書削除
			certificates.DELETE("/:id", s.handleDeleteCertificate())
		}
	}

	// 管理者専用エンドポイント。認証に加えてロールチェックを重ねる
	admin := s.router.Group("/api/admin")
	admin.Use(middleware.Auth(s.authService), middleware.RequireRole(store.RoleAdmin))
	{
		admin.GET("/dashboard", s.handleDashboard())

		admin.GET("/users", s.handleListUsers())
		admin.GET("/users/:id", s.handleGetUser())
		admin.PUT("/users/:id/role", s.handleUpdateUserRole())
		admin.DELETE("/users/:id", s.handleDeleteUser())

		admin.GET("/applications", s.handleListApplications())
		admin.GET("/applications/:id", s.handleGetApplication())
		admin.PUT("/applications/:id/status", s.handleUpdateApplicationStatus())
		admin.DELETE("/applications/:id", s.handleDeleteApplication())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "enroll"})
	})
}
