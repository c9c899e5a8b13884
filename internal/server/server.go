package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/calendar/internal/config"
	"github.com/nao1215/calendar/internal/store"
	"github.com/nao1215/calendar/pkg/middleware"
)

// Storage はハンドラが利用するストレージゲートウェイの操作。
// *store.Storeが実装する。
type Storage interface {
	GetUser(ctx context.Context, username string) (store.User, error)
	InsertUser(ctx context.Context, u store.User) error
	UpdateUser(ctx context.Context, u store.User) error
	DeleteUser(ctx context.Context, username string) error

	GetEvent(ctx context.Context, id string) (store.Event, error)
	ListUserEvents(ctx context.Context, owner string) ([]store.Event, error)
	InsertEvent(ctx context.Context, e store.Event) error
	UpdateEvent(ctx context.Context, e store.Event) error
	DeleteEvent(ctx context.Context, id string) error

	GetCategory(ctx context.Context, id string) (store.Category, error)
	GetCategoryByName(ctx context.Context, name, owner string) (store.Category, error)
	ListUserCategories(ctx context.Context, owner string) ([]store.Category, error)
	InsertCategory(ctx context.Context, c store.Category) error
	UpdateCategory(ctx context.Context, c store.Category) error
	DeleteCategory(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}

// Server はカレンダーサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// storage はユーザー・イベント・カテゴリの永続化先。
	storage Storage
	// tokens はセッショントークンの発行・検証を行う。
	tokens *middleware.TokenIssuer
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time
	// hashCost はパスワードハッシュのbcryptコスト。
	hashCost int
}

// New は依存を受け取ってサーバーを生成する。
func New(port string, storage Storage, tokens *middleware.TokenIssuer, allowedOrigins []string) *Server {
	registerJSONFieldNames()

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(allowedOrigins))

	s := &Server{
		router:   router,
		port:     port,
		storage:  storage,
		tokens:   tokens,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	s.setupRoutes()

	return s
}

// NewServer は設定からストレージを開き、サーバーを生成する。
// スキーママイグレーションはストレージを開く際に適用される。
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("ストレージの初期化に失敗: %w", err)
	}

	tokens := middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	return New(cfg.Port, st, tokens, cfg.AllowedOrigins), nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Handler はルーティング済みのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close はストレージの接続を閉じる。
func (s *Server) Close() error {
	if c, ok := s.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	auth := middleware.JWTAuth(s.tokens)
	requireJSON := middleware.RequireJSON()

	users := s.router.Group("/user")
	{
		// ログイン
		users.POST("/login", requireJSON, s.handleLogin())
		// ユーザー登録
		users.POST("/create", requireJSON, s.handleCreateUser())
		// 自分のプロフィール取得
		users.GET("/", auth, s.handleGetUser())
		// 自分のプロフィール更新
		users.PUT("/", auth, requireJSON, s.handleUpdateUser())
		// 退会（イベント・カテゴリも削除）
		users.DELETE("/", auth, s.handleDeleteUser())
	}

	events := s.router.Group("/event", auth)
	{
		events.POST("/create", requireJSON, s.handleCreateEvent())
		events.GET("/all", s.handleListEvents())
		// iCalendar形式でのエクスポート
		events.GET("/export", s.handleExportEvents())
		events.GET("/:id", s.handleGetEvent())
		events.PUT("/:id", requireJSON, s.handleUpdateEvent())
		events.DELETE("/:id", s.handleDeleteEvent())
	}

	categories := s.router.Group("/category", auth)
	{
		categories.POST("/create", requireJSON, s.handleCreateCategory())
		categories.GET("/all", s.handleListCategories())
		categories.GET("/:id", s.handleGetCategory())
		categories.PUT("/:id", requireJSON, s.handleUpdateCategory())
		categories.DELETE("/:id", s.handleDeleteCategory())
	}

	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())
}

// handleHealth はストレージへの疎通を含めたヘルスチェックを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.storage.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "calendar"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "calendar"})
	}
}
