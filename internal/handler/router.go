package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/immal/internal/metrics"
	"github.com/hitoshi/immal/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	SubjectResolver   middleware.SubjectResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer
	HealthChecker     HealthChecker

	// ページネーション
	BaseURL  string
	PageSize int

	// サービス
	AuthService         AuthServiceInterface
	RegistrationService RegistrationServiceInterface
	UserService         UserServiceInterface
	QuestionService     QuestionServiceInterface
	EmotionService      EmotionServiceInterface
	CatalogService      CatalogServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → BearerAuth → RateLimit(General)
//
// /users と /faceai はRequireAuthで認証必須にする。
// フォーラムの更新・削除の可否はサービス層のアクセス判定に任せる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 末尾スラッシュの有無を区別しない
	r.Use(chimw.StripSlashes)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewBearerAuthMiddleware(deps.TokenVerifier, deps.SubjectResolver))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.GeneralMiddleware())
	}

	paginator := NewPaginator(deps.BaseURL, deps.PageSize)
	authHandler := NewAuthHandler(deps.AuthService, deps.RegistrationService)
	userHandler := NewUserHandler(deps.UserService, paginator)
	questionHandler := NewQuestionHandler(deps.QuestionService, paginator)
	emotionHandler := NewEmotionHandler(deps.EmotionService, paginator)
	catalogHandler := NewCatalogHandler(deps.CatalogService)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		login := http.HandlerFunc(authHandler.Login)
		if deps.RateLimiter != nil {
			// ログインはブルートフォース対策の制限を追加
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", login)
		} else {
			r.Post("/login", login)
		}
		r.Post("/register", authHandler.Register)
		r.Post("/token/refresh", authHandler.Refresh)
	})

	// フォーラム（匿名でも閲覧・投稿可）
	r.Route("/community/questions", func(r chi.Router) {
		r.Get("/", questionHandler.List)
		r.Post("/", questionHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", questionHandler.Get)
			r.Put("/", questionHandler.Replace)
			r.Patch("/", questionHandler.Patch)
			r.Delete("/", questionHandler.Delete)
			r.Post("/answer", questionHandler.CreateAnswer)
		})
	})

	// 参照情報
	r.Get("/api/search", catalogHandler.SearchDiseases)
	r.Get("/quotes", catalogHandler.ListQuotes)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		// ユーザー管理
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get("/me", userHandler.Me)
			r.Delete("/me", userHandler.Withdraw)
			r.Get("/{id}", userHandler.Get)
		})

		// 感情ログ
		r.Route("/faceai/log", func(r chi.Router) {
			r.Get("/", emotionHandler.List)
			r.Post("/", emotionHandler.Create)
			r.Get("/stats", emotionHandler.Stats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", emotionHandler.Get)
				r.Put("/", emotionHandler.Update)
				r.Patch("/", emotionHandler.Patch)
				r.Delete("/", emotionHandler.Delete)
			})
		})
	})

	return r
}
