// Package app はサブコマンドの振り分けと依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/immal/internal/access"
	"github.com/hitoshi/immal/internal/auth"
	"github.com/hitoshi/immal/internal/catalog"
	"github.com/hitoshi/immal/internal/community"
	"github.com/hitoshi/immal/internal/config"
	"github.com/hitoshi/immal/internal/database"
	"github.com/hitoshi/immal/internal/emotion"
	"github.com/hitoshi/immal/internal/handler"
	"github.com/hitoshi/immal/internal/logger"
	"github.com/hitoshi/immal/internal/metrics"
	"github.com/hitoshi/immal/internal/middleware"
	"github.com/hitoshi/immal/internal/repository"
	"github.com/hitoshi/immal/internal/security"
	"github.com/hitoshi/immal/internal/user"
	"github.com/hitoshi/immal/internal/validation"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateSuperuser:
		return runCreateSuperuser(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)
	return db, nil
}

// server はAPIサーバーの構成要素をまとめたもの。
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// newServer は全依存関係をワイヤリングし、ルーターを構築する。
// DBへの接続は行わないため、疎通確認は呼び出し側で行う。
func newServer(cfg *config.Config, db *sql.DB, registry *prometheus.Registry) (*server, error) {
	// 1. メトリクス
	collector := metrics.NewCollector(registry)

	// 2. リポジトリの初期化
	identityRepo := repository.NewPostgresIdentityRepo(db)
	questionRepo := repository.NewPostgresQuestionRepo(db)
	answerRepo := repository.NewPostgresAnswerRepo(db)
	emotionLogRepo := repository.NewPostgresEmotionLogRepo(db)
	diseaseRepo := repository.NewPostgresDiseaseRepo(db)
	quoteRepo := repository.NewPostgresQuoteRepo(db)

	// 3. セキュリティ・入力検証の初期化
	hasher, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sanitizer := security.NewTextSanitizer()
	validator := validation.New()
	resolver := access.NewResolver(identityRepo, collector)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(identityRepo, hasher, tokens, collector)
	userService := user.NewService(identityRepo, hasher, resolver, validator)
	communityService := community.NewService(questionRepo, answerRepo, resolver, sanitizer, validator)
	emotionService := emotion.NewService(emotionLogRepo, resolver, validator)
	catalogService := catalog.NewService(diseaseRepo, quoteRepo, cfg.BaseURL, cfg.MediaURL)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitLogin),
		collector,
	)

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		TokenVerifier:     authService,
		SubjectResolver:   resolver,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsGatherer:   registry,
		HealthChecker:     db,

		BaseURL:  cfg.BaseURL,
		PageSize: cfg.PageSize,

		AuthService:         authService,
		RegistrationService: userService,
		UserService:         userService,
		QuestionService:     communityService,
		EmotionService:      emotionService,
		CatalogService:      catalogService,
	}

	return &server{
		handler:     handler.NewRouter(deps),
		rateLimiter: rateLimiter,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. メトリクスレジストリ（ランタイム情報を含む）
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 3. ワイヤリング
	srv, err := newServer(cfg, db, registry)
	if err != nil {
		return err
	}
	defer srv.rateLimiter.Stop()

	// 4. HTTPサーバーの起動
	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// superuserEnv は管理者作成に使う環境変数。
type superuserEnv struct {
	Username string
	Email    string
	Password string
}

// loadSuperuserEnv は管理者の認証情報を環境変数から読み込む。
func loadSuperuserEnv() (superuserEnv, error) {
	env := superuserEnv{
		Username: os.Getenv("SUPERUSER_USERNAME"),
		Email:    os.Getenv("SUPERUSER_EMAIL"),
		Password: os.Getenv("SUPERUSER_PASSWORD"),
	}

	var missing []string
	if env.Username == "" {
		missing = append(missing, "SUPERUSER_USERNAME")
	}
	if env.Email == "" {
		missing = append(missing, "SUPERUSER_EMAIL")
	}
	if env.Password == "" {
		missing = append(missing, "SUPERUSER_PASSWORD")
	}
	if len(missing) > 0 {
		return superuserEnv{}, fmt.Errorf("required environment variables are not set: %v", missing)
	}
	return env, nil
}

// runCreateSuperuser は全ユーザーを閲覧できる管理者ユーザーを作成する。
func runCreateSuperuser(cfg *config.Config) error {
	// 1. 環境変数の確認（DB接続前に行う）
	env, err := loadSuperuserEnv()
	if err != nil {
		return err
	}

	// 2. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 3. 作成
	hasher, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}
	identityRepo := repository.NewPostgresIdentityRepo(db)
	resolver := access.NewResolver(identityRepo, nil)
	userService := user.NewService(identityRepo, hasher, resolver, validation.New())

	identity, err := userService.CreateSuperuser(context.Background(), env.Username, env.Email, env.Password)
	if err != nil {
		return fmt.Errorf("failed to create superuser: %w", err)
	}

	slog.Info("superuser created",
		slog.String("user_id", identity.ID),
		slog.String("username", identity.Username),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できないURLは全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
