package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/complementai/internal/access"
	"github.com/hitoshi/complementai/internal/auth"
	"github.com/hitoshi/complementai/internal/catalog"
	"github.com/hitoshi/complementai/internal/chat"
	"github.com/hitoshi/complementai/internal/config"
	"github.com/hitoshi/complementai/internal/database"
	"github.com/hitoshi/complementai/internal/handler"
	"github.com/hitoshi/complementai/internal/logger"
	"github.com/hitoshi/complementai/internal/metrics"
	"github.com/hitoshi/complementai/internal/middleware"
	"github.com/hitoshi/complementai/internal/project"
	"github.com/hitoshi/complementai/internal/projectstore"
	"github.com/hitoshi/complementai/internal/repository"
	"github.com/hitoshi/complementai/internal/scrum"
	"github.com/hitoshi/complementai/internal/security"
	"github.com/hitoshi/complementai/internal/user"
)

// shutdownTimeout はグレースフルシャットダウンで処理中リクエストを待つ上限。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込みのエラーもログに出せるよう、先にデフォルトレベルで初期化する
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheckとprojectsはDBを使わないため、フル初期化をスキップする
	switch cmd {
	case CommandHealthcheck:
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	case CommandProjects:
		logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))
		return runProjects(w, os.Getenv("COMPLEMENTAI_API_URL"), os.Getenv("COMPLEMENTAI_TOKEN"))
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Bool("google_login", cfg.GoogleEnabled()),
		slog.Bool("chat", cfg.ChatEnabled()),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// server はHTTPサーバーの構成要素。停止時にstopを呼ぶ。
type server struct {
	handler http.Handler
	stop    func()
}

// newServer は全依存関係をワイヤリングしてルーターを構築する。
// dbへの接続確認は呼び出し側で行う。
func newServer(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (*server, error) {
	// リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	identRepo := repository.NewPostgresIdentityRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)
	memberRepo := repository.NewPostgresMemberRepo(db)

	// セキュリティ
	sanitizer := security.NewTextSanitizer()
	ssrfGuard := security.NewSSRFGuard()

	// メトリクス
	collector := metrics.NewCollector(reg)

	// 認証
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	var oauthProvider auth.OAuthProvider
	if cfg.GoogleEnabled() {
		oauthProvider = auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		}, nil)
	}
	authService := auth.NewService(oauthProvider, userRepo, identRepo, tokens, sanitizer)

	// ドメインサービス
	userService := user.NewService(userRepo)
	projectService := project.NewService(projectRepo, sanitizer)
	scrumService := scrum.NewService(access.NewGuard(memberRepo), scrum.Repositories{
		Projects:    projectRepo,
		Members:     memberRepo,
		Backlog:     repository.NewPostgresBacklogRepo(db),
		Sprints:     repository.NewPostgresSprintRepo(db),
		SprintItems: repository.NewPostgresSprintItemRepo(db),
		ParkingLot:  repository.NewPostgresParkingLotRepo(db),
		Metrics:     repository.NewPostgresMetricRepo(db),
	}, sanitizer)

	templates, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load template catalog: %w", err)
	}

	// チャットプロキシ。APIキー未設定、または上流URLが内部アドレスの場合は無効にする
	var completer chat.Completer
	if cfg.ChatEnabled() {
		if err := ssrfGuard.ValidateURL(cfg.ChatAPIURL); err != nil {
			return nil, fmt.Errorf("invalid CHAT_API_URL: %w", err)
		}
		completer = chat.NewClient(ssrfGuard.NewSafeClient(cfg.ChatTimeout), cfg.ChatAPIURL, cfg.OpenRouterAPIKey)
	}
	chatService := chat.NewService(completer, cfg.ChatDefaultModel, cfg.ChatFallbackModel, collector)

	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitChat),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:             slog.Default(),
		TokenVerifier:      tokens,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        rateLimiter,
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(reg),
		HealthChecker:      db,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			FrontendURL:  cfg.FrontendURL,
			CookieSecure: strings.HasPrefix(cfg.GoogleRedirectURL, "https://"),
		},
		UserService:    userService,
		ProjectService: projectService,
		ScrumService:   scrumService,
		Catalog:        templates,
		ChatService:    chatService,
	})

	return &server{handler: router, stop: rateLimiter.Stop}, nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "complementai"),
	)

	srv, err := newServer(cfg, db, reg)
	if err != nil {
		return err
	}
	defer srv.stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// チャットの上流呼び出しを待てるよう、書き込みタイムアウトに余裕を持たせる
		WriteTimeout: cfg.ChatTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("API server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
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

// runProjects は稼働中のAPIサーバーから自分のプロジェクト一覧を取得し、JSONで出力する。
func runProjects(w io.Writer, apiURL, token string) error {
	if apiURL == "" || token == "" {
		return errors.New("COMPLEMENTAI_API_URL and COMPLEMENTAI_TOKEN must be set")
	}
	if w == nil {
		w = os.Stdout
	}

	store := projectstore.NewHTTPStore(&http.Client{Timeout: 10 * time.Second}, apiURL, token, slog.Default())
	return printProjects(context.Background(), w, store)
}

func printProjects(ctx context.Context, w io.Writer, store projectstore.Store) error {
	projects, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(projects); err != nil {
		return fmt.Errorf("failed to write projects: %w", err)
	}
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

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
