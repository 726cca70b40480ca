package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/complementai/internal/metrics"
	"github.com/hitoshi/complementai/internal/middleware"
	"github.com/hitoshi/complementai/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Metrics            metrics.MetricsCollector
	MetricsHandler     http.Handler // nilの場合/metricsを公開しない
	HealthChecker      HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメイン
	UserService    UserServiceInterface
	ProjectService ProjectServiceInterface
	ScrumService   ScrumServiceInterface
	Catalog        TemplateRecommender
	ChatService    ChatServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS
//	  → (認証が必要なルートのみ) Auth → RateLimit(General)
//
// /api/chat は認証不要だがクライアントIP単位のレート制限をかける。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError())
	})

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)
	projectHandler := NewProjectHandler(deps.ProjectService)
	scrumHandler := NewScrumHandler(deps.ScrumService)
	catalogHandler := NewCatalogHandler(deps.Catalog)
	chatHandler := NewChatHandler(deps.ChatService)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)

	// Googleログインは資格情報が設定されている場合のみ公開する
	if deps.AuthService.OAuthEnabled() {
		r.Route("/api/auth/google", func(r chi.Router) {
			r.Get("/login", authHandler.GoogleLogin)
			r.Get("/callback", authHandler.GoogleCallback)
		})
	}

	r.With(deps.RateLimiter.ChatMiddleware()).Post("/api/chat", chatHandler.Chat)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/catalog/templates", catalogHandler.Templates)

		// ユーザー
		r.Route("/api/user", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Patch("/theme", userHandler.UpdateTheme)
		})

		// プロジェクト（所有者のみ）
		r.Route("/api/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)
				r.Put("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)
			})
		})

		// スクラム
		r.Route("/api/scrum", func(r chi.Router) {
			r.Get("/projects", scrumHandler.ListProjects)

			r.Route("/projects/{projectId}", func(r chi.Router) {
				r.Route("/members", func(r chi.Router) {
					r.Get("/", scrumHandler.ListMembers)
					r.Post("/", scrumHandler.AddMember)
					r.Post("/accept", scrumHandler.AcceptInvitation)
					r.Delete("/{memberId}", scrumHandler.RemoveMember)
				})

				r.Route("/backlog", func(r chi.Router) {
					r.Get("/", scrumHandler.ListBacklog)
					r.Post("/", scrumHandler.CreateBacklogItem)
					r.Put("/{itemId}", scrumHandler.UpdateBacklogItem)
					r.Delete("/{itemId}", scrumHandler.DeleteBacklogItem)
				})

				r.Route("/sprints", func(r chi.Router) {
					r.Get("/", scrumHandler.ListSprints)
					r.Post("/", scrumHandler.CreateSprint)
					r.Put("/{sprintId}", scrumHandler.UpdateSprint)
					r.Delete("/{sprintId}", scrumHandler.DeleteSprint)
				})

				r.Route("/parking-lot", func(r chi.Router) {
					r.Get("/", scrumHandler.ListParkingLot)
					r.Post("/", scrumHandler.CreateParkingLotItem)
					r.Delete("/{itemId}", scrumHandler.DeleteParkingLotItem)
				})
			})

			r.Route("/sprints/{sprintId}", func(r chi.Router) {
				r.Route("/items", func(r chi.Router) {
					r.Get("/", scrumHandler.ListSprintItems)
					r.Post("/", scrumHandler.AddSprintItem)
					r.Patch("/{itemId}", scrumHandler.UpdateSprintItemStatus)
					r.Delete("/{itemId}", scrumHandler.RemoveSprintItem)
				})

				r.Route("/metrics", func(r chi.Router) {
					r.Get("/", scrumHandler.ListMetrics)
					r.Post("/", scrumHandler.RecordMetric)
					r.Delete("/{metricId}", scrumHandler.DeleteMetric)
				})

				r.Get("/burndown", scrumHandler.Burndown)
			})
		})
	})

	return r
}
