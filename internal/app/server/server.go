package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/evaluation"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/domain/org"
	"appraisal/internal/domain/period"
	"appraisal/internal/domain/project"
	"appraisal/internal/domain/reports"
	"appraisal/internal/domain/workflow"
	"appraisal/internal/platform/config"
	"appraisal/internal/platform/db"
	"appraisal/internal/platform/email"
	"appraisal/internal/platform/jobs"
	"appraisal/internal/platform/metrics"
	audithandler "appraisal/internal/transport/http/handlers/audit"
	authhandler "appraisal/internal/transport/http/handlers/auth"
	evaluationhandler "appraisal/internal/transport/http/handlers/evaluation"
	notificationshandler "appraisal/internal/transport/http/handlers/notifications"
	orghandler "appraisal/internal/transport/http/handlers/org"
	periodhandler "appraisal/internal/transport/http/handlers/period"
	projecthandler "appraisal/internal/transport/http/handlers/project"
	reportshandler "appraisal/internal/transport/http/handlers/reports"
	workflowhandler "appraisal/internal/transport/http/handlers/workflow"
	"appraisal/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	collector := metrics.New()

	// Domain services. Workflow events fan out to evaluation state,
	// notifications, and the audit trail, all inside the transition's
	// transaction.
	dispatcher := workflow.NewDispatcher()
	flowService := workflow.NewService(workflow.NewStore(pool), dispatcher)
	evaluationService := evaluation.NewService(evaluation.NewStore(pool), flowService)
	notificationService := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailEnabled, cfg.EmailFrom)
	auditService := audit.New(pool)

	evaluationService.RegisterWorkflowHandlers(dispatcher)
	notificationService.RegisterWorkflowHandlers(dispatcher)
	auditService.RegisterWorkflowHandler(dispatcher)

	authService := auth.NewService(auth.NewStore(pool))
	orgService := org.NewService(org.NewStore(pool))
	periodService := period.NewService(period.NewStore(pool), slog.Default())
	projectService := project.NewService(project.NewStore(pool))
	reportsService := reports.NewService(reports.NewStore(pool))

	jobService := jobs.New(pool, cfg, periodService)
	jobService.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authService, cfg.JWTSecret, cfg.TokenTTL).RegisterRoutes(r)
		orghandler.NewHandler(orgService).RegisterRoutes(r)
		periodhandler.NewHandler(periodService, jobService).RegisterRoutes(r)
		projecthandler.NewHandler(projectService).RegisterRoutes(r)
		evaluationhandler.NewHandler(evaluationService).RegisterRoutes(r)
		workflowhandler.NewHandler(flowService, evaluationService).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationService).RegisterRoutes(r)
		reportshandler.NewHandler(reportsService, jobService, collector).RegisterRoutes(r)
		audithandler.NewHandler(auditService).RegisterRoutes(r)
	})

	log.Printf("appraisal server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
