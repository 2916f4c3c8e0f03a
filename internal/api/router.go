package api

import (
	"log/slog"
	"net/http"
	"time"

	"loan-recovery/internal/api/handler"
	mw "loan-recovery/internal/api/middleware"
	"loan-recovery/internal/config"
	"loan-recovery/internal/domain/agent"
	"loan-recovery/internal/domain/customer"
	"loan-recovery/internal/domain/loan"
	"loan-recovery/internal/domain/payment"
	"loan-recovery/internal/domain/user"
	"loan-recovery/internal/notification"

	_ "loan-recovery/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Services bundles everything the router mounts. NotificationStore may be
// nil when notifications are published to AMQP instead of kept in process.
type Services struct {
	Loans             loan.Service
	Payments          payment.Service
	Customers         customer.Service
	Agents            agent.Service
	Users             user.Repository
	NotificationStore *notification.MemoryStore
}

func SetupRouter(svcs Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, svcs.Users, svcs.Agents, cfg, logger)
	setupLoanRoutes(router, svcs.Loans, cfg, logger)
	setupPaymentRoutes(router, svcs.Payments, cfg, logger)
	setupCustomerRoutes(router, svcs.Customers, cfg, logger)
	setupAgentRoutes(router, svcs.Agents, cfg, logger)
	setupNotificationRoutes(router, svcs.NotificationStore, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, users user.Repository, agents agent.Service, cfg *config.Config, logger *slog.Logger) {
	h := handler.NewAuthHandler(users, agents, cfg.Server.Auth.JWTSecret, cfg.Server.Auth.TokenTTL, logger)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
}

func setupLoanRoutes(router *chi.Mux, svc loan.Service, cfg *config.Config, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, logger)

	router.Route("/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateLoan)
		r.Get("/", h.ListLoans)
		r.Get("/customer/{customerID}", h.ListByCustomer)
		r.Get("/agent/{agentID}", h.ListByAgent)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", h.GetLoan)
			r.Delete("/", h.DeleteLoan)
			r.Patch("/status", h.UpdateStatus)
			r.Patch("/assign-agent", h.AssignAgent)
			r.Patch("/recovery-status", h.UpdateRecoveryStatus)
			r.Get("/outstanding", h.GetOutstanding)
			r.Get("/emi", h.GetInstallmentPlan)
		})
	})
}

func setupPaymentRoutes(router *chi.Mux, svc payment.Service, cfg *config.Config, logger *slog.Logger) {
	h := handler.NewPaymentHandler(svc, logger)

	router.Route("/payments", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreatePayment)
		r.Get("/", h.ListPayments)
		r.Get("/loan/{loanID}", h.ListByLoan)
	})
}

func setupCustomerRoutes(router *chi.Mux, svc customer.Service, cfg *config.Config, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, logger)

	router.Route("/customers", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateCustomer)
		r.Get("/", h.ListCustomers)
		r.Get("/{customerID}", h.GetCustomer)
	})
}

func setupAgentRoutes(router *chi.Mux, svc agent.Service, cfg *config.Config, logger *slog.Logger) {
	h := handler.NewAgentHandler(svc, logger)

	router.Route("/agents", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateAgent)
		r.Get("/", h.ListAgents)
		r.Get("/{agentID}", h.GetAgent)
	})
}

func setupNotificationRoutes(router *chi.Mux, store *notification.MemoryStore, cfg *config.Config, logger *slog.Logger) {
	if store == nil {
		logger.Info("Notification inbox disabled, sink is not in-memory")
		return
	}
	h := handler.NewNotificationHandler(store, logger)

	router.Route("/notifications", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", h.ListNotifications)
		r.Patch("/{notificationID}/read", h.MarkRead)
		r.Patch("/read-all", h.MarkAllRead)
	})
}
