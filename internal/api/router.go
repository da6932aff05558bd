package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"complaint_desk/internal/api/handler"
	"complaint_desk/internal/api/middleware"
	"complaint_desk/internal/app/service"
	"complaint_desk/internal/common/security"
	"complaint_desk/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

type Deps struct {
	Issuer           *security.TokenIssuer
	AuthService      *service.AuthService
	ComplaintService *service.ComplaintService
	UserService      *service.UserService
	AdminService     *service.AdminService
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
	AllowedOrigins   []string
	UploadsDir       string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Verifies a Bearer header or jwt cookie and leaves the result in context.
	r.Use(jwtauth.Verifier(d.Issuer.JWTAuth()))

	auth := middleware.NewAuth(d.Metrics, d.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	if d.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(d.UploadsDir)))))
	}

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(d.AuthService, auth, d.Logger)
		api.Route("/auth", authHandler.RegisterRoutes)

		complaintHandler := handler.NewComplaintHandler(d.ComplaintService, auth, d.Logger)
		api.Route("/complaints", complaintHandler.RegisterRoutes)

		userHandler := handler.NewUserHandler(d.UserService, auth, d.Logger)
		api.Route("/users", userHandler.RegisterRoutes)

		adminHandler := handler.NewAdminHandler(d.AdminService, d.ComplaintService, auth, d.Logger)
		api.Route("/admin", adminHandler.RegisterRoutes)
	})

	return r
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
