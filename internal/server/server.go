package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/superdayz/studio-api/internal/config"
	"github.com/superdayz/studio-api/internal/service"
)

type Server struct {
	cfg           config.Config
	log           *slog.Logger
	users         *service.UserService
	generations   *service.GenerationService
	ledger        *service.LedgerService
	todos         *service.TodoService
	slices        *service.SliceService
	notifications *service.NotificationService
	router        *chi.Mux
}

func NewServer(
	cfg config.Config,
	log *slog.Logger,
	users *service.UserService,
	generations *service.GenerationService,
	ledger *service.LedgerService,
	todos *service.TodoService,
	slices *service.SliceService,
	notifications *service.NotificationService,
) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:           cfg,
		log:           log,
		users:         users,
		generations:   generations,
		ledger:        ledger,
		todos:         todos,
		slices:        slices,
		notifications: notifications,
		router:        r,
	}

	r.Get("/healthz", s.handleHealth)
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(protected chi.Router) {
		protected.Use(s.authMiddleware)

		protected.Route("/profile", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handleUpdateProfile)
			r.Delete("/", s.handleDeleteAccount)
		})

		protected.Post("/studio/{tool}", s.handleGenerate)
		protected.Post("/studio/chat", s.handleChat)
		protected.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleHistory)
			r.Put("/{id}/tags", s.handleUpdateTags)
			r.Put("/{id}/folder", s.handleAssignFolder)
		})

		protected.Route("/todos", func(r chi.Router) {
			r.Get("/", s.handleListTodos)
			r.Post("/", s.handleCreateTodo)
			r.Put("/{id}", s.handleUpdateTodo)
			r.Put("/{id}/completed", s.handleCompleteTodo)
			r.Delete("/{id}", s.handleDeleteTodo)
		})

		protected.Route("/billing", func(r chi.Router) {
			r.Get("/history", s.handleBillingHistory)
			r.Post("/credits", s.handleBuyCredits)
			r.Put("/subscription", s.handleUpdateSubscription)
			r.Get("/payment-methods", s.handleListPaymentMethods)
			r.Post("/payment-methods", s.handleAddPaymentMethod)
			r.Delete("/payment-methods/{id}", s.handleDeletePaymentMethod)
		})

		protected.Route("/workspace", func(r chi.Router) {
			r.Get("/brand-kit", s.handleGetBrandKit)
			r.Put("/brand-kit", s.handleSaveBrandKit)
			r.Get("/models", s.handleGetUploadedModels)
			r.Put("/models", s.handleSaveUploadedModels)
			r.Get("/folders", s.handleGetFolders)
			r.Put("/folders", s.handleSaveFolders)
			r.Get("/campaigns", s.handleGetCampaigns)
			r.Put("/campaigns", s.handleSaveCampaigns)
		})

		protected.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Post("/seen", s.handleMarkNotificationsSeen)
		})
	})

	return s
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("server shutdown error", "err", err)
		}
	}()

	s.log.Info("api listening", "addr", s.cfg.ListenAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// serviceError maps the service sentinels onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500 without leaking the cause.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrInsufficientCredits):
		s.writeError(w, http.StatusPaymentRequired, "insufficient credits")
	case errors.Is(err, service.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrEmailTaken):
		s.writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, service.ErrOperationInFlight):
		s.writeError(w, http.StatusConflict, "operation already in progress")
	case errors.Is(err, service.ErrGeneratorOffline):
		s.writeError(w, http.StatusServiceUnavailable, "generator unavailable")
	default:
		s.log.Error("request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid json", service.ErrInvalidInput)
	}
	return nil
}
