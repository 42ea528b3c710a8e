// Package api exposes the storefront over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"grabbi/internal/delivery"
	"grabbi/internal/model"
	"grabbi/internal/service"
)

// Storefront is the service the handlers call.
type Storefront interface {
	CreateSession(ctx context.Context) (*model.Session, error)
	Session(ctx context.Context, id string) (*service.Result, error)
	Restore(ctx context.Context, id string) (*service.Result, error)
	SelectFranchise(ctx context.Context, id, franchiseID string) (*service.Result, error)
	SelectNearest(ctx context.Context, id string, lat, lng float64) (*service.Result, error)
	ConfirmSwitch(ctx context.Context, id string) (*service.Result, error)
	CancelSwitch(ctx context.Context, id string) (*service.Result, error)
	AttemptLocationChange(ctx context.Context, id string) (*service.Result, error)
	Deselect(ctx context.Context, id string) (*service.Result, error)
	AddItem(ctx context.Context, id string, item model.CartItem) (*service.Result, error)
	UpdateQuantity(ctx context.Context, id, productID string, quantity int) (*service.Result, error)
	RemoveItem(ctx context.Context, id, productID string) (*service.Result, error)
	ClearCart(ctx context.Context, id string) (*service.Result, error)
	Checkout(ctx context.Context, id string, req service.CheckoutRequest) (*model.Order, error)
	Orders(ctx context.Context, id string, limit int) ([]*model.Order, error)
	Order(ctx context.Context, orderID string) (*model.Order, error)
	CancelOrder(ctx context.Context, id, orderID string) (*model.Order, error)
	Loyalty(ctx context.Context, id string, limit int) (*service.LoyaltySummary, error)
	RedeemPoints(ctx context.Context, id string, amount int, description string) (*service.LoyaltySummary, error)
	FranchiseStatus(ctx context.Context, franchiseID string) (*service.FranchiseStatus, error)
	Hours(ctx context.Context, franchiseID string) (*service.FranchiseHours, error)
	Nearby(ctx context.Context, lat, lng float64) ([]delivery.Candidate, error)
	Quote(ctx context.Context, franchiseID string, subtotal float64) (delivery.Quote, error)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config defines dependencies required by Server.
type Config struct {
	Storefront     Storefront
	Logger         *zerolog.Logger
	AllowedOrigins []string
	RatePerSecond  float64
	RateBurst      int
	Health         map[string]HealthCheck
}

type Server struct {
	svc            Storefront
	logger         *zerolog.Logger
	allowedOrigins []string
	limiter        *ipLimiter
	health         map[string]HealthCheck
}

func NewServer(cfg Config) *Server {
	l := cfg.Logger.With().Str("component", "api").Logger()
	s := &Server{
		svc:            cfg.Storefront,
		logger:         &l,
		allowedOrigins: cfg.AllowedOrigins,
		health:         cfg.Health,
	}
	if cfg.RatePerSecond > 0 {
		s.limiter = newIPLimiter(cfg.RatePerSecond, cfg.RateBurst)
	}
	return s
}

// Router assembles middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(withCORS(s.allowedOrigins))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/restore", s.handleRestore)

			r.Post("/franchise", s.handleSelectFranchise)
			r.Delete("/franchise", s.handleDeselect)
			r.Post("/franchise/nearest", s.handleSelectNearest)
			r.Post("/franchise/confirm", s.handleConfirm)
			r.Post("/franchise/cancel", s.handleCancel)
			r.Post("/location-change", s.handleLocationChange)

			r.Post("/cart/items", s.handleAddItem)
			r.Put("/cart/items/{productID}", s.handleUpdateItem)
			r.Delete("/cart/items/{productID}", s.handleRemoveItem)
			r.Delete("/cart", s.handleClearCart)
			r.Post("/checkout", s.handleCheckout)
			r.Get("/orders", s.handleListOrders)
			r.Post("/orders/{orderID}/cancel", s.handleCancelOrder)

			r.Get("/loyalty", s.handleLoyalty)
			r.Post("/loyalty/redeem", s.handleRedeem)
		})

		r.Get("/orders/{orderID}", s.handleGetOrder)
		r.Get("/franchises/nearby", s.handleNearby)
		r.Get("/franchises/{franchiseID}/status", s.handleFranchiseStatus)
		r.Get("/franchises/{franchiseID}/hours", s.handleHours)
		r.Get("/delivery/quote", s.handleQuote)
	})

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok", "time": time.Now().Format(time.RFC3339)}
	for name, check := range s.health {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body[name] = err.Error()
		}
	}
	writeJSON(w, status, body)
}

// withCORS adds CORS headers for allowed origins. "*" allows any origin.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			_, ok := allowed[origin]
			if origin == "" || (!allowAll && !ok) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
