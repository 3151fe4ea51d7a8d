package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Log            *zap.Logger
	Foods          *FoodsHandler
	Orders         *OrdersHandler
	Events         http.Handler // websocket endpoint; nil leaves /ws unmounted
	Auth           *Auth
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, AccessLog(cfg.Log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerIdempotencyKey},
		ExposedHeaders:   []string{headerReplay},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Long-lived, so outside the request timeout.
	if cfg.Events != nil {
		r.Get("/ws", cfg.Events.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(cfg.Auth.Identify)
		cfg.Foods.Register(r)
		cfg.Orders.Register(r)
	})
	return r
}
