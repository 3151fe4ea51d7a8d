package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Seenusharmma/POS-FF/internal/orders"
	"github.com/Seenusharmma/POS-FF/internal/redisx"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplay         = "Idempotent-Replay"
	maxIdempotencyKey    = 255
)

// IdempotencyStore caches created responses by Idempotency-Key.
type IdempotencyStore interface {
	Get(ctx context.Context, scope, key string) (redisx.Response, bool, error)
	Save(ctx context.Context, scope, key string, resp redisx.Response) error
}

type OrdersHandler struct {
	Svc        *orders.Service
	Auth       *Auth
	Idem       IdempotencyStore // nil disables Idempotency-Key handling
	TableCount int
	Log        *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.list)
	r.Get("/tables", h.tables)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireUser)
		r.Post("/orders/create", h.create)
		r.Post("/orders/create-multiple", h.createMultiple)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAdmin)
		r.Put("/orders/{id}", h.updateStatus)
		r.Delete("/orders/{id}", h.delete)
	})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// tables derives availability from the current order list on every call.
func (h *OrdersHandler) tables(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, orders.ComputeAvailability(h.TableCount, list))
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	h.idempotent(w, r, "create", func() (any, error) {
		var in orders.CreateInput
		if err := decodeJSON(w, r, &in); err != nil {
			return nil, err
		}
		stampUser(r, &in)
		return h.Svc.Create(r.Context(), in)
	})
}

func (h *OrdersHandler) createMultiple(w http.ResponseWriter, r *http.Request) {
	h.idempotent(w, r, "create-multiple", func() (any, error) {
		var in []orders.CreateInput
		if err := decodeJSON(w, r, &in); err != nil {
			return nil, err
		}
		for i := range in {
			stampUser(r, &in[i])
		}
		return h.Svc.CreateMany(r.Context(), in)
	})
}

// stampUser fills an empty userEmail from the caller's token.
func stampUser(r *http.Request, in *orders.CreateInput) {
	if in.UserEmail == "" {
		in.UserEmail = EmailFrom(r.Context())
	}
}

// idempotent runs create once per Idempotency-Key and replays the stored
// 201 response for repeats. Two requests racing with the same new key can
// both create; the first stored response wins for later replays. Redis
// errors fall through to a normal create.
func (h *OrdersHandler) idempotent(w http.ResponseWriter, r *http.Request, scope string, create func() (any, error)) {
	key := r.Header.Get(headerIdempotencyKey)
	if len(key) > maxIdempotencyKey {
		writeJSON(w, http.StatusBadRequest, message{Message: "Idempotency-Key is too long"})
		return
	}
	if user := EmailFrom(r.Context()); key != "" && user != "" {
		key = user + ":" + key
	}
	useIdem := h.Idem != nil && key != ""

	if useIdem {
		resp, ok, err := h.Idem.Get(r.Context(), scope, key)
		if err != nil {
			h.Log.Warn("idempotency lookup failed", zap.Error(err))
		} else if ok {
			w.Header().Set(headerReplay, "true")
			writeRaw(w, resp.Status, resp.Body)
			return
		}
	}

	created, err := create()
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	body, err := json.Marshal(created)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if useIdem {
		if err := h.Idem.Save(r.Context(), scope, key, redisx.Response{Status: http.StatusCreated, Body: body}); err != nil {
			h.Log.Warn("idempotency save failed", zap.Error(err))
		}
	}
	writeRaw(w, http.StatusCreated, body)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var in orders.StatusInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	o, err := h.Svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Order deleted successfully"})
}
