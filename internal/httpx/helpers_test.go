package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Seenusharmma/POS-FF/internal/catalog"
	"github.com/Seenusharmma/POS-FF/internal/orders"
	"github.com/Seenusharmma/POS-FF/internal/realtime"
)

const (
	testSecret = "test-secret"
	testAdmin  = "admin@x.com"
)

type stubImages struct {
	mu       sync.Mutex
	n        int
	uploaded []string
	deleted  []string
	err      error
}

func (s *stubImages) Upload(ctx context.Context, u catalog.Upload) (catalog.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return catalog.Image{}, s.err
	}
	body, _ := io.ReadAll(u.Body)
	s.n++
	id := fmt.Sprintf("foods/%d", s.n)
	s.uploaded = append(s.uploaded, u.Filename+":"+string(body))
	return catalog.Image{URL: "https://res.example.com/" + id + ".jpg", PublicID: id}, nil
}

func (s *stubImages) Destroy(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, publicID)
	return nil
}

type testEnv struct {
	bus    *realtime.Bus
	images *stubImages
	auth   *Auth
	router *chi.Mux
	orders *orders.Service
}

type envOptions struct {
	auth bool
	idem IdempotencyStore
	hub  bool
}

func newEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	log := zap.NewNop()
	env := &testEnv{bus: realtime.NewBus(log), images: &stubImages{}}
	t.Cleanup(env.bus.Close)
	if opts.auth {
		env.auth = NewAuth(testSecret, testAdmin)
	}
	env.orders = orders.NewService(orders.NewMemRepo(), env.bus, log, orders.Options{})

	cfg := RouterConfig{
		Log:            log,
		Foods:          &FoodsHandler{Svc: catalog.NewService(catalog.NewMemRepo(), env.images, env.bus, log), Auth: env.auth, Log: log},
		Orders:         &OrdersHandler{Svc: env.orders, Auth: env.auth, Idem: opts.idem, TableCount: 5, Log: log},
		Auth:           env.auth,
		AllowedOrigins: []string{"http://localhost:5173"},
		RequestTimeout: 5 * time.Second,
	}
	if opts.hub {
		hub := realtime.NewHub(env.bus, cfg.AllowedOrigins, log)
		t.Cleanup(hub.Close)
		cfg.Events = hub
	}
	env.router = NewRouter(cfg)
	return env
}

func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := e.auth.Issue(email, time.Hour)
	require.NoError(t, err)
	return tok
}

type reqOption func(*http.Request)

func bearer(tok string) reqOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func header(k, v string) reqOption {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string, opts ...reqOption) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path string, v any, opts ...reqOption) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if v != nil {
		switch b := v.(type) {
		case string:
			body = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(v)
			require.NoError(t, err)
			body = bytes.NewReader(raw)
		}
	}
	return e.do(t, method, path, body, "application/json", opts...)
}

// multipartBody builds a form; an empty image skips the file part.
func multipartBody(t *testing.T, fields map[string]string, image string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != "" {
		fw, err := mw.CreateFormFile("image", "dish.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte(image))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
