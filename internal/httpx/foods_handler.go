package httpx

import (
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
	"github.com/Seenusharmma/POS-FF/internal/catalog"
)

const (
	maxFormMemory = 32 << 20
	maxFormBody   = 12 << 20
	imageField    = "image"
)

type FoodsHandler struct {
	Svc  *catalog.Service
	Auth *Auth
	Log  *zap.Logger
}

func (h *FoodsHandler) Register(r chi.Router) {
	r.Get("/foods", h.list)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAdmin)
		r.Post("/foods", h.create)
		r.Put("/foods/{id}", h.update)
		r.Delete("/foods/{id}", h.delete)
	})
}

type foodCreated struct {
	Message string       `json:"message"`
	Food    catalog.Food `json:"food"`
}

func (h *FoodsHandler) list(w http.ResponseWriter, r *http.Request) {
	foods, err := h.Svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

func (h *FoodsHandler) create(w http.ResponseWriter, r *http.Request) {
	req, err := readFoodRequest(w, r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	defer req.close()

	var in catalog.CreateInput
	if req.isJSON {
		err = decodeJSON(w, r, &in)
	} else {
		in, err = catalog.CreateInputFromForm(req.form)
	}
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	food, err := h.Svc.Create(r.Context(), in, req.image)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, foodCreated{Message: "Food added successfully", Food: food})
}

func (h *FoodsHandler) update(w http.ResponseWriter, r *http.Request) {
	req, err := readFoodRequest(w, r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	defer req.close()

	var in catalog.UpdateInput
	if req.isJSON {
		err = decodeJSON(w, r, &in)
	} else {
		in, err = catalog.UpdateInputFromForm(req.form)
	}
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	food, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), in, req.image)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, food)
}

func (h *FoodsHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Food deleted successfully"})
}

type foodRequest struct {
	isJSON bool
	form   url.Values
	image  *catalog.Upload
	files  []func()
}

func (f foodRequest) close() {
	for _, fn := range f.files {
		fn()
	}
}

// readFoodRequest parses multipart and urlencoded bodies. A JSON body is
// left unread for decodeJSON.
func readFoodRequest(w http.ResponseWriter, r *http.Request) (foodRequest, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/json":
		return foodRequest{isJSON: true}, nil
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return foodRequest{}, apperr.Validationf("invalid multipart body: %v", err)
		}
		req := foodRequest{form: url.Values(r.MultipartForm.Value)}
		req.files = append(req.files, func() { _ = r.MultipartForm.RemoveAll() })

		file, hdr, err := r.FormFile(imageField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			req.close()
			return foodRequest{}, apperr.Validationf("invalid image upload: %v", err)
		default:
			req.image = &catalog.Upload{Filename: hdr.Filename, Body: file}
			req.files = append(req.files, func() { _ = file.Close() })
		}
		return req, nil
	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			return foodRequest{}, apperr.Validationf("invalid form body: %v", err)
		}
		return foodRequest{form: r.PostForm}, nil
	}
}
