package catalog

import (
	"io"
	"math"
	"net/url"
	"strings"

	"github.com/spf13/cast"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
)

type CreateInput struct {
	Name      string   `json:"name" validate:"required"`
	Category  string   `json:"category"`
	Type      string   `json:"type"`
	Price     *float64 `json:"price" validate:"required,gte=0"`
	Available *bool    `json:"available"` // nil means true
}

// UpdateInput leaves nil fields untouched.
type UpdateInput struct {
	Name      *string  `json:"name" validate:"omitnil,min=1"`
	Category  *string  `json:"category"`
	Type      *string  `json:"type"`
	Price     *float64 `json:"price" validate:"omitempty,gte=0"`
	Available *bool    `json:"available"`
}

// trim applies the same whitespace rules to JSON bodies as to forms.
func (in *CreateInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Type = strings.TrimSpace(in.Type)
}

func (in *UpdateInput) trim() {
	in.Name = trimmed(in.Name)
	in.Category = trimmed(in.Category)
	in.Type = trimmed(in.Type)
}

// trimmed copies so the caller's string is left alone.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

// Upload is an image file received with a create or update.
type Upload struct {
	Filename string
	Body     io.Reader
}

// CreateInputFromForm reads the multipart text fields of a create request.
func CreateInputFromForm(form url.Values) (CreateInput, error) {
	in := CreateInput{
		Name:     strings.TrimSpace(form.Get("name")),
		Category: strings.TrimSpace(form.Get("category")),
		Type:     strings.TrimSpace(form.Get("type")),
	}
	var err error
	if in.Price, err = parsePrice(form.Get("price")); err != nil {
		return CreateInput{}, err
	}
	if in.Available, err = parseAvailable(form.Get("available")); err != nil {
		return CreateInput{}, err
	}
	return in, nil
}

// UpdateInputFromForm treats empty text fields as not supplied.
func UpdateInputFromForm(form url.Values) (UpdateInput, error) {
	var in UpdateInput
	in.Name = optional(form.Get("name"))
	in.Category = optional(form.Get("category"))
	in.Type = optional(form.Get("type"))

	var err error
	if in.Price, err = parsePrice(form.Get("price")); err != nil {
		return UpdateInput{}, err
	}
	if in.Available, err = parseAvailable(form.Get("available")); err != nil {
		return UpdateInput{}, err
	}
	return in, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func parsePrice(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	p, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return nil, apperr.Validation("price must be a number")
	}
	return &p, nil
}

func parseAvailable(s string) (*bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	b, err := cast.ToBoolE(strings.ToLower(s))
	if err != nil {
		return nil, apperr.Validation("available must be true or false")
	}
	return &b, nil
}
