package catalog

import "time"

const (
	EventFoodAdded   = "newFoodAdded"
	EventFoodUpdated = "foodUpdated"
	EventFoodDeleted = "foodDeleted"
)

// Image points at an asset on the blob host. PublicID is what the host
// needs to delete it.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type Food struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Type      string    `json:"type"` // Veg | Non-Veg, by convention
	Price     float64   `json:"price"`
	Available bool      `json:"available"`
	Image     *Image    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f Food) clone() Food {
	if f.Image != nil {
		img := *f.Image
		f.Image = &img
	}
	return f
}
