package orders

import "time"

const (
	EventOrderPlaced        = "newOrderPlaced"
	EventOrderStatusChanged = "orderStatusChanged"
	EventOrderDeleted       = "orderDeleted"
)

// Order is one line item for a table. FoodName, Category and Type are a
// snapshot taken when the order was placed; Price is the line total as
// computed by the client and is stored without recomputation.
type Order struct {
	ID          string    `json:"_id"`
	TableNumber int       `json:"tableNumber"`
	FoodName    string    `json:"foodName"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Status      Status    `json:"status"`
	UserEmail   string    `json:"userEmail"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateInput struct {
	TableNumber int     `json:"tableNumber" validate:"gt=0"`
	FoodName    string  `json:"foodName" validate:"required"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	Price       float64 `json:"price" validate:"gte=0"`
	Status      string  `json:"status"` // defaults to Pending
	UserEmail   string  `json:"userEmail" validate:"required"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required"`
}
