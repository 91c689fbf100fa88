package domain

// Garment is an immutable catalog entry. The catalog store owns the record;
// the try-on core only reads it.
type Garment struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category,omitempty"`
	Image       string   `json:"image"`
	Images      []string `json:"images,omitempty"`
	Description string   `json:"description"`
	Rating      float64  `json:"rating,omitempty"`
	Reviews     int      `json:"reviews,omitempty"`
}

// CartItem is a garment plus the quantity placed in the shopping cart.
type CartItem struct {
	Garment
	Quantity int `json:"quantity"`
}
