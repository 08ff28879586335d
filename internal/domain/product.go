package domain

// Product represents a plant in the catalog. Prices are whole VND amounts.
type Product struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Price            int64    `json:"price"`
	OldPrice         int64    `json:"old_price,omitempty"`
	Image            string   `json:"image"`
	Images           []string `json:"images,omitempty"`
	IsNew            bool     `json:"is_new"`
	DiscountPercent  int      `json:"discount_percent,omitempty"`
	Rating           float64  `json:"rating"`
	Description      string   `json:"description,omitempty"`
	ShortDescription string   `json:"short_description,omitempty"`
	FullDescription  string   `json:"full_description,omitempty"`
	Category         string   `json:"category,omitempty"`
	Stock            int      `json:"stock"`
	Color            string   `json:"color,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}
