package domain

// ProductDetail is a product enriched for the detail page together with a
// handful of related products.
type ProductDetail struct {
	Product
	RelatedProducts []Product `json:"related_products"`
}
