package entity

// Product katalogdagi mahsulot (faqat o'qish uchun)
type Product struct {
	ID       string  `json:"id"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	StockQty int     `json:"stock_qty"`
	URL      string  `json:"url,omitempty"`
}
