package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Customer buyurtma egasi
type Customer struct {
	ID       string `json:"id"`
	Phone    string `json:"phone"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	TgUserID string `json:"tg_user_id,omitempty"`
	Locale   string `json:"locale"`
}

// OrderItem yaratilgan buyurtmadagi pozitsiya
type OrderItem struct {
	ProductID string  `json:"product_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
}

// Order yaratilgan buyurtma
type Order struct {
	ID          string      `json:"id"`
	Number      string      `json:"number"` // format: KG-YYYY-NNNNNN
	Customer    Customer    `json:"customer"`
	Items       []OrderItem `json:"items"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	Currency    string      `json:"currency"`
	Source      string      `json:"source"`
	CreatedAt   time.Time   `json:"created_at"`
}

// CreateOrderData buyurtma yaratish uchun so'rov
type CreateOrderData struct {
	CustomerPhone   string
	CustomerName    string
	CustomerEmail   string
	TgUserID        string
	Items           []PendingItem
	Source          string
	OriginalMessage string
	Locale          string
}

// StockShortfall qoldiq yetishmasligi (buyurtmani bloklamaydi, faqat
// operatorga bildiriladi)
type StockShortfall struct {
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// CommitResult order compiler natijasi
type CommitResult struct {
	Order      Order
	Shortfalls []StockShortfall
}

// FormatOrderNumber buyurtma raqamini formatlash: KG-YYYY-NNNNNN
func FormatOrderNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, seq)
}

// ParseOrderSequence raqamdan yil ketma-ketligini ajratib olish.
// Format mos kelmasa 0 qaytaradi.
func ParseOrderSequence(number, prefix string, year int) int {
	want := fmt.Sprintf("%s-%04d-", prefix, year)
	if !strings.HasPrefix(number, want) {
		return 0
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, want))
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}
