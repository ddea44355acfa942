package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/constants"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/repository"
)

type memoryCatalog struct {
	mu        sync.RWMutex
	products  map[string]entity.Product // key: SKU (upper)
	customers map[string]entity.Customer
	orders    []entity.Order
	messages  []messageLog

	now func() time.Time
}

type messageLog struct {
	CustomerID string
	OrderID    string
	Channel    string
	Direction  string
	Body       string
	CreatedAt  time.Time
}

// NewMemoryCatalog in-memory katalog repository yaratish. DATABASE_URL
// berilmagan rejim va testlar uchun; Postgres varianti bilan bir xil
// buyurtma raqamlash semantikasiga ega.
func NewMemoryCatalog() repository.CatalogRepository {
	return &memoryCatalog{
		products:  make(map[string]entity.Product),
		customers: make(map[string]entity.Customer),
		now:       time.Now,
	}
}

// FindBySKU aniq SKU bo'yicha mahsulotni olish
func (m *memoryCatalog) FindBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, exists := m.products[strings.ToUpper(sku)]
	if !exists {
		return nil, nil
	}
	return &product, nil
}

// FindByNameToken nomida token bor mahsulotlarni olish
func (m *memoryCatalog) FindByNameToken(ctx context.Context, token string) ([]entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token = strings.ToLower(token)
	var results []entity.Product
	for _, product := range m.products {
		if strings.Contains(strings.ToLower(product.Name), token) {
			results = append(results, product)
		}
	}
	return results, nil
}

// FindAllProducts barcha mahsulotlarni olish
func (m *memoryCatalog) FindAllProducts(ctx context.Context) ([]entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]entity.Product, 0, len(m.products))
	for _, product := range m.products {
		products = append(products, product)
	}
	return products, nil
}

// SaveProducts mahsulotlarni saqlash
func (m *memoryCatalog) SaveProducts(ctx context.Context, products []entity.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, product := range products {
		if product.ID == "" {
			product.ID = uuid.NewString()
		}
		m.products[strings.ToUpper(product.SKU)] = product
	}
	return nil
}

// CreateOrder buyurtma yaratish: mijozni topish/yaratish, shu yil uchun
// navbatdagi raqamni berish, summani server tomonda hisoblash
func (m *memoryCatalog) CreateOrder(ctx context.Context, data entity.CreateOrderData) (*entity.Order, error) {
	if data.CustomerPhone == "" {
		return nil, fmt.Errorf("mijoz telefoni bo'sh")
	}
	if len(data.Items) == 0 {
		return nil, fmt.Errorf("buyurtma pozitsiyalari bo'sh")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	customer, exists := m.customers[data.CustomerPhone]
	if !exists {
		customer = entity.Customer{
			ID:       uuid.NewString(),
			Phone:    data.CustomerPhone,
			Name:     data.CustomerName,
			Email:    data.CustomerEmail,
			TgUserID: data.TgUserID,
			Locale:   data.Locale,
		}
	} else {
		// Yangi ma'lumot bo'lsa to'ldiramiz, borini o'chirmaymiz
		if customer.Name == "" {
			customer.Name = data.CustomerName
		}
		if customer.Email == "" {
			customer.Email = data.CustomerEmail
		}
		if customer.TgUserID == "" {
			customer.TgUserID = data.TgUserID
		}
	}
	m.customers[data.CustomerPhone] = customer

	now := m.now()
	year := now.Year()
	maxSeq := 0
	for _, o := range m.orders {
		if seq := entity.ParseOrderSequence(o.Number, constants.OrderNumberPrefix, year); seq > maxSeq {
			maxSeq = seq
		}
	}
	number := entity.FormatOrderNumber(constants.OrderNumberPrefix, year, maxSeq+1)

	var items []entity.OrderItem
	total := 0.0
	for _, item := range data.Items {
		product, ok := m.products[strings.ToUpper(item.SKU)]
		productID := ""
		if ok {
			productID = product.ID
		}
		amount := item.Price * float64(item.Qty)
		total += amount
		items = append(items, entity.OrderItem{
			ProductID: productID,
			SKU:       item.SKU,
			Name:      item.Name,
			Qty:       item.Qty,
			Price:     item.Price,
			Amount:    amount,
		})
	}

	order := entity.Order{
		ID:          uuid.NewString(),
		Number:      number,
		Customer:    customer,
		Items:       items,
		Status:      "NEW",
		TotalAmount: total,
		Currency:    constants.DefaultCurrency,
		Source:      data.Source,
		CreatedAt:   now,
	}
	m.orders = append(m.orders, order)

	m.messages = append(m.messages, messageLog{
		CustomerID: customer.ID,
		OrderID:    order.ID,
		Channel:    data.Source,
		Direction:  "in",
		Body:       data.OriginalMessage,
		CreatedAt:  now,
	})

	return &order, nil
}

// FindOrderByNumber buyurtmani raqam bo'yicha olish
func (m *memoryCatalog) FindOrderByNumber(ctx context.Context, number string) (*entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	number = strings.ToUpper(number)
	for i := range m.orders {
		if m.orders[i].Number == number {
			order := m.orders[i]
			return &order, nil
		}
	}
	return nil, nil
}
