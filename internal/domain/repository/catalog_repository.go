package repository

import (
	"context"

	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
)

// CatalogRepository katalog va buyurtmalar bilan ishlash uchun interface
type CatalogRepository interface {
	// FindBySKU aniq SKU bo'yicha mahsulotni olish (topilmasa nil, nil)
	FindBySKU(ctx context.Context, sku string) (*entity.Product, error)

	// FindByNameToken nomida token bor mahsulotlarni olish
	// (katta-kichik harfga sezgir emas, substring)
	FindByNameToken(ctx context.Context, token string) ([]entity.Product, error)

	// FindAllProducts barcha mahsulotlarni olish
	FindAllProducts(ctx context.Context) ([]entity.Product, error)

	// SaveProducts mahsulotlarni saqlash (katalog import uchun)
	SaveProducts(ctx context.Context, products []entity.Product) error

	// CreateOrder buyurtma yaratish: mijozni topish/yaratish, raqam berish,
	// pozitsiyalar va kiruvchi xabarni yozish
	CreateOrder(ctx context.Context, data entity.CreateOrderData) (*entity.Order, error)

	// FindOrderByNumber buyurtmani raqam bo'yicha olish (topilmasa nil, nil)
	FindOrderByNumber(ctx context.Context, number string) (*entity.Order, error)
}
