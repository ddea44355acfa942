package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/repository"
)

// OrderUseCase tasdiqlangan pending orderni yakuniy buyurtmaga aylantiradi
type OrderUseCase struct {
	catalog  repository.CatalogRepository
	notifier repository.Notifier
}

// NewOrderUseCase order compiler yaratish
func NewOrderUseCase(catalog repository.CatalogRepository, notifier repository.Notifier) *OrderUseCase {
	return &OrderUseCase{catalog: catalog, notifier: notifier}
}

// Commit pending orderni buyurtmaga aylantirish. Har bir pozitsiya commit
// paytida katalogdan qayta o'qiladi - session keshidagi narx va qoldiqqa
// ishonilmaydi. Qoldiq yetishmasa buyurtma bloklanmaydi, operator uchun
// belgilanadi. Notifier xatosi buyurtma yaratilishini bekor qilmaydi.
func (u *OrderUseCase) Commit(ctx context.Context, session *entity.Session, source string) (*entity.CommitResult, error) {
	po := session.Pending
	if po == nil || len(po.Items) == 0 {
		return nil, fmt.Errorf("pending order bo'sh")
	}

	var items []entity.PendingItem
	var shortfalls []entity.StockShortfall
	for _, item := range po.Items {
		product, err := u.catalog.FindBySKU(ctx, strings.ToUpper(item.SKU))
		if err != nil {
			return nil, fmt.Errorf("mahsulotni tekshirib bo'lmadi (%s): %w", item.SKU, err)
		}
		if product == nil {
			log.Printf("⚠️ Mahsulot katalogdan yo'qolgan, o'tkazib yuborildi: %s (%s)", item.Name, item.SKU)
			continue
		}
		if product.StockQty < item.Qty {
			shortfalls = append(shortfalls, entity.StockShortfall{
				Name:      product.Name,
				SKU:       product.SKU,
				Requested: item.Qty,
				Available: product.StockQty,
			})
		}
		items = append(items, entity.PendingItem{
			Name:  product.Name,
			SKU:   product.SKU,
			Qty:   item.Qty,
			Price: product.Price, // har doim katalogdan, hech qachon sessiondan
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("buyurtma uchun yaroqli pozitsiya topilmadi")
	}

	order, err := u.catalog.CreateOrder(ctx, entity.CreateOrderData{
		CustomerPhone:   po.CustomerPhone,
		CustomerName:    po.CustomerName,
		CustomerEmail:   po.CustomerEmail,
		TgUserID:        session.Key,
		Items:           items,
		Source:          source,
		OriginalMessage: po.OriginalMessage,
		Locale:          session.Locale,
	})
	if err != nil {
		return nil, fmt.Errorf("buyurtma yaratilmadi: %w", err)
	}

	if u.notifier != nil {
		if err := u.notifier.NotifyNewOrder(ctx, *order, shortfalls, po.OriginalMessage); err != nil {
			log.Printf("⚠️ Operator notifikatsiyasi yuborilmadi (buyurtma saqlangan): %v", err)
		}
	}

	return &entity.CommitResult{Order: *order, Shortfalls: shortfalls}, nil
}

// FindOrderByNumber buyurtmani raqam bo'yicha olish
func (u *OrderUseCase) FindOrderByNumber(ctx context.Context, number string) (*entity.Order, error) {
	return u.catalog.FindOrderByNumber(ctx, strings.ToUpper(number))
}
