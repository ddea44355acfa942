package repository

import (
	"context"

	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
)

// Notifier operator kanaliga xabar yuborish uchun interface.
// Xatolik buyurtma yaratilishiga ta'sir qilmasligi kerak.
type Notifier interface {
	// NotifyNewOrder yangi buyurtma haqida operatorlarga xabar berish
	NotifyNewOrder(ctx context.Context, order entity.Order, shortfalls []entity.StockShortfall, originalMessage string) error
}
