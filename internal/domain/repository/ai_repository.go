package repository

import (
	"context"

	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
)

// AIRepository AI bilan ishlash uchun interface
type AIRepository interface {
	// ExtractIntent erkin matndan strukturali niyatni ajratib olish.
	// Malformed javob unknown intentga degradatsiya qilinadi.
	ExtractIntent(ctx context.Context, text string) (entity.ExtractedIntent, error)

	// GenerateReply umumiy suhbat uchun javob yaratish (chat tarixi kontekst
	// sifatida ishlatiladi)
	GenerateReply(ctx context.Context, history []entity.Message, hints entity.ReplyHints) (string, error)
}
