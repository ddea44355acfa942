package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
)

// failingNotifier operator kanali ishlamay qolgan holatni taqlid qiladi
type failingNotifier struct {
	calls int
}

func (n *failingNotifier) NotifyNewOrder(ctx context.Context, order entity.Order, shortfalls []entity.StockShortfall, originalMessage string) error {
	n.calls++
	return errors.New("telegram: bad gateway")
}

func TestCommitSurvivesNotifierFailure(t *testing.T) {
	notifier := &failingNotifier{}
	orders := NewOrderUseCase(newSeededCatalog(t), notifier)

	session := &entity.Session{
		Key:    "42",
		Locale: "ru",
		Pending: &entity.PendingOrder{
			Items:         []entity.PendingItem{{Name: "REV Battery Pack 12V", SKU: "REV-41-1097", Qty: 20, Price: 25000}},
			CustomerName:  "Иван Петров",
			CustomerPhone: "+77771234567",
			Step:          entity.StepReady,
		},
	}

	result, err := orders.Commit(context.Background(), session, "telegram")
	if err != nil {
		t.Fatalf("Commit() error: %v (notifier failure must not fail the order)", err)
	}
	if result.Order.Number == "" {
		t.Errorf("order number is empty")
	}
	if notifier.calls != 1 {
		t.Errorf("notifier calls = %d, want 1", notifier.calls)
	}
	// Qoldiq yetishmasligi ham buyurtmani bloklamaydi, faqat belgilanadi
	if len(result.Shortfalls) != 1 || result.Shortfalls[0].Available != 10 {
		t.Errorf("shortfalls = %+v, want one entry with 10 available", result.Shortfalls)
	}
}
