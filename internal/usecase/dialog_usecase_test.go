package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kerneugroup/telegram-order-bot/internal/domain/constants"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/repository"
	"github.com/kerneugroup/telegram-order-bot/internal/infrastructure/storage"
)

// scriptedAI test uchun NLU stub: matn bo'yicha oldindan yozilgan
// intentlarni qaytaradi, qolganiga unknown
type scriptedAI struct {
	intents    map[string]entity.ExtractedIntent
	reply      string
	extractErr error
	replyErr   error
}

func (s *scriptedAI) ExtractIntent(ctx context.Context, text string) (entity.ExtractedIntent, error) {
	if s.extractErr != nil {
		return entity.UnknownIntent(), s.extractErr
	}
	if intent, ok := s.intents[text]; ok {
		return intent, nil
	}
	return entity.UnknownIntent(), nil
}

func (s *scriptedAI) GenerateReply(ctx context.Context, history []entity.Message, hints entity.ReplyHints) (string, error) {
	if s.replyErr != nil {
		return "", s.replyErr
	}
	return s.reply, nil
}

func newTestDialog(catalog repository.CatalogRepository, ai repository.AIRepository) *DialogUseCase {
	codes := NewCodeExtractor([]string{"rev"})
	resolver := NewProductResolver(catalog, NewNormalizer(), codes,
		constants.DefaultJaroWinklerMin, constants.DefaultEditScoreMin)
	orders := NewOrderUseCase(catalog, nil)
	sessions := NewSessionRegistry(100, time.Hour)
	return NewDialogUseCase(ai, resolver, orders, sessions, codes)
}

func newSeededCatalog(t *testing.T) repository.CatalogRepository {
	t.Helper()
	catalog := storage.NewMemoryCatalog()
	err := catalog.SaveProducts(context.Background(), []entity.Product{
		{SKU: "REV-41-1097", Name: "REV Battery Pack 12V", Price: 25000, Currency: "KZT", StockQty: 10},
		{SKU: "REV-41-1303", Name: "REV Expansion Hub", Price: 120000, Currency: "KZT", StockQty: 4},
		{SKU: "ARD-10-UNO", Name: "Arduino Uno R3", Price: 9000, Currency: "KZT", StockQty: 30},
	})
	if err != nil {
		t.Fatalf("SaveProducts() error: %v", err)
	}
	return catalog
}

func allText(msgs []entity.OutboundMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func TestDialogFullOrderFlow(t *testing.T) {
	ai := &scriptedAI{intents: map[string]entity.ExtractedIntent{
		"Нужно 2 аккумулятора": {
			Intent:     entity.IntentPlaceOrder,
			Items:      []entity.ExtractedItem{{Name: "аккумулятор", EnglishName: "battery", Qty: 2}},
			Confidence: 0.9,
		},
	}}
	d := newTestDialog(newSeededCatalog(t), ai)
	ctx := context.Background()

	// 1. Buyurtma niyati: mahsulot topiladi, telefon so'raladi
	out := d.HandleInboundText(ctx, "u1", "Нужно 2 аккумулятора", "ru")
	if len(out) != 2 {
		t.Fatalf("step 1: got %d messages, want 2", len(out))
	}
	if !strings.Contains(out[0].Text, "REV-41-1097") {
		t.Errorf("step 1: summary missing SKU: %q", out[0].Text)
	}
	if !strings.Contains(out[0].Text, "Количество: 2") {
		t.Errorf("step 1: summary missing quantity: %q", out[0].Text)
	}
	if !strings.Contains(out[1].Text, "телефон") {
		t.Errorf("step 1: expected phone prompt, got %q", out[1].Text)
	}

	// 2. Telefon: ism so'raladi
	out = d.HandleInboundText(ctx, "u1", "+7 777 123 45 67", "ru")
	if !strings.Contains(allText(out), "ФИО") {
		t.Errorf("step 2: expected name prompt, got %q", allText(out))
	}

	// 3. Ism: tasdiqlash ko'rsatiladi
	out = d.HandleInboundText(ctx, "u1", "Иван Петров", "ru")
	text := allText(out)
	if !strings.Contains(text, "Подтверждение заказа") {
		t.Errorf("step 3: expected confirmation, got %q", text)
	}
	if !strings.Contains(text, "+77771234567") {
		t.Errorf("step 3: phone not normalized: %q", text)
	}

	// 4. Tasdiqlash: buyurtma yaratiladi
	out = d.HandleInboundText(ctx, "u1", "Да", "ru")
	text = allText(out)
	if !strings.Contains(text, "Заказ успешно создан") {
		t.Fatalf("step 4: expected order created, got %q", text)
	}
	wantNumber := entity.FormatOrderNumber(constants.OrderNumberPrefix, time.Now().Year(), 1)
	if !strings.Contains(text, wantNumber) {
		t.Errorf("step 4: expected order number %q in %q", wantNumber, text)
	}

	// 5. Sessiya tozalangan, buyurtma holati so'ralsa topiladi
	session, release := d.sessions.Acquire("u1", "ru")
	if session.Pending != nil {
		t.Errorf("step 5: pending order not cleared after commit")
	}
	release()

	out = d.HandleInboundText(ctx, "u1", wantNumber, "ru")
	text = allText(out)
	if !strings.Contains(text, "Статус заказа") || !strings.Contains(text, "Новый") {
		t.Errorf("step 5: expected status reply, got %q", text)
	}
}

func TestDialogAmbiguousCodeSurfacesVariants(t *testing.T) {
	d := newTestDialog(newSeededCatalog(t), &scriptedAI{})
	ctx := context.Background()

	// REV-41 ikki SKU ga mos keladi: variantlar ko'rsatiladi, holat
	// oldinga siljimaydi
	out := d.HandleInboundText(ctx, "u2", "REV-41", "ru")
	text := allText(out)
	if !strings.Contains(text, "REV-41-1097") || !strings.Contains(text, "REV-41-1303") {
		t.Fatalf("expected both variants listed, got %q", text)
	}
	if !strings.Contains(text, "артикулы") {
		t.Errorf("expected SKU prompt, got %q", text)
	}

	session, release := d.sessions.Acquire("u2", "ru")
	if session.Pending != nil {
		t.Errorf("pending order must not be created for ambiguous code")
	}
	if len(session.LastProducts) != 2 {
		t.Errorf("LastProducts = %d, want 2", len(session.LastProducts))
	}
	release()

	// Aniqlashtirish: to'liq SKU va miqdor
	out = d.HandleInboundText(ctx, "u2", "REV-41-1303 x2", "ru")
	text = allText(out)
	if !strings.Contains(text, "REV Expansion Hub") {
		t.Errorf("expected resolved hub, got %q", text)
	}
	if !strings.Contains(text, "Количество: 2") {
		t.Errorf("expected explicit quantity 2, got %q", text)
	}
}

func TestDialogContactBackfill(t *testing.T) {
	ai := &scriptedAI{
		reply: "Здравствуйте! Чем могу помочь?",
		intents: map[string]entity.ExtractedIntent{
			"хочу arduino uno": {
				Intent: entity.IntentPlaceOrder,
				Items:  []entity.ExtractedItem{{Name: "arduino uno", Qty: 1}},
			},
		},
	}
	d := newTestDialog(newSeededCatalog(t), ai)
	ctx := context.Background()

	// Foydalanuvchi ismini buyurtmadan oldin aytdi
	d.HandleInboundText(ctx, "u3", "Иван Петров", "ru")

	// Buyurtma boshlangach ism qayta so'ralmaydi, faqat telefon
	out := d.HandleInboundText(ctx, "u3", "хочу arduino uno", "ru")
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	if !strings.Contains(out[1].Text, "телефон") {
		t.Errorf("expected phone prompt, got %q", out[1].Text)
	}

	// Telefon kelgach to'g'ridan-to'g'ri tasdiqlashga o'tadi
	out = d.HandleInboundText(ctx, "u3", "87771234567", "ru")
	text := allText(out)
	if !strings.Contains(text, "Подтверждение заказа") {
		t.Fatalf("expected confirmation, got %q", text)
	}
	if !strings.Contains(text, "Иван Петров") {
		t.Errorf("expected backfilled name, got %q", text)
	}
	if !strings.Contains(text, "+77771234567") {
		t.Errorf("expected normalized 8-prefixed phone, got %q", text)
	}
}

func TestDialogContactCapturedDuringInquiry(t *testing.T) {
	ai := &scriptedAI{intents: map[string]entity.ExtractedIntent{
		"хочу 1 arduino uno": {
			Intent: entity.IntentPlaceOrder,
			Items:  []entity.ExtractedItem{{Name: "arduino uno", Qty: 1}},
		},
		"мой телефон 87771234567, сколько стоит arduino?": {
			Intent:   entity.IntentProductInquiry,
			Products: []entity.ExtractedProduct{{Name: "arduino"}},
		},
	}}
	d := newTestDialog(newSeededCatalog(t), ai)
	ctx := context.Background()

	// Buyurtma boshlanadi, telefon so'raladi
	out := d.HandleInboundText(ctx, "u14", "хочу 1 arduino uno", "ru")
	if !strings.Contains(allText(out), "телефон") {
		t.Fatalf("expected phone prompt, got %q", allText(out))
	}

	// Telefon savol ichida, NLU esa xabarni inquiry deb klassifikatsiya
	// qiladi - baribir pending orderga yozilishi kerak
	out = d.HandleInboundText(ctx, "u14", "мой телефон 87771234567, сколько стоит arduino?", "ru")
	if !strings.Contains(allText(out), "Arduino Uno R3") {
		t.Fatalf("expected product card, got %q", allText(out))
	}

	session, release := d.sessions.Acquire("u14", "ru")
	if session.Pending == nil || session.Pending.CustomerPhone != "+77771234567" {
		release()
		t.Fatalf("phone not captured into pending order: %+v", session.Pending)
	}
	release()

	// Ism kelgach telefon qayta so'ralmasdan tasdiqlashga o'tadi
	out = d.HandleInboundText(ctx, "u14", "Иван Петров", "ru")
	text := allText(out)
	if strings.Contains(text, "номер телефона") {
		t.Errorf("phone asked twice: %q", text)
	}
	if !strings.Contains(text, "Подтверждение заказа") || !strings.Contains(text, "+77771234567") {
		t.Errorf("expected confirmation with captured phone, got %q", text)
	}
}

func TestDialogAmbiguousListCapAndChunking(t *testing.T) {
	catalog := storage.NewMemoryCatalog()
	longTail := strings.Repeat("Expansion Bracket Mount Kit ", 10)
	var products []entity.Product
	for i := 0; i < 20; i++ {
		products = append(products, entity.Product{
			SKU:      fmt.Sprintf("REV-41-%d", 1000+i),
			Name:     fmt.Sprintf("REV Part %02d %s", i, longTail),
			Price:    1000,
			Currency: "KZT",
			StockQty: 5,
		})
	}
	if err := catalog.SaveProducts(context.Background(), products); err != nil {
		t.Fatalf("SaveProducts() error: %v", err)
	}
	d := newTestDialog(catalog, &scriptedAI{})

	out := d.HandleInboundText(context.Background(), "u13", "REV-41", "ru")
	text := allText(out)

	if got := strings.Count(text, "<code>REV-41-"); got != constants.MaxAmbiguousListed {
		t.Errorf("listed %d variants, want %d", got, constants.MaxAmbiguousListed)
	}
	if !strings.Contains(text, "Показаны первые 15 из 20") {
		t.Errorf("expected truncation note in %d-byte reply", len(text))
	}
	// Uzun ro'yxat bir nechta xabarga bo'linadi, har biri limit ostida
	if len(out) < 3 {
		t.Errorf("got %d messages, want at least 2 chunks plus SKU prompt", len(out))
	}
	for i, m := range out {
		if len(m.Text) > constants.TelegramMessageLimit {
			t.Errorf("message %d is %d bytes, over the transport limit", i, len(m.Text))
		}
	}
}

func TestDialogDeclineCancelsOrder(t *testing.T) {
	d := newTestDialog(newSeededCatalog(t), &scriptedAI{})
	ctx := context.Background()

	session, release := d.sessions.Acquire("u4", "ru")
	session.Pending = &entity.PendingOrder{
		Items:         []entity.PendingItem{{Name: "REV Battery Pack 12V", SKU: "REV-41-1097", Qty: 1, Price: 25000}},
		CustomerName:  "Иван Петров",
		CustomerPhone: "+77771234567",
		Step:          entity.StepReady,
	}
	release()

	out := d.HandleInboundText(ctx, "u4", "Нет", "ru")
	if !strings.Contains(allText(out), "Заказ отменен") {
		t.Fatalf("expected cancellation, got %q", allText(out))
	}

	session, release = d.sessions.Acquire("u4", "ru")
	defer release()
	if session.Pending != nil {
		t.Errorf("pending order not cleared after decline")
	}
}

func TestDialogConfirmationReprompt(t *testing.T) {
	d := newTestDialog(newSeededCatalog(t), &scriptedAI{})
	ctx := context.Background()

	session, release := d.sessions.Acquire("u5", "ru")
	session.Pending = &entity.PendingOrder{
		Items:         []entity.PendingItem{{Name: "REV Battery Pack 12V", SKU: "REV-41-1097", Qty: 1, Price: 25000}},
		CustomerName:  "Иван Петров",
		CustomerPhone: "+77771234567",
		Step:          entity.StepReady,
	}
	release()

	// Noaniq javob holatni o'zgartirmaydi
	out := d.HandleInboundText(ctx, "u5", "может быть", "ru")
	if !strings.Contains(allText(out), "\"Да\"") {
		t.Errorf("expected reprompt, got %q", allText(out))
	}

	session, release = d.sessions.Acquire("u5", "ru")
	defer release()
	if session.Pending == nil || session.Pending.Step != entity.StepReady {
		t.Errorf("pending order must stay in ready step after unclear reply")
	}
}

func TestDialogCommitFailureKeepsPending(t *testing.T) {
	// stubCatalog.CreateOrder har doim xato qaytaradi
	catalog := testCatalog()
	d := newTestDialog(catalog, &scriptedAI{})
	ctx := context.Background()

	session, release := d.sessions.Acquire("u6", "ru")
	session.Pending = &entity.PendingOrder{
		Items:         []entity.PendingItem{{Name: "REV Battery Pack 12V", SKU: "REV-41-1097", Qty: 1, Price: 25000}},
		CustomerName:  "Иван Петров",
		CustomerPhone: "+77771234567",
		Step:          entity.StepReady,
	}
	release()

	out := d.HandleInboundText(ctx, "u6", "Да", "ru")
	if !strings.Contains(allText(out), "ошибка") {
		t.Fatalf("expected error reply, got %q", allText(out))
	}

	// Buyurtma yo'qolmaydi: foydalanuvchi qayta "Да" deyishi mumkin
	session, release = d.sessions.Acquire("u6", "ru")
	defer release()
	if session.Pending == nil || session.Pending.Step != entity.StepReady {
		t.Errorf("pending order must survive a commit failure")
	}
}

func TestDialogCancelCommand(t *testing.T) {
	d := newTestDialog(newSeededCatalog(t), &scriptedAI{})
	ctx := context.Background()

	session, release := d.sessions.Acquire("u7", "ru")
	session.Pending = &entity.PendingOrder{Step: entity.StepCollectingInfo}
	release()

	for _, cmd := range []string{"/cancel", "отмена", "Cancel"} {
		session, release = d.sessions.Acquire("u7", "ru")
		session.Pending = &entity.PendingOrder{Step: entity.StepCollectingInfo}
		release()

		out := d.HandleInboundText(ctx, "u7", cmd, "ru")
		if !strings.Contains(allText(out), "отменена") {
			t.Errorf("cancel %q: got %q", cmd, allText(out))
		}
		session, release = d.sessions.Acquire("u7", "ru")
		if session.Pending != nil {
			t.Errorf("cancel %q: pending not cleared", cmd)
		}
		release()
	}
}

func TestDialogUnknownProductAsksForClarification(t *testing.T) {
	ai := &scriptedAI{intents: map[string]entity.ExtractedIntent{
		"хочу слона": {
			Intent: entity.IntentPlaceOrder,
			Items:  []entity.ExtractedItem{{Name: "слон", Qty: 1}},
		},
	}}
	d := newTestDialog(newSeededCatalog(t), ai)

	out := d.HandleInboundText(context.Background(), "u8", "хочу слона", "ru")
	if !strings.Contains(allText(out), "не смог найти") {
		t.Errorf("expected clarification request, got %q", allText(out))
	}
}

func TestDialogAIFailureDegradesGracefully(t *testing.T) {
	ai := &scriptedAI{
		extractErr: errors.New("deadline exceeded"),
		replyErr:   errors.New("deadline exceeded"),
	}
	d := newTestDialog(newSeededCatalog(t), ai)

	out := d.HandleInboundText(context.Background(), "u9", "привет", "ru")
	if len(out) != 1 {
		t.Fatalf("got %d messages, want 1", len(out))
	}
	if !strings.Contains(out[0].Text, "Не совсем понял") {
		t.Errorf("expected fallback reply, got %q", out[0].Text)
	}
}

func TestDialogProductInquiry(t *testing.T) {
	ai := &scriptedAI{intents: map[string]entity.ExtractedIntent{
		"сколько стоит arduino?": {
			Intent:   entity.IntentProductInquiry,
			Products: []entity.ExtractedProduct{{Name: "arduino"}},
		},
	}}
	d := newTestDialog(newSeededCatalog(t), ai)

	out := d.HandleInboundText(context.Background(), "u10", "сколько стоит arduino?", "ru")
	text := allText(out)
	if !strings.Contains(text, "Arduino Uno R3") {
		t.Fatalf("expected product card, got %q", text)
	}
	if !strings.Contains(text, "9000") {
		t.Errorf("expected price from catalog, got %q", text)
	}

	session, release := d.sessions.Acquire("u10", "ru")
	defer release()
	if session.Pending != nil {
		t.Errorf("inquiry must not create a pending order")
	}
}

func TestDialogEnglishLocale(t *testing.T) {
	ai := &scriptedAI{intents: map[string]entity.ExtractedIntent{
		"I need 2 batteries": {
			Intent: entity.IntentPlaceOrder,
			Items:  []entity.ExtractedItem{{Name: "battery", Qty: 2}},
		},
	}}
	d := newTestDialog(newSeededCatalog(t), ai)

	out := d.HandleInboundText(context.Background(), "u11", "I need 2 batteries", "en")
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	if !strings.Contains(out[1].Text, "phone number") {
		t.Errorf("expected english phone prompt, got %q", out[1].Text)
	}
}

func TestToggleLocale(t *testing.T) {
	d := newTestDialog(newSeededCatalog(t), &scriptedAI{})

	if got := d.ToggleLocale("u12"); got != "en" {
		t.Errorf("ToggleLocale() = %q, want %q", got, "en")
	}
	if got := d.ToggleLocale("u12"); got != "ru" {
		t.Errorf("ToggleLocale() = %q, want %q", got, "ru")
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+7 777 123 45 67", "+77771234567"},
		{"8-777-123-45-67", "+77771234567"},
		{"77771234567", "+77771234567"},
	}
	for _, tt := range tests {
		if got := normalizePhone(tt.input); got != tt.want {
			t.Errorf("normalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAcceptableName(t *testing.T) {
	codes := NewCodeExtractor([]string{"rev"})

	tests := []struct {
		input string
		want  string
	}{
		{"Иван Петров", "Иван Петров"},
		{"Асел Нурланова Каримкызы", "Асел Нурланова Каримкызы"},
		{"Иван", ""},            // bitta so'z
		{"привет", ""},          // salom
		{"rev 41", ""},          // kod shakli
		{"Иван Петров 1990", ""}, // raqam bor
	}
	for _, tt := range tests {
		if got := acceptableName(tt.input, codes); got != tt.want {
			t.Errorf("acceptableName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
