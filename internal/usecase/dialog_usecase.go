package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/kerneugroup/telegram-order-bot/internal/domain/constants"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/repository"
)

var (
	phoneRegex       = regexp.MustCompile(`(\+7|8|7)[\s\-]?(\d{3})[\s\-]?(\d{3})[\s\-]?(\d{2})[\s\-]?(\d{2})`)
	emailRegex       = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	orderNumberRegex = regexp.MustCompile(`(?i)KG-\d{4}-\d{6}`)
	yesRegex         = regexp.MustCompile(`^(?i)(да|yes|y|д|\+)$`)
	noRegex          = regexp.MustCompile(`^(?i)(нет|no|n|н|-)$`)
	symbolicRegex    = regexp.MustCompile(`[\d_\-]`)
)

var greetings = []string{
	"привет", "здравствуйте", "салам", "салем", "салом",
	"добрый день", "доброе утро", "добрый вечер",
	"hi", "hello", "hey", "good morning", "good evening",
}

var cancelWords = []string{"/cancel", "отмена", "cancel"}

type resolvedItem struct {
	product entity.Product
	qty     int
}

// DialogUseCase har bir sessiya uchun dialog state machine:
// Idle -> CollectingItems -> CollectingInfo -> Confirming -> Committed/Cancelled.
// Sessiya holatini faqat shu use case o'zgartiradi; bitta sessiya ichida
// xabarlar registry locki tufayli ketma-ket qayta ishlanadi.
type DialogUseCase struct {
	ai       repository.AIRepository
	resolver *ProductResolver
	orders   *OrderUseCase
	sessions *SessionRegistry
	codes    *CodeExtractor

	extractTimeout time.Duration
	maxContext     int
}

// NewDialogUseCase dialog use case yaratish
func NewDialogUseCase(ai repository.AIRepository, resolver *ProductResolver, orders *OrderUseCase, sessions *SessionRegistry, codes *CodeExtractor) *DialogUseCase {
	return &DialogUseCase{
		ai:             ai,
		resolver:       resolver,
		orders:         orders,
		sessions:       sessions,
		codes:          codes,
		extractTimeout: constants.ExtractTimeoutSeconds * time.Second,
		maxContext:     constants.DefaultMaxContextSize,
	}
}

// HandleInboundText bitta kiruvchi xabarni qayta ishlash. Transport
// adapterlarga ochiq yagona kirish nuqtasi: nol yoki bir nechta javob
// xabarini qaytaradi. Hech qachon panic/error bilan tugamaydi - barcha
// xatolar suhbat javobiga degradatsiya qilinadi.
func (u *DialogUseCase) HandleInboundText(ctx context.Context, sessionKey, text, locale string) []entity.OutboundMessage {
	session, release := u.sessions.Acquire(sessionKey, locale)
	defer release()
	return u.process(ctx, session, text)
}

// ResetSession sessiya holatini tozalash (/start uchun)
func (u *DialogUseCase) ResetSession(sessionKey, locale string) {
	session, release := u.sessions.Acquire(sessionKey, locale)
	defer release()
	session.Locale = locale
	session.Messages = nil
	session.LastProducts = nil
	session.Pending = nil
}

// ToggleLocale sessiya tilini almashtirish (/lang uchun)
func (u *DialogUseCase) ToggleLocale(sessionKey string) string {
	session, release := u.sessions.Acquire(sessionKey, "ru")
	defer release()
	if session.Locale == "ru" {
		session.Locale = "en"
	} else {
		session.Locale = "ru"
	}
	return session.Locale
}

func (u *DialogUseCase) process(ctx context.Context, session *entity.Session, text string) []entity.OutboundMessage {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Kontakt ma'lumotlarini buyurtma boshlanmasidan oldin ham yig'amiz
	u.tryCollectContactInfo(session, text)

	// Bekor qilish har qanday holatdan ishlaydi
	if isCancelCommand(text) {
		return u.cancelPending(session)
	}

	// Tasdiq kutilayotgan bo'lsa ha/yo'q shu yerda hal bo'ladi
	if session.Pending != nil && session.Pending.Step == entity.StepReady {
		return u.handleConfirmation(ctx, session, text)
	}

	// Buyurtma raqami so'rovi
	if number := orderNumberRegex.FindString(text); number != "" {
		return u.handleStatusCheck(ctx, session, number)
	}

	session.Messages = append(session.Messages, entity.Message{Role: "user", Text: text})
	u.trimHistory(session)

	extracted := u.extract(ctx, text)

	// Tez yo'l: foydalanuvchi REV-41 kabi kod yozgan bo'lsa, NLU natijasidan
	// qat'i nazar buyurtma niyati sifatida qaraladi
	if (extracted.Intent == entity.IntentProductInquiry || extracted.Intent == entity.IntentUnknown) &&
		u.codes.LooksLikeProductCode(text) {
		quick := entity.ExtractedIntent{
			Intent:     entity.IntentPlaceOrder,
			Items:      []entity.ExtractedItem{{Name: text, Qty: 1}},
			Confidence: 1,
		}
		return u.handleOrderIntent(ctx, session, quick, text)
	}

	switch {
	case extracted.Intent == entity.IntentPlaceOrder && len(extracted.Items) > 0:
		return u.handleOrderIntent(ctx, session, extracted, text)
	case extracted.Intent == entity.IntentProductInquiry:
		return u.handleProductInquiry(ctx, session, extracted, text)
	case extracted.Intent == entity.IntentCheckStatus:
		return []entity.OutboundMessage{{Text: loc(session.Locale,
			"Пожалуйста, укажите номер заказа в формате KG-YYYY-XXXXXX",
			"Please provide the order number in format KG-YYYY-XXXXXX")}}
	default:
		return u.handleGeneralMessage(ctx, session, text)
	}
}

// extract NLU extractorni chegaralangan timeout bilan chaqirish.
// Har qanday xato unknown intentga degradatsiya qilinadi - NLU to'xtab
// qolishi sessiyani to'xtatmasligi kerak.
func (u *DialogUseCase) extract(ctx context.Context, text string) entity.ExtractedIntent {
	ctx, cancel := context.WithTimeout(ctx, u.extractTimeout)
	defer cancel()

	extracted, err := u.ai.ExtractIntent(ctx, text)
	if err != nil {
		log.Printf("⚠️ NLU extraction xatosi: %v", err)
		return entity.UnknownIntent()
	}
	return extracted
}

func (u *DialogUseCase) handleOrderIntent(ctx context.Context, session *entity.Session, extracted entity.ExtractedIntent, originalText string) []entity.OutboundMessage {
	explicitQty := u.codes.ExtractQty(originalText)

	var resolved []resolvedItem
	var ambiguous []entity.Product
	ambiguousSeen := make(map[string]struct{})

	for _, item := range extracted.Items {
		name := item.EnglishName
		if name == "" {
			name = item.Name
		}
		// Aniq miqdor iborasi NLU miqdoridan ustun, u ham bo'lmasa 1
		qty := explicitQty
		if qty == 0 {
			qty = item.Qty
		}
		if qty == 0 {
			qty = 1
		}

		// Avval oxirgi ko'rsatilgan mahsulotlar ichidan qidiramiz
		// (follow-up havolalar uchun)
		if p := matchLastProducts(session.LastProducts, name, item.SKU); p != nil {
			resolved = append(resolved, resolvedItem{product: *p, qty: qty})
			continue
		}

		outcome := u.resolver.Resolve(ctx, name)
		switch outcome.Kind {
		case entity.MatchSingle:
			resolved = append(resolved, resolvedItem{product: outcome.Single(), qty: qty})
		case entity.MatchAmbiguous:
			if u.codes.LooksLikeProductCode(name) {
				// Kod prefiksi bir nechta SKU ga mos keldi - birinchisini
				// jimgina tanlamaymiz, foydalanuvchidan so'raymiz
				for _, p := range outcome.Products {
					if _, ok := ambiguousSeen[p.SKU]; ok {
						continue
					}
					ambiguousSeen[p.SKU] = struct{}{}
					ambiguous = append(ambiguous, p)
				}
			} else {
				resolved = append(resolved, resolvedItem{product: outcome.Products[0], qty: qty})
			}
		case entity.MatchNone:
			log.Printf("⚠️ Mahsulot topilmadi: %s", name)
		}
	}

	if len(resolved) == 0 && len(ambiguous) == 0 {
		return []entity.OutboundMessage{{Text: loc(session.Locale,
			"Извините, я не смог найти подходящие товары. Можете уточнить точные названия или артикулы?",
			"Sorry, I couldn't find any matching products. Could you please specify the exact product names or SKUs?")}}
	}

	// Noaniq to'plam: variantlarni ko'rsatamiz, holat oldinga siljimaydi
	if len(ambiguous) > 0 {
		session.LastProducts = ambiguous
		out := u.renderProductList(session.Locale, ambiguous)
		out = append(out, entity.OutboundMessage{Text: loc(session.Locale,
			`Пожалуйста, укажите какие именно артикулы и количество (например, "REV-41-1303 x2, REV-41-1304 x1").`,
			`Please specify which SKU(s) you want and quantities (e.g., "REV-41-1303 x2, REV-41-1304 x1").`)})
		return out
	}

	if session.Pending == nil {
		session.Pending = &entity.PendingOrder{Step: entity.StepCollectingInfo}
	}
	for _, ri := range resolved {
		session.Pending.Items = append(session.Pending.Items, entity.PendingItem{
			Name:  ri.product.Name,
			SKU:   ri.product.SKU,
			Qty:   ri.qty,
			Price: ri.product.Price,
		})
	}
	session.Pending.OriginalMessage = originalText

	products := make([]entity.Product, len(resolved))
	for i, ri := range resolved {
		products[i] = ri.product
	}
	session.LastProducts = products

	// Sessiya darajasida yig'ilgan kontaktlarni back-fill qilamiz -
	// telefonini so'ralmasdan bergan foydalanuvchidan qayta so'ramaymiz
	if session.Pending.CustomerPhone == "" {
		session.Pending.CustomerPhone = session.CollectedPhone
	}
	if session.Pending.CustomerName == "" {
		session.Pending.CustomerName = session.CollectedName
	}

	out := []entity.OutboundMessage{u.renderItemsSummary(session.Locale, resolved)}

	missing := missingOrderInfo(session.Pending, session.Locale)
	if len(missing) > 0 {
		// Bir vaqtda faqat bitta yetishmayotgan slot so'raladi
		out = append(out, entity.OutboundMessage{Text: slotPrompt(session.Locale, missing[0])})
		return out
	}

	session.Pending.Step = entity.StepConfirming
	return append(out, u.showOrderConfirmation(session, originalText)...)
}

func (u *DialogUseCase) handleProductInquiry(ctx context.Context, session *entity.Session, extracted entity.ExtractedIntent, originalText string) []entity.OutboundMessage {
	var names []string
	if len(extracted.Products) > 0 {
		for _, p := range extracted.Products {
			name := p.EnglishName
			if name == "" {
				name = p.Name
			}
			names = append(names, name)
		}
	} else {
		for _, p := range session.LastProducts {
			names = append(names, p.Name)
		}
	}

	seen := make(map[string]struct{})
	var found []entity.Product
	for _, name := range names {
		if sku := u.codes.ExtractSKU(name + " " + originalText); sku != "" {
			if p := u.resolver.ResolveBySKU(ctx, sku); p != nil {
				if _, ok := seen[p.SKU]; !ok {
					seen[p.SKU] = struct{}{}
					found = append(found, *p)
				}
				continue
			}
		}
		outcome := u.resolver.Resolve(ctx, name)
		for _, p := range outcome.Products {
			if _, ok := seen[p.SKU]; ok {
				continue
			}
			seen[p.SKU] = struct{}{}
			found = append(found, p)
		}
	}

	if len(found) == 0 {
		return []entity.OutboundMessage{{Text: loc(session.Locale,
			"Извините, я не смог найти информацию о этих товарах. Можете уточнить точные названия?",
			"Sorry, I couldn't find information about those products. Could you please specify the exact product names?")}}
	}

	session.LastProducts = found
	out := u.renderProductList(session.Locale, found)
	out = append(out, entity.OutboundMessage{Text: loc(session.Locale,
		`Хотите заказать какие-либо из этих товаров? Укажите артикулы и количество (например, "REV-41-1303 x2").`,
		`Would you like to order any of these products? Please specify the SKU(s) and quantities (e.g., "REV-41-1303 x2").`)})
	return out
}

func (u *DialogUseCase) handleGeneralMessage(ctx context.Context, session *entity.Session, text string) []entity.OutboundMessage {
	// Pending order ma'lumot kutayotgan bo'lsa slotlarni to'ldiramiz
	if session.Pending != nil && session.Pending.Step == entity.StepCollectingInfo {
		return u.collectOrderInformation(session, text)
	}

	hints := entity.ReplyHints{Locale: session.Locale}
	if len(session.LastProducts) > 0 {
		var b strings.Builder
		b.WriteString("Available products:\n")
		for _, p := range session.LastProducts {
			fmt.Fprintf(&b, "%s — %.0f%s (SKU: %s)\n", p.Name, p.Price, currencySign(p.Currency), p.SKU)
		}
		hints.ProductContext = b.String()
	}

	reply, err := u.ai.GenerateReply(ctx, session.Messages, hints)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			log.Printf("⚠️ AI javob xatosi: %v", err)
		}
		reply = loc(session.Locale,
			"Не совсем понял, уточните, пожалуйста.",
			"Could you clarify, please?")
	}

	session.Messages = append(session.Messages, entity.Message{Role: "assistant", Text: reply})
	u.trimHistory(session)
	return []entity.OutboundMessage{{Text: reply}}
}

// collectOrderInformation har bir kiruvchi xabarni NLU dan mustaqil ravishda
// telefon, email va ism uchun skanerlaydi. Yetishmayotgan slotlar qat'iy
// tartibda so'raladi: avval telefon, keyin ism.
func (u *DialogUseCase) collectOrderInformation(session *entity.Session, text string) []entity.OutboundMessage {
	po := session.Pending

	phoneMatch := phoneRegex.FindString(text)
	if phoneMatch != "" && po.CustomerPhone == "" {
		po.CustomerPhone = normalizePhone(phoneMatch)
		session.CollectedPhone = po.CustomerPhone
	}

	emailMatch := emailRegex.FindString(text)
	if emailMatch != "" && po.CustomerEmail == "" {
		po.CustomerEmail = emailMatch
	}

	if po.CustomerName == "" && phoneMatch == "" && emailMatch == "" {
		if name := acceptableName(text, u.codes); name != "" {
			po.CustomerName = name
			session.CollectedName = name
		}
	}

	missing := missingOrderInfo(po, session.Locale)
	if len(missing) > 0 {
		return []entity.OutboundMessage{{Text: slotPrompt(session.Locale, missing[0])}}
	}

	po.Step = entity.StepConfirming
	return u.showOrderConfirmation(session, text)
}

// showOrderConfirmation buyurtma xulosasini ko'rsatib ha/yo'q kutish
// holatiga o'tkazadi. Ism bo'sh yoki salomga o'xshasa ma'lumot yig'ish
// bosqichiga qaytariladi.
func (u *DialogUseCase) showOrderConfirmation(session *entity.Session, originalText string) []entity.OutboundMessage {
	po := session.Pending

	if po.CustomerName == "" || isGreeting(po.CustomerName) {
		po.CustomerName = ""
		po.Step = entity.StepCollectingInfo
		return []entity.OutboundMessage{{Text: loc(session.Locale,
			"Пожалуйста, укажите ваше ФИО:",
			"Please provide your full name:")}}
	}

	var b strings.Builder
	b.WriteString(loc(session.Locale, "✅ <b>Подтверждение заказа</b>\n\n", "✅ <b>Order Confirmation</b>\n\n"))
	b.WriteString(loc(session.Locale, "<b>Товары:</b>\n", "<b>Items:</b>\n"))
	for _, item := range po.Items {
		fmt.Fprintf(&b, "• %s x%d — %.0f₸\n", item.Name, item.Qty, item.Price*float64(item.Qty))
	}
	fmt.Fprintf(&b, "\n💰 <b>%s: %.0f₸</b>\n\n", loc(session.Locale, "Итого", "Total"), po.Total())

	b.WriteString(loc(session.Locale, "<b>Информация о клиенте:</b>\n", "<b>Customer info:</b>\n"))
	fmt.Fprintf(&b, "%s: %s\n", loc(session.Locale, "Имя", "Name"), po.CustomerName)
	fmt.Fprintf(&b, "%s: %s\n", loc(session.Locale, "Телефон", "Phone"), po.CustomerPhone)
	if po.CustomerEmail != "" {
		fmt.Fprintf(&b, "Email: %s\n", po.CustomerEmail)
	}

	b.WriteString(loc(session.Locale,
		"\nПодтвердить заказ? Ответьте \"Да\" для продолжения или \"Нет\" для отмены.",
		"\nConfirm order? Reply \"Yes\" to proceed or \"No\" to cancel."))

	po.OriginalMessage = originalText
	po.Step = entity.StepReady
	return []entity.OutboundMessage{{Text: b.String(), ParseMode: "HTML"}}
}

func (u *DialogUseCase) handleConfirmation(ctx context.Context, session *entity.Session, text string) []entity.OutboundMessage {
	trimmed := strings.TrimSpace(text)

	switch {
	case yesRegex.MatchString(trimmed):
		result, err := u.orders.Commit(ctx, session, "telegram")
		if err != nil {
			// Buyurtma yo'qolmaydi: pending saqlanadi, foydalanuvchi qayta
			// urinishi mumkin
			log.Printf("❌ Buyurtma yaratish xatosi: %v", err)
			return []entity.OutboundMessage{{Text: loc(session.Locale,
				"Извините, произошла ошибка при создании заказа. Попробуйте еще раз или обратитесь в поддержку.",
				"Sorry, there was an error creating your order. Please try again or contact our support.")}}
		}

		session.Pending = nil
		session.Messages = nil // suhbatni qaytadan boshlaymiz

		msg := loc(session.Locale,
			fmt.Sprintf("✅ <b>Заказ успешно создан!</b>\n\nНомер заказа: <code>%s</code>\nСумма: %.0f₸\n\nНаш менеджер свяжется с вами в ближайшее время для уточнения деталей доставки и оплаты.\n\nСпасибо за заказ! 🙏",
				result.Order.Number, result.Order.TotalAmount),
			fmt.Sprintf("✅ <b>Order created successfully!</b>\n\nOrder number: <code>%s</code>\nTotal: %.0f₸\n\nOur manager will contact you shortly to confirm delivery details and payment.\n\nThank you for your order! 🙏",
				result.Order.Number, result.Order.TotalAmount))
		return []entity.OutboundMessage{{Text: msg, ParseMode: "HTML"}}

	case noRegex.MatchString(trimmed):
		session.Pending = nil
		return []entity.OutboundMessage{{Text: loc(session.Locale,
			"❌ Заказ отменен. Чем могу помочь?",
			"❌ Order cancelled. How can I help you?")}}

	default:
		// Holat o'zgarmaydi, qayta so'raymiz
		return []entity.OutboundMessage{{Text: loc(session.Locale,
			"Пожалуйста, ответьте \"Да\" для подтверждения или \"Нет\" для отмены заказа.",
			"Please reply \"Yes\" to confirm or \"No\" to cancel the order.")}}
	}
}

func (u *DialogUseCase) handleStatusCheck(ctx context.Context, session *entity.Session, number string) []entity.OutboundMessage {
	order, err := u.orders.FindOrderByNumber(ctx, number)
	if err != nil {
		log.Printf("❌ Buyurtma holatini tekshirish xatosi: %v", err)
		return []entity.OutboundMessage{{Text: loc(session.Locale,
			"Произошла ошибка при проверке статуса заказа. Попробуйте позже.",
			"An error occurred while checking the order status. Please try again later.")}}
	}
	if order == nil {
		return []entity.OutboundMessage{{Text: loc(session.Locale,
			fmt.Sprintf("Заказ %s не найден. Проверьте номер заказа и попробуйте еще раз.", number),
			fmt.Sprintf("Order %s not found. Please check the order number and try again.", number))}}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>%s</b>\n\n", loc(session.Locale, "Статус заказа", "Order Status"))
	fmt.Fprintf(&b, "%s: <code>%s</code>\n", loc(session.Locale, "Заказ", "Order"), order.Number)
	fmt.Fprintf(&b, "%s: %s\n", loc(session.Locale, "Статус", "Status"), statusText(order.Status, session.Locale))
	fmt.Fprintf(&b, "%s: %.0f₸\n\n", loc(session.Locale, "Сумма", "Total"), order.TotalAmount)
	fmt.Fprintf(&b, "<b>%s:</b>\n", loc(session.Locale, "Товары", "Items"))
	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s x%d — %.0f₸\n", item.Name, item.Qty, item.Amount)
	}
	return []entity.OutboundMessage{{Text: b.String(), ParseMode: "HTML"}}
}

func (u *DialogUseCase) cancelPending(session *entity.Session) []entity.OutboundMessage {
	session.Pending = nil
	return []entity.OutboundMessage{{Text: loc(session.Locale,
		"❌ Операция отменена. Чем могу помочь?",
		"❌ Operation cancelled. How can I help you?")}}
}

// renderItemsSummary topilgan mahsulotlar ro'yxati narx, miqdor va qoldiq
// ogohlantirishi bilan
func (u *DialogUseCase) renderItemsSummary(locale string, resolved []resolvedItem) entity.OutboundMessage {
	var b strings.Builder
	b.WriteString(loc(locale, "🛒 <b>Найденные товары:</b>\n\n", "🛒 <b>Products found:</b>\n\n"))

	total := 0.0
	for _, ri := range resolved {
		amount := ri.product.Price * float64(ri.qty)
		total += amount
		fmt.Fprintf(&b, "• <b>%s</b>\n", ri.product.Name)
		fmt.Fprintf(&b, "  %s: <code>%s</code>\n", loc(locale, "Артикул", "SKU"), ri.product.SKU)
		fmt.Fprintf(&b, "  %s: %.0f₸\n", loc(locale, "Цена", "Price"), ri.product.Price)
		fmt.Fprintf(&b, "  %s: %d\n", loc(locale, "Количество", "Quantity"), ri.qty)
		fmt.Fprintf(&b, "  %s: %.0f₸\n", loc(locale, "Сумма", "Amount"), amount)
		if ri.product.StockQty < ri.qty {
			fmt.Fprintf(&b, "  ⚠️ %s: %d %s\n",
				loc(locale, "В наличии", "In stock"), ri.product.StockQty, loc(locale, "шт.", "pcs"))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "💰 <b>%s: %.0f₸</b>", loc(locale, "Итого", "Total"), total)

	return entity.OutboundMessage{Text: b.String(), ParseMode: "HTML"}
}

// renderProductList mahsulotlar ro'yxati: 15 tagacha, transport limiti
// ostida qolish uchun chunklangan
func (u *DialogUseCase) renderProductList(locale string, products []entity.Product) []entity.OutboundMessage {
	header := loc(locale, "📦 <b>Информация о товарах:</b>\n\n", "📦 <b>Product Information:</b>\n\n")

	limited := products
	if len(limited) > constants.MaxAmbiguousListed {
		limited = limited[:constants.MaxAmbiguousListed]
	}

	var out []entity.OutboundMessage
	current := header
	for _, p := range limited {
		var e strings.Builder
		fmt.Fprintf(&e, "<b>%s</b>\n", p.Name)
		fmt.Fprintf(&e, "%s: <code>%s</code>\n", loc(locale, "Артикул", "SKU"), p.SKU)
		fmt.Fprintf(&e, "%s: %.0f₸\n", loc(locale, "Цена", "Price"), p.Price)
		fmt.Fprintf(&e, "%s: %d %s\n", loc(locale, "В наличии", "In stock"), p.StockQty, loc(locale, "шт", "pcs"))
		if p.URL != "" {
			fmt.Fprintf(&e, "%s: %s\n", loc(locale, "Подробнее", "More info"), p.URL)
		}
		entry := e.String() + "\n"

		if len(current)+len(entry) > constants.MessageChunkSize {
			out = append(out, entity.OutboundMessage{Text: current, ParseMode: "HTML"})
			current = entry
		} else {
			current += entry
		}
	}

	if len(products) > len(limited) {
		current += loc(locale,
			fmt.Sprintf("Показаны первые %d из %d результатов.\n", len(limited), len(products)),
			fmt.Sprintf("Showing first %d results out of %d.\n", len(limited), len(products)))
	}
	out = append(out, entity.OutboundMessage{Text: current, ParseMode: "HTML"})
	return out
}

// tryCollectContactInfo telefon/ismni har qanday kiruvchi xabardan, NLU
// natijasidan mustaqil ravishda yig'ish. Pending order ma'lumot kutayotgan
// bo'lsa bo'sh slotlariga ham darhol yoziladi - so'ralmasdan berilgan
// kontakt qayta so'ralmaydi.
func (u *DialogUseCase) tryCollectContactInfo(session *entity.Session, text string) {
	if phoneMatch := phoneRegex.FindString(text); phoneMatch != "" && session.CollectedPhone == "" {
		session.CollectedPhone = normalizePhone(phoneMatch)
	}
	if session.CollectedName == "" {
		if name := acceptableName(text, u.codes); name != "" {
			session.CollectedName = name
		}
	}
	if po := session.Pending; po != nil && po.Step == entity.StepCollectingInfo {
		if po.CustomerPhone == "" {
			po.CustomerPhone = session.CollectedPhone
		}
		if po.CustomerName == "" {
			po.CustomerName = session.CollectedName
		}
	}
}

func (u *DialogUseCase) trimHistory(session *entity.Session) {
	if len(session.Messages) > u.maxContext {
		session.Messages = session.Messages[len(session.Messages)-u.maxContext:]
	}
}

// normalizePhone telefon raqamini +7XXXXXXXXXX ko'rinishiga keltirish
func normalizePhone(match string) string {
	phone := strings.NewReplacer(" ", "", "-", "").Replace(match)
	if strings.HasPrefix(phone, "+7") {
		return phone
	}
	// 8 yoki 7 bilan boshlangan raqam
	return "+7" + phone[1:]
}

// acceptableName matn mijoz ismi sifatida qabul qilinadimi: kod emas,
// raqam/belgi yo'q, salom emas va 2-4 so'z
func acceptableName(text string, codes *CodeExtractor) string {
	raw := strings.TrimSpace(text)
	words := strings.Fields(raw)
	if len(words) < 2 || len(words) > 4 {
		return ""
	}
	if codes.LooksLikeProductCode(raw) {
		return ""
	}
	if symbolicRegex.MatchString(raw) || len([]rune(raw)) < 2 {
		return ""
	}
	if isGreeting(raw) {
		return ""
	}
	return raw
}

func isGreeting(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, g := range greetings {
		if t == g {
			return true
		}
	}
	return false
}

func isCancelCommand(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, w := range cancelWords {
		if t == w {
			return true
		}
	}
	return false
}

// missingOrderInfo yetishmayotgan majburiy slotlar, tartib qat'iy:
// avval telefon, keyin ism
func missingOrderInfo(po *entity.PendingOrder, locale string) []string {
	var missing []string
	if po.CustomerPhone == "" {
		missing = append(missing, loc(locale, "Номер телефона", "Phone number"))
	}
	if po.CustomerName == "" {
		missing = append(missing, loc(locale, "Имя", "Name"))
	}
	return missing
}

func slotPrompt(locale, slot string) string {
	switch slot {
	case "Номер телефона", "Phone number":
		return loc(locale,
			"Пожалуйста, укажите ваш номер телефона (формат: +7 7xx xxx xx xx):",
			"Please provide your phone number (format: +7 7xx xxx xx xx):")
	case "Имя", "Name":
		return loc(locale,
			"Пожалуйста, укажите ваше ФИО:",
			"Please provide your full name:")
	default:
		return loc(locale,
			fmt.Sprintf("Пожалуйста, укажите: %s", slot),
			fmt.Sprintf("Please provide: %s", slot))
	}
}

func statusText(status, locale string) string {
	type pair struct{ ru, en string }
	m := map[string]pair{
		"NEW":       {"🟡 Новый", "🟡 New"},
		"PENDING":   {"🟠 В обработке", "🟠 Pending"},
		"CONFIRMED": {"🟢 Подтвержден", "🟢 Confirmed"},
		"PAID":      {"💚 Оплачен", "💚 Paid"},
		"SHIPPED":   {"🚚 Отправлен", "🚚 Shipped"},
		"CLOSED":    {"✅ Завершен", "✅ Closed"},
		"CANCELLED": {"❌ Отменен", "❌ Cancelled"},
	}
	if p, ok := m[status]; ok {
		return loc(locale, p.ru, p.en)
	}
	return status
}

// matchLastProducts oxirgi ko'rsatilgan mahsulotlar ichidan nom yoki SKU
// bo'yicha qidirish
func matchLastProducts(products []entity.Product, name, sku string) *entity.Product {
	lowerName := strings.ToLower(name)
	for i := range products {
		if sku != "" && strings.EqualFold(products[i].SKU, sku) {
			return &products[i]
		}
		if lowerName != "" && strings.Contains(strings.ToLower(products[i].Name), lowerName) {
			return &products[i]
		}
	}
	return nil
}

func currencySign(currency string) string {
	switch strings.ToUpper(currency) {
	case "KZT", "":
		return "₸"
	case "USD":
		return "$"
	default:
		return " " + currency
	}
}

// loc locale bo'yicha matn tanlash
func loc(locale, ru, en string) string {
	if locale == "en" {
		return en
	}
	return ru
}
