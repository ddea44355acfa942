package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/constants"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/repository"
	"google.golang.org/api/option"
)

type geminiClient struct {
	client       *genai.Client
	extractModel *genai.GenerativeModel
	replyModel   *genai.GenerativeModel
}

// NewGeminiClient yangi Gemini AI client yaratish. Ikkita model ishlatiladi:
// extractModel JSON rejimda intent ajratadi, replyModel erkin suhbat uchun.
func NewGeminiClient(apiKey string) (repository.AIRepository, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	extractModel := client.GenerativeModel(constants.GeminiModelName)
	extractModel.SetTemperature(constants.AITemperature)
	extractModel.SetTopK(constants.AITopK)
	extractModel.SetTopP(constants.AITopP)
	extractModel.ResponseMIMEType = "application/json"
	extractModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(extractInstruction)},
	}

	replyModel := client.GenerativeModel(constants.GeminiModelName)
	replyModel.SetTemperature(constants.AITemperature)
	replyModel.SetTopK(constants.AITopK)
	replyModel.SetTopP(constants.AITopP)
	replyModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(replyInstruction)},
	}

	return &geminiClient{
		client:       client,
		extractModel: extractModel,
		replyModel:   replyModel,
	}, nil
}

const extractInstruction = `Ты NLU-модуль интернет-магазина электроники. На вход приходит сообщение клиента (русский или английский язык). Верни СТРОГО один JSON объект без пояснений:

{
  "intent": "place_order" | "check_status" | "product_inquiry" | "unknown",
  "items": [{"name": "...", "english_name": "...", "sku": "...", "qty": 1}],
  "products": [{"name": "...", "english_name": "..."}],
  "customer": {"name": "...", "phone": "..."},
  "confidence": 0.0
}

Правила:
- "place_order": клиент хочет купить/заказать товар. Заполни items, qty по умолчанию 1.
- "check_status": клиент спрашивает про статус существующего заказа.
- "product_inquiry": клиент спрашивает про товар, цену или наличие, но не заказывает. Заполни products.
- "unknown": всё остальное (приветствия, болтовня).
- english_name: английское название товара, если исходное название русское (например "аккумулятор" -> "battery").
- sku: только если клиент написал явный артикул вида AB-12 или REV-41-1097.
- customer: имя и телефон, только если они есть в сообщении.
- Не выдумывай товары, цены и количество. Не добавляй поля вне схемы.`

const replyInstruction = `Ты вежливый менеджер интернет-магазина электроники. Отвечай коротко, по делу, на языке клиента (русский или английский).

Правила:
- Никогда не называй цены, скидки и остатки сам. Цены подставляет система.
- Если в контексте есть карточки товаров, опирайся только на них.
- Если клиент хочет заказать, мягко подведи его к оформлению заказа.
- Не используй эмодзи. Не пиши длинных списков без необходимости.`

// ExtractIntent xabardan strukturali intent ajratish. Malformed JSON
// xato hisoblanmaydi - unknown intent bilan degradatsiya qilamiz.
func (g *geminiClient) ExtractIntent(ctx context.Context, text string) (entity.ExtractedIntent, error) {
	raw, err := g.generateWithRetry(ctx, g.extractModel, []genai.Part{genai.Text(text)}, "NLU")
	if err != nil {
		return entity.UnknownIntent(), err
	}

	raw = stripJSONFences(raw)
	var intent entity.ExtractedIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		log.Printf("⚠️ NLU javobi JSON emas, unknown intent qaytaramiz: %v", err)
		return entity.UnknownIntent(), nil
	}
	switch intent.Intent {
	case entity.IntentPlaceOrder, entity.IntentCheckStatus, entity.IntentProductInquiry, entity.IntentUnknown:
	default:
		log.Printf("⚠️ NLU noma'lum intent qiymati qaytardi: %q", intent.Intent)
		return entity.UnknownIntent(), nil
	}
	return intent, nil
}

// GenerateReply suhbat tarixiga tayangan erkin javob yaratish
func (g *geminiClient) GenerateReply(ctx context.Context, history []entity.Message, hints entity.ReplyHints) (string, error) {
	var parts []genai.Part

	if hints.ProductContext != "" {
		parts = append(parts, genai.Text(fmt.Sprintf("Карточки товаров из каталога:\n%s", hints.ProductContext)))
	}
	if hints.DraftSummary != "" {
		parts = append(parts, genai.Text(fmt.Sprintf("Текущий черновик заказа:\n%s", hints.DraftSummary)))
	}
	if len(hints.Missing) > 0 {
		parts = append(parts, genai.Text(fmt.Sprintf("Для оформления не хватает: %s", strings.Join(hints.Missing, ", "))))
	}
	if hints.NextAction != "" {
		parts = append(parts, genai.Text(fmt.Sprintf("Следующий шаг диалога: %s", hints.NextAction)))
	}

	for _, msg := range history {
		if msg.Text == "" {
			continue
		}
		if msg.Role == "assistant" {
			parts = append(parts, genai.Text(fmt.Sprintf("Менеджер: %s", msg.Text)))
		} else {
			parts = append(parts, genai.Text(fmt.Sprintf("Клиент: %s", msg.Text)))
		}
	}

	return g.generateWithRetry(ctx, g.replyModel, parts, "Reply")
}

// generateWithRetry so'rovni retry bilan yuborish
func (g *geminiClient) generateWithRetry(ctx context.Context, model *genai.GenerativeModel, parts []genai.Part, label string) (string, error) {
	maxRetries := constants.MaxRetries
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("🔄 Gemini API (%s) ga so'rov yuborish (urinish %d/%d)...", label, attempt, maxRetries)

		resp, err := model.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			log.Printf("❌ Urinish %d xato: %v", attempt, err)
			if waitErr := waitBeforeRetry(ctx, attempt, maxRetries); waitErr != nil {
				return "", waitErr
			}
			continue
		}

		if len(resp.Candidates) == 0 {
			lastErr = fmt.Errorf("no response candidates")
			log.Printf("⚠️ Urinish %d: Javob kandidatlari yo'q", attempt)
			if waitErr := waitBeforeRetry(ctx, attempt, maxRetries); waitErr != nil {
				return "", waitErr
			}
			continue
		}

		if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			log.Printf("🚫 Javob safety filter tomonidan bloklandi (%s)", label)
			return "", fmt.Errorf("response blocked by safety filter")
		}

		responseText := extractText(resp)
		if strings.TrimSpace(responseText) == "" {
			lastErr = fmt.Errorf("empty response")
			log.Printf("⚠️ Urinish %d: Bo'sh javob qaytdi", attempt)
			if waitErr := waitBeforeRetry(ctx, attempt, maxRetries); waitErr != nil {
				return "", waitErr
			}
			continue
		}

		return responseText, nil
	}

	log.Printf("❌ Barcha %d urinish muvaffaqiyatsiz tugadi (%s)", maxRetries, label)
	return "", fmt.Errorf("AI javob bermadi (%d urinishdan keyin): %w", maxRetries, lastErr)
}

func waitBeforeRetry(ctx context.Context, attempt, maxRetries int) error {
	if attempt >= maxRetries {
		return nil
	}
	waitDuration := constants.RetryDelaySeconds * time.Second
	log.Printf("⏳ %v kutib qayta urinish...", waitDuration)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(waitDuration):
		return nil
	}
}

// stripJSONFences markdown kod fence ichidagi JSON ni tozalash
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// extractText javobdan textni ajratib olish
func extractText(resp *genai.GenerateContentResponse) string {
	var result strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				result.WriteString(fmt.Sprintf("%v", part))
			}
		}
	}
	return result.String()
}

// Close client ni yopish
func (g *geminiClient) Close() error {
	return g.client.Close()
}
