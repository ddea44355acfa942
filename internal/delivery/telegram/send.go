package telegram

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/constants"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
)

// sendText xabar yuborish, forum topic (message_thread_id) qo'llab-quvvatlanadi.
// tgbotapi.MessageConfig da thread maydoni yo'q, shuning uchun thread kerak
// bo'lganda raw request ishlatiladi.
func (h *BotHandler) sendText(chatID int64, text, parseMode string, threadID int) (*tgbotapi.Message, error) {
	if h.bot == nil {
		return nil, fmt.Errorf("telegram bot is nil")
	}

	if threadID > 0 {
		params := make(tgbotapi.Params)
		params.AddNonZero64("chat_id", chatID)
		params.AddNonZero("message_thread_id", threadID)
		params.AddNonEmpty("text", text)
		params.AddNonEmpty("parse_mode", parseMode)
		resp, err := h.bot.MakeRequest("sendMessage", params)
		if err != nil {
			return nil, err
		}
		var msg tgbotapi.Message
		if err := json.Unmarshal(resp.Result, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	sent, err := h.bot.Send(msg)
	if err != nil {
		return nil, err
	}
	return &sent, nil
}

// sendMessage oddiy xabar yuborish (kerak bo'lsa bo'lib yuboriladi)
func (h *BotHandler) sendMessage(chatID int64, text string) {
	h.sendWithParseMode(chatID, text, "")
}

// sendOutbound dialog use case qaytargan xabarlarni yuborish
func (h *BotHandler) sendOutbound(chatID int64, messages []entity.OutboundMessage) {
	for _, m := range messages {
		h.sendWithParseMode(chatID, m.Text, m.ParseMode)
	}
}

func (h *BotHandler) sendWithParseMode(chatID int64, text, parseMode string) {
	if strings.TrimSpace(text) == "" {
		log.Printf("⚠️ Bo'sh xabar yuborilmoqchi bo'ldi! ChatID: %d", chatID)
		return
	}

	for _, chunk := range splitIntoChunks(text, constants.TelegramMessageLimit) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		if _, err := h.sendText(chatID, chunk, parseMode, 0); err != nil {
			// HTML parse xatosi bo'lsa plain text bilan qayta urinamiz
			if parseMode != "" {
				if _, retryErr := h.sendText(chatID, chunk, "", 0); retryErr == nil {
					continue
				}
			}
			log.Printf("❌ Xabar yuborishda xatolik: %v", err)
			return
		}
	}
}

// splitIntoChunks matnni Telegram limitiga mos bo'lib yuborish uchun bo'ladi.
// Imkon qadar qator chegarasida bo'linadi.
func splitIntoChunks(s string, limit int) []string {
	if limit <= 0 || len([]rune(s)) <= limit {
		return []string{s}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, line := range strings.Split(s, "\n") {
		lineLen := len([]rune(line)) + 1
		if currentLen > 0 && currentLen+lineLen > limit {
			chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			currentLen = 0
		}
		// Bitta qator limitdan uzun bo'lsa rune bo'yicha bo'lamiz
		if lineLen > limit {
			for _, r := range line {
				current.WriteRune(r)
				currentLen++
				if currentLen >= limit {
					chunks = append(chunks, current.String())
					current.Reset()
					currentLen = 0
				}
			}
			current.WriteRune('\n')
			currentLen++
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		currentLen += lineLen
	}
	if currentLen > 0 {
		chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
	}
	return chunks
}
