package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kerneugroup/telegram-order-bot/internal/usecase"
)

// BotHandler Telegram delivery qatlami: long polling, komandalar va
// matnli xabarlarni dialog use case ga uzatish
type BotHandler struct {
	bot    *tgbotapi.BotAPI
	dialog *usecase.DialogUseCase

	workerPool *workerPool
}

// NewBotHandler yangi bot handler yaratish. bot clienti tashqaridan
// beriladi - notifier bilan bitta ulanish ishlatiladi, operator kanali
// esa to'liq notifier zimmasida.
func NewBotHandler(bot *tgbotapi.BotAPI, dialog *usecase.DialogUseCase) *BotHandler {
	handler := &BotHandler{
		bot:    bot,
		dialog: dialog,
	}
	handler.workerPool = newWorkerPool(handler, defaultWorkerCount)
	return handler
}

// GetBotUsername botning Telegram username ini qaytaradi
func (h *BotHandler) GetBotUsername() string {
	return h.bot.Self.UserName
}

// Start long polling boshlab update larni qayta ishlash. ctx bekor
// bo'lganda polling to'xtaydi va worker pool yakunlanadi.
func (h *BotHandler) Start(ctx context.Context) {
	log.Printf("✅ Bot ishga tushdi: @%s", h.bot.Self.UserName)

	h.workerPool.start(ctx)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := h.bot.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			h.workerPool.shutdown()
			return
		case update, ok := <-updates:
			if !ok {
				h.workerPool.shutdown()
				return
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *BotHandler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	msg := update.Message

	// Guruh xabarlariga aralashmaymiz, bot faqat private chatda ishlaydi
	if !msg.Chat.IsPrivate() {
		return
	}

	sessionKey := fmt.Sprintf("%d", msg.From.ID)
	locale := localeFromUser(msg.From)

	if msg.IsCommand() {
		h.handleCommand(msg, sessionKey, locale)
		return
	}

	req := &messageRequest{
		ctx:        ctx,
		userID:     msg.From.ID,
		chatID:     msg.Chat.ID,
		sessionKey: sessionKey,
		locale:     locale,
		text:       msg.Text,
	}
	h.workerPool.submit(req)
}

func (h *BotHandler) handleCommand(msg *tgbotapi.Message, sessionKey, locale string) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		h.dialog.ResetSession(sessionKey, locale)
		if locale == "en" {
			h.sendMessage(chatID, "Hello! I am the order assistant. Write what you would like to buy, for example: \"2 batteries REV-41\".")
		} else {
			h.sendMessage(chatID, "Здравствуйте! Я помощник по заказам. Напишите, что хотите купить, например: «2 аккумулятора REV-41».")
		}
	case "help":
		if locale == "en" {
			h.sendMessage(chatID, "Write what you want to order in free form. I will find the products, ask for your phone and name, and place the order.\n\n/status KG-2026-000001 - check order status\n/cancel - cancel the current draft\n/lang - switch language")
		} else {
			h.sendMessage(chatID, "Напишите свободным текстом, что хотите заказать. Я найду товары, уточню телефон и имя и оформлю заказ.\n\n/status KG-2026-000001 - статус заказа\n/cancel - отменить текущий черновик\n/lang - сменить язык")
		}
	case "status":
		arg := strings.TrimSpace(msg.CommandArguments())
		if arg == "" {
			if locale == "en" {
				h.sendMessage(chatID, "Send the order number, for example: /status KG-2026-000001")
			} else {
				h.sendMessage(chatID, "Укажите номер заказа, например: /status KG-2026-000001")
			}
			return
		}
		req := &messageRequest{
			ctx:        context.Background(),
			userID:     msg.From.ID,
			chatID:     chatID,
			sessionKey: sessionKey,
			locale:     locale,
			text:       arg,
		}
		h.workerPool.submit(req)
	case "cancel":
		req := &messageRequest{
			ctx:        context.Background(),
			userID:     msg.From.ID,
			chatID:     chatID,
			sessionKey: sessionKey,
			locale:     locale,
			text:       "/cancel",
		}
		h.workerPool.submit(req)
	case "lang":
		newLocale := h.dialog.ToggleLocale(sessionKey)
		if newLocale == "en" {
			h.sendMessage(chatID, "Language switched to English.")
		} else {
			h.sendMessage(chatID, "Язык переключён на русский.")
		}
	default:
		if locale == "en" {
			h.sendMessage(chatID, "Unknown command. Use /help for the list of commands.")
		} else {
			h.sendMessage(chatID, "Неизвестная команда. Список команд: /help")
		}
	}
}

// localeFromUser Telegram language_code dan lokal aniqlash. Rus tili
// default, chunki mijozlarning asosiy qismi rus tilida yozadi.
func localeFromUser(user *tgbotapi.User) string {
	if user == nil {
		return "ru"
	}
	if strings.HasPrefix(strings.ToLower(user.LanguageCode), "en") {
		return "en"
	}
	return "ru"
}
