package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/repository"
)

// orderNotifier yangi buyurtmalarni menejer guruhiga yuboradi
type orderNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	threadID int
}

// NewOrderNotifier menejer guruhi uchun notifier yaratish. chatID 0 bo'lsa
// nil qaytadi - notifikatsiya o'chirilgan rejim.
func NewOrderNotifier(bot *tgbotapi.BotAPI, chatID int64, threadID int) repository.Notifier {
	if chatID == 0 {
		log.Println("⚠️ MANAGER_CHAT_ID berilmagan, buyurtma notifikatsiyalari o'chirilgan")
		return nil
	}
	return &orderNotifier{bot: bot, chatID: chatID, threadID: threadID}
}

// NotifyNewOrder yangi buyurtma haqida menejerga xabar yuborish
func (n *orderNotifier) NotifyNewOrder(ctx context.Context, order entity.Order, shortfalls []entity.StockShortfall, originalMessage string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 <b>Новый заказ %s</b>\n\n", html.EscapeString(order.Number))

	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s (%s) x%d - %.2f %s\n",
			html.EscapeString(item.Name), html.EscapeString(item.SKU), item.Qty, item.Amount, order.Currency)
	}
	fmt.Fprintf(&b, "\n<b>Итого:</b> %.2f %s\n", order.TotalAmount, order.Currency)

	fmt.Fprintf(&b, "\n<b>Клиент:</b> %s\n", html.EscapeString(order.Customer.Name))
	fmt.Fprintf(&b, "<b>Телефон:</b> %s\n", html.EscapeString(order.Customer.Phone))
	if order.Customer.Email != "" {
		fmt.Fprintf(&b, "<b>Email:</b> %s\n", html.EscapeString(order.Customer.Email))
	}
	if order.Customer.TgUserID != "" {
		fmt.Fprintf(&b, "<b>Telegram:</b> %s\n", html.EscapeString(order.Customer.TgUserID))
	}

	if len(shortfalls) > 0 {
		b.WriteString("\n⚠️ <b>Не хватает на складе:</b>\n")
		for _, s := range shortfalls {
			fmt.Fprintf(&b, "• %s (%s): запрошено %d, в наличии %d\n",
				html.EscapeString(s.Name), html.EscapeString(s.SKU), s.Requested, s.Available)
		}
	}

	if originalMessage != "" {
		fmt.Fprintf(&b, "\n<i>Исходное сообщение:</i>\n%s", html.EscapeString(originalMessage))
	}

	return n.send(b.String())
}

func (n *orderNotifier) send(text string) error {
	for _, chunk := range splitIntoChunks(text, 4096) {
		if n.threadID > 0 {
			params := make(tgbotapi.Params)
			params.AddNonZero64("chat_id", n.chatID)
			params.AddNonZero("message_thread_id", n.threadID)
			params.AddNonEmpty("text", chunk)
			params.AddNonEmpty("parse_mode", "HTML")
			resp, err := n.bot.MakeRequest("sendMessage", params)
			if err != nil {
				return err
			}
			var msg tgbotapi.Message
			if err := json.Unmarshal(resp.Result, &msg); err != nil {
				return err
			}
			continue
		}

		msg := tgbotapi.NewMessage(n.chatID, chunk)
		msg.ParseMode = "HTML"
		if _, err := n.bot.Send(msg); err != nil {
			return err
		}
	}
	return nil
}
