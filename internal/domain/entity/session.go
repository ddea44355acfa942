package entity

import "time"

// Message chat tarixidagi bitta xabar (faqat LLM kontekst uchun)
type Message struct {
	Role string `json:"role"` // user | assistant
	Text string `json:"text"`
}

// OrderStep pending order bosqichi (yopiq to'plam)
type OrderStep string

const (
	// StepCollectingInfo majburiy slotlar (telefon, ism) yig'ilmoqda
	StepCollectingInfo OrderStep = "collecting_info"
	// StepConfirming xulosalar ko'rsatilmoqda, tasdiqqa tayyorlanish
	StepConfirming OrderStep = "confirming"
	// StepReady foydalanuvchidan ha/yo'q javobi kutilmoqda
	StepReady OrderStep = "ready"
)

// PendingItem pending orderdagi bitta pozitsiya
type PendingItem struct {
	Name  string  `json:"name"`
	SKU   string  `json:"sku"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// PendingOrder hali tasdiqlanmagan buyurtma (session boshiga bittadan ko'p emas).
// Invariant: Step == StepReady bo'lsa Items bo'sh emas va CustomerName ham
// CustomerPhone ham to'ldirilgan.
type PendingOrder struct {
	Items           []PendingItem `json:"items"`
	CustomerName    string        `json:"customer_name,omitempty"`
	CustomerPhone   string        `json:"customer_phone,omitempty"`
	CustomerEmail   string        `json:"customer_email,omitempty"`
	OriginalMessage string        `json:"original_message,omitempty"`
	Step            OrderStep     `json:"step"`
}

// Total buyurtma summasini hisoblash
func (p *PendingOrder) Total() float64 {
	total := 0.0
	for _, item := range p.Items {
		total += item.Price * float64(item.Qty)
	}
	return total
}

// Session foydalanuvchi/kanal jufti uchun dialog holati. Faqat dialog
// state machine tomonidan o'zgartiriladi; registry tashqarisida saqlanmaydi.
type Session struct {
	Key          string        `json:"key"`
	Locale       string        `json:"locale"` // ru | en
	Messages     []Message     `json:"messages"`
	LastProducts []Product     `json:"last_products"`
	Pending      *PendingOrder `json:"pending,omitempty"`

	// Buyurtma boshlanishidan oldin ham yig'ilgan kontakt ma'lumotlari.
	// Yangi pending order yaratilganda back-fill qilinadi.
	CollectedPhone string `json:"collected_phone,omitempty"`
	CollectedName  string `json:"collected_name,omitempty"`

	LastUsed time.Time `json:"last_used"`
}

// OutboundMessage transport adapterga qaytariladigan javob
type OutboundMessage struct {
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"` // masalan "HTML"
}
