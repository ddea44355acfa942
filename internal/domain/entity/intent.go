package entity

// IntentKind NLU extractor aniqlagan niyat turi
type IntentKind string

const (
	IntentPlaceOrder     IntentKind = "place_order"
	IntentCheckStatus    IntentKind = "check_status"
	IntentProductInquiry IntentKind = "product_inquiry"
	IntentUnknown        IntentKind = "unknown"
)

// ExtractedItem foydalanuvchi so'ragan mahsulot va miqdori
type ExtractedItem struct {
	Name        string `json:"name"`
	EnglishName string `json:"english_name,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Qty         int    `json:"qty"`
}

// ExtractedProduct mahsulot haqida so'rov (miqdorsiz)
type ExtractedProduct struct {
	Name        string `json:"name"`
	EnglishName string `json:"english_name,omitempty"`
}

// ExtractedCustomer xabardan ajratilgan mijoz ma'lumotlari
type ExtractedCustomer struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ExtractedIntent NLU extractor natijasi. Ishonchsiz kirish sifatida
// qaraladi - narx yoki qoldiq uchun hech qachon ishlatilmaydi.
type ExtractedIntent struct {
	Intent     IntentKind         `json:"intent"`
	Items      []ExtractedItem    `json:"items,omitempty"`
	Products   []ExtractedProduct `json:"products,omitempty"`
	Customer   *ExtractedCustomer `json:"customer,omitempty"`
	Confidence float64            `json:"confidence"`
}

// UnknownIntent degradatsiya natijasi (malformed NLU javob uchun)
func UnknownIntent() ExtractedIntent {
	return ExtractedIntent{Intent: IntentUnknown, Confidence: 0}
}

// ReplyHints umumiy suhbat javobi uchun kontekst
type ReplyHints struct {
	Locale         string
	Missing        []string
	DraftSummary   string
	NextAction     string
	ProductContext string
}
