package constants

// Chat va Context konstantalari
const (
	// DefaultMaxContextSize chat tarixida saqlanadigan max xabarlar soni
	DefaultMaxContextSize = 60
)

// AI Model konstantalari
const (
	// GeminiModelName Gemini AI model nomi
	GeminiModelName = "gemini-2.5-flash"

	// AITemperature AI javob aniqlik darajasi (0.0-1.0)
	AITemperature = 0.2

	// AITopK Top-K sampling parametri
	AITopK = 20

	// AITopP Top-P sampling parametri
	AITopP = 0.9

	// MaxRetries AI ga so'rov yuborish uchun max urinishlar
	MaxRetries = 3

	// RetryDelaySeconds har bir urinish o'rtasidagi kutish vaqti (soniya)
	RetryDelaySeconds = 5

	// ExtractTimeoutSeconds NLU extraction uchun max kutish vaqti
	ExtractTimeoutSeconds = 20
)

// Qidiruv konstantalari
const (
	// DefaultJaroWinklerMin fuzzy qidiruvda token juftligi uchun minimal Jaro-Winkler
	DefaultJaroWinklerMin = 0.70

	// DefaultEditScoreMin normallashtirilgan edit-distance uchun minimal ball
	// (1 - levenshtein/maxlen)
	DefaultEditScoreMin = 0.65

	// DefaultProductCodePrefixes ruxsat etilgan mahsulot kod prefikslari
	DefaultProductCodePrefixes = "rev"
)

// Buyurtma konstantalari
const (
	// OrderNumberPrefix buyurtma raqami prefiksi (format: KG-YYYY-NNNNNN)
	OrderNumberPrefix = "KG"

	// DefaultCurrency asosiy valyuta
	DefaultCurrency = "KZT"
)

// Xabar konstantalari
const (
	// MaxAmbiguousListed bitta javobda ko'rsatiladigan max variantlar soni
	MaxAmbiguousListed = 15

	// MessageChunkSize Telegram limiti ostida qolish uchun chunk hajmi
	MessageChunkSize = 3500

	// TelegramMessageLimit Telegram bitta xabar uchun max belgilar soni
	TelegramMessageLimit = 4096
)

// Session konstantalari
const (
	// DefaultSessionIdleMinutes session idle timeout (minutlarda)
	DefaultSessionIdleMinutes = 360

	// DefaultMaxSessions registryda saqlanadigan max sessiyalar soni
	DefaultMaxSessions = 10000
)
