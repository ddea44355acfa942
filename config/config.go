package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/constants"
)

// Config ilovaning konfiguratsiyasi
type Config struct {
	TelegramToken string
	GeminiAPIKey  string

	// DatabaseURL bo'sh bo'lsa in-memory katalog ishlatiladi
	DatabaseURL string

	// CatalogFile startda import qilinadigan katalog (.csv yoki .xlsx)
	CatalogFile string

	ManagerChatID   int64
	ManagerThreadID int

	ProductCodePrefixes []string
	JaroWinklerMin      float64
	EditScoreMin        float64

	SessionIdleTimeout time.Duration
	MaxSessions        int
	MaxContextSize     int
}

// Load konfiguratsiyani yuklash
func Load() (*Config, error) {
	// .env faylini yuklash (mavjud bo'lsa)
	_ = godotenv.Load()

	config := &Config{
		TelegramToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		CatalogFile:        os.Getenv("CATALOG_FILE"),
		JaroWinklerMin:     getEnvFloat("FUZZY_JARO_WINKLER_MIN", constants.DefaultJaroWinklerMin),
		EditScoreMin:       getEnvFloat("FUZZY_EDIT_SCORE_MIN", constants.DefaultEditScoreMin),
		SessionIdleTimeout: time.Duration(getEnvInt("SESSION_IDLE_TIMEOUT_MINUTES", constants.DefaultSessionIdleMinutes)) * time.Minute,
		MaxSessions:        getEnvInt("MAX_SESSIONS", constants.DefaultMaxSessions),
		MaxContextSize:     getEnvInt("MAX_CONTEXT_SIZE", constants.DefaultMaxContextSize),
	}

	prefixes := os.Getenv("PRODUCT_CODE_PREFIXES")
	if prefixes == "" {
		prefixes = constants.DefaultProductCodePrefixes
	}
	for _, p := range strings.Split(prefixes, ",") {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			config.ProductCodePrefixes = append(config.ProductCodePrefixes, p)
		}
	}

	if raw := os.Getenv("MANAGER_CHAT_ID"); raw != "" {
		chatID, threadID, err := parseChatTarget(raw)
		if err != nil {
			return nil, fmt.Errorf("MANAGER_CHAT_ID noto'g'ri formatda: %v", err)
		}
		config.ManagerChatID = chatID
		config.ManagerThreadID = threadID
	}

	// Validatsiya
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable bo'sh")
	}
	if config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable bo'sh")
	}

	return config, nil
}

// parseChatTarget "chatID" yoki "chatID/threadID" formatini o'qish
func parseChatTarget(raw string) (int64, int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0, nil
	}
	// Inline kommentariyalarni qo'llab-quvvatlash: "-100.../4  # izoh"
	if idx := strings.Index(raw, "#"); idx >= 0 {
		raw = strings.TrimSpace(raw[:idx])
	}
	parts := strings.Split(raw, "/")
	if len(parts) > 2 {
		return 0, 0, fmt.Errorf("noto'g'ri format, misol: -1001234567890 yoki -1001234567890/2")
	}

	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}

	threadID := 0
	if len(parts) == 2 && strings.TrimSpace(parts[1]) != "" {
		tid, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("topic ID noto'g'ri: %v", err)
		}
		if tid < 0 {
			tid = -tid
		}
		threadID = tid
	}

	return chatID, threadID, nil
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 || f > 1 {
		return defaultValue
	}
	return f
}
