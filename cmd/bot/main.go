package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kerneugroup/telegram-order-bot/config"
	"github.com/kerneugroup/telegram-order-bot/internal/delivery/telegram"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/repository"
	"github.com/kerneugroup/telegram-order-bot/internal/infrastructure/gemini"
	"github.com/kerneugroup/telegram-order-bot/internal/infrastructure/parser"
	"github.com/kerneugroup/telegram-order-bot/internal/infrastructure/storage"
	"github.com/kerneugroup/telegram-order-bot/internal/usecase"
	"github.com/kerneugroup/telegram-order-bot/pkg/logger"
)

const janitorInterval = 10 * time.Minute

func main() {
	initDefaultTimezone()

	// Logger ni ishga tushirish
	logger.Init()
	logger.InfoLogger.Println("🚀 Ilova ishga tushmoqda...")

	// Konfiguratsiyani yuklash
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Konfiguratsiya yuklanmadi: %v", err)
	}

	// Dependencies ni yaratish (Dependency Injection)

	// 1. Gemini AI client
	aiRepo, err := gemini.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("❌ Gemini client yaratilmadi: %v", err)
	}
	logger.InfoLogger.Println("✅ Gemini AI client tayyor (gemini-2.5-flash)")

	// 2. Katalog repository: DATABASE_URL bo'lsa Postgres, aks holda in-memory
	var catalog repository.CatalogRepository
	if cfg.DatabaseURL != "" {
		db, err := storage.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Postgres ulanmadi: %v", err)
		}
		defer db.Close()
		catalog, err = storage.NewPostgresCatalog(db)
		if err != nil {
			log.Fatalf("❌ Postgres katalog tayyorlanmadi: %v", err)
		}
		logger.InfoLogger.Println("✅ Katalog tayyor (postgres)")
	} else {
		catalog = storage.NewMemoryCatalog()
		logger.InfoLogger.Println("✅ Katalog tayyor (in-memory)")
	}

	// 3. Katalog faylini import qilish (berilgan bo'lsa)
	if cfg.CatalogFile != "" {
		products, err := parser.ParseCatalogFile(cfg.CatalogFile)
		if err != nil {
			log.Fatalf("❌ Katalog fayli o'qilmadi: %v", err)
		}
		if err := catalog.SaveProducts(context.Background(), products); err != nil {
			log.Fatalf("❌ Katalog import qilinmadi: %v", err)
		}
		logger.InfoLogger.Printf("✅ Katalogga %d ta mahsulot import qilindi (%s)", len(products), cfg.CatalogFile)
	}

	// 4. Telegram client (bot handler va notifier uchun bitta ulanish)
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("❌ Telegram client yaratilmadi: %v", err)
	}

	notifier := telegram.NewOrderNotifier(bot, cfg.ManagerChatID, cfg.ManagerThreadID)

	// 5. Use cases
	normalizer := usecase.NewNormalizer()
	codes := usecase.NewCodeExtractor(cfg.ProductCodePrefixes)
	resolver := usecase.NewProductResolver(catalog, normalizer, codes, cfg.JaroWinklerMin, cfg.EditScoreMin)
	orders := usecase.NewOrderUseCase(catalog, notifier)
	sessions := usecase.NewSessionRegistry(cfg.MaxSessions, cfg.SessionIdleTimeout)
	dialog := usecase.NewDialogUseCase(aiRepo, resolver, orders, sessions, codes)
	logger.InfoLogger.Println("✅ Use cases tayyor")

	// 6. Telegram bot handler
	botHandler := telegram.NewBotHandler(bot, dialog)
	logger.InfoLogger.Printf("✅ Telegram bot tayyor: @%s", botHandler.GetBotUsername())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions.StartJanitor(ctx, janitorInterval)

	// Botni alohida goroutine da ishga tushirish
	go botHandler.Start(ctx)

	logger.InfoLogger.Println("🤖 Bot ishlayapti. To'xtatish uchun Ctrl+C ni bosing.")

	// Signal kutish
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.InfoLogger.Println("⏳ To'xtatish signali qabul qilindi...")

	// Graceful shutdown
	cancel()
	logger.InfoLogger.Println("✅ Bot to'xtatildi.")
}

func initDefaultTimezone() {
	const tzName = "Asia/Almaty"
	if loc, err := time.LoadLocation(tzName); err == nil {
		time.Local = loc
		return
	}
	time.Local = time.FixedZone(tzName, 5*60*60)
}
