package telegram

import (
	"context"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// messageRequest qayta ishlanadigan kiruvchi xabar
type messageRequest struct {
	ctx        context.Context
	userID     int64
	chatID     int64
	sessionKey string
	locale     string
	text       string
}

// workerPool xabarlarni parallel qayta ishlash. Bitta foydalanuvchining
// xabarlari baribir tartibda ishlanadi - session registry per-key lock
// ushlab turadi, pool faqat turli foydalanuvchilarni parallellashtiradi.
type workerPool struct {
	requestQueue chan *messageRequest
	workerCount  int
	handler      *BotHandler
	wg           sync.WaitGroup

	rateLimiter   map[int64]*userRateLimit
	rateLimiterMu sync.Mutex
}

type userRateLimit struct {
	lastRequest  time.Time
	requestCount int
}

const (
	maxRequestsPerSecond   = 3
	requestQueueSize       = 100
	defaultWorkerCount     = 30
	requestTimeout         = 45 * time.Second
	rateLimiterCleanupTime = 5 * time.Minute
	rateLimiterMaxIdleTime = 10 * time.Minute
)

func newWorkerPool(handler *BotHandler, workerCount int) *workerPool {
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}
	return &workerPool{
		requestQueue: make(chan *messageRequest, requestQueueSize),
		workerCount:  workerCount,
		handler:      handler,
		rateLimiter:  make(map[int64]*userRateLimit),
	}
}

// start barcha workerlarni ishga tushirish
func (wp *workerPool) start(ctx context.Context) {
	log.Printf("✅ %d ta worker ishga tushdi", wp.workerCount)

	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
	go wp.cleanupRateLimits(ctx)
}

func (wp *workerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-wp.requestQueue:
			if !ok {
				return
			}
			if req == nil {
				continue
			}

			if !wp.checkRateLimit(req.userID) {
				if req.locale == "en" {
					wp.handler.sendMessage(req.chatID, "Too many requests. Please wait a moment.")
				} else {
					wp.handler.sendMessage(req.chatID, "Слишком много сообщений. Подождите немного, пожалуйста.")
				}
				continue
			}

			wp.processWithTimeout(req)
		}
	}
}

func (wp *workerPool) processWithTimeout(req *messageRequest) {
	ctx, cancel := context.WithTimeout(req.ctx, requestTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic xabarni qayta ishlashda (user %d): %v", req.userID, r)
			if req.locale == "en" {
				wp.handler.sendMessage(req.chatID, "Internal error. Please try again.")
			} else {
				wp.handler.sendMessage(req.chatID, "Внутренняя ошибка. Попробуйте ещё раз, пожалуйста.")
			}
		}
	}()

	if wp.handler.bot != nil {
		typingAction := tgbotapi.NewChatAction(req.chatID, tgbotapi.ChatTyping)
		wp.handler.bot.Send(typingAction)
	}

	replies := wp.handler.dialog.HandleInboundText(ctx, req.sessionKey, req.text, req.locale)
	wp.handler.sendOutbound(req.chatID, replies)
}

// checkRateLimit foydalanuvchi limitga sig'adimi tekshirish
func (wp *workerPool) checkRateLimit(userID int64) bool {
	wp.rateLimiterMu.Lock()
	defer wp.rateLimiterMu.Unlock()

	now := time.Now()
	limiter, exists := wp.rateLimiter[userID]
	if !exists || now.Sub(limiter.lastRequest) >= time.Second {
		wp.rateLimiter[userID] = &userRateLimit{lastRequest: now, requestCount: 1}
		return true
	}

	if limiter.requestCount >= maxRequestsPerSecond {
		log.Printf("⚠️ Rate limit oshdi (user %d)", userID)
		return false
	}
	limiter.requestCount++
	return true
}

// cleanupRateLimits eski rate limit yozuvlarini davriy tozalash
func (wp *workerPool) cleanupRateLimits(ctx context.Context) {
	ticker := time.NewTicker(rateLimiterCleanupTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			wp.rateLimiterMu.Lock()
			before := len(wp.rateLimiter)
			for userID, limiter := range wp.rateLimiter {
				if now.Sub(limiter.lastRequest) > rateLimiterMaxIdleTime {
					delete(wp.rateLimiter, userID)
				}
			}
			after := len(wp.rateLimiter)
			wp.rateLimiterMu.Unlock()
			if before != after {
				log.Printf("🧹 %d ta eski rate limiter tozalandi", before-after)
			}
		}
	}
}

// submit xabarni navbatga qo'yish
func (wp *workerPool) submit(req *messageRequest) bool {
	select {
	case wp.requestQueue <- req:
		return true
	default:
		log.Printf("⚠️ Worker pool navbati to'la (%d/%d), so'rov rad etildi (user %d)", len(wp.requestQueue), requestQueueSize, req.userID)
		if req.locale == "en" {
			wp.handler.sendMessage(req.chatID, "The bot is very busy right now. Please try again in a minute.")
		} else {
			wp.handler.sendMessage(req.chatID, "Бот сейчас перегружен. Попробуйте ещё раз через минуту.")
		}
		return false
	}
}

// shutdown worker poolni yumshoq to'xtatish
func (wp *workerPool) shutdown() {
	log.Printf("Worker pool to'xtatilmoqda, navbatda %d ta xabar", len(wp.requestQueue))
	close(wp.requestQueue)
	wp.wg.Wait()
	log.Println("Worker pool to'xtadi")
}
