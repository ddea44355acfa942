package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
)

type sessionEntry struct {
	mu      sync.Mutex
	session *entity.Session
}

// SessionRegistry session-key bo'yicha cheklangan in-memory registry.
// Har bir session uchun alohida lock bor: bitta sessiya ichida xabarlar
// kelish tartibida qayta ishlanadi, turli sessiyalar parallel.
// Idle sessiyalar janitor tomonidan o'chiriladi.
type SessionRegistry struct {
	mu          sync.RWMutex
	entries     map[string]*sessionEntry
	maxEntries  int
	idleTimeout time.Duration
}

// NewSessionRegistry registry yaratish
func NewSessionRegistry(maxEntries int, idleTimeout time.Duration) *SessionRegistry {
	return &SessionRegistry{
		entries:     make(map[string]*sessionEntry),
		maxEntries:  maxEntries,
		idleTimeout: idleTimeout,
	}
}

// Acquire sessiyani olish (kerak bo'lsa yaratish) va uning lockini ushlash.
// Qaytarilgan release funksiyasi ish tugagach chaqirilishi shart.
func (r *SessionRegistry) Acquire(key, locale string) (*entity.Session, func()) {
	for {
		r.mu.Lock()
		entry, exists := r.entries[key]
		if !exists {
			if len(r.entries) >= r.maxEntries {
				r.evictOldestLocked()
			}
			entry = &sessionEntry{
				session: &entity.Session{
					Key:      key,
					Locale:   locale,
					LastUsed: time.Now(),
				},
			}
			r.entries[key] = entry
		}
		r.mu.Unlock()

		// Registry locksiz session lockini olish - boshqa sessiyalar
		// bloklanmaydi
		entry.mu.Lock()

		// Lock olguncha janitor yoki limit evictioni bu entryni mapdan
		// o'chirgan bo'lishi mumkin. Orphan sessiya bilan ishlamaymiz,
		// qaytadan urinamiz.
		r.mu.RLock()
		current := r.entries[key]
		r.mu.RUnlock()
		if current != entry {
			entry.mu.Unlock()
			continue
		}

		entry.session.LastUsed = time.Now()
		if entry.session.Locale == "" {
			entry.session.Locale = locale
		}
		return entry.session, entry.mu.Unlock
	}
}

// Len hozirgi sessiyalar soni
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// StartJanitor idle sessiyalarni davriy tozalashni ishga tushirish
func (r *SessionRegistry) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.EvictIdle(time.Now())
			}
		}
	}()
}

// EvictIdle idle timeout dan oshgan sessiyalarni o'chirish
func (r *SessionRegistry) EvictIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for key, entry := range r.entries {
		if !entry.mu.TryLock() {
			continue // hozir ishlanayotgan sessiyaga tegmaymiz
		}
		idle := now.Sub(entry.session.LastUsed)
		pending := entry.session.Pending != nil
		entry.mu.Unlock()

		if idle > r.idleTimeout {
			if pending {
				log.Printf("⚠️ Idle sessiya tasdiqlanmagan buyurtma bilan o'chirilmoqda: %s", key)
			}
			delete(r.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("🧹 %d ta idle sessiya tozalandi, qoldi: %d", evicted, len(r.entries))
	}
	return evicted
}

// evictOldestLocked eng uzoq ishlatilmagan sessiyani o'chirish.
// r.mu yozish uchun ushlangan bo'lishi kerak.
func (r *SessionRegistry) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range r.entries {
		if !entry.mu.TryLock() {
			continue
		}
		lastUsed := entry.session.LastUsed
		entry.mu.Unlock()
		if oldestKey == "" || lastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = lastUsed
		}
	}
	if oldestKey != "" {
		log.Printf("⚠️ Sessiyalar limiti to'ldi, eng eski sessiya o'chirilmoqda: %s", oldestKey)
		delete(r.entries, oldestKey)
	}
}
