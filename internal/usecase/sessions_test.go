package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
)

func TestRegistryAcquireCreatesSession(t *testing.T) {
	r := NewSessionRegistry(10, time.Hour)

	session, release := r.Acquire("42", "ru")
	if session.Key != "42" {
		t.Errorf("session.Key = %q, want %q", session.Key, "42")
	}
	if session.Locale != "ru" {
		t.Errorf("session.Locale = %q, want %q", session.Locale, "ru")
	}
	release()

	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistryAcquireReturnsSameSession(t *testing.T) {
	r := NewSessionRegistry(10, time.Hour)

	first, release := r.Acquire("42", "ru")
	first.CollectedName = "Иван Петров"
	release()

	second, release := r.Acquire("42", "en")
	defer release()
	if second.CollectedName != "Иван Петров" {
		t.Errorf("session state lost between Acquire calls: %q", second.CollectedName)
	}
	// Mavjud sessiyaning tili o'zgarmasligi kerak
	if second.Locale != "ru" {
		t.Errorf("session.Locale = %q, want %q", second.Locale, "ru")
	}
}

func TestRegistryEvictIdle(t *testing.T) {
	r := NewSessionRegistry(10, time.Hour)

	stale, release := r.Acquire("old", "ru")
	release()
	stale.LastUsed = time.Now().Add(-2 * time.Hour)

	_, release = r.Acquire("fresh", "ru")
	release()

	evicted := r.EvictIdle(time.Now())
	if evicted != 1 {
		t.Fatalf("EvictIdle() = %d, want 1", evicted)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistryEvictIdleSkipsLockedSession(t *testing.T) {
	r := NewSessionRegistry(10, time.Hour)

	session, release := r.Acquire("busy", "ru")
	session.LastUsed = time.Now().Add(-2 * time.Hour)
	// release chaqirilmagan - sessiya hozir ishlanayotgandek

	if evicted := r.EvictIdle(time.Now()); evicted != 0 {
		t.Errorf("EvictIdle() = %d, want 0 for locked session", evicted)
	}
	release()
}

func TestRegistryEvictIdleWithPendingOrder(t *testing.T) {
	r := NewSessionRegistry(10, time.Hour)

	session, release := r.Acquire("pending", "ru")
	session.Pending = &entity.PendingOrder{Step: entity.StepCollectingInfo}
	release()
	session.LastUsed = time.Now().Add(-2 * time.Hour)

	// Tasdiqlanmagan buyurtma eviction ni to'xtatmaydi
	if evicted := r.EvictIdle(time.Now()); evicted != 1 {
		t.Errorf("EvictIdle() = %d, want 1", evicted)
	}
}

func TestRegistryCapEvictsOldest(t *testing.T) {
	r := NewSessionRegistry(2, time.Hour)

	a, release := r.Acquire("a", "ru")
	release()
	a.LastUsed = time.Now().Add(-30 * time.Minute)

	_, release = r.Acquire("b", "ru")
	release()

	_, release = r.Acquire("c", "ru")
	release()

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after cap eviction", r.Len())
	}

	// "a" eng eski edi, o'chirilgan bo'lishi kerak: qayta Acquire yangi
	// sessiya yaratadi
	recreated, release := r.Acquire("a", "ru")
	defer release()
	if !recreated.LastUsed.After(time.Now().Add(-time.Minute)) {
		t.Errorf("expected session %q to be recreated fresh", "a")
	}
}

func TestRegistryAcquireNeverReturnsOrphanedSession(t *testing.T) {
	r := NewSessionRegistry(10, time.Minute)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Janitor har bir sessiyani idle deb hisoblaydigan rejimda
		// to'xtovsiz ishlaydi
		for {
			select {
			case <-stop:
				return
			default:
				r.EvictIdle(time.Now().Add(time.Hour))
			}
		}
	}()

	// Acquire qaytargan sessiya har doim registrydagi joriy entry bo'lishi
	// kerak: janitor map lookup va entry lock orasida o'chirib yuborgan
	// bo'lsa, orphan emas, yangi entry qaytadi
	for i := 0; i < 500; i++ {
		session, release := r.Acquire("user-1", "ru")
		r.mu.RLock()
		entry := r.entries["user-1"]
		r.mu.RUnlock()
		if entry == nil || entry.session != session {
			release()
			t.Fatalf("iteration %d: acquired session is not the registered one", i)
		}
		release()
	}

	close(stop)
	wg.Wait()
}

func TestRegistryConcurrentAcquire(t *testing.T) {
	r := NewSessionRegistry(100, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, release := r.Acquire("same", "ru")
			session.Messages = append(session.Messages, entity.Message{Role: "user", Text: "x"})
			release()
		}()
	}
	wg.Wait()

	session, release := r.Acquire("same", "ru")
	defer release()
	if len(session.Messages) != 50 {
		t.Errorf("messages = %d, want 50 (per-session lock must serialize)", len(session.Messages))
	}
}
