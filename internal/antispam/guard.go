// Package antispam защищает воронку от случайных и намеренных
// повторов: скользящее окно по частоте плюс дедупликация по содержимому.
package antispam

import (
	"crypto/md5"
	"encoding/hex"
	"log"
	"sync"
	"time"
	"unicode/utf8"
)

// Сообщения короче этого порога не дедуплицируются: короткий повтор —
// это, как правило, честный повторный ввод (номер телефона, «да»)
const dedupMinLen = 20

type Guard struct {
	mu    sync.Mutex
	rate  map[int64][]time.Time
	dedup map[int64]map[string]time.Time

	rateLimit   int
	rateWindow  time.Duration
	dedupWindow time.Duration

	now func() time.Time
}

// New создаёт guard: не более rateLimit сообщений за rateWindowSec секунд,
// одинаковый текст не чаще раза в dedupSec секунд
func New(rateLimit, rateWindowSec, dedupSec int) *Guard {
	return &Guard{
		rate:        make(map[int64][]time.Time),
		dedup:       make(map[int64]map[string]time.Time),
		rateLimit:   rateLimit,
		rateWindow:  time.Duration(rateWindowSec) * time.Second,
		dedupWindow: time.Duration(dedupSec) * time.Second,
		now:         time.Now,
	}
}

// Allow решает, пропускать ли сообщение. exempt=true (команды, старт
// меню, отправка контакта) обходит обе проверки. Отказ молчаливый:
// пользователю ничего не отвечают.
func (g *Guard) Allow(userID int64, text string, exempt bool) bool {
	if exempt {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()

	// Скользящее окно по частоте
	cutoff := now.Add(-g.rateWindow)
	stamps := g.rate[userID][:0]
	for _, t := range g.rate[userID] {
		if t.After(cutoff) {
			stamps = append(stamps, t)
		}
	}
	if len(stamps) >= g.rateLimit {
		g.rate[userID] = stamps
		log.Printf("Анти-спам: превышена частота, пользователь %d", userID)
		return false
	}
	g.rate[userID] = append(stamps, now)

	// Дедупликация достаточно длинных сообщений
	if utf8.RuneCountInString(text) >= dedupMinLen {
		sum := md5.Sum([]byte(text))
		key := hex.EncodeToString(sum[:])

		bucket := g.dedup[userID]
		if bucket == nil {
			bucket = make(map[string]time.Time)
			g.dedup[userID] = bucket
		}
		for k, t := range bucket {
			if now.Sub(t) >= g.dedupWindow {
				delete(bucket, k)
			}
		}
		if _, seen := bucket[key]; seen {
			log.Printf("Анти-спам: дубликат, пользователь %d", userID)
			return false
		}
		bucket[key] = now
	}
	return true
}

// RunGC периодически выметает устаревшие записи, чтобы память
// не росла с числом когда-либо писавших пользователей
func (g *Guard) RunGC(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.collect()
		}
	}
}

func (g *Guard) collect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()

	for uid, stamps := range g.rate {
		cutoff := now.Add(-g.rateWindow)
		kept := stamps[:0]
		for _, t := range stamps {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(g.rate, uid)
		} else {
			g.rate[uid] = kept
		}
	}

	for uid, bucket := range g.dedup {
		for k, t := range bucket {
			if now.Sub(t) >= g.dedupWindow {
				delete(bucket, k)
			}
		}
		if len(bucket) == 0 {
			delete(g.dedup, uid)
		}
	}
}
