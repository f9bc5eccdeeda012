package app

import (
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// ProgressHub fans out progress snapshots to monitoring subscribers, keyed by
// session ID. Slow subscribers only ever miss intermediate snapshots: a stale
// buffered update is dropped so the latest one always lands.
type ProgressHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Progress]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subscribers: make(map[string]map[chan domain.Progress]struct{}),
	}
}

// Subscribe registers a watcher for one session. The caller must invoke the
// returned cancel function to avoid leaks.
func (h *ProgressHub) Subscribe(sessionID string) (chan domain.Progress, func()) {
	ch := make(chan domain.Progress, 8)

	h.mu.Lock()
	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[chan domain.Progress]struct{})
	}
	h.subscribers[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, sessionID)
			}
		}
	}
	return ch, cancel
}

// Broadcast delivers a snapshot to every watcher of its session.
func (h *ProgressHub) Broadcast(p domain.Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[p.SessionID] {
		select {
		case ch <- p:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
}
