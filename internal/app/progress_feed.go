package app

import (
	"sync"

	"vocab-quiz-service/internal/domain"
)

// ProgressFeed fans committed progress updates out to per-user subscribers
// (the websocket transport). Updates are derived from committed rows only,
// so a subscriber never observes a rolled-back session.
type ProgressFeed struct {
	mu          sync.Mutex
	subscribers map[int64]map[chan domain.ProgressUpdate]struct{}
}

func NewProgressFeed() *ProgressFeed {
	return &ProgressFeed{
		subscribers: make(map[int64]map[chan domain.ProgressUpdate]struct{}),
	}
}

// Subscribe returns a channel receiving the user's future progress updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *ProgressFeed) Subscribe(userID int64) (<-chan domain.ProgressUpdate, func()) {
	ch := make(chan domain.ProgressUpdate, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[userID]
	if !ok {
		subs = make(map[chan domain.ProgressUpdate]struct{})
		f.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if subs, ok := f.subscribers[userID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(f.subscribers, userID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an update to every subscriber of the user. Slow consumers
// lose the oldest buffered update rather than blocking the publisher.
func (f *ProgressFeed) Publish(update domain.ProgressUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[update.UserID] {
		select {
		case ch <- update:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
