package app

import (
	"sync"

	"kambaz-quiz-service/internal/domain"
)

// AttemptFeed fans attempt lifecycle events out to watchers of a quiz.
type AttemptFeed struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.AttemptEvent]struct{}
}

func NewAttemptFeed() *AttemptFeed {
	return &AttemptFeed{subscribers: make(map[string]map[chan domain.AttemptEvent]struct{})}
}

// Subscribe returns a channel that receives events for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *AttemptFeed) Subscribe(quizID string) (<-chan domain.AttemptEvent, func()) {
	ch := make(chan domain.AttemptEvent, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.AttemptEvent]struct{})
		f.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[quizID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, quizID)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of its quiz without blocking.
// A full subscriber buffer drops its oldest event.
func (f *AttemptFeed) Publish(event domain.AttemptEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[event.QuizID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// Watchers reports how many subscribers a quiz has.
func (f *AttemptFeed) Watchers(quizID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers[quizID])
}
