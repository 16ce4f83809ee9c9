package app

import (
	"testing"

	"kambaz-quiz-service/internal/domain"
)

func TestFeedDeliversPerQuiz(t *testing.T) {
	feed := NewAttemptFeed()
	ch, cancel := feed.Subscribe("quiz-1")
	other, cancelOther := feed.Subscribe("quiz-2")
	defer cancelOther()

	feed.Publish(domain.AttemptEvent{Type: domain.AttemptStarted, QuizID: "quiz-1", AttemptID: "a1"})

	got := <-ch
	if got.AttemptID != "a1" {
		t.Fatalf("expected a1, got %+v", got)
	}
	select {
	case ev := <-other:
		t.Fatalf("quiz-2 watcher received %+v", ev)
	default:
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
	if feed.Watchers("quiz-1") != 0 {
		t.Fatalf("expected no watchers left")
	}
	cancel()
}

func TestFeedDropsStaleEventsForSlowWatchers(t *testing.T) {
	feed := NewAttemptFeed()
	ch, cancel := feed.Subscribe("quiz-1")
	defer cancel()

	for i := 0; i < 20; i++ {
		feed.Publish(domain.AttemptEvent{QuizID: "quiz-1", AttemptNumber: i})
	}

	var last domain.AttemptEvent
	for len(ch) > 0 {
		last = <-ch
	}
	if last.AttemptNumber != 19 {
		t.Fatalf("expected newest event kept, got %d", last.AttemptNumber)
	}
}
