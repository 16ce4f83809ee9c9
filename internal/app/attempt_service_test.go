package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kambaz-quiz-service/internal/app"
	"kambaz-quiz-service/internal/domain"
	"kambaz-quiz-service/internal/infra/memory"
)

var (
	alice = domain.Identity{UserID: "alice", Role: domain.RoleStudent}
	bob   = domain.Identity{UserID: "bob", Role: domain.RoleStudent}
)

func TestStartRequiresIdentity(t *testing.T) {
	service, _ := newAttemptService()
	if _, err := service.Start(context.Background(), domain.Identity{}, "quiz-1"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestStartCreatesFreshAttempt(t *testing.T) {
	service, _ := newAttemptService()
	attempt, err := service.Start(context.Background(), alice, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !attempt.InProgress || attempt.AttemptNumber != 1 || attempt.Score != 0 || attempt.TotalPoints != 0 {
		t.Fatalf("unexpected new attempt %+v", attempt)
	}
	if attempt.SubmittedAt != nil || len(attempt.Answers) != 0 || attempt.StartedAt.IsZero() {
		t.Fatalf("unexpected timestamps or answers %+v", attempt)
	}
}

func TestStartReturnsExistingOpenAttempt(t *testing.T) {
	ctx := context.Background()
	service, _ := newAttemptService()

	first, _ := service.Start(ctx, alice, "quiz-1")
	second, err := service.Start(ctx, alice, "quiz-1")
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the open attempt back, got %s and %s", first.ID, second.ID)
	}
}

func TestConcurrentStartsYieldOneOpenAttempt(t *testing.T) {
	ctx := context.Background()
	service, ledger := newAttemptService()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := service.Start(ctx, alice, "quiz-1")
			if err != nil {
				t.Errorf("start: %v", err)
				return
			}
			ids[i] = a.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("expected a single attempt id, got %v", ids)
		}
	}
	all, _ := ledger.FindByStudentAndQuiz(ctx, "alice", "quiz-1")
	if len(all) != 1 {
		t.Fatalf("expected one stored attempt, got %d", len(all))
	}
}

func TestAttemptNumberCountsOnlyCompleted(t *testing.T) {
	ctx := context.Background()
	service, _ := newAttemptService()

	for i := 0; i < 2; i++ {
		a, err := service.Start(ctx, alice, "quiz-1")
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if _, err := service.Submit(ctx, alice, a.ID, nil); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	third, err := service.Start(ctx, alice, "quiz-1")
	if err != nil {
		t.Fatalf("third start: %v", err)
	}
	if third.AttemptNumber != 3 {
		t.Fatalf("expected attempt number 3, got %d", third.AttemptNumber)
	}

	count, _ := service.Count(ctx, alice, "quiz-1")
	if count != 2 {
		t.Fatalf("expected 2 completed, got %d", count)
	}
}

func TestSubmitGradesServerSide(t *testing.T) {
	ctx := context.Background()
	service, _ := newAttemptService()

	a, _ := service.Start(ctx, alice, "quiz-1")
	answers := []domain.AttemptAnswer{
		{Question: "q1", Answer: "4", Correct: false, Points: 0},
		{Question: "q2", Answer: "true", Correct: false, Points: 99},
		{Question: "q3", Answer: []any{"Goroutine", "mutex"}},
	}
	final, err := service.Submit(ctx, alice, a.ID, answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if final.InProgress || final.SubmittedAt == nil {
		t.Fatalf("expected finalized attempt, got %+v", final)
	}
	// q1: 2 + q2: 1 + q3 partial: 1
	if final.Score != 4 {
		t.Fatalf("expected score 4, got %v", final.Score)
	}
	if final.TotalPoints != 6 {
		t.Fatalf("expected totalPoints from quiz, got %v", final.TotalPoints)
	}
	if !final.Answers[1].Correct || final.Answers[1].Points != 1 {
		t.Fatalf("client-sent points must be ignored, got %+v", final.Answers[1])
	}
	if final.Answers[2].Correct || final.Answers[2].Points != 1 {
		t.Fatalf("expected partial credit on q3, got %+v", final.Answers[2])
	}
}

func TestSubmitWithoutAnswersGradesStoredAnswers(t *testing.T) {
	ctx := context.Background()
	service, _ := newAttemptService()

	a, _ := service.Start(ctx, alice, "quiz-1")
	if _, err := service.Update(ctx, alice, a.ID, []domain.AttemptAnswer{{Question: "q1", Answer: "4"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	final, err := service.Submit(ctx, alice, a.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if final.Score != 2 {
		t.Fatalf("expected stored answer graded to 2, got %v", final.Score)
	}
}

func TestMutationsAfterSubmitAreRejected(t *testing.T) {
	ctx := context.Background()
	service, _ := newAttemptService()

	a, _ := service.Start(ctx, alice, "quiz-1")
	if _, err := service.Submit(ctx, alice, a.ID, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.Update(ctx, alice, a.ID, nil); !errors.Is(err, domain.ErrAttemptSubmitted) {
		t.Fatalf("expected submitted on update, got %v", err)
	}
	if _, err := service.Submit(ctx, alice, a.ID, nil); !errors.Is(err, domain.ErrAttemptSubmitted) {
		t.Fatalf("expected submitted on resubmit, got %v", err)
	}

	open, _ := service.InProgress(ctx, alice, "quiz-1")
	if open != nil {
		t.Fatalf("expected no open attempt, got %+v", open)
	}
	latest, _ := service.Latest(ctx, alice, "quiz-1")
	if latest == nil || latest.ID != a.ID {
		t.Fatalf("expected latest completed to be %s, got %+v", a.ID, latest)
	}
}

func TestOtherStudentsAreForbidden(t *testing.T) {
	ctx := context.Background()
	service, _ := newAttemptService()

	a, _ := service.Start(ctx, alice, "quiz-1")
	if _, err := service.Update(ctx, bob, a.ID, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	if _, err := service.Submit(ctx, bob, a.ID, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden submit, got %v", err)
	}
	if _, err := service.Get(ctx, bob, a.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden get, got %v", err)
	}
	if _, err := service.Get(ctx, alice, "missing"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNeverStartedHasNoOpenAttempt(t *testing.T) {
	service, _ := newAttemptService()
	open, err := service.InProgress(context.Background(), alice, "quiz-1")
	if err != nil || open != nil {
		t.Fatalf("expected none, got %+v err=%v", open, err)
	}
	list, _ := service.List(context.Background(), alice, "quiz-1")
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestRepeatedUpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service, _ := newAttemptService()

	a, _ := service.Start(ctx, alice, "quiz-1")
	answers := []domain.AttemptAnswer{{Question: "q1", Answer: "3"}}
	first, _ := service.Update(ctx, alice, a.ID, answers)
	second, err := service.Update(ctx, alice, a.ID, answers)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if len(first.Answers) != 1 || len(second.Answers) != 1 || second.Answers[0] != first.Answers[0] {
		t.Fatalf("expected identical answers, got %+v and %+v", first.Answers, second.Answers)
	}
}

func TestSubmitForDeletedQuizIsNotFound(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewAttemptLedger()
	quizzes := memory.NewQuizRepository(memory.NewQuizStore(), time.Minute)
	service := app.NewAttemptService(ledger, quizzes, nil)

	a, _ := service.Start(ctx, alice, "gone")
	if _, err := service.Submit(ctx, alice, a.ID, nil); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	stored, _ := ledger.FindByID(ctx, a.ID)
	if !stored.InProgress {
		t.Fatalf("failed submit must leave attempt open")
	}
}

func TestLifecycleEventsArePublished(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	feed := app.NewAttemptFeed()
	ledger := memory.NewAttemptLedgerWithClock(clock)
	quizzes := memory.NewQuizRepository(memory.NewQuizStore(gradedQuiz()), time.Minute)
	service := app.NewAttemptServiceWithClock(ledger, quizzes, feed, clock)

	events, cancel := feed.Subscribe("quiz-1")
	defer cancel()

	a, _ := service.Start(ctx, alice, "quiz-1")
	if !a.StartedAt.Equal(now) {
		t.Fatalf("expected startedAt %v, got %v", now, a.StartedAt)
	}
	startedAt := now
	now = now.Add(15 * time.Minute)
	final, _ := service.Submit(ctx, alice, a.ID, []domain.AttemptAnswer{{Question: "q1", Answer: "4"}})
	if final.SubmittedAt == nil || !final.SubmittedAt.Equal(now) {
		t.Fatalf("expected submittedAt %v, got %v", now, final.SubmittedAt)
	}

	started := <-events
	submitted := <-events
	if started.Type != domain.AttemptStarted || started.AttemptID != a.ID || !started.At.Equal(startedAt) {
		t.Fatalf("unexpected start event %+v", started)
	}
	if submitted.Type != domain.AttemptSubmitted || submitted.Score != 2 || submitted.TotalPoints != 6 || !submitted.At.Equal(now) {
		t.Fatalf("unexpected submit event %+v", submitted)
	}
}

func newAttemptService() (*app.AttemptService, *memory.AttemptLedger) {
	ledger := memory.NewAttemptLedger()
	quizzes := memory.NewQuizRepository(memory.NewQuizStore(gradedQuiz()), 5*time.Minute)
	return app.NewAttemptService(ledger, quizzes, app.NewAttemptFeed()), ledger
}

func gradedQuiz() domain.Quiz {
	return domain.Quiz{
		ID:     "quiz-1",
		Title:  "Concurrency",
		Course: "CS5610",
		Points: 6,
		Questions: []domain.Question{
			{ID: "q1", Type: domain.MultipleChoice, Points: 2, Choices: []string{"3", "4"}, CorrectAnswer: "4"},
			{ID: "q2", Type: domain.TrueFalse, Points: 1, CorrectAnswer: true},
			{ID: "q3", Type: domain.FillBlank, Points: 3, Blanks: []domain.Blank{
				{PossibleAnswers: []string{"goroutine"}, Points: 1},
				{PossibleAnswers: []string{"channel"}, Points: 2},
			}},
		},
	}
}
