package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"kambaz-quiz-service/internal/domain"
)

// AttemptLedger is an in-memory implementation of app.AttemptLedger.
type AttemptLedger struct {
	mu       sync.RWMutex
	now      func() time.Time
	attempts map[string]domain.QuizAttempt
	open     map[string]string // student/quiz -> in-progress attempt id
}

func NewAttemptLedger() *AttemptLedger {
	return NewAttemptLedgerWithClock(time.Now)
}

// NewAttemptLedgerWithClock is test-only for deterministic timestamps.
func NewAttemptLedgerWithClock(now func() time.Time) *AttemptLedger {
	return &AttemptLedger{
		now:      now,
		attempts: make(map[string]domain.QuizAttempt),
		open:     make(map[string]string),
	}
}

func (l *AttemptLedger) Create(_ context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := openKey(attempt.Student, attempt.Quiz)
	if attempt.InProgress {
		if _, busy := l.open[key]; busy {
			return domain.QuizAttempt{}, domain.ErrAttemptInProgress
		}
	}
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	attempt.Answers = cloneAnswers(attempt.Answers)
	l.attempts[attempt.ID] = attempt
	if attempt.InProgress {
		l.open[key] = attempt.ID
	}
	return copyAttempt(attempt), nil
}

func (l *AttemptLedger) FindByStudentAndQuiz(_ context.Context, studentID, quizID string) ([]domain.QuizAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.QuizAttempt, 0)
	for _, a := range l.attempts {
		if a.Student == studentID && a.Quiz == quizID {
			out = append(out, copyAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AttemptNumber != out[j].AttemptNumber {
			return out[i].AttemptNumber > out[j].AttemptNumber
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (l *AttemptLedger) FindByID(_ context.Context, attemptID string) (domain.QuizAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.attempts[attemptID]
	if !ok {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	return copyAttempt(a), nil
}

func (l *AttemptLedger) CountCompleted(_ context.Context, studentID, quizID string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, a := range l.attempts {
		if a.Student == studentID && a.Quiz == quizID && !a.InProgress {
			n++
		}
	}
	return n, nil
}

func (l *AttemptLedger) FindInProgress(_ context.Context, studentID, quizID string) (*domain.QuizAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.open[openKey(studentID, quizID)]
	if !ok {
		return nil, nil
	}
	a := copyAttempt(l.attempts[id])
	return &a, nil
}

// LatestCompleted returns the submitted attempt with the highest attempt number.
func (l *AttemptLedger) LatestCompleted(_ context.Context, studentID, quizID string) (*domain.QuizAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var latest *domain.QuizAttempt
	for _, a := range l.attempts {
		if a.Student != studentID || a.Quiz != quizID || a.InProgress {
			continue
		}
		if latest == nil || a.AttemptNumber > latest.AttemptNumber ||
			(a.AttemptNumber == latest.AttemptNumber && a.StartedAt.After(latest.StartedAt)) {
			c := copyAttempt(a)
			latest = &c
		}
	}
	return latest, nil
}

func (l *AttemptLedger) UpdateAnswers(_ context.Context, attemptID string, answers []domain.AttemptAnswer) (domain.QuizAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.openLocked(attemptID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	a.Answers = cloneAnswers(answers)
	l.attempts[attemptID] = a
	return copyAttempt(a), nil
}

func (l *AttemptLedger) Finalize(_ context.Context, attemptID string, result domain.Finalization) (domain.QuizAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.openLocked(attemptID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	submittedAt := l.now()
	a.Answers = cloneAnswers(result.Answers)
	a.Score = result.Score
	a.TotalPoints = result.TotalPoints
	a.InProgress = false
	a.SubmittedAt = &submittedAt
	l.attempts[attemptID] = a
	delete(l.open, openKey(a.Student, a.Quiz))
	return copyAttempt(a), nil
}

func (l *AttemptLedger) openLocked(attemptID string) (domain.QuizAttempt, error) {
	a, ok := l.attempts[attemptID]
	if !ok {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	if !a.InProgress {
		return domain.QuizAttempt{}, domain.ErrAttemptSubmitted
	}
	return a, nil
}

func openKey(studentID, quizID string) string {
	return studentID + "/" + quizID
}

func copyAttempt(a domain.QuizAttempt) domain.QuizAttempt {
	a.Answers = cloneAnswers(a.Answers)
	if a.SubmittedAt != nil {
		t := *a.SubmittedAt
		a.SubmittedAt = &t
	}
	return a
}

func cloneAnswers(in []domain.AttemptAnswer) []domain.AttemptAnswer {
	if in == nil {
		return []domain.AttemptAnswer{}
	}
	return append([]domain.AttemptAnswer(nil), in...)
}
