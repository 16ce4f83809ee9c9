package app

import (
	"context"

	"kambaz-quiz-service/internal/domain"
)

// AttemptLedger persists quiz attempts (in-memory, Postgres, etc).
// UpdateAnswers and Finalize only succeed while the attempt is in progress and
// return domain.ErrAttemptSubmitted otherwise.
type AttemptLedger interface {
	Create(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error)
	FindByStudentAndQuiz(ctx context.Context, studentID, quizID string) ([]domain.QuizAttempt, error)
	FindByID(ctx context.Context, attemptID string) (domain.QuizAttempt, error)
	CountCompleted(ctx context.Context, studentID, quizID string) (int, error)
	FindInProgress(ctx context.Context, studentID, quizID string) (*domain.QuizAttempt, error)
	LatestCompleted(ctx context.Context, studentID, quizID string) (*domain.QuizAttempt, error)
	UpdateAnswers(ctx context.Context, attemptID string, answers []domain.AttemptAnswer) (domain.QuizAttempt, error)
	Finalize(ctx context.Context, attemptID string, result domain.Finalization) (domain.QuizAttempt, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// QuizStore is the quiz document collection.
type QuizStore interface {
	FindQuizzesForCourse(ctx context.Context, courseID string) ([]domain.Quiz, error)
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID string) error
	DeleteQuizzesForCourse(ctx context.Context, courseID string) (int, error)
}
