package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"kambaz-quiz-service/internal/domain"
	"kambaz-quiz-service/internal/grading"
)

// AttemptService drives an attempt from start through submission.
type AttemptService struct {
	ledger  AttemptLedger
	quizzes QuizRepository
	feed    *AttemptFeed
	now     func() time.Time
}

func NewAttemptService(ledger AttemptLedger, quizzes QuizRepository, feed *AttemptFeed) *AttemptService {
	return NewAttemptServiceWithClock(ledger, quizzes, feed, time.Now)
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(ledger AttemptLedger, quizzes QuizRepository, feed *AttemptFeed, now func() time.Time) *AttemptService {
	return &AttemptService{ledger: ledger, quizzes: quizzes, feed: feed, now: now}
}

// Start opens an attempt for the caller. An attempt already in progress is returned as is.
func (s *AttemptService) Start(ctx context.Context, who domain.Identity, quizID string) (domain.QuizAttempt, error) {
	if !who.Authenticated() {
		return domain.QuizAttempt{}, domain.ErrUnauthenticated
	}

	open, err := s.ledger.FindInProgress(ctx, who.UserID, quizID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if open != nil {
		return *open, nil
	}

	completed, err := s.ledger.CountCompleted(ctx, who.UserID, quizID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}

	attempt, err := s.ledger.Create(ctx, domain.QuizAttempt{
		Quiz:          quizID,
		Student:       who.UserID,
		AttemptNumber: completed + 1,
		Answers:       []domain.AttemptAnswer{},
		StartedAt:     s.now(),
		InProgress:    true,
	})
	if errors.Is(err, domain.ErrAttemptInProgress) {
		// A concurrent start won; hand back its attempt.
		open, findErr := s.ledger.FindInProgress(ctx, who.UserID, quizID)
		if findErr != nil {
			return domain.QuizAttempt{}, findErr
		}
		if open != nil {
			return *open, nil
		}
	}
	if err != nil {
		return domain.QuizAttempt{}, err
	}

	log.Info().Str("attempt", attempt.ID).Str("quiz", quizID).Str("student", who.UserID).
		Int("number", attempt.AttemptNumber).Msg("attempt started")
	s.publish(domain.AttemptStarted, attempt)
	return attempt, nil
}

// Update replaces the stored answers of an open attempt. Nil answers keep what is stored.
func (s *AttemptService) Update(ctx context.Context, who domain.Identity, attemptID string, answers []domain.AttemptAnswer) (domain.QuizAttempt, error) {
	attempt, err := s.ownedOpenAttempt(ctx, who, attemptID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if answers == nil {
		answers = attempt.Answers
	}
	return s.ledger.UpdateAnswers(ctx, attemptID, answers)
}

// Submit grades the attempt against the current quiz and finalizes it.
// Scores sent by the client are ignored.
func (s *AttemptService) Submit(ctx context.Context, who domain.Identity, attemptID string, answers []domain.AttemptAnswer) (domain.QuizAttempt, error) {
	attempt, err := s.ownedOpenAttempt(ctx, who, attemptID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if answers == nil {
		answers = attempt.Answers
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.Quiz)
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("grade attempt %s: %w", attemptID, err)
	}

	graded, score := grading.GradeAttempt(quiz, answers)
	final, err := s.ledger.Finalize(ctx, attemptID, domain.Finalization{
		Answers:     graded,
		Score:       score,
		TotalPoints: quiz.Points,
	})
	if err != nil {
		return domain.QuizAttempt{}, err
	}

	log.Info().Str("attempt", final.ID).Str("quiz", final.Quiz).Str("student", who.UserID).
		Float64("score", final.Score).Float64("total", final.TotalPoints).Msg("attempt submitted")
	s.publish(domain.AttemptSubmitted, final)
	return final, nil
}

// Get returns one of the caller's attempts.
func (s *AttemptService) Get(ctx context.Context, who domain.Identity, attemptID string) (domain.QuizAttempt, error) {
	if !who.Authenticated() {
		return domain.QuizAttempt{}, domain.ErrUnauthenticated
	}
	attempt, err := s.ledger.FindByID(ctx, attemptID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if attempt.Student != who.UserID {
		return domain.QuizAttempt{}, domain.ErrForbidden
	}
	return attempt, nil
}

// List returns the caller's attempts at a quiz, newest attempt number first.
func (s *AttemptService) List(ctx context.Context, who domain.Identity, quizID string) ([]domain.QuizAttempt, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.ledger.FindByStudentAndQuiz(ctx, who.UserID, quizID)
}

// Count returns how many attempts the caller has submitted for a quiz.
func (s *AttemptService) Count(ctx context.Context, who domain.Identity, quizID string) (int, error) {
	if !who.Authenticated() {
		return 0, domain.ErrUnauthenticated
	}
	return s.ledger.CountCompleted(ctx, who.UserID, quizID)
}

// Latest returns the caller's most recently submitted attempt, or nil.
func (s *AttemptService) Latest(ctx context.Context, who domain.Identity, quizID string) (*domain.QuizAttempt, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.ledger.LatestCompleted(ctx, who.UserID, quizID)
}

// InProgress returns the caller's open attempt, or nil.
func (s *AttemptService) InProgress(ctx context.Context, who domain.Identity, quizID string) (*domain.QuizAttempt, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.ledger.FindInProgress(ctx, who.UserID, quizID)
}

func (s *AttemptService) ownedOpenAttempt(ctx context.Context, who domain.Identity, attemptID string) (domain.QuizAttempt, error) {
	attempt, err := s.Get(ctx, who, attemptID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if !attempt.InProgress {
		return domain.QuizAttempt{}, domain.ErrAttemptSubmitted
	}
	return attempt, nil
}

func (s *AttemptService) publish(kind domain.AttemptEventType, attempt domain.QuizAttempt) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(domain.AttemptEvent{
		Type:          kind,
		AttemptID:     attempt.ID,
		QuizID:        attempt.Quiz,
		Student:       attempt.Student,
		AttemptNumber: attempt.AttemptNumber,
		Score:         attempt.Score,
		TotalPoints:   attempt.TotalPoints,
		At:            s.now(),
	})
}
