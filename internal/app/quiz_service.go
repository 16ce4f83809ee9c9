package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"kambaz-quiz-service/internal/domain"
)

// QuizService serves quiz documents, redacting answer keys for unprivileged viewers.
type QuizService struct {
	store    QuizStore
	cache    QuizRepository
	validate *validator.Validate
}

func NewQuizService(store QuizStore, cache QuizRepository) *QuizService {
	return &QuizService{store: store, cache: cache, validate: validator.New()}
}

// ListForCourse returns the course's quizzes as the caller may see them.
func (s *QuizService) ListForCourse(ctx context.Context, who domain.Identity, courseID string) ([]domain.Quiz, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	quizzes, err := s.store.FindQuizzesForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quiz, len(quizzes))
	for i, q := range quizzes {
		out[i] = q.ForViewer(who.Role)
	}
	return out, nil
}

// Get returns one quiz as the caller may see it.
func (s *QuizService) Get(ctx context.Context, who domain.Identity, quizID string) (domain.Quiz, error) {
	if !who.Authenticated() {
		return domain.Quiz{}, domain.ErrUnauthenticated
	}
	quiz, err := s.cache.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz.ForViewer(who.Role), nil
}

// Debug returns the unredacted quiz to privileged callers only.
func (s *QuizService) Debug(ctx context.Context, who domain.Identity, quizID string) (domain.Quiz, error) {
	if err := requirePrivileged(who); err != nil {
		return domain.Quiz{}, err
	}
	return s.store.LoadQuiz(ctx, quizID)
}

// Create adds a quiz to a course.
func (s *QuizService) Create(ctx context.Context, who domain.Identity, courseID string, quiz domain.Quiz) (domain.Quiz, error) {
	if err := requirePrivileged(who); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Course = courseID
	if err := s.check(quiz); err != nil {
		return domain.Quiz{}, err
	}
	created, err := s.store.CreateQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	log.Info().Str("quiz", created.ID).Str("course", courseID).Msg("quiz created")
	return created, nil
}

// Update replaces a quiz document and drops any cached copy.
func (s *QuizService) Update(ctx context.Context, who domain.Identity, quizID string, quiz domain.Quiz) (domain.Quiz, error) {
	if err := requirePrivileged(who); err != nil {
		return domain.Quiz{}, err
	}
	quiz.ID = quizID
	if quiz.Course == "" {
		existing, err := s.store.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.Course = existing.Course
	}
	if err := s.check(quiz); err != nil {
		return domain.Quiz{}, err
	}
	updated, err := s.store.UpdateQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return updated, nil
}

// Delete removes a quiz and drops any cached copy.
func (s *QuizService) Delete(ctx context.Context, who domain.Identity, quizID string) error {
	if err := requirePrivileged(who); err != nil {
		return err
	}
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	return nil
}

// DeleteForCourse removes every quiz of a course and reports how many went.
func (s *QuizService) DeleteForCourse(ctx context.Context, who domain.Identity, courseID string) (int, error) {
	if err := requirePrivileged(who); err != nil {
		return 0, err
	}
	quizzes, err := s.store.FindQuizzesForCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	n, err := s.store.DeleteQuizzesForCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	for _, q := range quizzes {
		s.invalidate(ctx, q.ID)
	}
	log.Info().Str("course", courseID).Int("deleted", n).Msg("course quizzes deleted")
	return n, nil
}

// check validates the quiz and assigns ids to new questions in place.
func (s *QuizService) check(quiz domain.Quiz) error {
	if err := s.validate.Struct(quiz); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		switch q.Type {
		case domain.MultipleChoice, domain.TrueFalse, domain.FillBlank:
		default:
			return fmt.Errorf("%w: question %d (%s) has unsupported type %q", domain.ErrInvalidInput, i+1, q.ID, q.Type)
		}
	}
	return nil
}

func (s *QuizService) invalidate(ctx context.Context, quizID string) {
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		log.Warn().Err(err).Str("quiz", quizID).Msg("quiz cache invalidation failed")
	}
}

func requirePrivileged(who domain.Identity) error {
	if !who.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !who.Role.Privileged() {
		return domain.ErrForbidden
	}
	return nil
}
