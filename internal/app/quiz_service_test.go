package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"kambaz-quiz-service/internal/app"
	"kambaz-quiz-service/internal/domain"
	"kambaz-quiz-service/internal/infra/memory"
)

var faculty = domain.Identity{UserID: "prof", Role: domain.RoleFaculty}

func TestStudentsGetRedactedQuizzes(t *testing.T) {
	ctx := context.Background()
	service := newQuizService()

	list, err := service.ListForCourse(ctx, alice, "CS5610")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Questions[0].CorrectAnswer != nil {
		t.Fatalf("expected redacted list, got %+v", list)
	}

	quiz, err := service.Get(ctx, alice, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if quiz.Questions[2].Blanks[0].PossibleAnswers != nil {
		t.Fatalf("expected blank answers stripped")
	}

	full, _ := service.Get(ctx, faculty, "quiz-1")
	if full.Questions[0].CorrectAnswer != "4" {
		t.Fatalf("faculty should see answer keys")
	}
}

func TestQuizManagementRequiresPrivilege(t *testing.T) {
	ctx := context.Background()
	service := newQuizService()

	if _, err := service.Create(ctx, alice, "CS5610", domain.Quiz{Title: "Nope"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden create, got %v", err)
	}
	if err := service.Delete(ctx, alice, "quiz-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if _, err := service.Debug(ctx, domain.Identity{}, "quiz-1"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated debug, got %v", err)
	}
}

func TestCreateValidatesAndAssignsIDs(t *testing.T) {
	ctx := context.Background()
	service := newQuizService()

	if _, err := service.Create(ctx, faculty, "CS5610", domain.Quiz{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing title, got %v", err)
	}
	bad := domain.Quiz{Title: "Essay", Questions: []domain.Question{{Type: domain.TrueFalse}, {Type: "ESSAY"}}}
	_, err := service.Create(ctx, faculty, "CS5610", bad)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown type, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "question 2 (") || strings.Contains(msg, `()`) {
		t.Fatalf("expected error to name the generated question id, got %q", msg)
	}

	created, err := service.Create(ctx, faculty, "CS5610", domain.Quiz{
		Title:     "Pop quiz",
		Questions: []domain.Question{{Type: domain.TrueFalse, CorrectAnswer: false}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Course != "CS5610" || created.Questions[0].ID == "" {
		t.Fatalf("expected ids and course assigned, got %+v", created)
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	service := newQuizService()

	before, _ := service.Get(ctx, faculty, "quiz-1")
	before.Title = "Renamed"
	before.Course = ""
	if _, err := service.Update(ctx, faculty, "quiz-1", before); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, _ := service.Get(ctx, alice, "quiz-1")
	if after.Title != "Renamed" || after.Course != "CS5610" {
		t.Fatalf("expected fresh quiz with course kept, got %+v", after)
	}

	if err := service.Delete(ctx, faculty, "quiz-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.Get(ctx, alice, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected deleted quiz gone from cache, got %v", err)
	}
}

func TestDeleteForCourseClearsStoreAndCache(t *testing.T) {
	ctx := context.Background()
	other := gradedQuiz()
	other.ID, other.Course = "quiz-2", "CS4550"
	store := memory.NewQuizStore(gradedQuiz(), other)
	service := app.NewQuizService(store, memory.NewQuizRepository(store, time.Minute))

	if _, err := service.Get(ctx, alice, "quiz-1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if _, err := service.DeleteForCourse(ctx, alice, "CS5610"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden bulk delete, got %v", err)
	}

	n, err := service.DeleteForCourse(ctx, faculty, "CS5610")
	if err != nil || n != 1 {
		t.Fatalf("expected one quiz deleted, got %d (%v)", n, err)
	}
	if _, err := service.Get(ctx, alice, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected deleted quiz gone from cache, got %v", err)
	}
	if _, err := service.Get(ctx, alice, "quiz-2"); err != nil {
		t.Fatalf("other course should be untouched: %v", err)
	}
}

func newQuizService() *app.QuizService {
	store := memory.NewQuizStore(gradedQuiz())
	return app.NewQuizService(store, memory.NewQuizRepository(store, time.Minute))
}
