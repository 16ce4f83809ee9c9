package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"kambaz-quiz-service/internal/domain"
)

const attemptColumns = `id, quiz, student, attempt_number, answers, score, total_points, started_at, submitted_at, in_progress`

// AttemptLedger stores attempts in the quiz_attempts table. A partial unique
// index keeps at most one in-progress row per (student, quiz).
type AttemptLedger struct {
	pool *pgxpool.Pool
}

func NewAttemptLedger(pool *pgxpool.Pool) *AttemptLedger {
	return &AttemptLedger{pool: pool}
}

func (l *AttemptLedger) Create(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	answers, err := marshalAnswers(attempt.Answers)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	row := l.pool.QueryRow(ctx, `
		INSERT INTO quiz_attempts (id, quiz, student, attempt_number, answers, score, total_points, started_at, submitted_at, in_progress)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
		RETURNING `+attemptColumns,
		attempt.ID, attempt.Quiz, attempt.Student, attempt.AttemptNumber, answers,
		attempt.Score, attempt.TotalPoints, attempt.StartedAt, attempt.SubmittedAt, attempt.InProgress)
	created, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizAttempt{}, domain.ErrAttemptInProgress
	}
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("create attempt: %w", err)
	}
	return created, nil
}

func (l *AttemptLedger) FindByStudentAndQuiz(ctx context.Context, studentID, quizID string) ([]domain.QuizAttempt, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts
		WHERE student=$1 AND quiz=$2 ORDER BY attempt_number DESC, started_at DESC`, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizAttempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (l *AttemptLedger) FindByID(ctx context.Context, attemptID string) (domain.QuizAttempt, error) {
	row := l.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE id=$1`, attemptID)
	a, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("find attempt: %w", err)
	}
	return a, nil
}

func (l *AttemptLedger) CountCompleted(ctx context.Context, studentID, quizID string) (int, error) {
	var n int
	err := l.pool.QueryRow(ctx, `SELECT count(*) FROM quiz_attempts
		WHERE student=$1 AND quiz=$2 AND NOT in_progress`, studentID, quizID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (l *AttemptLedger) FindInProgress(ctx context.Context, studentID, quizID string) (*domain.QuizAttempt, error) {
	row := l.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts
		WHERE student=$1 AND quiz=$2 AND in_progress`, studentID, quizID)
	return optionalAttempt(row, "find open attempt")
}

func (l *AttemptLedger) LatestCompleted(ctx context.Context, studentID, quizID string) (*domain.QuizAttempt, error) {
	row := l.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts
		WHERE student=$1 AND quiz=$2 AND NOT in_progress
		ORDER BY attempt_number DESC, started_at DESC LIMIT 1`, studentID, quizID)
	return optionalAttempt(row, "find latest attempt")
}

func (l *AttemptLedger) UpdateAnswers(ctx context.Context, attemptID string, answers []domain.AttemptAnswer) (domain.QuizAttempt, error) {
	data, err := marshalAnswers(answers)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	row := l.pool.QueryRow(ctx, `UPDATE quiz_attempts SET answers=$2::jsonb
		WHERE id=$1 AND in_progress RETURNING `+attemptColumns, attemptID, data)
	return l.conditional(ctx, attemptID, row)
}

func (l *AttemptLedger) Finalize(ctx context.Context, attemptID string, result domain.Finalization) (domain.QuizAttempt, error) {
	data, err := marshalAnswers(result.Answers)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	row := l.pool.QueryRow(ctx, `UPDATE quiz_attempts
		SET answers=$2::jsonb, score=$3, total_points=$4, in_progress=false, submitted_at=now()
		WHERE id=$1 AND in_progress RETURNING `+attemptColumns,
		attemptID, data, result.Score, result.TotalPoints)
	return l.conditional(ctx, attemptID, row)
}

// conditional resolves an in-progress-guarded update. When no row matched it
// tells a missing attempt apart from a submitted one.
func (l *AttemptLedger) conditional(ctx context.Context, attemptID string, row pgx.Row) (domain.QuizAttempt, error) {
	a, err := scanAttempt(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizAttempt{}, fmt.Errorf("update attempt: %w", err)
	}
	var exists bool
	if err := l.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM quiz_attempts WHERE id=$1)`, attemptID).Scan(&exists); err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("check attempt: %w", err)
	}
	if !exists {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	return domain.QuizAttempt{}, domain.ErrAttemptSubmitted
}

func optionalAttempt(row pgx.Row, op string) (*domain.QuizAttempt, error) {
	a, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

func scanAttempt(row pgx.Row) (domain.QuizAttempt, error) {
	var (
		a           domain.QuizAttempt
		answers     []byte
		submittedAt *time.Time
	)
	if err := row.Scan(&a.ID, &a.Quiz, &a.Student, &a.AttemptNumber, &answers,
		&a.Score, &a.TotalPoints, &a.StartedAt, &submittedAt, &a.InProgress); err != nil {
		return domain.QuizAttempt{}, err
	}
	a.SubmittedAt = submittedAt
	a.Answers = []domain.AttemptAnswer{}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &a.Answers); err != nil {
			return domain.QuizAttempt{}, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	return a, nil
}

func marshalAnswers(answers []domain.AttemptAnswer) (string, error) {
	if answers == nil {
		answers = []domain.AttemptAnswer{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("marshal answers: %w", err)
	}
	return string(data), nil
}
