package grading

import (
	"strconv"
	"strings"

	"kambaz-quiz-service/internal/domain"
)

// Verdict is the outcome of grading one answer.
type Verdict struct {
	Correct bool
	Points  float64
}

// strategy grades a single question type. Answers reaching a strategy are non-nil.
type strategy func(q domain.Question, answer any) Verdict

var strategies = map[domain.QuestionType]strategy{
	domain.MultipleChoice: gradeMultipleChoice,
	domain.TrueFalse:      gradeTrueFalse,
	domain.FillBlank:      gradeFillBlank,
}

// Evaluate grades one submitted answer against its question.
// A missing answer or an unknown question type earns nothing.
func Evaluate(q domain.Question, answer any) Verdict {
	if answer == nil {
		return Verdict{}
	}
	grade, ok := strategies[q.Type]
	if !ok {
		return Verdict{}
	}
	return grade(q, answer)
}

// GradeAttempt grades submitted answers against every question of the quiz, in quiz order.
// Unanswered questions are recorded with a null answer and zero points.
func GradeAttempt(quiz domain.Quiz, submitted []domain.AttemptAnswer) ([]domain.AttemptAnswer, float64) {
	byQuestion := make(map[string]any, len(submitted))
	for _, a := range submitted {
		if _, seen := byQuestion[a.Question]; seen {
			continue
		}
		byQuestion[a.Question] = a.Answer
	}

	graded := make([]domain.AttemptAnswer, 0, len(quiz.Questions))
	var score float64
	for _, q := range quiz.Questions {
		answer := byQuestion[q.ID]
		v := Evaluate(q, answer)
		graded = append(graded, domain.AttemptAnswer{
			Question: q.ID,
			Answer:   answer,
			Correct:  v.Correct,
			Points:   v.Points,
		})
		score += v.Points
	}
	return graded, score
}

func gradeMultipleChoice(q domain.Question, answer any) Verdict {
	want, ok := scalarText(q.CorrectAnswer)
	if !ok {
		return Verdict{}
	}
	got, ok := scalarText(answer)
	if !ok || got != want {
		return Verdict{}
	}
	return Verdict{Correct: true, Points: q.PointValue()}
}

func gradeTrueFalse(q domain.Question, answer any) Verdict {
	if asBool(answer) != asBool(q.CorrectAnswer) {
		return Verdict{}
	}
	return Verdict{Correct: true, Points: q.PointValue()}
}

func gradeFillBlank(q domain.Question, answer any) Verdict {
	if len(q.Blanks) > 0 {
		return gradeBlanks(q.Blanks, answer)
	}

	text, ok := firstText(answer)
	if !ok {
		return Verdict{}
	}
	if matchesAny(text, q.PossibleAnswers, q.CaseSensitive) {
		return Verdict{Correct: true, Points: q.PointValue()}
	}
	return Verdict{}
}

// gradeBlanks walks the blanks in order, awarding each matched blank its points.
// The first empty or unmatched blank makes the question incorrect and stops grading;
// points already awarded to earlier blanks are kept.
func gradeBlanks(blanks []domain.Blank, answer any) Verdict {
	texts := textSequence(answer)
	var v Verdict
	for i, blank := range blanks {
		if i >= len(texts) || strings.TrimSpace(texts[i]) == "" {
			return v
		}
		if !matchesAny(texts[i], blank.PossibleAnswers, blank.CaseSensitive) {
			return v
		}
		v.Points += blank.PointValue()
	}
	v.Correct = true
	return v
}

func matchesAny(submitted string, accepted []string, caseSensitive bool) bool {
	got := normalize(submitted, caseSensitive)
	for _, candidate := range accepted {
		if normalize(candidate, caseSensitive) == got {
			return true
		}
	}
	return false
}

func normalize(s string, caseSensitive bool) string {
	s = strings.TrimSpace(s)
	if caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// scalarText renders a decoded JSON or YAML scalar in its canonical text form.
func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	default:
		return false
	}
}

// textSequence turns a submitted fill-blank answer into positional texts.
// A lone scalar counts as a one-element sequence; non-scalar elements read as empty.
func textSequence(answer any) []string {
	switch t := answer.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, len(t))
		for i, item := range t {
			out[i], _ = scalarText(item)
		}
		return out
	default:
		if s, ok := scalarText(t); ok {
			return []string{s}
		}
		return nil
	}
}

func firstText(answer any) (string, bool) {
	texts := textSequence(answer)
	if len(texts) == 0 {
		return "", false
	}
	return texts[0], true
}
