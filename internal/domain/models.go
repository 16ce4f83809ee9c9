package domain

import "time"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	FillBlank      QuestionType = "FILL_BLANK"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleFaculty Role = "FACULTY"
	RoleTA      Role = "TA"
	RoleAdmin   Role = "ADMIN"
)

// Privileged reports whether the role may see answer keys and manage quizzes.
func (r Role) Privileged() bool {
	return r == RoleFaculty || r == RoleAdmin
}

// Identity is the authenticated caller of an operation. The zero value is anonymous.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// Authenticated reports whether the identity carries a user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// User is a directory entry. PasswordHash never leaves the server.
type User struct {
	ID           string `json:"_id" yaml:"id"`
	Username     string `json:"username" yaml:"username"`
	PasswordHash string `json:"-" yaml:"-"`
	FirstName    string `json:"firstName,omitempty" yaml:"firstName"`
	LastName     string `json:"lastName,omitempty" yaml:"lastName"`
	Email        string `json:"email,omitempty" yaml:"email"`
	Role         Role   `json:"role" yaml:"role"`
}

// Identity returns the request identity for the user.
func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Role: u.Role}
}

// Blank is one gap of a multi-blank fill-in question.
type Blank struct {
	PossibleAnswers []string `json:"possibleAnswers,omitempty" yaml:"possibleAnswers"`
	Points          float64  `json:"points" yaml:"points"` // defaults to 1 if zero
	CaseSensitive   bool     `json:"caseSensitive" yaml:"caseSensitive"`
}

// Question is a single quiz item. CorrectAnswer holds a choice string or a boolean.
type Question struct {
	ID              string       `json:"_id" yaml:"id"`
	Type            QuestionType `json:"type" yaml:"type"`
	Title           string       `json:"title,omitempty" yaml:"title"`
	Prompt          string       `json:"question,omitempty" yaml:"question"`
	Points          float64      `json:"points" yaml:"points"` // defaults to 1 if zero
	Choices         []string     `json:"choices,omitempty" yaml:"choices"`
	CorrectAnswer   any          `json:"correctAnswer,omitempty" yaml:"correctAnswer"`
	Blanks          []Blank      `json:"blanks,omitempty" yaml:"blanks"`
	PossibleAnswers []string     `json:"possibleAnswers,omitempty" yaml:"possibleAnswers"`
	CaseSensitive   bool         `json:"caseSensitive,omitempty" yaml:"caseSensitive"`
}

// PointValue returns the question's worth, treating zero as one point.
func (q Question) PointValue() float64 {
	if q.Points == 0 {
		return 1
	}
	return q.Points
}

// PointValue returns the blank's worth, treating zero as one point.
func (b Blank) PointValue() float64 {
	if b.Points == 0 {
		return 1
	}
	return b.Points
}

// Quiz is the quiz document. Points is the declared maximum used as an attempt's totalPoints.
type Quiz struct {
	ID                          string     `json:"_id" yaml:"id"`
	Title                       string     `json:"title" yaml:"title" validate:"required"`
	Course                      string     `json:"course" yaml:"course"`
	Description                 string     `json:"description,omitempty" yaml:"description"`
	Points                      float64    `json:"points" yaml:"points" validate:"gte=0"`
	AvailableDate               string     `json:"Available Date,omitempty" yaml:"availableDate"`
	AvailableUntilDate          string     `json:"Available Until Date,omitempty" yaml:"availableUntilDate"`
	DueDate                     string     `json:"Due Date,omitempty" yaml:"dueDate"`
	Published                   bool       `json:"published" yaml:"published"`
	QuizType                    string     `json:"quizType,omitempty" yaml:"quizType"`
	AssignmentGroup             string     `json:"assignmentGroup,omitempty" yaml:"assignmentGroup"`
	ShuffleAnswers              bool       `json:"shuffleAnswers" yaml:"shuffleAnswers"`
	HasTimeLimit                bool       `json:"hasTimeLimit" yaml:"hasTimeLimit"`
	TimeLimit                   int        `json:"timeLimit,omitempty" yaml:"timeLimit" validate:"gte=0"`
	MultipleAttempts            bool       `json:"multipleAttempts" yaml:"multipleAttempts"`
	AttemptsAllowed             int        `json:"attemptsAllowed,omitempty" yaml:"attemptsAllowed" validate:"gte=0"`
	ShowCorrectAnswers          bool       `json:"showCorrectAnswers" yaml:"showCorrectAnswers"`
	AccessCode                  string     `json:"accessCode,omitempty" yaml:"accessCode"`
	OneQuestionAtATime          bool       `json:"oneQuestionAtATime" yaml:"oneQuestionAtATime"`
	WebcamRequired              bool       `json:"webcamRequired" yaml:"webcamRequired"`
	LockQuestionsAfterAnswering bool       `json:"lockQuestionsAfterAnswering" yaml:"lockQuestionsAfterAnswering"`
	Questions                   []Question `json:"questions" yaml:"questions" validate:"dive"`
}

// AttemptAnswer is one question's response inside an attempt.
type AttemptAnswer struct {
	Question string  `json:"question" validate:"required"`
	Answer   any     `json:"answer"`
	Correct  bool    `json:"correct"`
	Points   float64 `json:"points"`
}

// QuizAttempt is one student's try at a quiz.
type QuizAttempt struct {
	ID            string          `json:"_id"`
	Quiz          string          `json:"quiz"`
	Student       string          `json:"student"`
	AttemptNumber int             `json:"attemptNumber"`
	Answers       []AttemptAnswer `json:"answers"`
	Score         float64         `json:"score"`
	TotalPoints   float64         `json:"totalPoints"`
	StartedAt     time.Time       `json:"startedAt"`
	SubmittedAt   *time.Time      `json:"submittedAt"`
	InProgress    bool            `json:"inProgress"`
}

// Finalization is the graded outcome written when an attempt is submitted.
type Finalization struct {
	Answers     []AttemptAnswer
	Score       float64
	TotalPoints float64
}

// AttemptEventType names a lifecycle transition published on the attempt feed.
type AttemptEventType string

const (
	AttemptStarted   AttemptEventType = "started"
	AttemptSubmitted AttemptEventType = "submitted"
)

// AttemptEvent is a lifecycle notification for watchers of a quiz.
type AttemptEvent struct {
	Type          AttemptEventType `json:"type"`
	AttemptID     string           `json:"attemptId"`
	QuizID        string           `json:"quizId"`
	Student       string           `json:"student"`
	AttemptNumber int              `json:"attemptNumber"`
	Score         float64          `json:"score"`
	TotalPoints   float64          `json:"totalPoints"`
	At            time.Time        `json:"at"`
}
