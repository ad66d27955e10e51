package domain

import (
	"strings"
	"time"
)

// Label identifies an answer option column in the question bank.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
	LabelE Label = "E"
)

// Labels is the fixed option order used when collecting answer choices.
var Labels = []Label{LabelA, LabelB, LabelC, LabelD, LabelE}

// ParseLabel normalizes a raw correct-answer cell ("a", " B ") to a Label.
func ParseLabel(raw string) (Label, bool) {
	candidate := Label(strings.ToUpper(strings.TrimSpace(raw)))
	for _, label := range Labels {
		if candidate == label {
			return label, true
		}
	}
	return "", false
}

// QuestionRecord is one row of the question bank.
type QuestionRecord struct {
	Prompt  string           `json:"prompt"`
	Options map[Label]string `json:"options"`
	Correct Label            `json:"correct"`
}

// Usable reports whether the record can be sampled into a quiz.
func (r QuestionRecord) Usable() bool {
	if strings.TrimSpace(r.Prompt) == "" {
		return false
	}
	if _, ok := ParseLabel(string(r.Correct)); !ok {
		return false
	}
	return strings.TrimSpace(r.Options[r.Correct]) != ""
}

// CorrectText returns the text of the option referenced by the correct label.
func (r QuestionRecord) CorrectText() string {
	return r.Options[r.Correct]
}

// QuizQuestion is a bank record prepared for one session.
type QuizQuestion struct {
	Prompt        string   `json:"prompt"`
	AnswerChoices []string `json:"answerChoices"`
	CorrectText   string   `json:"correctText"`
}

// QuizSession is one attempt at a sampled quiz.
type QuizSession struct {
	ID          string         `json:"id"`
	PackageSize int            `json:"packageSize"`
	Questions   []QuizQuestion `json:"questions"`
	Answers     map[int]string `json:"answers"`
	StartedAt   time.Time      `json:"startedAt"`
}

// QuestionOutcome is the graded state of a single question.
type QuestionOutcome struct {
	Index       int    `json:"index"`
	Prompt      string `json:"prompt"`
	Selected    string `json:"selected,omitempty"`
	CorrectText string `json:"correctText"`
	Answered    bool   `json:"answered"`
	Correct     bool   `json:"correct"`
}

// ScoreResult aggregates a graded session.
type ScoreResult struct {
	CorrectCount int               `json:"correctCount"`
	Total        int               `json:"total"`
	Percentage   float64           `json:"percentage"`
	PerQuestion  []QuestionOutcome `json:"perQuestion"`
}

// Empty reports the degenerate 0/0 result of a session without questions.
func (r ScoreResult) Empty() bool {
	return r.Total == 0
}

// PerformanceRecord is one persisted quiz outcome.
type PerformanceRecord struct {
	Username   string    `json:"username"`
	Timestamp  time.Time `json:"timestamp"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
}

// Percentage computes 100*score/total, returning 0 when total is not positive.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// Credential is a stored username and password hash.
type Credential struct {
	Username     string
	PasswordHash string
}

// LeaderboardEntry is a per-user mean across all attempts.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	Username       string  `json:"username"`
	MeanPercentage float64 `json:"meanPercentage"`
	Attempts       int     `json:"attempts"`
}

// SeriesPoint is one point of a percentage-over-time series.
type SeriesPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Percentage float64   `json:"percentage"`
}

// Series is the time-ordered history of one user.
type Series struct {
	Username string        `json:"username"`
	Points   []SeriesPoint `json:"points"`
}

// UserStats summarizes the history of a single user.
type UserStats struct {
	Username       string              `json:"username"`
	Attempts       int                 `json:"attempts"`
	MeanPercentage float64             `json:"meanPercentage"`
	History        []PerformanceRecord `json:"history"`
}

// Stage is the screen a session context is currently on.
type Stage string

const (
	StageLogin   Stage = "login"
	StageIntro   Stage = "intro"
	StageQuiz    Stage = "quiz"
	StageResults Stage = "results"
)

// SessionContext carries everything one user interaction needs. Callers own it
// and pass it to every handler.
type SessionContext struct {
	ID          string       `json:"id"`
	Username    string       `json:"username,omitempty"`
	Stage       Stage        `json:"stage"`
	PackageSize int          `json:"packageSize,omitempty"`
	Quiz        *QuizSession `json:"quiz,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
