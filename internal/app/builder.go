package app

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// Builder samples quiz sessions from a question bank.
type Builder struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	now   func() time.Time
	newID func() string
}

func NewBuilder() *Builder {
	return NewBuilderWithSeed(time.Now().UnixNano())
}

// NewBuilderWithSeed makes sampling reproducible; used by tests.
func NewBuilderWithSeed(seed int64) *Builder {
	return &Builder{
		rnd:   rand.New(rand.NewSource(seed)),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// BuildSession draws min(requested, usable) records without replacement and
// shuffles each question's choices independently. The bank is not modified.
func (b *Builder) BuildSession(bank []domain.QuestionRecord, requested int) domain.QuizSession {
	usable := make([]int, 0, len(bank))
	for i := range bank {
		if bank[i].Usable() {
			usable = append(usable, i)
		}
	}

	count := min(max(requested, 0), len(usable))

	b.mu.Lock()
	defer b.mu.Unlock()

	picks := b.rnd.Perm(len(usable))[:count]
	questions := make([]domain.QuizQuestion, 0, count)
	for _, p := range picks {
		questions = append(questions, b.prepareLocked(bank[usable[p]]))
	}

	return domain.QuizSession{
		ID:          b.newID(),
		PackageSize: requested,
		Questions:   questions,
		Answers:     make(map[int]string),
		StartedAt:   b.now().UTC(),
	}
}

func (b *Builder) prepareLocked(record domain.QuestionRecord) domain.QuizQuestion {
	choices := make([]string, 0, len(domain.Labels))
	for _, label := range domain.Labels {
		if text, ok := record.Options[label]; ok && strings.TrimSpace(text) != "" {
			choices = append(choices, text)
		}
	}
	b.rnd.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	return domain.QuizQuestion{
		Prompt:        record.Prompt,
		AnswerChoices: choices,
		CorrectText:   record.CorrectText(),
	}
}
