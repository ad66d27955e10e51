package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLabel(t *testing.T) {
	label, ok := ParseLabel(" c ")
	assert.True(t, ok)
	assert.Equal(t, LabelC, label)

	_, ok = ParseLabel("F")
	assert.False(t, ok)
	_, ok = ParseLabel("")
	assert.False(t, ok)
}

func TestQuestionRecordUsable(t *testing.T) {
	valid := QuestionRecord{
		Prompt:  "Capital of France?",
		Options: map[Label]string{LabelA: "Paris", LabelB: "Lyon"},
		Correct: LabelA,
	}
	assert.True(t, valid.Usable())
	assert.Equal(t, "Paris", valid.CorrectText())

	noPrompt := valid
	noPrompt.Prompt = "  "
	assert.False(t, noPrompt.Usable())

	missingOption := valid
	missingOption.Correct = LabelC
	assert.False(t, missingOption.Usable())

	badLabel := valid
	badLabel.Correct = "Z"
	assert.False(t, badLabel.Usable())
}

func TestPercentage(t *testing.T) {
	assert.InDelta(t, 75.0, Percentage(3, 4), 1e-9)
	assert.Equal(t, 0.0, Percentage(0, 0))
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("append performance", cause)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("submit: %w", err)
	var se *StorageError
	assert.True(t, errors.As(wrapped, &se))
	assert.Equal(t, "append performance", se.Op)

	assert.Same(t, err, NewStorageError("other", err))
	assert.Nil(t, NewStorageError("noop", nil))
}

func TestIsWarning(t *testing.T) {
	assert.True(t, IsWarning(fmt.Errorf("register: %w", ErrUserExists)))
	assert.True(t, IsWarning(ErrInvalidCredentials))
	assert.False(t, IsWarning(&MissingColumnError{Columns: []string{"question"}}))
	assert.False(t, IsWarning(errors.New("boom")))
}
