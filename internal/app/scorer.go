package app

import "exam-quiz-service/internal/domain"

// Score grades answers against the session's correct texts. Missing answers
// count as wrong. A session without questions yields the empty 0/0 result.
func Score(session domain.QuizSession, answers map[int]string) domain.ScoreResult {
	result := domain.ScoreResult{
		Total:       len(session.Questions),
		PerQuestion: make([]domain.QuestionOutcome, 0, len(session.Questions)),
	}
	for i, question := range session.Questions {
		selected, answered := answers[i]
		correct := answered && selected == question.CorrectText
		if correct {
			result.CorrectCount++
		}
		result.PerQuestion = append(result.PerQuestion, domain.QuestionOutcome{
			Index:       i,
			Prompt:      question.Prompt,
			Selected:    selected,
			CorrectText: question.CorrectText,
			Answered:    answered,
			Correct:     correct,
		})
	}
	result.Percentage = domain.Percentage(result.CorrectCount, result.Total)
	return result
}
