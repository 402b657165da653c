package app

import (
	"fmt"

	"persona-quiz-service/internal/domain"
)

// Tally counts, per personality type, how many answers selected an option
// tagged with that type. The answers slice is positionally aligned to the
// definition's questions and may be any prefix of the full sequence; skipped
// entries count toward nothing.
func Tally(def domain.QuizDefinition, answers []domain.Answer) (map[string]int, error) {
	if len(answers) > len(def.Questions) {
		return nil, fmt.Errorf("%w: %d answers for %d questions", domain.ErrAnswerCountMismatch, len(answers), len(def.Questions))
	}

	tally := make(map[string]int)
	for i, answer := range answers {
		if answer.Skipped {
			continue
		}
		question := def.Questions[i]
		if answer.OptionIndex < 0 || answer.OptionIndex >= len(question.Options) {
			return nil, fmt.Errorf("%w: option %d of question %q", domain.ErrInvalidAnswerIndex, answer.OptionIndex, question.ID)
		}
		tally[question.Options[answer.OptionIndex].Type]++
	}
	return tally, nil
}

// Score reduces an answers snapshot to a single personality type. The winner
// is the type with the highest tally; ties resolve to whichever tied type is
// declared first in order. Iterating the tally map directly would make ties
// depend on map iteration order, so the reduction walks order instead.
func Score(def domain.QuizDefinition, answers []domain.Answer, order []string) (string, error) {
	tally, err := Tally(def, answers)
	if err != nil {
		return "", err
	}
	if len(order) == 0 {
		order = declaredTypes(def)
	}

	winner := ""
	best := -1
	for _, label := range order {
		if count := tally[label]; count > best {
			winner = label
			best = count
		}
	}
	return winner, nil
}

// declaredTypes derives a classification order from first appearance in the
// definition, for callers that configure none.
func declaredTypes(def domain.QuizDefinition) []string {
	seen := make(map[string]struct{})
	var order []string
	for _, q := range def.Questions {
		for _, opt := range q.Options {
			if _, ok := seen[opt.Type]; !ok {
				seen[opt.Type] = struct{}{}
				order = append(order, opt.Type)
			}
		}
	}
	return order
}
