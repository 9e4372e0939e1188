// Package scoring holds the pure score and scholarship-discount math.
// Nothing here touches a store or a clock; persistence of results is the
// caller's problem.
package scoring

import "scholarpath-service/internal/domain"

// Tier maps a minimum score to a scholarship discount percent.
type Tier struct {
	MinScore int `json:"minScore" yaml:"min_score"`
	Discount int `json:"discount" yaml:"discount"`
}

// TierTable is an ordered-descending list of tiers; the first tier whose
// MinScore the score reaches wins.
type TierTable []Tier

// DefaultTiers is the canonical scholarship table: 80→15%, 70→10%, 60→5%.
var DefaultTiers = TierTable{
	{MinScore: 80, Discount: 15},
	{MinScore: 70, Discount: 10},
	{MinScore: 60, Discount: 5},
}

// Breakdown is the outcome of scoring one attempt.
type Breakdown struct {
	Score        int             // integer percentage, round half up
	CorrectCount int
	Total        int
	Answers      []domain.Answer // one per question, in order
}

// Score grades an answer vector against a quiz. answers holds one selected
// option index per question; domain.Unanswered (or any non-matching index)
// counts as incorrect. The denominator is always the full question count.
func Score(quiz domain.Quiz, answers []int) Breakdown {
	total := len(quiz.Questions)
	graded := make([]domain.Answer, total)
	correct := 0
	for i, q := range quiz.Questions {
		selected := domain.Unanswered
		if i < len(answers) {
			selected = answers[i]
		}
		ok := selected == q.CorrectAnswer
		if ok {
			correct++
		}
		graded[i] = domain.Answer{
			QuestionIndex:  i,
			SelectedAnswer: selected,
			IsCorrect:      ok,
		}
	}

	score := 0
	if total > 0 {
		score = (correct*100 + total/2) / total
	}
	return Breakdown{
		Score:        score,
		CorrectCount: correct,
		Total:        total,
		Answers:      graded,
	}
}

// Discount resolves a score to a scholarship discount percent. It walks the
// table in the given order and returns the first matching tier; no match
// means no discount.
func Discount(score int, tiers TierTable) int {
	for _, t := range tiers {
		if score >= t.MinScore {
			return t.Discount
		}
	}
	return 0
}
