package memory

import (
	"context"

	"persona-quiz-service/internal/domain"
)

// StaticRecommender serves offer data from an in-memory map (useful for
// tests/demos).
type StaticRecommender struct {
	offers map[string][]domain.Recommendation
}

func NewStaticRecommender(offers map[string][]domain.Recommendation) *StaticRecommender {
	return &StaticRecommender{offers: offers}
}

func (r *StaticRecommender) Recommendations(_ context.Context, personalityType string) ([]domain.Recommendation, error) {
	return r.offers[personalityType], nil
}
