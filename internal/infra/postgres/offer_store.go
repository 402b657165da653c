package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"persona-quiz-service/internal/domain"
)

// OfferStore resolves recommendations for a personality type. The rows are
// pass-through marketing content; nothing here is interpreted by the session.
type OfferStore struct {
	pool *pgxpool.Pool
}

func NewOfferStore(pool *pgxpool.Pool) *OfferStore {
	return &OfferStore{pool: pool}
}

func (s *OfferStore) Recommendations(ctx context.Context, personalityType string) ([]domain.Recommendation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title, description FROM offers WHERE personality_type=$1 ORDER BY position, id`,
		personalityType)
	if err != nil {
		return nil, fmt.Errorf("load offers: %w", err)
	}
	defer rows.Close()

	var items []domain.Recommendation
	for rows.Next() {
		var item domain.Recommendation
		if err := rows.Scan(&item.Title, &item.Description); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
