package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"persona-quiz-service/internal/domain"
)

// DefinitionLoader loads quiz definition JSONB from Postgres by version.
type DefinitionLoader struct {
	pool *pgxpool.Pool
}

func NewDefinitionLoader(pool *pgxpool.Pool) *DefinitionLoader {
	return &DefinitionLoader{pool: pool}
}

func (l *DefinitionLoader) LoadDefinition(ctx context.Context, version string) (domain.QuizDefinition, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE version=$1`, version).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDefinition{}, fmt.Errorf("%w: version %q", domain.ErrQuizNotFound, version)
	}
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("load quiz definition: %w", err)
	}
	var def domain.QuizDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("unmarshal quiz definition: %w", err)
	}
	if def.Version == "" {
		def.Version = version
	}
	return def, nil
}
