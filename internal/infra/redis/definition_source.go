package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"persona-quiz-service/internal/domain"
)

// DefinitionLoader fetches quiz definitions from a backing store (e.g., Postgres).
type DefinitionLoader interface {
	LoadDefinition(ctx context.Context, version string) (domain.QuizDefinition, error)
}

// DefinitionSource caches whole definitions in Redis, one JSON value per
// version, and falls back to the loader on cache miss. Versions are
// immutable once published, so a cached copy never goes stale in content,
// only in presence.
type DefinitionSource struct {
	client *redis.Client
	loader DefinitionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewDefinitionSource(client *redis.Client, loader DefinitionLoader, ttl time.Duration) *DefinitionSource {
	return &DefinitionSource{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *DefinitionSource) Definition(ctx context.Context, version string) (domain.QuizDefinition, error) {
	key := s.key(version)

	if raw, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var def domain.QuizDefinition
		if err := json.Unmarshal(raw, &def); err == nil {
			return def, nil
		}
		// Corrupt cache entry; reload below.
	}

	result, err, _ := s.sf.Do(version, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := s.client.Get(ctx, key).Bytes(); err == nil {
			var def domain.QuizDefinition
			if err := json.Unmarshal(raw, &def); err == nil {
				return def, nil
			}
		}

		def, err := s.loader.LoadDefinition(ctx, version)
		if err != nil {
			return domain.QuizDefinition{}, err
		}

		if raw, err := json.Marshal(def); err == nil {
			// best-effort cache fill
			_ = s.client.Set(ctx, key, raw, s.ttlWithJitter()).Err()
		}
		return def, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return result.(domain.QuizDefinition), nil
}

func (s *DefinitionSource) key(version string) string {
	return "quiz:def:" + version
}

func (s *DefinitionSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
