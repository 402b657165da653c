package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"persona-quiz-service/internal/domain"
)

// DefinitionLoader fetches quiz definitions from a backing store (e.g., Postgres).
type DefinitionLoader interface {
	LoadDefinition(ctx context.Context, version string) (domain.QuizDefinition, error)
}

// DefinitionSource caches definitions with TTL to avoid repeated backing-store
// hits. Expired entries are kept around: if a refresh fails, the last good
// copy is served so an embedded widget keeps working through an outage.
type DefinitionSource struct {
	loader DefinitionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedDefinition
}

type cachedDefinition struct {
	def       domain.QuizDefinition
	expiresAt time.Time
}

func NewDefinitionSource(loader DefinitionLoader, ttl time.Duration) *DefinitionSource {
	return &DefinitionSource{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDefinition),
	}
}

func (s *DefinitionSource) Definition(ctx context.Context, version string) (domain.QuizDefinition, error) {
	now := s.clock()

	s.mu.RLock()
	if entry, ok := s.cache[version]; ok && entry.expiresAt.After(now) {
		s.mu.RUnlock()
		return entry.def, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do(version, func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if entry, ok := s.cache[version]; ok && entry.expiresAt.After(now) {
			s.mu.RUnlock()
			return entry.def, nil
		}
		s.mu.RUnlock()

		def, err := s.loader.LoadDefinition(ctx, version)
		if err != nil {
			// Fall back to the stale copy if one exists.
			s.mu.RLock()
			entry, ok := s.cache[version]
			s.mu.RUnlock()
			if ok {
				return entry.def, nil
			}
			return domain.QuizDefinition{}, err
		}

		s.mu.Lock()
		s.cache[version] = cachedDefinition{
			def:       def,
			expiresAt: now.Add(s.ttlWithJitter()),
		}
		s.mu.Unlock()
		return def, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return result.(domain.QuizDefinition), nil
}

func (s *DefinitionSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

// StaticDefinitionLoader serves definitions from an in-memory map (useful for
// tests/demos).
type StaticDefinitionLoader struct {
	definitions map[string]domain.QuizDefinition
}

func NewStaticDefinitionLoader(definitions map[string]domain.QuizDefinition) *StaticDefinitionLoader {
	return &StaticDefinitionLoader{definitions: definitions}
}

func (l *StaticDefinitionLoader) LoadDefinition(_ context.Context, version string) (domain.QuizDefinition, error) {
	if def, ok := l.definitions[version]; ok {
		return def, nil
	}
	return domain.QuizDefinition{}, domain.ErrQuizNotFound
}
