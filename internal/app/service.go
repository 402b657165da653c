package app

import (
	"context"
	"log"

	"persona-quiz-service/internal/domain"
)

// QuizService wires definition lookup, progress, leads, and analytics into
// ready-to-drive sessions.
type QuizService struct {
	definitions    DefinitionSource
	progress       ProgressStore
	leads          LeadStore
	events         EventSink
	recommender    Recommender
	cfg            Config
	defaultVersion string
}

func NewQuizService(definitions DefinitionSource, progress ProgressStore, leads LeadStore, events EventSink, recommender Recommender, cfg Config, defaultVersion string) *QuizService {
	return &QuizService{
		definitions:    definitions,
		progress:       progress,
		leads:          leads,
		events:         events,
		recommender:    recommender,
		cfg:            cfg,
		defaultVersion: defaultVersion,
	}
}

// OpenSession resolves the requested quiz version and builds a session for
// it. When the requested version cannot be loaded the service falls back to
// the configured default so an embedded widget keeps working.
func (s *QuizService) OpenSession(ctx context.Context, userID, quizID, version string) (*Session, error) {
	if version == "" {
		version = s.defaultVersion
	}

	def, err := s.definitions.Definition(ctx, version)
	if err != nil && version != s.defaultVersion && s.defaultVersion != "" {
		log.Printf("quiz version %q unavailable (%v), falling back to %q", version, err, s.defaultVersion)
		def, err = s.definitions.Definition(ctx, s.defaultVersion)
	}
	if err != nil {
		return nil, err
	}
	if err := def.Validate(s.cfg.ClassificationOrder); err != nil {
		return nil, err
	}

	return NewSession(userID, quizID, def, s.cfg, s.progress, s.leads, s.events), nil
}

// Recommendations passes a personality type through to the offer lookup.
// Failures degrade to an empty list; offers are decoration, not state.
func (s *QuizService) Recommendations(ctx context.Context, personalityType string) []domain.Recommendation {
	if s.recommender == nil {
		return nil
	}
	items, err := s.recommender.Recommendations(ctx, personalityType)
	if err != nil {
		log.Printf("recommendation lookup failed for %q: %v", personalityType, err)
		return nil
	}
	return items
}
