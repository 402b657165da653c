package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/config"
	"persona-quiz-service/internal/domain"
	"persona-quiz-service/internal/infra/memory"
	pginfra "persona-quiz-service/internal/infra/postgres"
	redisinfra "persona-quiz-service/internal/infra/redis"
	transport "persona-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz widget backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	progressTTL := config.TTLDuration(cfg.Redis.ProgressTTL, 30*24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.DefinitionLoader = memory.NewStaticDefinitionLoader(sampleDefinitions())
	if pool != nil {
		loader = pginfra.NewDefinitionLoader(pool)
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var definitions app.DefinitionSource
	if redisClient != nil {
		definitions = redisinfra.NewDefinitionSource(redisClient, loader, cacheTTL)
	} else {
		definitions = memory.NewDefinitionSource(loader, cacheTTL)
	}

	var progress app.ProgressStore
	if redisClient != nil {
		progress = redisinfra.NewProgressStore(redisClient, progressTTL)
	} else {
		progress = memory.NewProgressStore()
	}

	widgetCfg := app.Config{
		AllowSkip:           cfg.Widget.AllowSkip,
		CollectContact:      cfg.Widget.CollectContact,
		PartialLeadCapture:  cfg.Widget.PartialLeadCapture,
		ClassificationOrder: cfg.Widget.ClassificationOrder,
	}

	var leads app.LeadStore
	var recommender app.Recommender = memory.NewStaticRecommender(nil)
	if pool != nil {
		db, err := openBunDB(cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		leads = pginfra.NewLeadStore(db, widgetCfg.CollectContact)
		recommender = pginfra.NewOfferStore(pool)
	} else {
		leads = memory.NewLeadStore(widgetCfg.CollectContact)
	}

	var events app.EventSink = memory.NewEventLog(0)
	if redisClient != nil {
		events = redisinfra.NewStreamSink(redisClient, cfg.Redis.EventStream)
	}

	service := app.NewQuizService(definitions, progress, leads, events, recommender, widgetCfg, cfg.Quiz.DefaultVersion)
	wsHandler := transport.NewWSHandler(service, memory.NewSessionStore())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting persona quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleDefinitions provides a minimal quiz; swap the loader for the
// Postgres-backed one in production.
func sampleDefinitions() map[string]domain.QuizDefinition {
	return map[string]domain.QuizDefinition{
		"v1": {
			Version: "v1",
			Title:   "Discover Your Type!",
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "Your ideal weekend?",
					Options: []domain.Option{
						{Text: "Hiking somewhere new", Type: "Explorer"},
						{Text: "Dinner with friends", Type: "Connector"},
						{Text: "Finishing a side project", Type: "Achiever"},
						{Text: "Tinkering with a gadget", Type: "Innovator"},
					},
				},
				{
					ID:   "q2",
					Text: "Pick a compliment you'd love to hear.",
					Options: []domain.Option{
						{Text: "You're fearless", Type: "Explorer"},
						{Text: "You bring people together", Type: "Connector"},
						{Text: "You always deliver", Type: "Achiever"},
						{Text: "You think differently", Type: "Innovator"},
					},
				},
			},
		},
	}
}
