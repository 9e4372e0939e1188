package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"scholarpath-service/internal/app"
	"scholarpath-service/internal/auth"
	"scholarpath-service/internal/config"
	"scholarpath-service/internal/domain"
	"scholarpath-service/internal/infra/memory"
	pg "scholarpath-service/internal/infra/postgres"
	redisinfra "scholarpath-service/internal/infra/redis"
	s3store "scholarpath-service/internal/infra/s3"
	"scholarpath-service/internal/lib/slogcolor"
	transport "scholarpath-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
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

	log := newLogger(cfg)

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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Repositories: postgres when configured, memory demo data otherwise.
	var (
		catalogRepo    app.CatalogRepository
		quizLoader     memory.QuizLoader
		resultRepo     app.ResultRepository
		progressRepo   app.ProgressRepository
		submissionRepo app.SubmissionRepository
	)
	if pool != nil {
		quizRepo := pg.NewQuizRepository(pool)
		catalogRepo = quizRepo
		quizLoader = quizRepo
		resultRepo = pg.NewResultRepository(pool)
		progressRepo = pg.NewProgressRepository(pool)
		submissionRepo = pg.NewSubmissionRepository(pool)
	} else {
		log.Warn("postgres not configured, using in-memory stores with sample data")
		memCatalog := memory.NewCatalogRepository(sampleQuizzes())
		catalogRepo = memCatalog
		quizLoader = memCatalog
		resultRepo = memory.NewResultRepository()
		progressRepo = memory.NewProgressRepository()
		submissionRepo = memory.NewSubmissionRepository()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizReader app.QuizReader
	if redisClient != nil {
		quizReader = redisinfra.NewQuizCache(redisClient, quizLoader, quizTTL)
	} else {
		quizReader = memory.NewQuizCache(quizLoader, quizTTL)
	}

	var attemptStore app.AttemptStore
	if redisClient != nil {
		attemptStore = redisinfra.NewAttemptStore(redisClient)
	} else {
		attemptStore = memory.NewAttemptStore()
	}

	var attachments app.AttachmentStore
	if cfg.Upload.S3.Bucket != "" {
		attachments, err = s3store.NewAttachmentStore(s3store.Config{
			Endpoint:  cfg.Upload.S3.Endpoint,
			Region:    cfg.Upload.S3.Region,
			Bucket:    cfg.Upload.S3.Bucket,
			AccessKey: cfg.Upload.S3.AccessKey,
			SecretKey: cfg.Upload.S3.SecretKey,
			UseSSL:    cfg.Upload.S3.UseSSL,
		})
		if err != nil {
			return err
		}
	} else {
		log.Warn("object storage not configured, keeping attachments in memory")
		attachments = memory.NewAttachmentStore()
	}

	attemptDuration := config.TTLDuration(cfg.Quiz.Duration, 30*time.Minute)
	attempts := app.NewAttemptService(quizReader, attemptStore, resultRepo, cfg.Tiers(), attemptDuration)
	catalog := app.NewCatalogService(catalogRepo)
	progress := app.NewProgressService(progressRepo, memory.NewStaticTemplates(sampleTemplates()))
	assignments := app.NewAssignmentService(submissionRepo, attachments)

	handler := transport.NewHandler(attempts, catalog, progress, assignments, transport.UploadPolicy{
		MaxBytes:    cfg.MaxUploadBytes(),
		AllowedExts: cfg.AllowedExtensions(),
	}, log)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	handler.Routes(router, newVerifier(cfg))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting server", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slogcolor.New(os.Stderr, level))
}

func newVerifier(cfg config.Config) auth.Verifier {
	if cfg.Auth.Mode == "introspect" && cfg.Auth.IntrospectURL != "" {
		return auth.NewIntrospectVerifier(cfg.Auth.IntrospectURL)
	}
	tokens := make(map[string]auth.Identity, len(cfg.Auth.Tokens))
	for _, t := range cfg.Auth.Tokens {
		role := t.Role
		if role == "" {
			role = auth.RoleStudent
		}
		tokens[t.Token] = auth.Identity{UserID: t.UserID, FirstName: t.FirstName, Role: role}
	}
	return auth.NewStaticVerifier(tokens)
}

// sampleQuizzes seeds demo mode; production loads quizzes from Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"scholarship-cse": {
			ID:     "scholarship-cse",
			Title:  "CSE Scholarship Test",
			Branch: "cse",
			Questions: []domain.Question{
				{
					Text:          "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: 1,
				},
				{
					Text:          "Which data structure is FIFO?",
					Options:       []string{"stack", "queue", "tree"},
					CorrectAnswer: 1,
				},
			},
		},
	}
}

func sampleTemplates() map[string]domain.Course {
	return map[string]domain.Course{
		"fullstack": {
			CourseName:  "fullstack",
			CurrentWeek: 1,
			Weeks: []domain.Week{
				{Number: 1, Title: "HTML & CSS", Tasks: []domain.Task{
					{ID: "w1t1", Title: "Build a landing page"},
					{ID: "w1t2", Title: "Responsive layout"},
				}},
				{Number: 2, Title: "JavaScript", IsLocked: true, Tasks: []domain.Task{
					{ID: "w2t1", Title: "DOM exercises"},
				}},
				{Number: 3, Title: "Backend basics", IsLocked: true},
			},
		},
	}
}
