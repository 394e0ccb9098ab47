package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/aurelia-labs/docq/internal/api/handlers"
	"github.com/aurelia-labs/docq/internal/config"
	"github.com/aurelia-labs/docq/internal/database"
	"github.com/aurelia-labs/docq/internal/domain"
	"github.com/aurelia-labs/docq/internal/index"
	"github.com/aurelia-labs/docq/internal/jobs"
	"github.com/aurelia-labs/docq/internal/openai"
	"github.com/aurelia-labs/docq/internal/repository"
	"github.com/aurelia-labs/docq/internal/server"
	"github.com/aurelia-labs/docq/internal/service"
	"github.com/aurelia-labs/docq/internal/storage"
	"github.com/aurelia-labs/docq/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the docq API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)

	if !cfg.HasOpenAI() {
		return fmt.Errorf("DOCQ_OPENAI_API_KEY is required")
	}
	provider := openai.NewClient(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		ChatModel:           cfg.ChatModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	snapshotStore, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}

	idx, err := loadIndex(ctx, cfg, snapshotStore, chunkRepo, provider.Dimensions())
	if err != nil {
		return err
	}

	chunker, err := service.NewChunker(service.ChunkConfig{
		ChunkSize: cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("invalid chunking config: %w", err)
	}

	ingestionSvc := service.NewIngestionService(provider, docRepo, chunkRepo, idx, chunker, cfg.EmbedConcurrency)
	retriever, err := service.NewRetriever(provider, idx, cfg.TopK)
	if err != nil {
		return fmt.Errorf("invalid retrieval config: %w", err)
	}
	answerSvc := service.NewAnswerService(retriever, provider, cfg.MaxSources)
	summarySvc := service.NewSummaryService(docRepo, chunkRepo, provider, cfg.EmbedConcurrency)

	validator := service.NewStaticTokenValidator(cfg.Tokens())

	router := server.NewRouter(server.RouterConfig{
		TokenValidator:  validator,
		DocumentHandler: handlers.NewDocumentHandler(ingestionSvc, docRepo, summarySvc),
		QAHandler:       handlers.NewQAHandler(answerSvc, ingestionSvc),
	})

	snapshotProcessor := jobs.NewSnapshotProcessor(idx, snapshotStore, cfg.SnapshotKey)
	snapshotWorker := jobs.NewWorker(snapshotProcessor, time.Duration(cfg.SnapshotInterval)*time.Second)
	go snapshotWorker.Start(ctx)
	log.Println("snapshot worker started")

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	snapshotWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Final snapshot so the last writes survive the restart.
	if err := snapshotProcessor.ProcessJobs(shutdownCtx); err != nil {
		log.Printf("final snapshot failed: %v", err)
	}

	log.Println("server exited")
	return nil
}

func newSnapshotStore(ctx context.Context, cfg *config.Config) (index.SnapshotStore, error) {
	if cfg.HasS3() {
		s3Store, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 snapshot store: %w", err)
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		return s3Store, nil
	}

	fileStore, err := storage.NewFileStore(cfg.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}
	return fileStore, nil
}

// chunkLister is the repository surface index warm-start needs.
type chunkLister interface {
	ListAll(ctx context.Context) ([]*domain.Chunk, error)
}

// loadIndex restores the vector index from the latest snapshot, then tops it
// up with any chunk rows the snapshot is missing. A snapshot can lag the
// database when the process crashed between a write and the next snapshot
// tick, so restore alone is not enough to make restart reproduce searches.
// When no snapshot exists the index is rebuilt from Postgres entirely.
func loadIndex(ctx context.Context, cfg *config.Config, store index.SnapshotStore, chunkRepo chunkLister, dimensions int) (*index.Index, error) {
	data, err := store.Load(ctx, cfg.SnapshotKey)
	if err == nil {
		idx, restoreErr := index.Restore(data)
		if restoreErr != nil {
			return nil, fmt.Errorf("failed to restore index snapshot: %w", restoreErr)
		}
		added, recErr := reconcileIndex(ctx, idx, chunkRepo)
		if recErr != nil {
			return nil, recErr
		}
		log.Printf("index restored from snapshot: entries=%d reconciled=%d", idx.Len(""), added)
		return idx, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load index snapshot: %w", err)
	}

	idx, err := index.New(dimensions)
	if err != nil {
		return nil, err
	}
	added, err := reconcileIndex(ctx, idx, chunkRepo)
	if err != nil {
		return nil, err
	}
	if added > 0 {
		log.Printf("index rebuilt from database: entries=%d", added)
	}
	return idx, nil
}

// reconcileIndex inserts chunk rows missing from the index and returns how
// many were added. Adding entries marks the index dirty, so the next
// snapshot tick persists the reconciled state.
func reconcileIndex(ctx context.Context, idx *index.Index, chunks chunkLister) (int, error) {
	rows, err := chunks.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list chunks for index reconciliation: %w", err)
	}

	added := 0
	for _, ch := range rows {
		if idx.Contains(ch.ID) {
			continue
		}
		if err := idx.Insert(ch.ID, ch.Embedding, index.EntryMetadata{
			DocumentID: ch.DocumentID,
			Ordinal:    ch.Ordinal,
			Content:    ch.Content,
		}); err != nil {
			return added, fmt.Errorf("failed to reconcile index with chunk %s: %w", ch.ID, err)
		}
		added++
	}
	return added, nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
