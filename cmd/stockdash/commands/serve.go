package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/internal/api"
	"github.com/wonny/stockdash/internal/api/handlers"
	"github.com/wonny/stockdash/internal/archive"
	"github.com/wonny/stockdash/internal/chart"
	"github.com/wonny/stockdash/internal/decoder"
	"github.com/wonny/stockdash/internal/realtime"
	"github.com/wonny/stockdash/internal/scheduler"
	"github.com/wonny/stockdash/internal/scheduler/jobs"
	"github.com/wonny/stockdash/internal/state"
	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/redis"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the REST + websocket API server.

Endpoints:
  GET    /health
  POST   /api/dataset/upload
  GET    /api/dataset
  DELETE /api/dataset
  GET    /api/dataset/options
  POST   /api/dataset/filter
  POST   /api/chart
  GET    /api/chart.png
  GET    /api/uploads
  POST   /api/uploads/{id}/restore
  GET    /ws

The upload archive is enabled when DATABASE_URL is set, and Redis
(rate limiting, chart cache) when REDIS_ENABLED=true.

Example:
  go run ./cmd/stockdash serve --port 8080`,
	RunE: runServe,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis (optional)
	rc := redis.Disabled()
	if cfg.Redis.Enabled {
		rc, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		log.Info("Connected to redis")
	}
	defer rc.Close()

	// Database + archive (optional)
	var (
		db   *database.DB
		arc  handlers.Archive
		repo *archive.Repository
	)
	if cfg.Database.Enabled() {
		db, err = database.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo = archive.NewRepository(db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("prepare archive schema: %w", err)
		}
		arc = repo
		log.Infof("Upload archive enabled (retention %s)", cfg.Archive.Retention)
	}

	// Retention job
	sched := scheduler.New(log)
	if repo != nil {
		job := jobs.NewArchivePruneJob(repo, cfg.Archive.Retention, cfg.Archive.PruneSchedule, log)
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("schedule archive prune: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	// State + live updates
	store := state.NewStore()
	hub := realtime.NewHub(cfg.CORS.AllowedOrigins, log)
	defer hub.Close()
	store.Subscribe(hub.OnSnapshot)

	// base64 inflates payloads by a third and a batch carries several files
	maxBody := cfg.Upload.MaxBytes * 3

	h := api.Handlers{
		Dataset: handlers.NewDatasetHandler(decoder.New(cfg.Upload.MaxBytes, log), store, arc, maxBody, log),
		Chart:   handlers.NewChartHandler(store, chart.NewRenderer(cfg.Chart.Width, cfg.Chart.Height), redis.NewCache(rc, "stockdash"), log),
		Uploads: handlers.NewUploadsHandler(arc, store, log),
		Health:  handlers.NewHealthHandler(store, db, rc, sched),
		Live:    hub,
	}
	limiter := api.NewUploadLimiter(redis.NewRateLimiter(rc, "stockdash"), cfg.Upload.RateLimit, cfg.Upload.RateWindow, log)
	router := api.NewRouter(h, limiter, cfg.CORS.AllowedOrigins, log)

	server := api.New(cfg, log, router)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorf("API server on port %s stopped: %v", cfg.Port, err)
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
