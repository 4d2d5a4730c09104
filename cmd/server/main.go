package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
	"github.com/ignite/sendtime-optimizer/internal/api"
	"github.com/ignite/sendtime-optimizer/internal/cache"
	"github.com/ignite/sendtime-optimizer/internal/config"
	"github.com/ignite/sendtime-optimizer/internal/datanorm"
	"github.com/ignite/sendtime-optimizer/internal/notify"
	"github.com/ignite/sendtime-optimizer/internal/pkg/logger"
	"github.com/ignite/sendtime-optimizer/internal/report"
	"github.com/ignite/sendtime-optimizer/internal/repository/postgres"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	host := cfg.Server.Host
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database URL is not configured (set database.url or DATABASE_URL)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database unreachable: %v", err)
	}
	pingCancel()

	repo := postgres.NewRecordRepo(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	var analysisCache *cache.AnalysisCache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel = context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, analysis caching disabled",
			"addr", cfg.Redis.Addr, "error", err.Error())
		redisClient.Close()
	} else {
		analysisCache = cache.New(redisClient, cfg.Redis.TTL())
		defer redisClient.Close()
	}
	pingCancel()

	notifier, err := notify.New(context.Background(), cfg.Notify)
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}
	if notifier == nil {
		logger.Info("report notifications disabled")
	}

	az := analyzer.New(cfg.Analyzer.BestPracticeTable())
	narrator := report.NewNarrator()

	// Keep typed nils out of the handler interfaces so nil checks work.
	var handlerCache api.AnalysisCache
	if analysisCache != nil {
		handlerCache = analysisCache
	}
	var handlerSender api.ReportSender
	if notifier != nil {
		handlerSender = notifier
	}
	handlers := api.NewHandlers(repo, handlerCache, az, narrator, handlerSender)
	server := api.NewServer(cfg.Server, handlers)

	var watcher *datanorm.Watcher
	if cfg.Ingest.Enabled {
		watcher, err = datanorm.NewWatcher(db, repo, datanorm.Config{
			Bucket:     cfg.Ingest.S3Bucket,
			Region:     cfg.Ingest.S3Region,
			AWSProfile: cfg.Ingest.AWSProfile,
			Interval:   cfg.Ingest.Interval(),
		})
		if err != nil {
			log.Fatalf("Failed to initialize S3 watcher: %v", err)
		}
		watcher.Start()
		logger.Info("report ingestion started",
			"bucket", cfg.Ingest.S3Bucket,
			"interval", cfg.Ingest.Interval().String(),
		)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	if watcher != nil {
		watcher.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err.Error())
	}
	logger.Info("server stopped")
}
