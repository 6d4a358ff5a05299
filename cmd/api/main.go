package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iyervish/design-crit/internal/application"
	appanalysis "github.com/iyervish/design-crit/internal/application/analysis"
	"github.com/iyervish/design-crit/internal/config"
	domain "github.com/iyervish/design-crit/internal/domain/analysis"
	aiclient "github.com/iyervish/design-crit/internal/infra/ai/openai"
	"github.com/iyervish/design-crit/internal/infra/capture/rodcap"
	mysqlp "github.com/iyervish/design-crit/internal/infra/db/mysql"
	postgresp "github.com/iyervish/design-crit/internal/infra/db/postgres"
	"github.com/iyervish/design-crit/internal/infra/httpserver"
	"github.com/iyervish/design-crit/internal/infra/storage/fsstore"
	"github.com/iyervish/design-crit/internal/infra/storage/miniostore"
	"github.com/iyervish/design-crit/internal/middleware"
)

func main() {
	// .env is optional; the variables may come from the environment directly
	_ = godotenv.Load()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY is not set")
	}

	ctx := context.Background()

	repo, err := newRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	svc := &appanalysis.Service{
		Repo:                 repo,
		Evaluator:            aiclient.NewClient(apiKey, cfg.Analysis.Model),
		Capturer:             rodcap.New(time.Duration(cfg.Analysis.CaptureTimeoutSeconds) * time.Second),
		Clock:                application.SystemClock{},
		AllowURLInput:        cfg.Analysis.AllowURLInput,
		TrustReportedOverall: cfg.Analysis.TrustReportedOverall,
		Timeout:              time.Duration(cfg.Analysis.TimeoutSeconds) * time.Second,
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RateLimitCapacity: cfg.RateLimit.Capacity,
		RateLimitRefill:   cfg.RateLimit.RefillRate,
		HealthCheckers: map[string]middleware.HealthChecker{
			"store": middleware.CheckFunc(func(ctx context.Context) error {
				_, err := repo.Recent(ctx, 1, 1)
				return err
			}),
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // analyze requests block for the whole pipeline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s (storage driver: %s)", addr, cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// newRepository selects the result store backend from config.
func newRepository(ctx context.Context, cfg *config.Config) (domain.Repository, error) {
	switch cfg.Storage.Driver {
	case "", "file":
		baseDir := cfg.Storage.BaseDir
		if baseDir == "" {
			baseDir = "./data"
		}
		return fsstore.New(baseDir)
	case "minio":
		return miniostore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		return postgresp.NewResultRepository(db), nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		return mysqlp.NewResultRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}
