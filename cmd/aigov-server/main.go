// Package main provides the governance workflow server entry point.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/complyra/aigov/internal/db"
	"github.com/complyra/aigov/pkg/authz"
	"github.com/complyra/aigov/pkg/governance"
	"github.com/complyra/aigov/pkg/ha"
	"github.com/complyra/aigov/pkg/jobs"
)

func main() {
	var (
		listenAddr   string
		configPath   string
		policyPath   string
		databaseType string
		databaseDSN  string
	)

	flag.StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	flag.StringVar(&configPath, "config", "/config/engine.yaml", "Path to engine config")
	flag.StringVar(&policyPath, "authz-policy", "", "Path to authorization policy (empty allows all)")
	flag.StringVar(&databaseType, "db-type", "postgres", "Database type (sqlite or postgres)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string")
	flag.Parse()

	// Initialize glog for backwards compatibility
	_ = flag.Set("logtostderr", "true")

	// Set up structured logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting governance workflow server",
		"listen", listenAddr,
		"config", configPath,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := governance.LoadEngineConfig(configPath)
	if err != nil {
		glog.Fatalf("Failed to load engine config: %v", err)
	}

	if databaseDSN == "" {
		databaseDSN = os.Getenv("DATABASE_DSN")
	}
	gormDB, err := db.Connect(db.Config{Type: databaseType, DSN: databaseDSN})
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	orch := governance.NewOrchestrator(gormDB, cfg)
	jobStore := jobs.NewJobStore(gormDB)

	// Serialize schema migration across replicas.
	locker := ha.NewMigrationLocker(gormDB)
	err = locker.WithLock(ctx, func() error {
		if err := orch.Systems().AutoMigrate(); err != nil {
			return err
		}
		return jobStore.AutoMigrate()
	})
	if err != nil {
		glog.Fatalf("Failed to migrate database schema: %v", err)
	}
	orch.SetMetrics(governance.NewMetrics())

	// Lifecycle transitions and assessment decisions enqueue documentation
	// regeneration jobs; the worker pool renders them in the background.
	orch.SetNotifier(regenNotifier{store: jobStore, logger: logger})
	workers := jobs.NewWorkerPool(jobStore, orch.Documents(), jobs.JobConfigFromEnv(), logger)
	go workers.Run(ctx)

	policy, err := authz.LoadPolicy(policyPath)
	if err != nil {
		glog.Fatalf("Failed to load authorization policy: %v", err)
	}
	orch.SetAuthorizer(authz.NewPolicyAuthorizer(policy))
	if policy == nil {
		logger.Info("no authorization policy configured, allowing all actors")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(authz.IdentityMiddleware())
	router.Mount("/api/governance/v1alpha1", governance.NewRouter(orch))
	router.Mount("/api/jobs/v1alpha1", jobs.Router(jobStore))
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Prune audit events past the retention window once a day.
	go auditRetentionLoop(ctx, orch.Audit(), cfg.AuditRetention.Days, logger)

	logger.Info("governance workflow server ready", "listen", listenAddr)

	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("governance workflow server stopped")
}

// regenNotifier enqueues a documentation regeneration job when the engine
// signals that a system's documentation went stale.
type regenNotifier struct {
	store  *jobs.JobStore
	logger *slog.Logger
}

func (n regenNotifier) NotifyDocumentationRegenerate(systemID string) {
	job, err := n.store.Enqueue(&jobs.RegenJob{
		AISystemID:  systemID,
		RequestedBy: "governance-engine",
	})
	if err != nil {
		n.logger.Error("failed to enqueue regeneration job", "aiSystemID", systemID, "error", err)
		return
	}
	n.logger.Info("queued documentation regeneration", "aiSystemID", systemID, "jobID", job.ID)
}

// auditRetentionLoop deletes audit events older than the retention window.
// Zero or negative retention disables pruning.
func auditRetentionLoop(ctx context.Context, audit *governance.AuditStore, days int, logger *slog.Logger) {
	if days <= 0 {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -days)
			deleted, err := audit.DeleteOlderThan(cutoff)
			if err != nil {
				logger.Error("audit retention prune failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("pruned audit events", "deleted", deleted, "cutoff", cutoff)
			}
		}
	}
}
