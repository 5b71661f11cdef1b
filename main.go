package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-admin/api"
	"portfolio-admin/config"
	"portfolio-admin/core/appjobs"
	"portfolio-admin/core/bootstrap"
	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalf("db init: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	users := store.NewUsersStore(db)
	if err := bootstrap.EnsureDefaultAdmin(context.Background(), users, cfg.Pepper, logger); err != nil {
		logger.Fatalf("seed admin: %v", err)
	}

	janitor := appjobs.NewJanitor(store.NewAuditStore(db), cfg.Audit, logger)
	if err := janitor.Start(); err != nil {
		logger.Fatalf("janitor: %v", err)
	}

	srv := api.NewServer(cfg, db, logger)
	go func() {
		logger.Printf("listening on %s", cfg.ListenAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	janitor.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
}
