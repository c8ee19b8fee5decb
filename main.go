package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/alumni-survey/app"
	"github.com/mbolis/alumni-survey/config"
	"github.com/mbolis/alumni-survey/database"
	"github.com/mbolis/alumni-survey/httpx"
	"github.com/mbolis/alumni-survey/log"
	"github.com/mbolis/alumni-survey/routes"
	"github.com/mbolis/alumni-survey/session"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	if cfg.AdminUser != "" && cfg.AdminPassword != "" {
		err = database.EnsureUser(context.Background(), db, cfg.AdminUser, cfg.AdminPassword)
		if err != nil {
			log.Fatal("main.db.admin_user:", err)
		}
	}

	sessions, closeSessions, err := openSessions(cfg)
	if err != nil {
		log.Fatal("main.sessions:", err)
	}
	defer closeSessions()

	app := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Sessions:     sessions,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func openSessions(cfg config.Config) (session.Store, func() error, error) {
	if cfg.RedisUrl == "" {
		store := session.NewMemoryStore(cfg.DraftTTL)
		return store, store.Close, nil
	}

	opts, err := redis.ParseURL(cfg.RedisUrl)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}

	log.Info("draft sessions kept in redis at " + opts.Addr)
	return session.NewRedisStore(client, cfg.DraftTTL), client.Close, nil
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	idle := make(chan struct{})
	go func() {
		defer close(idle)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("main.server.shutdown:", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-idle
	}
	return err
}
