package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"events-social-network/archive"
	"events-social-network/config"
	"events-social-network/database"
	"events-social-network/logging"
	"events-social-network/util"
	"events-social-network/util/api"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		logrus.WithError(err).Fatal("loading .env")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading config")
	}

	log, err := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("configuring logger")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("loading timezone")
	}

	log.Info("Initializing application...")
	log.WithField("db_path", cfg.DBPath).Info("Using database")

	// Initialize Database (runs embedded migrations)
	if err := database.InitDB(cfg.DBPath); err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.DB.Close()
	store := database.NewStore(database.DB)

	sessions := util.NewSessionStore(cfg.SessionTTL)
	server := api.NewServer(store, sessions, loc, log)

	archiver := archive.New(store, loc, log)
	if _, err := archiver.Run(context.Background()); err != nil {
		log.WithError(err).Warn("initial archive run failed")
	}
	job, err := archiver.Schedule(cfg.ArchiveSchedule)
	if err != nil {
		log.WithError(err).Fatal("scheduling archive job")
	}

	// --- CORS Middleware ---
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true, // Required for cookies!
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(server.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "timezone": loc.String()}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	if job != nil {
		<-job.Stop().Done()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown")
	}
}
