package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"speedrun/backend/internal/cache"
	"speedrun/backend/internal/config"
	"speedrun/backend/internal/database"
	"speedrun/backend/internal/hub"
	"speedrun/backend/internal/server"
	"speedrun/backend/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Migrate the schema before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if migrateOnStart || cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	var lc cache.LeaderboardCache = cache.Nop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.LeaderboardCacheTTL)
		if err != nil {
			return err
		}
		defer rc.Close()
		lc = rc
		log.Println("Leaderboard cache enabled.")
	}

	uploads, err := upload.NewStore(cfg.UploadDir, cfg.UploadURLPrefix)
	if err != nil {
		return err
	}

	router, err := server.New(server.Deps{
		Config:  cfg,
		DB:      db,
		Cache:   lc,
		Hub:     hub.New(),
		Uploads: uploads,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server is running on %s", cfg.ServerAddr)
		log.Printf("Swagger UI is available at http://localhost%s/swagger/index.html", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("Server stopped.")
	return nil
}
