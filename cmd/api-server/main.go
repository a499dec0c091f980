package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mediatracker/internal/auth"
	"mediatracker/internal/capture"
	"mediatracker/internal/events"
	"mediatracker/internal/library"
	"mediatracker/internal/search"
	"mediatracker/pkg/database"
	"mediatracker/pkg/utils"
)

func main() {
	srvCfg := utils.LoadServerConfig()
	utils.SetupLogger(srvCfg.LogLevel)

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	catCfg := utils.LoadCatalogConfig()
	engine, tables, err := search.NewEngine(catCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("engine setup failed")
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := events.NewHub()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path, "taxonomy": tables.Version})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
			"catalogs": gin.H{
				"tmdb":        catCfg.TMDBKey != "",
				"googlebooks": catCfg.GoogleBooksKey != "",
				"rawg":        catCfg.RAWGKey != "",
			},
		})
	})

	// Search (public)
	api := router.Group("/api")
	search.NewHandler(engine).RegisterRoutes(api)

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authHandler, err := auth.NewHandler(tokenSvc, authCfg.OwnerPasswordHash)
	if err != nil {
		log.Fatal().Err(err).Msg("auth setup failed")
	}
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Event feeds require the owner's token.
	router.GET("/ws", auth.StreamAuthMiddleware(tokenSvc), events.WSHandler(hub))
	tcpSrv := events.NewServer(srvCfg.TCPAddr, hub)
	tcpSrv.Authorize = func(token string) error {
		_, err := tokenSvc.Verify(token)
		return err
	}

	// Tracking store and capture (protected)
	protected := api.Group("")
	protected.Use(auth.AuthMiddleware(tokenSvc))
	protected.GET("/events", events.RecentHandler(hub))

	libRepo := library.NewRepo(db, tables)
	library.NewHandler(libRepo, hub).RegisterRoutes(protected)

	visionCfg := utils.LoadVisionConfig()
	pipeline := &capture.Pipeline{
		Recognizer: capture.NewVisionClient(visionCfg.APIKey, visionCfg.Model, 0),
		Search:     engine,
		Sink:       libRepo,
	}
	capture.NewHandler(pipeline, hub).RegisterRoutes(protected)

	httpSrv := &http.Server{
		Addr:    srvCfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", srvCfg.HTTPAddr).Msg("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	stop()

	wg.Wait()
	log.Info().Msg("servers stopped")
}
