// Command telegram-store runs the Telegram persistence service: it ingests
// Bot API updates over HTTP, normalizes them, and stores them in the
// configured backend (relational via GORM, or MongoDB).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-store/internal/config"
	httpapi "github.com/tbourn/go-telegram-store/internal/http"
	"github.com/tbourn/go-telegram-store/internal/observability"
	"github.com/tbourn/go-telegram-store/internal/store"
	"github.com/tbourn/go-telegram-store/internal/store/mongostore"
	"github.com/tbourn/go-telegram-store/internal/store/sqlstore"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	setupLogging(cfg)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	backend, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage setup failed")
	}
	defer closeStore()

	orch := store.NewOrchestrator(backend, log.Logger)

	r := gin.New()
	httpapi.RegisterRoutes(r, orch, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("backend", cfg.Storage.Backend).
			Str("version", version).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// openStore builds the configured backend and returns it with its cleanup
// function. The SQL backend migrates on start; the document backend ensures
// its indexes.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendMongo:
		cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
		ms, err := mongostore.Connect(cctx, mongostore.Options{
			URI:              cfg.Storage.MongoURI,
			Database:         cfg.Storage.MongoDB,
			CollectionPrefix: cfg.Storage.TablePrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := ms.EnsureIndexes(cctx); err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ms.Close(dctx); err != nil {
				log.Warn().Err(err).Msg("mongodb disconnect")
			}
		}
		return ms, closeFn, nil

	default:
		ss, err := sqlstore.Open(sqlstore.Options{
			Driver:      cfg.Storage.Driver,
			DSN:         cfg.Storage.DSN,
			TablePrefix: cfg.Storage.TablePrefix,
			Tracing:     cfg.OTEL.Enabled,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := ss.AutoMigrate(); err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := ss.Close(); err != nil {
				log.Warn().Err(err).Msg("database close")
			}
		}
		return ss, closeFn, nil
	}
}
