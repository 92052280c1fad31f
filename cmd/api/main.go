package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/coords/internal/adapters/http"
	"github.com/samirrijal/coords/internal/adapters/memory"
	natsadapter "github.com/samirrijal/coords/internal/adapters/nats"
	"github.com/samirrijal/coords/internal/adapters/valkey"
	"github.com/samirrijal/coords/internal/adapters/what3words"
	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/core/formatting"
	"github.com/samirrijal/coords/internal/core/ports"
	"github.com/samirrijal/coords/internal/core/usecases"
	"github.com/samirrijal/coords/internal/pkg/config"
	"github.com/samirrijal/coords/internal/pkg/logging"
	"github.com/samirrijal/coords/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("coords-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Consent store: Valkey when reachable, memory otherwise
	var (
		store  ports.ConsentStore = memory.NewConsentStore()
		pinger http.Pinger
	)
	if cfg.Valkey.Addr != "" {
		vs, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable, consent kept in memory", "error", err)
		} else {
			defer vs.Close()
			store, pinger = vs, vs
		}
	}

	// Three-word resolver
	var words *formatting.ThreeWordCache
	if cfg.What3Words.APIKey != "" {
		words = formatting.NewThreeWordCache(what3words.New(what3words.Config{
			APIKey:   cfg.What3Words.APIKey,
			BaseURL:  cfg.What3Words.BaseURL,
			Language: cfg.What3Words.Language,
			Timeout:  cfg.What3Words.Timeout(),
		}))
	} else {
		slog.Info("what3words api key not set, three-word lookups disabled")
	}

	// Config validation guarantees this parses
	defaultProjection, _ := cfg.Location.Projection()
	session := usecases.NewLocationSession(defaultProjection)
	consent := usecases.NewConsentService(store)

	// NATS
	var (
		publisher ports.ReadoutPublisher
		natsConn  *nats.Conn
	)
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.FixSubject, cfg.NATS.ReadoutSubject)
		if err != nil {
			slog.Warn("nats unavailable, readouts not published", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
			natsConn = pub.Conn()
		}
	}

	readouts := usecases.NewReadoutService(session, consent, formatting.New(words), publisher)

	if cfg.NATS.URL != "" {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, cfg.NATS.FixSubject, cfg.NATS.Durable)
		if err != nil {
			slog.Warn("nats fix subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := consumeFixes(ctx, sub, readouts); err != nil {
				slog.Warn("subscribe fixes failed", "error", err)
			}
		}
	}

	deps := &http.Dependencies{
		Session:  session,
		Consent:  consent,
		Readouts: readouts,
		NATS:     natsConn,
		Store:    pinger,
		Tick:     cfg.Location.Tick(),
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "coords API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "projection", defaultProjection.String())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// consumeFixes feeds every fix from the positioning stream into the readout
// service.
func consumeFixes(ctx context.Context, sub ports.FixSubscriber, readouts *usecases.ReadoutService) error {
	return sub.SubscribeFixes(ctx, func(ctx context.Context, fix domain.RawFix) error {
		_, err := readouts.IngestFix(ctx, fix)
		return err
	})
}
