package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kariuki-dev/tenant-payment-agent/internal/api"
	"github.com/kariuki-dev/tenant-payment-agent/internal/backend"
	"github.com/kariuki-dev/tenant-payment-agent/internal/config"
	"github.com/kariuki-dev/tenant-payment-agent/internal/database"
	"github.com/kariuki-dev/tenant-payment-agent/internal/push"
	"github.com/kariuki-dev/tenant-payment-agent/internal/repository"
	"github.com/kariuki-dev/tenant-payment-agent/internal/service"
	"github.com/kariuki-dev/tenant-payment-agent/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open the durable store
	db, err := database.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate store: %v", err)
	}

	log.Printf("Connected to store: %s", cfg.Store.Path)

	sessions, err := session.NewSQLStore(db, cfg.Session.FernetKey)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}

	slotRepo := repository.NewPaymentSlotRepository(db)
	backendClient := backend.NewClient(cfg.Backend.BaseURL)

	// Create services
	rentalService := service.NewRentalService(backendClient, sessions)
	reconcileService := service.NewReconcileService(
		backendClient,
		slotRepo,
		rentalService,
		sessions,
		cfg.Poll.Interval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Best-effort rental bootstrap; the handler refreshes on demand
	if _, err := rentalService.Load(ctx); err != nil {
		log.Printf("Rental bootstrap skipped: %v", err)
	}

	reconcileService.Start(ctx)
	defer reconcileService.Close()

	subscriber := push.NewSubscriber(
		cfg.Push.URL,
		sessions,
		reconcileService.HandlePushRecord,
		reconcileService.SetPushConnected,
	)

	// A tenant-identity change is one scoped teardown: the rental
	// snapshot is evicted and reloaded, the engine drops all state held
	// for the previous tenant, and the push subscription re-registers.
	sessionChanged := func() {
		rentalService.Evict()
		if _, err := rentalService.Load(ctx); err != nil {
			log.Printf("Rental reload skipped: %v", err)
		}
		reconcileService.HandleSessionChange()
		subscriber.Reregister()
	}

	// Create router
	router := api.NewRouter(db, sessions, rentalService, reconcileService, sessionChanged, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := subscriber.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Println("Shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
