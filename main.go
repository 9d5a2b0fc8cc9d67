package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fasobus/internal/booking"
	intconfig "fasobus/internal/config"
	"fasobus/internal/holds"
	api "fasobus/internal/http"
	"fasobus/internal/http/handlers"
	"fasobus/internal/offline"
	"fasobus/internal/realtime"
	"fasobus/internal/telemetry"
	"fasobus/internal/tickets"
	"fasobus/internal/trips"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	shutdownTelemetry := telemetry.Setup("fasobus")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	var (
		source    trips.Source
		lookup    booking.UserLookup
		ticketSvc tickets.Service
		store     offline.Store
	)
	if env.DataMode == "live" {
		db := intconfig.ConnectDB(env)
		defer intconfig.CloseDB()

		source = trips.SQLSource{DB: db}
		lookup = userLookup(db)
		ticketSvc = tickets.Service{Repo: tickets.Repo{DB: db}}
		store = offline.NewStore(db)
		if err := store.EnsureSchema(); err != nil {
			log.Fatalf("offline schema: %v", err)
		}
	} else {
		source = trips.NewMockSource()
		lookup = func(int64) (string, string, error) { return "Client FasoBus", "", nil }
		ticketSvc = tickets.Service{Repo: tickets.NewMemRepo()}
	}

	registry := holds.NewRegistry(env.HoldTTL)
	hub := realtime.NewHub()
	registry.OnChange(hub.BroadcastSeatChange)
	flow := booking.NewFlow(source, registry, lookup)

	a := handlers.API{
		Env:     env,
		Trips:   source,
		Flow:    flow,
		Holds:   registry,
		Tickets: ticketSvc,
	}
	r := api.NewRouter(env, a, realtime.Handler("/realtime", hub))

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("fasobus api listening on %s (data_mode=%s)", env.AppAddr, env.DataMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Janitor: reap expired holds and stale sessions; in live mode also
	// age out the offline ticket cache.
	janitorStop := make(chan struct{})
	go func() {
		sweep := time.NewTicker(30 * time.Second)
		purge := time.NewTicker(12 * time.Hour)
		defer sweep.Stop()
		defer purge.Stop()
		for {
			select {
			case <-sweep.C:
				if n := registry.Sweep(); n > 0 {
					log.Printf("janitor: swept %d expired holds", n)
				}
				if n := flow.SweepExpired(); n > 0 {
					log.Printf("janitor: rewound %d expired sessions", n)
				}
			case <-purge.C:
				if store.DB == nil {
					continue
				}
				if n, err := store.PurgeOldMeta(env.CacheMaxAgeDays); err != nil {
					log.Printf("janitor: cache purge error: %v", err)
				} else if n > 0 {
					log.Printf("janitor: purged %d stale cached tickets", n)
				}
			case <-janitorStop:
				return
			}
		}
	}()

	var gwSrv *http.Server
	if env.DataMode == "live" {
		gw, err := offline.NewGateway(env.UpstreamTicketsURL, store)
		if err != nil {
			log.Fatalf("offline gateway: %v", err)
		}
		gwSrv = &http.Server{
			Addr:         env.GatewayAddr,
			Handler:      gw,
			ReadTimeout:  20 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Printf("offline gateway listening on %s -> %s", env.GatewayAddr, env.UpstreamTicketsURL)
			if err := gwSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("gateway error: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	close(janitorStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if gwSrv != nil {
		if err := gwSrv.Shutdown(ctx); err != nil {
			log.Printf("gateway shutdown error: %v", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	log.Println("stopped cleanly")
}

// userLookup resolves the stored name/phone behind a "booking for self"
// choice.
func userLookup(db *sql.DB) booking.UserLookup {
	return func(userID int64) (string, string, error) {
		var name, phone string
		err := db.QueryRow(`SELECT name, COALESCE(phone, '') FROM users WHERE id = ?`, userID).Scan(&name, &phone)
		if err != nil {
			return "", "", err
		}
		return name, phone, nil
	}
}
