package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus.org/internal/auth"
	"campus.org/internal/campus"
	"campus.org/internal/config"
	"campus.org/internal/httpapi"
	"campus.org/internal/obs"
	"campus.org/internal/resource"
	"campus.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	configPath := flag.String("config", os.Getenv("CAMPUS_CONFIG"), "Path to YAML config (optional)")
	flag.Parse()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.MustLoad(*configPath)

	// Store selection: Postgres when a DSN is configured, in-memory otherwise.
	var (
		stores   campus.Stores
		denylist auth.Denylist
		probe    httpapi.ReadyProbe
	)
	if cfg.DB.DSN != "" {
		pgStore, err := pg.Open(cfg.DB.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		stores = pgStore.Stores()
		denylist = pgStore.Denylist()
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
		go pruneDenylist(pgStore)
	} else {
		log.Println("No DSN configured, running on in-memory stores")
		stores = campus.NewMemStores()
		denylist = auth.NewMemDenylist()
	}

	codec, err := auth.NewCodec(cfg.Session.Issuer,
		[]byte(cfg.Session.AccessKey), []byte(cfg.Session.RefreshKey))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	session, err := auth.NewService(stores.Accounts, auth.NewMemRoles(auth.BuiltinRoles...), denylist, codec,
		auth.WithAccessTTL(cfg.Session.AccessTTL),
		auth.WithRefreshTTL(cfg.Session.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("session service: %v", err)
	}

	registry := campus.NewRegistry(stores)
	if err := bootstrapAdmin(registry, stores.Accounts); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	api := httpapi.New(session, registry, stores.Accounts, probe, httpapi.Options{
		Version:      version,
		MaxBodyBytes: cfg.HTTPServer.MaxBodyBytes,
		RateBurst:    cfg.HTTPServer.RateBurst,
		RatePerSec:   cfg.HTTPServer.RatePerSec,
	})
	defer api.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPServer.Address,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTPServer.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTPServer.ReadTimeout,
		WriteTimeout:      cfg.HTTPServer.WriteTimeout,
		IdleTimeout:       cfg.HTTPServer.IdleTimeout,
	}

	log.Printf("Starting campus-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}

// bootstrapAdmin creates the first admin account from the environment when
// none with that email exists yet. No-op unless all three variables are set.
func bootstrapAdmin(registry *campus.Registry, accounts campus.AccountStore) error {
	email := os.Getenv("CAMPUS_ADMIN_EMAIL")
	password := os.Getenv("CAMPUS_ADMIN_PASSWORD")
	mobile := os.Getenv("CAMPUS_ADMIN_MOBILE")
	if email == "" || password == "" || mobile == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := accounts.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, resource.ErrNotFound) {
		return err
	}

	_, err := registry.Accounts.Create(ctx, resource.Record{
		"email":      email,
		"password":   password,
		"role":       "admin",
		"mobile":     mobile,
		"first_name": "Admin",
	})
	if err != nil {
		return err
	}
	log.Printf("Bootstrapped admin account %s", email)
	return nil
}

// pruneDenylist clears expired revocations hourly.
func pruneDenylist(store *pg.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := store.Denylist().Prune(ctx); err != nil {
			log.Printf("prune denylist: %v", err)
		}
		cancel()
	}
}
