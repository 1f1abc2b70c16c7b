package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"finwatch/internal/crypto"
	"finwatch/internal/homefeed"
	"finwatch/internal/jellyfin"
	"finwatch/internal/player"
	"finwatch/internal/server"
	"finwatch/internal/session"
	"finwatch/internal/store"
)

// tokenSalt keys the derivation of the at-rest encryption key from
// FINWATCH_SECRET. Changing it invalidates stored tokens.
const tokenSalt = "finwatch.token.v1"

func main() {
	dbPath := envOr("DB_PATH", "./data/finwatch.db")
	listenAddr := envOr("LISTEN_ADDR", ":7936")
	corsOrigin := os.Getenv("CORS_ORIGIN")
	secret := os.Getenv("FINWATCH_SECRET")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatal(err)
	}

	var storeOpts []store.Option
	if secret != "" {
		enc, err := crypto.NewEncryptorFromSecret(secret, tokenSalt)
		if err != nil {
			log.Fatalf("initializing encryption: %v", err)
		}
		storeOpts = append(storeOpts, store.WithEncryptor(enc))
	} else {
		log.Println("FINWATCH_SECRET not set — access token stored unencrypted")
	}

	st, err := store.New(dbPath, storeOpts...)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer st.Close()

	sessions := session.NewManager(st)
	gw := jellyfin.New(sessions, jellyfin.WithOnSessionExpired(sessions.HandleSessionExpired))

	restored, err := sessions.Restore()
	if err != nil {
		log.Fatalf("restoring session: %v", err)
	}
	if restored {
		creds, _ := sessions.Current()
		log.Printf("Restored session for %s on %s", creds.UserName, creds.ServerURL)
	} else {
		log.Println("No stored session — sign in via the API")
	}

	feed := homefeed.NewService(gw, st)
	ctrl := player.NewController(gw, st, func() player.Engine { return player.NewClockEngine() })

	// An expired token tears down playback along with the session.
	sessions.OnLogout(ctrl.Stop)

	var opts []server.Option
	if corsOrigin != "" {
		opts = append(opts, server.WithCORSOrigin(corsOrigin))
	}
	opts = append(opts, server.WithHomeFeed(feed), server.WithPlayer(ctrl))
	srv := server.NewServer(st, sessions, gw, opts...)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("finwatch listening on %s", listenAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	// Stop playback first so the final position reaches the server.
	ctrl.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
