package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api/middleware"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/config"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/crypto"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/store"
)

func main() {
	email := flag.String("email", "", "Email of the account to sign in as")
	ttl := flag.Duration("ttl", time.Hour, "Session lifetime")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Usage: sign -email <account-email> [-ttl 1h]")
		fmt.Fprintln(os.Stderr, "  Prints a Cookie header for scripted requests against a running server.")
		fmt.Fprintln(os.Stderr, "  Reads DATABASE_URL or SQLITE_PATH, REDIS_URL and SESSION_SECRET like the server.")
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.RedisURL == "" {
		fmt.Fprintln(os.Stderr, "REDIS_URL is required: in-memory sessions live only inside the server process")
		os.Exit(1)
	}

	ctx := context.Background()

	var (
		users store.UserStore
		err   error
	)
	if cfg.DatabaseURL != "" {
		users, err = store.NewPostgresStore(ctx, cfg.DatabaseURL)
	} else {
		users, err = store.NewSQLiteStore(ctx, cfg.SQLitePath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Open user store: %v\n", err)
		os.Exit(1)
	}
	defer users.Close()

	user, err := users.GetUserByEmail(ctx, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Look up user: %v\n", err)
		os.Exit(1)
	}
	if user == nil {
		fmt.Fprintf(os.Stderr, "No account for %s\n", *email)
		os.Exit(1)
	}

	sessions, err := store.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer sessions.Close()

	signer, err := crypto.NewSigner(cfg.SessionSecret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Session signer: %v\n", err)
		os.Exit(1)
	}

	now := time.Now()
	session := &models.Session{
		ID:        crypto.NewUUIDv7(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(*ttl),
	}
	if err := sessions.CreateSession(ctx, session); err != nil {
		fmt.Fprintf(os.Stderr, "Create session: %v\n", err)
		os.Exit(1)
	}

	// Output header
	fmt.Printf("Cookie: %s=%s\n", middleware.SessionCookieName, signer.Sign(session.ID, session.ExpiresAt))
}
