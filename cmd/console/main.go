package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stemsi/exstem-console/internal/api"
	"github.com/stemsi/exstem-console/internal/attempttoken"
	"github.com/stemsi/exstem-console/internal/authflag"
	"github.com/stemsi/exstem-console/internal/config"
	"github.com/stemsi/exstem-console/internal/gateway"
	"github.com/stemsi/exstem-console/internal/logger"
	"github.com/stemsi/exstem-console/internal/session"
	"golang.org/x/term"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Console(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Local Auth Flag ───────────────────────────────────────────────
	flagStore, err := authflag.Open(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.AuthFlagDriver).Msg("Failed to open auth flag store")
		return 1
	}
	if closer, ok := flagStore.(io.Closer); ok {
		defer closer.Close()
	}

	// ─── Session Cookies ───────────────────────────────────────────────
	// Cookies are kept next to the flag so a login outlives this process.
	var cookieStore session.CookieStore
	if cs, ok := flagStore.(session.CookieStore); ok {
		cookieStore = cs
	}
	jar, err := session.NewJar(ctx, cfg.APIBaseURL, cookieStore)
	if err != nil {
		log.Error().Err(err).Str("base_url", cfg.APIBaseURL).Msg("Failed to create cookie jar")
		return 1
	}

	// ─── Request Gateway ───────────────────────────────────────────────
	httpClient, err := gateway.NewHTTPClient(cfg.RequestTimeout, jar)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create HTTP client")
		return 1
	}
	gw, err := gateway.New(gateway.Options{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: httpClient,
		AuthFlag:   flagStore,
		Logger:     log,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create gateway")
		return 1
	}
	// Background token refreshes finish before the process exits.
	defer gw.Wait()

	codec := attempttoken.New(attempttoken.TransformFor(cfg.AttemptTokenEncoding))

	c := &console{
		client: api.New(gw, codec, cfg.PublicBaseURL, log),
		out:    os.Stdout,
		in:     os.Stdin,
		loc:    time.Local,
		readPassword: func() (string, error) {
			b, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			return string(b), err
		},
	}

	if err := c.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		return 1
	}
	return 0
}
