package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harrylevesque/desuite/internal/auth"
	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/backend/memory"
	"github.com/harrylevesque/desuite/internal/config"
	"github.com/harrylevesque/desuite/internal/crypto"
	"github.com/harrylevesque/desuite/internal/utils"
	"github.com/harrylevesque/desuite/internal/web"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to config.json")
	dev := flag.Bool("dev", false, "Use the in-process dev backend (overrides config)")
	seed := flag.Bool("seed", false, "Seed the dev backend with demo data")
	flag.Parse()

	if err := run(*configPath, *dev, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, dev, seed bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dev {
		cfg.DevBackend = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := utils.NewLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Close()

	key, err := cfg.SessionKey()
	if err != nil {
		if !cfg.DevBackend {
			return err
		}
		// Dev mode only: sessions do not survive a restart.
		logger.Warnf("no session key (%v); using an ephemeral one", err)
		if key, err = crypto.GenerateKey(); err != nil {
			return err
		}
	}

	var svc backend.Service
	if cfg.DevBackend {
		mem := memory.New()
		if seed {
			if _, err := memory.Seed(context.Background(), mem); err != nil {
				return err
			}
			logger.Infof("seeded dev backend; sign in as %s / %s", memory.DemoEmail, memory.DemoPassword)
		}
		svc = mem
		logger.Infof("using in-process dev backend")
	} else {
		svc = backend.NewClient(cfg.BackendURL, backend.WithTimeout(cfg.RequestTimeout.Std()))
		logger.Infof("using backend at %s", cfg.BackendURL)
	}

	store, err := auth.NewCookieStore(key, cfg.SecureCookies)
	if err != nil {
		return err
	}
	srv, err := web.New(web.Options{
		Service:  svc,
		Sessions: store,
		Logger:   logger,
		Timeout:  cfg.RequestTimeout.Std(),
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server running on %s", cfg.ListenAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
