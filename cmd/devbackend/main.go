package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/harrylevesque/desuite/internal/backend/memory"
	"github.com/harrylevesque/desuite/internal/backend/rpc"
	"github.com/harrylevesque/desuite/internal/utils"
)

// devbackend serves the in-memory platform backend over the rpc protocol so
// the web server and terminal client can run against it like the real one.
// State lives in memory and is lost on exit.

func main() {
	addr := flag.String("addr", ":8081", "Listen address")
	seed := flag.Bool("seed", true, "Seed demo data")
	logFile := flag.String("log", "", "Log file (stdout when empty)")
	flag.Parse()

	logger, err := utils.NewLogger(*logFile)
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	mem := memory.New()
	if *seed {
		if _, err := memory.Seed(context.Background(), mem); err != nil {
			logger.Errorf("seed: %v", err)
			os.Exit(1)
		}
		logger.Infof("seeded demo data; sign in as %s / %s", memory.DemoEmail, memory.DemoPassword)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           rpc.NewServer(mem, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Infof("[devbackend] listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Errorf("listen: %v", err)
		os.Exit(1)
	}
}
