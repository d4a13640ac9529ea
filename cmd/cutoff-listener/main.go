package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cetpredict/internal/config"
	"cetpredict/internal/listener"
	"cetpredict/internal/storage"
)

// cutoff-listener polls the configured mailbox for admission-board circulars
// and ingests any cutoff attachments into the shared database. It never
// serves queries; run `cetpredict serve` against the same database for that.
func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	fmt.Printf("cutoff listener starting provider=%s label=%s interval=%ds\n",
		cfg.ListenerProvider, cfg.ListenerLabel, cfg.ListenerIntervalSec)

	svc := listener.NewService(db, cfg)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
