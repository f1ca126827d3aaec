// Command mintd runs a standalone ecash mint over HTTP.
package main

import (
	"fmt"
	"net/http"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/shellcash/ecash/api"
	"github.com/shellcash/ecash/internal/applog"
	"github.com/shellcash/ecash/ledger"
)

type config struct {
	MasterSecret string `long:"master-secret" description:"master secret the mint derives its per-denomination keys from" required:"true"`
	Listen       string `long:"listen" description:"address to listen on" default:"127.0.0.1:3338"`
	DBPath       string `long:"db" description:"optional goleveldb path for a persistent spent-set; in-memory if unset"`
	LogLevel     string `long:"loglevel" description:"logging level {trace, debug, info, warn, error, critical, off}" default:"info"`
	LogFile      string `long:"logfile" description:"file to write rotating logs to, in addition to stdout"`
	Notify       bool   `long:"notify" description:"expose GET /notify, a websocket feed of retired secrets"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config{}
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	if cfg.LogFile != "" {
		if err := applog.InitLogRotator(cfg.LogFile); err != nil {
			return err
		}
	}
	if err := applog.SetLogLevels(cfg.LogLevel); err != nil {
		return err
	}

	store, closeStore, err := openSpentStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	mint := ledger.NewMint(cfg.MasterSecret, store)

	var notifier *api.Notifier
	if cfg.Notify {
		notifier = api.NewNotifier()
	}
	server := api.NewServer(mint, notifier)

	fmt.Printf("mintd: listening on %s\n", cfg.Listen)
	return http.ListenAndServe(cfg.Listen, server)
}

// openSpentStore returns an in-memory store when dbPath is empty, or opens
// a durable goleveldb-backed one otherwise. The returned close func is
// always safe to call, even for the in-memory store.
func openSpentStore(dbPath string) (ledger.SpentStore, func(), error) {
	if dbPath == "" {
		return ledger.NewMemorySpentStore(), func() {}, nil
	}
	store, err := ledger.OpenLevelDBSpentStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("mintd: open spent-set database: %w", err)
	}
	return store, func() { store.Close() }, nil
}
