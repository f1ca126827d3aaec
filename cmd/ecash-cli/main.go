// Command ecash-cli drives a running mint through the reference end-to-end
// scenario: mint a token, split it down through a few denominations, and
// report the resulting proof set.
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/davecgh/go-spew/spew"

	"github.com/shellcash/ecash/protocol"
	"github.com/shellcash/ecash/wallet"
)

type config struct {
	Endpoint string `long:"endpoint" description:"mint HTTP endpoint" default:"http://127.0.0.1:3338"`
	Verbose  bool   `long:"verbose" description:"dump full proof structs instead of amount summaries"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ecash-cli:", err)
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

	client := wallet.NewLedgerClient(cfg.Endpoint)
	w := wallet.NewWallet(client)

	proof, err := w.Mint()
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	report(cfg, "minted", []protocol.Proof{proof})

	_, snd, err := w.Split(w.Proofs(), 20)
	if err != nil {
		return fmt.Errorf("split 20 off 64: %w", err)
	}
	report(cfg, "split 20 off 64", w.Proofs())

	_, _, err = w.Split(snd, 5)
	if err != nil {
		return fmt.Errorf("split 5 off 20: %w", err)
	}
	report(cfg, "split 5 off 20", w.Proofs())

	fmt.Printf("final balance: %d\n", w.Balance())
	return nil
}

func report(cfg config, label string, proofs []protocol.Proof) {
	if cfg.Verbose {
		fmt.Printf("-- %s --\n", label)
		spew.Dump(proofs)
		return
	}
	amounts := make([]int64, len(proofs))
	for i, p := range proofs {
		amounts[i] = p.Amount
	}
	fmt.Printf("%s: %v\n", label, amounts)
}
