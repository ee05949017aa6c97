package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haloteknika/fiberdesk/internal/config"
	"github.com/haloteknika/fiberdesk/internal/ingest"
	"github.com/haloteknika/fiberdesk/internal/remote"
	"github.com/haloteknika/fiberdesk/internal/store"
	"github.com/haloteknika/fiberdesk/internal/syncer"
	"github.com/haloteknika/fiberdesk/internal/types"
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Ingest a spreadsheet export into the local store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// probedConn is a one-shot connectivity check for short-lived commands: the
// backend is probed once at startup instead of monitored.
type probedConn struct {
	online bool
}

func (c probedConn) Online() bool { return c.online }

// newOneShotEngine builds a sync engine around a single connectivity probe.
func newOneShotEngine(ctx context.Context, cfg *config.Config, db *store.SQLiteStore) *syncer.Engine {
	client := remote.NewClient(cfg.Remote.Endpoint, cfg.Remote.Token,
		time.Duration(cfg.Sync.HTTPTimeout))
	conn := probedConn{online: client.Configured() && client.Ping(ctx) == nil}
	return syncer.New(db, client, conn, time.Duration(cfg.Sync.FetchInterval), types.Collections)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := ingest.Process(f)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := newOneShotEngine(ctx, cfg, db)

	// Only collections the file actually carried are replaced; an import
	// without, say, BNG data must not wipe the BNG collection.
	writes := []struct {
		collection string
		count      int
		records    any
	}{
		{types.CollectionCustomers, len(result.Customers), result.Customers},
		{types.CollectionFAT, len(result.FATs), result.FATs},
		{types.CollectionOLT, len(result.OLTs), result.OLTs},
		{types.CollectionUPE, len(result.UPEs), result.UPEs},
		{types.CollectionBNG, len(result.BNGs), result.BNGs},
	}
	for _, wr := range writes {
		if wr.count == 0 {
			continue
		}
		snapshot, err := json.Marshal(wr.records)
		if err != nil {
			return err
		}
		if err := engine.Write(ctx, wr.collection, snapshot); err != nil {
			return err
		}
	}

	printSummary(cmd, result.Summary)
	return nil
}

func printSummary(cmd *cobra.Command, s ingest.Summary) {
	for _, p := range s.Processed {
		fmt.Fprintf(cmd.OutOrStdout(), "processed %-24s -> %-8s (%d records)\n", p.Sheet, p.Schema, p.Rows)
	}
	for _, sk := range s.Skipped {
		fmt.Fprintf(cmd.OutOrStdout(), "skipped   %-24s    %s\n", sk.Sheet, sk.Reason)
	}
}
