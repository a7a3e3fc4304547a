package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/dlp"
	"github.com/sentracore/sentra/internal/logging"
	"github.com/sentracore/sentra/internal/rules"
	"github.com/sentracore/sentra/internal/sandbox"
	"github.com/sentracore/sentra/internal/threat"
)

// app wires the components a command needs: audit trail, rule
// catalog, scanner, threat engine, and sandbox manager.
type app struct {
	catalog *rules.Catalog
	store   *audit.MemoryStore
	auditor *audit.Logger
	scanner *dlp.Scanner
	engine  *threat.Engine
	boxes   *sandbox.Manager

	closers []func() error
}

// newApp assembles the stack from the loaded config. The audit file
// sink is always attached; SQLite mirroring is optional.
func newApp() (*app, error) {
	cat, err := rules.Load(cfg.Rules.CatalogPath)
	if err != nil {
		return nil, err
	}

	a := &app{catalog: cat}
	a.store = audit.NewMemoryStore(cfg.Audit.MaxMemoryEntries)
	a.auditor = audit.NewLogger(a.store, logging.For("audit"))

	sink, err := audit.OpenFileSink(cfg.AuditFilePath())
	if err != nil {
		return nil, err
	}
	a.auditor = a.auditor.WithSink(sink)
	a.closers = append(a.closers, sink.Close)

	if cfg.Audit.SQLitePath != "" {
		db, err := audit.OpenSQLiteStore(cfg.Audit.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.auditor = a.auditor.WithMirror(db)
		a.closers = append(a.closers, db.Close)
	}

	a.engine, err = threat.NewEngine(cat, a.auditor, logging.For("threat"))
	if err != nil {
		return nil, err
	}
	a.scanner, err = dlp.NewScanner(cat, a.auditor, logging.For("dlp"))
	if err != nil {
		return nil, err
	}
	a.boxes = sandbox.NewManager(cfg.SandboxWorkDir(), a.engine, a.auditor, logging.For("sandbox"))

	if cfg.Rules.Watch && cfg.Rules.CatalogPath != "" {
		a.startWatcher()
	}
	return a, nil
}

// startWatcher hot-reloads the rule catalog into the threat engine and
// scanner while the process is alive.
func (a *app) startWatcher() {
	log := logging.For("rules")
	w := rules.NewWatcher(cfg.Rules.CatalogPath, func(c *rules.Catalog) {
		if err := a.engine.SetCatalog(c); err != nil {
			log.Warn().Err(err).Msg("threat catalog swap failed")
			return
		}
		if err := a.scanner.SetCatalog(c); err != nil {
			log.Warn().Err(err).Msg("dlp catalog swap failed")
		}
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("rule watcher stopped")
		}
	}()
	a.closers = append(a.closers, func() error {
		cancel()
		<-done
		return nil
	})
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "close:", err)
		}
	}
}
