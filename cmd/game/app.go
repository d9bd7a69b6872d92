package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tatianab/fallen-god/internal/config"
	"github.com/tatianab/fallen-god/internal/content"
	"github.com/tatianab/fallen-god/internal/engine"
	"github.com/tatianab/fallen-god/internal/history"
	"github.com/tatianab/fallen-god/internal/logging"
	"github.com/tatianab/fallen-god/internal/models"
	"github.com/tatianab/fallen-god/internal/random"
	"github.com/tatianab/fallen-god/internal/tui"
)

// app is the wiring shared by every subcommand.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	catalog *content.Catalog
	history *history.Store
	closers []io.Closer
}

type appOptions struct {
	// logToFile sends logs to the configured file instead of stderr, for
	// commands that own the terminal.
	logToFile   bool
	openHistory bool
}

func newApp(stderr io.Writer, opts appOptions) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a := &app{cfg: cfg}

	w := stderr
	if opts.logToFile {
		w = io.Discard
		if cfg.LogFile != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
				return nil, fmt.Errorf("create log dir: %w", err)
			}
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			a.closers = append(a.closers, f)
			w = f
		}
	}
	a.log = logging.New(w, cfg.LogLevel, cfg.LogFormat)

	a.catalog, err = content.Load(cfg.Content)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load content: %w", err)
	}

	if opts.openHistory {
		a.history, err = history.Open(cfg.HistoryDB)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.closers = append(a.closers, a.history)
	}
	return a, nil
}

// seed returns the configured seed, or a fresh one when none is set.
func (a *app) seed(override uint64) (uint64, error) {
	if override != 0 {
		return override, nil
	}
	if a.cfg.Seed != 0 {
		return a.cfg.Seed, nil
	}
	return random.NewSeed()
}

// newEngine builds an engine whose finished runs land in the history store.
func (a *app) newEngine(ctx context.Context, seed uint64) *engine.Engine {
	opts := []engine.Option{engine.WithLogger(logging.Component(a.log, "engine"))}
	if a.history != nil {
		hlog := logging.Component(a.log, "history")
		opts = append(opts, engine.WithRunEndHook(func(s models.RunSummary) {
			id, err := a.history.RecordRun(ctx, s)
			if err != nil {
				hlog.Error("record run failed", "err", err)
				return
			}
			hlog.Info("run recorded", "id", id, "doctrine", s.Doctrine, "abandoned", s.Abandoned)
		}))
	}
	a.log.Debug("engine created", "seed", seed)
	return engine.NewEngine(a.catalog, random.New(seed), opts...)
}

// restore loads the saved snapshot into eng, if there is one.
func (a *app) restore(eng *engine.Engine) error {
	state, err := models.LoadSnapshot(a.cfg.SaveDir, tui.SnapshotName, a.catalog.TemplateIDs())
	if errors.Is(err, models.ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return err
	}
	eng.Restore(state)
	a.log.Info("snapshot restored", "phase", state.Phase, "essence", state.Essence)
	return nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
