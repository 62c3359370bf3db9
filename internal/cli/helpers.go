package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/taskman/internal/model"
	"github.com/nhle/taskman/internal/store"
	"github.com/nhle/taskman/internal/tracker"
)

// env is everything a command needs, opened from the config and flags.
type env struct {
	cfg     *model.AppConfig
	store   *store.SQLiteStore
	tracker *tracker.Tracker
	logFile io.Closer
}

// Close releases the database and log file.
func (e *env) Close() error {
	if e.logFile != nil {
		e.logFile.Close()
	}
	return e.store.Close()
}

// logWriterFunc picks where tracker logs go for a given config.
type logWriterFunc func(cfg *model.AppConfig) (io.Writer, io.Closer, error)

// cliLogWriter logs to stderr with --verbose and discards otherwise.
func cliLogWriter(cfg *model.AppConfig) (io.Writer, io.Closer, error) {
	if verbose {
		return os.Stderr, nil, nil
	}
	return io.Discard, nil, nil
}

// uiLogWriter never uses the terminal, which belongs to the UI. Logs go to
// display.log_path, or next to the database with --verbose.
func uiLogWriter(cfg *model.AppConfig) (io.Writer, io.Closer, error) {
	path := cfg.Display.LogPath
	if path == "" && verbose {
		path = filepath.Join(filepath.Dir(cfg.Storage.DatabasePath), "taskman.log")
	}
	if path == "" {
		return io.Discard, nil, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, f, nil
}

// openEnv loads the config, opens the database and loads the task list.
func openEnv(ctx context.Context, logs logWriterFunc) (*env, error) {
	path := configPath
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	w, closer, err := logs(cfg)
	if err != nil {
		return nil, err
	}
	logger := log.New(w, "", log.LstdFlags)

	s, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	s.SetHistoryLimit(cfg.Storage.HistoryLimit)

	tr, err := tracker.New(tracker.Options{Store: s, Config: cfg, Logger: logger})
	if err != nil {
		s.Close()
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	e := &env{cfg: cfg, store: s, tracker: tr, logFile: closer}
	if err := tr.Load(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// shortID is the id prefix shown in listings and accepted by Find.
func shortID(t *model.Task) string {
	return t.ID().String()[:8]
}

// formatTime renders a timestamp in local time.
func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// formatElapsed renders the time a finished task took, or "-".
func formatElapsed(t *model.Task) string {
	d, ok := t.Elapsed()
	if !ok {
		return "-"
	}
	return d.Round(time.Second).String()
}
