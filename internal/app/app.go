// Package app wires configuration into a ready Board for the binaries.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/blockboard/internal/board"
	"github.com/dgallion1/blockboard/internal/config"
	"github.com/dgallion1/blockboard/internal/journal"
	"github.com/dgallion1/blockboard/internal/notion"
)

type App struct {
	Board   *board.Board
	Client  *notion.Client
	Journal *journal.Journal // nil when JournalPath is empty
}

// New connects the Notion client, opens the move journal when configured and
// builds the Board.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	client, err := notion.NewClient(notion.Options{
		BaseURL:    cfg.NotionBaseURL,
		APIKey:     cfg.NotionAPIKey,
		Version:    cfg.NotionVersion,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
		ProxyURL:   cfg.ProxyURL,
		Log:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("notion client: %w", err)
	}

	a := &App{Client: client}
	opts := board.Options{
		PageID:             cfg.MainPageID,
		BacklogPageID:      cfg.BacklogPageID,
		BoardHeadings:      cfg.BoardHeadings,
		WeeklyHeadings:     cfg.WeeklyHeadings,
		MaxConcurrentFetch: cfg.MaxConcurrentFetch,
		Log:                log,
		Databases:          client,
		ApplicationsDBID:   cfg.ApplicationsDBID,
		ContactsDBID:       cfg.ContactsDBID,
	}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			client.Close()
			return nil, err
		}
		a.Journal = j
		opts.Journal = j
		log.Debug("move journal enabled", "path", cfg.JournalPath)
	}
	a.Board = board.New(client, opts)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
	}
	a.Client.Close()
	return errors.Join(errs...)
}
