package internal

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/notedex/internal/discovery"
	"github.com/starford/notedex/internal/ingest"
	"github.com/starford/notedex/internal/ledger"
	"github.com/starford/notedex/internal/noteservice"
	"github.com/starford/notedex/internal/search"
	"github.com/starford/notedex/internal/storage"
)

// NewLogger returns the structured JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Components are the collaborators shared by the commands.
type Components struct {
	Search   search.Client
	Ledger   *ledger.DB
	Ingester *ingest.Ingester
	Service  *noteservice.Service
}

// Build wires the search client, ledger, ingester and note service from
// cfg. Extra ingest options are applied after the configured ones.
func Build(cfg *Config, logger *slog.Logger, extra ...ingest.Option) (*Components, error) {
	client, err := search.New(cfg.Search.Client())
	if err != nil {
		return nil, fmt.Errorf("init search: %w", err)
	}
	filter, err := discovery.NewFilter(cfg.Ingest.Include, cfg.Ingest.Exclude)
	if err != nil {
		return nil, fmt.Errorf("init filter: %w", err)
	}

	c := &Components{Search: client}
	ingestOpts := []ingest.Option{
		ingest.WithLogger(logger),
		ingest.WithFilter(filter),
		ingest.WithWorkers(cfg.Ingest.Workers),
		ingest.WithLegacy(cfg.Ingest.Legacy),
		ingest.WithChangedOnly(cfg.Ingest.ChangedOnly),
	}
	var svcOpts []noteservice.Option

	if cfg.Ledger.Path != "" {
		db, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("init ledger: %w", err)
		}
		c.Ledger = db
		ingestOpts = append(ingestOpts, ingest.WithLedger(db))
		svcOpts = append(svcOpts, noteservice.WithLedger(db))
	}

	if cfg.Notes.Path != "" {
		store, err := storage.NewFS(cfg.Notes.Path)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init notes dir: %w", err)
		}
		svcOpts = append(svcOpts, noteservice.WithStore(store))
	}

	c.Ingester = ingest.New(client, append(ingestOpts, extra...)...)
	svcOpts = append(svcOpts,
		noteservice.WithIngester(c.Ingester),
		noteservice.WithIngestRoots(cfg.Ingest.Patterns),
	)
	c.Service = noteservice.NewService(client, svcOpts...)
	return c, nil
}

// Close releases the ledger.
func (c *Components) Close() error {
	if c.Ledger == nil {
		return nil
	}
	return c.Ledger.Close()
}
