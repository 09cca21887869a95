// Package noteservice holds the operations shared by the HTTP API and the
// MCP server: rendering notes, converting legacy notes, searching and
// triggering ingestion.
package noteservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/discovery"
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/identity"
	"github.com/starford/notedex/internal/ingest"
	"github.com/starford/notedex/internal/ledger"
	"github.com/starford/notedex/internal/legacy"
	"github.com/starford/notedex/internal/search"
	"github.com/starford/notedex/internal/storage"
)

// ErrDisabled is returned by operations whose collaborator is not configured.
var ErrDisabled = errors.New("not configured")

// Service coordinates the document core with its collaborators. Every
// collaborator except the search client is optional.
type Service struct {
	search   search.Client
	ingester *ingest.Ingester
	ledger   ledger.Ledger
	store    storage.Provider
	ids      identity.Generator
	roots    []string
}

// Option configures a Service.
type Option func(*Service)

// WithIngester enables Ingest.
func WithIngester(in *ingest.Ingester) Option {
	return func(s *Service) { s.ingester = in }
}

// WithIngestRoots sets the patterns whose roots bound IngestWithinRoots.
func WithIngestRoots(patterns []string) Option {
	return func(s *Service) { s.roots = patterns }
}

// WithLedger enables Failed.
func WithLedger(l ledger.Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

// WithStore enables SaveLegacy.
func WithStore(p storage.Provider) Option {
	return func(s *Service) { s.store = p }
}

// WithIdentity sets the id generator used for parsed and converted notes.
func WithIdentity(g identity.Generator) Option {
	return func(s *Service) { s.ids = g }
}

// NewService creates a service over the given search client.
func NewService(client search.Client, opts ...Option) *Service {
	s := &Service{search: client}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = identity.OrDefault(s.ids)
	return s
}

// Render parses a current-schema note and returns it in mode m.
func (s *Service) Render(raw []byte, m document.Mode) (*document.Document, error) {
	d, err := document.Parse(raw, s.ids)
	if err != nil {
		return nil, err
	}
	out := d.WithMode(m)
	return &out, nil
}

// ConvertLegacy parses a legacy note, converts it and returns it in mode m.
func (s *Service) ConvertLegacy(raw []byte, m document.Mode) (*document.Document, error) {
	rec, err := legacy.Parse(raw)
	if err != nil {
		return nil, err
	}
	d, err := legacy.Convert(*rec, s.ids)
	if err != nil {
		return nil, err
	}
	out := d.WithMode(m)
	return &out, nil
}

// SaveLegacy converts a legacy note and writes it as a note file. It
// returns the stored path and the converted document.
func (s *Service) SaveLegacy(raw []byte, overwrite bool) (string, *document.Document, error) {
	if s.store == nil {
		return "", nil, fmt.Errorf("noteservice: note store %w", ErrDisabled)
	}
	d, err := s.ConvertLegacy(raw, document.ModeStorage)
	if err != nil {
		return "", nil, err
	}
	path, err := s.store.WriteNote(*d, overwrite)
	if err != nil {
		return "", nil, err
	}
	return path, d, nil
}

// Search queries the search service. Hits are returned in Storage mode.
func (s *Service) Search(ctx context.Context, q search.Query) ([]document.Document, error) {
	if s.search == nil {
		return nil, fmt.Errorf("noteservice: search %w", ErrDisabled)
	}
	hits, err := s.search.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// Ingest submits the files matching patterns.
func (s *Service) Ingest(ctx context.Context, patterns []string) (ingest.Report, error) {
	if s.ingester == nil {
		return ingest.Report{}, fmt.Errorf("noteservice: ingestion %w", ErrDisabled)
	}
	paths, err := s.ingester.Paths(patterns)
	if err != nil {
		return ingest.Report{}, err
	}
	return s.ingester.Run(ctx, paths)
}

// IngestWithinRoots is Ingest for untrusted callers: every pattern must
// resolve below the roots of the configured ingest patterns. Violations wrap
// discovery.ErrOutsideRoots.
func (s *Service) IngestWithinRoots(ctx context.Context, patterns []string) (ingest.Report, error) {
	if s.ingester == nil || len(s.roots) == 0 {
		return ingest.Report{}, fmt.Errorf("noteservice: ingestion %w", ErrDisabled)
	}
	confined, err := discovery.Confine(patterns, s.roots)
	if err != nil {
		return ingest.Report{}, err
	}
	return s.Ingest(ctx, confined)
}

// Failed lists files whose last submission failed.
func (s *Service) Failed() ([]ledger.Submission, error) {
	if s.ledger == nil {
		return nil, fmt.Errorf("noteservice: ledger %w", ErrDisabled)
	}
	return s.ledger.Failed()
}

// IsDocumentError reports whether err is a per-note error: bad metadata,
// an unparsable date, a malformed tag list or a serialization failure.
func IsDocumentError(err error) bool {
	return errors.Is(err, apperr.ErrParse) ||
		errors.Is(err, apperr.ErrDateParse) ||
		errors.Is(err, apperr.ErrTagFormat) ||
		errors.Is(err, apperr.ErrSerialization)
}
