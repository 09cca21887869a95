// Package ingest reads note files, turns them into documents and submits
// them to the search service, one file at a time with bounded concurrency.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/notedex/internal/discovery"
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/identity"
	"github.com/starford/notedex/internal/ledger"
	"github.com/starford/notedex/internal/legacy"
	"github.com/starford/notedex/internal/search"
)

// Event kinds passed to the event callback.
const (
	EventSubmitted = "submitted"
	EventSkipped   = "skipped"
	EventFailed    = "failed"
)

// Event describes the outcome for one file.
type Event struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	DocID string `json:"doc_id,omitempty"`
	Title string `json:"title,omitempty"`
	Error string `json:"error,omitempty"`
}

// EventCallback is called once per processed file. It may be called from
// several goroutines at once.
type EventCallback func(Event)

// Failure is a file that could not be submitted.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report summarizes a run.
type Report struct {
	Submitted int       `json:"submitted"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures"`
}

// DefaultWorkers bounds concurrent file processing when no option sets it.
const DefaultWorkers = 4

// Ingester submits note files to a search client.
type Ingester struct {
	client      search.Client
	ledger      ledger.Ledger
	ids         identity.Generator
	logger      *slog.Logger
	filter      *discovery.Filter
	workers     int
	legacy      bool
	changedOnly bool
	debounce    time.Duration
	onEvent     EventCallback
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLedger records every outcome in l.
func WithLedger(l ledger.Ledger) Option {
	return func(in *Ingester) { in.ledger = l }
}

// WithIdentity sets the generator for documents without an id.
func WithIdentity(g identity.Generator) Option {
	return func(in *Ingester) { in.ids = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Ingester) { in.logger = l }
}

// WithFilter sets the include/exclude rules applied by Watch.
func WithFilter(f *discovery.Filter) Option {
	return func(in *Ingester) { in.filter = f }
}

// WithWorkers bounds the number of files processed at once.
func WithWorkers(n int) Option {
	return func(in *Ingester) {
		if n > 0 {
			in.workers = n
		}
	}
}

// WithLegacy makes the Ingester read files in the legacy schema and convert
// them before submission.
func WithLegacy(on bool) Option {
	return func(in *Ingester) { in.legacy = on }
}

// WithChangedOnly skips files whose content matches the last successful
// submission recorded in the ledger.
func WithChangedOnly(on bool) Option {
	return func(in *Ingester) { in.changedOnly = on }
}

// WithDebounce sets how long Watch waits for writes to settle.
func WithDebounce(d time.Duration) Option {
	return func(in *Ingester) { in.debounce = d }
}

// WithEventCallback registers cb for per-file outcomes.
func WithEventCallback(cb EventCallback) Option {
	return func(in *Ingester) { in.onEvent = cb }
}

// New returns an Ingester submitting to client.
func New(client search.Client, opts ...Option) *Ingester {
	in := &Ingester{
		client:   client,
		workers:  DefaultWorkers,
		debounce: 250 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.ids = identity.OrDefault(in.ids)
	return in
}

// Run processes paths and reports the outcome. A failing file is logged,
// recorded and counted; it never stops the batch. The returned error is
// non-nil only when ctx is cancelled.
func (in *Ingester) Run(ctx context.Context, paths []string) (Report, error) {
	var (
		mu  sync.Mutex
		rep = Report{Failures: []Failure{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)
	for _, p := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ev := in.processFile(gctx, p)
			mu.Lock()
			switch ev.Kind {
			case EventSubmitted:
				rep.Submitted++
			case EventSkipped:
				rep.Skipped++
			case EventFailed:
				rep.Failed++
				rep.Failures = append(rep.Failures, Failure{Path: ev.Path, Error: ev.Error})
			}
			mu.Unlock()
			if in.onEvent != nil {
				in.onEvent(ev)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(rep.Failures, func(i, j int) bool { return rep.Failures[i].Path < rep.Failures[j].Path })
	in.logger.Info("ingest: done",
		slog.Int("submitted", rep.Submitted),
		slog.Int("skipped", rep.Skipped),
		slog.Int("failed", rep.Failed))
	return rep, ctx.Err()
}

func (in *Ingester) processFile(ctx context.Context, path string) Event {
	data, err := os.ReadFile(path)
	if err != nil {
		return in.fail(path, "", err)
	}
	sum := digest(data)

	if in.changedOnly && in.ledger != nil {
		prev, err := in.ledger.Checksum(path)
		if err != nil {
			in.logger.Warn("ingest: ledger lookup failed", slog.String("path", path), slog.String("error", err.Error()))
		} else if prev == sum {
			in.logger.Debug("ingest: unchanged", slog.String("path", path))
			return Event{Kind: EventSkipped, Path: path}
		}
	}

	doc, err := in.decode(path, data)
	if err != nil {
		return in.fail(path, sum, err)
	}
	if err := in.client.AddDocuments(ctx, []document.Document{*doc}); err != nil {
		return in.fail(path, sum, err)
	}
	if in.ledger != nil {
		if err := in.ledger.RecordSubmitted(path, sum, doc.ID); err != nil {
			in.logger.Warn("ingest: ledger write failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	in.logger.Debug("ingest: submitted", slog.String("path", path), slog.String("id", doc.ID))
	return Event{Kind: EventSubmitted, Path: path, DocID: doc.ID, Title: doc.Title}
}

// decode parses data as a current note or, in legacy mode, converts it.
// A current note without an id reuses the id last submitted for the same
// path so that re-ingestion updates the search entry in place.
func (in *Ingester) decode(path string, data []byte) (*document.Document, error) {
	if in.legacy {
		return legacy.ConvertFile(path, data, in.ids)
	}
	ids := in.ids
	if in.ledger != nil {
		if prev, err := in.ledger.DocID(path); err == nil && prev != "" {
			ids = identity.GeneratorFunc(func() string { return prev })
		}
	}
	return document.ParseFile(path, data, ids)
}

func (in *Ingester) fail(path, sum string, err error) Event {
	in.logger.Warn("ingest: failed", slog.String("path", path), slog.String("error", err.Error()))
	if in.ledger != nil {
		if lerr := in.ledger.RecordFailed(path, sum, err); lerr != nil {
			in.logger.Warn("ingest: ledger write failed", slog.String("path", path), slog.String("error", lerr.Error()))
		}
	}
	return Event{Kind: EventFailed, Path: path, Error: err.Error()}
}

// Paths resolves patterns into the files Run should process, applying the
// Ingester's filter.
func (in *Ingester) Paths(patterns []string) ([]string, error) {
	files, err := discovery.Glob(patterns, in.filter)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	return files, nil
}

// digest is the content checksum stored in the ledger.
func digest(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}
