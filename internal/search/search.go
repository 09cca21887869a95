// Package search submits documents to a full-text search service and
// queries it back. Two backends are supported: Meilisearch over its HTTP
// API and Elasticsearch through the official client.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/notedex/internal/document"
)

// Backend names accepted by New.
const (
	BackendMeili   = "meilisearch"
	BackendElastic = "elasticsearch"
)

// Client defaults for unset Config fields.
const (
	DefaultIndex   = "notes"
	DefaultTimeout = 10 * time.Second
	// DefaultTaskPoll is the Meilisearch task polling interval.
	DefaultTaskPoll = 100 * time.Millisecond
)

// PrimaryKey is the document field the search index is keyed by.
const PrimaryKey = "id"

// DefaultLimit is used when a query sets no positive limit.
const DefaultLimit = 20

// Query is a full-text query with an optional filter expression
// (see ParseFilter).
type Query struct {
	Query  string `json:"q"`
	Filter string `json:"filter,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Client is the search collaborator used by ingestion and lookup.
type Client interface {
	// AddDocuments submits docs in their Storage JSON form.
	AddDocuments(ctx context.Context, docs []document.Document) error
	// Search returns matching documents in relevance order.
	Search(ctx context.Context, q Query) ([]document.Document, error)
}

// Config selects and addresses a backend.
type Config struct {
	Backend string
	URL     string
	Index   string
	APIKey  string
	Timeout time.Duration
}

// New returns the Client for cfg.Backend.
func New(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMeili, "meili":
		return NewMeili(cfg), nil
	case BackendElastic, "elastic":
		return NewElastic(cfg)
	default:
		return nil, fmt.Errorf("search: unknown backend %q", cfg.Backend)
	}
}

// storageForm returns copies of docs in Storage mode, the shape both
// backends index.
func storageForm(docs []document.Document) []document.Document {
	out := make([]document.Document, len(docs))
	for i, d := range docs {
		out[i] = d.WithMode(document.ModeStorage)
	}
	return out
}
