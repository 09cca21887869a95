package api

import (
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/ingest"
	"github.com/starford/notedex/internal/ledger"
)

// IngestRequest is the request body for POST /api/ingest.
type IngestRequest struct {
	Patterns []string `json:"patterns" example:"~/notes/**/*.md" validate:"required"`
}

// IngestResponse is the ingestion report (aliased from the ingest layer).
type IngestResponse = ingest.Report

// SearchResponse wraps search hits in their Storage JSON form.
type SearchResponse struct {
	Hits  []document.Document `json:"hits" validate:"required"`
	Count int                 `json:"count" example:"3" validate:"required"`
}

// FailedResponse lists files whose last submission failed.
type FailedResponse struct {
	Failed []ledger.Submission `json:"failed" validate:"required"`
}

// SavedNoteResponse is returned when a converted legacy note is stored.
type SavedNoteResponse struct {
	Path     string            `json:"path" example:"my-old-note.md" validate:"required"`
	Document document.Document `json:"document" validate:"required"`
}
