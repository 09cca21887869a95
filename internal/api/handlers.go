package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/discovery"
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/noteservice"
	"github.com/starford/notedex/internal/search"
)

const maxNoteBytes = 10 << 20

// Output formats accepted by the render endpoints.
const (
	formatText = "text"
	formatJSON = "json"
	formatHTML = "html"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// renderParams reads ?mode= and ?format=. html is only meaningful for the
// human projection.
func renderParams(r *http.Request) (document.Mode, string, error) {
	q := r.URL.Query()
	mode := document.ModeStorage
	if s := q.Get("mode"); s != "" {
		m, err := document.ParseMode(s)
		if err != nil {
			return 0, "", err
		}
		mode = m
	}
	format := strings.ToLower(q.Get("format"))
	switch format {
	case "":
		format = formatText
	case formatText, formatJSON:
	case formatHTML:
		if mode != document.ModeHuman {
			return 0, "", errors.New("format html requires mode human")
		}
	default:
		return 0, "", errors.New("format must be text, json or html")
	}
	return mode, format, nil
}

func readNote(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNoteBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return nil, false
	}
	if len(raw) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("note body is required"))
		return nil, false
	}
	return raw, true
}

func (h *Handler) writeDocument(w http.ResponseWriter, d *document.Document, format string) {
	switch format {
	case formatJSON:
		writeJSON(w, http.StatusOK, d)
	case formatHTML:
		html, err := renderHTML(d.Body)
		if err != nil {
			h.fail(w, "render html", err)
			return
		}
		writeText(w, "text/html", html)
	default:
		text, err := d.Render()
		if err != nil {
			h.fail(w, "render", err)
			return
		}
		contentType := "text/plain"
		if d.Mode == document.ModeHuman {
			contentType = "text/markdown"
		}
		writeText(w, contentType, text)
	}
}

// Render handles POST /api/render.
//
//	@Summary		Parse a note and render it in the requested mode
//	@Tags			notes
//	@Accept			plain
//	@Produce		plain,json,html
//	@Param			mode	query		string	false	"Projection"	Enums(storage, disk, human)
//	@Param			format	query		string	false	"Output format"	Enums(text, json, html)
//	@Success		200		{string}	string
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	mode, format, err := renderParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	raw, ok := readNote(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Render(raw, mode)
	if err != nil {
		h.fail(w, "render", err)
		return
	}
	h.writeDocument(w, d, format)
}

// ConvertLegacy handles POST /api/legacy/convert. With ?save=true the
// converted note is also written to the note directory.
//
//	@Summary		Convert a legacy note to the current schema
//	@Tags			notes
//	@Accept			plain
//	@Produce		plain,json,html
//	@Param			mode	query		string	false	"Projection"	Enums(storage, disk, human)
//	@Param			format	query		string	false	"Output format"	Enums(text, json, html)
//	@Param			save	query		bool	false	"Store the converted note"
//	@Success		200		{string}	string
//	@Success		201		{object}	SavedNoteResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/legacy/convert [post]
func (h *Handler) ConvertLegacy(w http.ResponseWriter, r *http.Request) {
	mode, format, err := renderParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	raw, ok := readNote(w, r)
	if !ok {
		return
	}

	if save, _ := strconv.ParseBool(r.URL.Query().Get("save")); save {
		overwrite, _ := strconv.ParseBool(r.URL.Query().Get("overwrite"))
		path, d, err := h.svc.SaveLegacy(raw, overwrite)
		if err != nil {
			h.fail(w, "save legacy", err)
			return
		}
		writeJSON(w, http.StatusCreated, SavedNoteResponse{Path: path, Document: *d})
		return
	}

	d, err := h.svc.ConvertLegacy(raw, mode)
	if err != nil {
		h.fail(w, "convert legacy", err)
		return
	}
	h.writeDocument(w, d, format)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search with an optional filter expression
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	false	"Search query"
//	@Param			filter	query		string	false	"Filter expression, e.g. vim | !bash"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	hits, err := h.svc.Search(r.Context(), search.Query{
		Query:  q.Get("q"),
		Filter: q.Get("filter"),
		Limit:  limit,
	})
	if err != nil {
		h.fail(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Hits: hits, Count: len(hits)})
}

// Ingest handles POST /api/ingest.
//
//	@Summary		Submit the note files matching the given patterns
//	@Description	Patterns must resolve below the configured ingest.patterns roots.
//	@Tags			ingest
//	@Accept			json
//	@Produce		json
//	@Param			body	body		IngestRequest	true	"Glob patterns"
//	@Success		200		{object}	IngestResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ingest [post]
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Patterns) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("patterns are required"))
		return
	}
	rep, err := h.svc.IngestWithinRoots(r.Context(), req.Patterns)
	if err != nil {
		h.fail(w, "ingest", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Failed handles GET /api/ingest/failed.
//
//	@Summary		List files whose last submission failed
//	@Tags			ingest
//	@Produce		json
//	@Success		200	{object}	FailedResponse
//	@Security		BearerAuth
//	@Router			/ingest/failed [get]
func (h *Handler) Failed(w http.ResponseWriter, r *http.Request) {
	failed, err := h.svc.Failed()
	if err != nil {
		h.fail(w, "failed", err)
		return
	}
	writeJSON(w, http.StatusOK, FailedResponse{Failed: failed})
}

// fail maps service errors to status codes. Unexpected errors are logged
// and hidden from the client.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case noteservice.IsDocumentError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, search.ErrBadFilter):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, discovery.ErrOutsideRoots):
		writeJSON(w, http.StatusBadRequest, errorBody(discovery.ErrOutsideRoots.Error()))
	case errors.Is(err, os.ErrExist):
		writeJSON(w, http.StatusConflict, errorBody("note already exists"))
	case errors.Is(err, noteservice.ErrDisabled):
		writeJSON(w, http.StatusNotImplemented, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUnavailable), errors.Is(err, apperr.ErrRejected):
		slog.Warn(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("search backend unavailable"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
