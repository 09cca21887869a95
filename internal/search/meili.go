package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/document"
)

// Meili talks to a Meilisearch instance over its REST API.
type Meili struct {
	base    string
	index   string
	apiKey  string
	http    *http.Client
	timeout time.Duration
	// poll is the interval between task status checks.
	poll time.Duration
}

// NewMeili returns a Meilisearch client. Empty URL and index fall back to
// a local instance and the "notes" index.
func NewMeili(cfg Config) *Meili {
	base := strings.TrimRight(cfg.URL, "/")
	if base == "" {
		base = "http://127.0.0.1:7700"
	}
	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Meili{
		base:   base,
		index:  index,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		poll:    DefaultTaskPoll,
	}
}

// AddDocuments enqueues docs with id as the primary key and waits for the
// indexing task to finish. A failed task wraps apperr.ErrRejected.
func (m *Meili) AddDocuments(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	body, err := json.Marshal(storageForm(docs))
	if err != nil {
		return fmt.Errorf("search: meili: encode documents: %w", err)
	}
	path := "/indexes/" + url.PathEscape(m.index) + "/documents?primaryKey=" + PrimaryKey
	resp, err := m.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var task meiliTask
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return fmt.Errorf("search: meili: decode task: %w: %v", apperr.ErrUnavailable, err)
	}
	return m.wait(ctx, task.UID)
}

type meiliTask struct {
	UID    int64  `json:"taskUid"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// wait polls the task until it succeeds or fails, for at most the client
// timeout.
func (m *Meili) wait(ctx context.Context, uid int64) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	path := "/tasks/" + strconv.FormatInt(uid, 10)
	for {
		resp, err := m.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		var task meiliTask
		err = json.NewDecoder(resp.Body).Decode(&task)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("search: meili: decode task %d: %w: %v", uid, apperr.ErrUnavailable, err)
		}

		switch task.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			msg := task.Status
			if task.Error != nil {
				msg = task.Error.Code + ": " + task.Error.Message
			}
			return fmt.Errorf("search: meili: task %d: %w: %s", uid, apperr.ErrRejected, msg)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("search: meili: task %d still %s: %w: %v", uid, task.Status, apperr.ErrUnavailable, ctx.Err())
		case <-time.After(m.poll):
		}
	}
}

type meiliSearchRequest struct {
	Q      string `json:"q"`
	Filter string `json:"filter,omitempty"`
	Limit  int    `json:"limit"`
}

type meiliSearchResponse struct {
	Hits []document.Document `json:"hits"`
}

func (m *Meili) Search(ctx context.Context, q Query) ([]document.Document, error) {
	f, err := ParseFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(meiliSearchRequest{Q: q.Query, Filter: f.Meili(), Limit: q.limit()})
	if err != nil {
		return nil, fmt.Errorf("search: meili: encode query: %w", err)
	}
	resp, err := m.do(ctx, http.MethodPost, "/indexes/"+url.PathEscape(m.index)+"/search", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out meiliSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search: meili: decode hits: %w", err)
	}
	if out.Hits == nil {
		out.Hits = []document.Document{}
	}
	return out.Hits, nil
}

// do sends a request with an optional JSON body and returns the response
// when the status is 2xx.
func (m *Meili) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("search: meili: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: meili: %w: %v", apperr.ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("search: meili: %w: %s: %s", apperr.ErrUnavailable, resp.Status, bytes.TrimSpace(msg))
	}
	return resp, nil
}
