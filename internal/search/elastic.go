package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/starford/notedex/internal/apperr"
	"github.com/starford/notedex/internal/document"
)

// Elastic indexes documents in Elasticsearch, one per id.
type Elastic struct {
	es      *elasticsearch.Client
	index   string
	timeout time.Duration
}

// NewElastic returns an Elasticsearch client for cfg.URL.
func NewElastic(cfg Config) (*Elastic, error) {
	addr := cfg.URL
	if addr == "" {
		addr = "http://127.0.0.1:9200"
	}
	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
		Transport: apiKeyTransport{key: cfg.APIKey, next: http.DefaultTransport},
	})
	if err != nil {
		return nil, fmt.Errorf("search: elastic: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Elastic{es: es, index: index, timeout: timeout}, nil
}

func (e *Elastic) AddDocuments(ctx context.Context, docs []document.Document) error {
	for _, d := range storageForm(docs) {
		payload, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("search: elastic: encode %s: %w", d.ID, err)
		}
		if err := e.indexOne(ctx, d.ID, payload); err != nil {
			return err
		}
	}
	return nil
}

func (e *Elastic) indexOne(ctx context.Context, id string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	res, err := e.es.Index(e.index, bytes.NewReader(payload),
		e.es.Index.WithDocumentID(id),
		e.es.Index.WithContext(ctx),
	)
	if err := check(res, err); err != nil {
		return fmt.Errorf("search: elastic: index %s: %w", id, err)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return res.Body.Close()
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source document.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *Elastic) Search(ctx context.Context, q Query) ([]document.Document, error) {
	body, err := e.searchBody(q)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err := check(res, err); err != nil {
		return nil, fmt.Errorf("search: elastic: %w", err)
	}
	defer res.Body.Close()

	var out esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search: elastic: decode hits: %w", err)
	}
	docs := make([]document.Document, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}

func (e *Elastic) searchBody(q Query) ([]byte, error) {
	f, err := ParseFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	var match map[string]any
	if q.Query == "" {
		match = map[string]any{"match_all": map[string]any{}}
	} else {
		match = map[string]any{"multi_match": map[string]any{
			"query":  q.Query,
			"fields": []string{"title^3", "subtitle^2", "tags^2", "body"},
		}}
	}
	boolQuery := map[string]any{"must": []any{match}}
	if ef := f.Elastic(); ef != nil {
		boolQuery["filter"] = []any{ef}
	}
	body, err := json.Marshal(map[string]any{
		"size":  q.limit(),
		"query": map[string]any{"bool": boolQuery},
	})
	if err != nil {
		return nil, fmt.Errorf("search: elastic: encode query: %w", err)
	}
	return body, nil
}

// check folds transport errors and error responses into ErrUnavailable.
// On error the response body is drained and closed.
func check(res *esapi.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
	}
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		res.Body.Close()
		return fmt.Errorf("%w: %s: %s", apperr.ErrUnavailable, res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}

// apiKeyTransport adds an ApiKey authorization header when a key is set.
type apiKeyTransport struct {
	key  string
	next http.RoundTripper
}

func (t apiKeyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if t.key != "" {
		r = r.Clone(r.Context())
		r.Header.Set("Authorization", "ApiKey "+t.key)
	}
	return t.next.RoundTrip(r)
}
