// Package search talks to the external full-text search service. Only the
// `hits.hits[]._source` part of a search response is consumed.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/config"
)

// ErrUnavailable is returned when the search service fails or answers with an error status.
var ErrUnavailable = errors.New("search service unavailable")

// Searcher is the contract the handlers rely on.
type Searcher interface {
	// Search returns the _source payloads of the hits for keyword, in response order.
	Search(ctx context.Context, index, keyword string) ([]json.RawMessage, error)

	// Index stores doc under id so later searches can find it.
	Index(ctx context.Context, index, id string, doc any) error

	// Remove deletes the document stored under id. Missing documents are not an error.
	Remove(ctx context.Context, index, id string) error
}

// Response is the envelope returned by the search service.
type Response struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// Hit is a single search hit.
type Hit struct {
	Source json.RawMessage `json:"_source"`
}

// Sources extracts the _source payloads in order, one per hit. A hit stored
// without a source yields a JSON null. The result is never nil.
func (r *Response) Sources() []json.RawMessage {
	sources := make([]json.RawMessage, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		source := hit.Source
		if len(source) == 0 {
			source = json.RawMessage("null")
		}
		sources = append(sources, source)
	}
	return sources
}

// Client implements Searcher on the Elasticsearch client.
type Client struct {
	es     *elasticsearch.Client
	logger *zap.Logger
}

// NewClient creates a search client for the configured search URL.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  []string{cfg.SearchURL},
		MaxRetries: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	return &Client{
		es:     es,
		logger: logger,
	}, nil
}

// Search runs a query_string query for keyword against index.
func (c *Client) Search(ctx context.Context, index, keyword string) ([]json.RawMessage, error) {
	query := map[string]any{
		"query": map[string]any{
			"query_string": map[string]any{
				"query": keyword,
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}
	res, err := c.perform(ctx, req, index)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		c.logger.Warn("Search request failed",
			zap.String("index", index),
			zap.Int("status", res.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}

	var result Response
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrUnavailable, err)
	}

	sources := result.Sources()
	c.logger.Debug("Search completed",
		zap.String("index", index),
		zap.Int("hits", len(sources)),
	)
	return sources, nil
}

// Index stores doc under id in index.
func (c *Client) Index(ctx context.Context, index, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}
	res, err := c.perform(ctx, req, index)
	if err != nil {
		return err
	}
	defer drain(res)

	if res.IsError() {
		return fmt.Errorf("%w: index status %d", ErrUnavailable, res.StatusCode)
	}
	return nil
}

// Remove deletes the document stored under id in index.
func (c *Client) Remove(ctx context.Context, index, id string) error {
	req := esapi.DeleteRequest{
		Index:      index,
		DocumentID: id,
	}
	res, err := c.perform(ctx, req, index)
	if err != nil {
		return err
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("%w: delete status %d", ErrUnavailable, res.StatusCode)
	}
	return nil
}

func (c *Client) perform(ctx context.Context, req esapi.Request, index string) (*esapi.Response, error) {
	res, err := req.Do(ctx, c.es)
	if err != nil {
		c.logger.Warn("Search service unreachable", zap.String("index", index), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res, nil
}

func drain(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}
