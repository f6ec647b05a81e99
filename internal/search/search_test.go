package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/config"
)

// newTestClient points a Client at handler. Every response carries the product
// header the Elasticsearch client checks for.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(&config.Config{SearchURL: server.URL}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestSearch_ReturnsSourcesInOrder(t *testing.T) {
	var gotPath string
	var gotQuery map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"took": 3,
			"hits": {
				"total": {"value": 2},
				"max_score": 1.5,
				"hits": [
					{"_id": "b", "_score": 1.5, "_source": {"id": "b", "title": "Second"}},
					{"_id": "a", "_score": 0.7, "_source": {"id": "a", "title": "First"}}
				]
			}
		}`)
	})

	sources, err := client.Search(context.Background(), "heritages", "mosaic")
	require.NoError(t, err)

	assert.Equal(t, "/heritages/_search", gotPath)
	assert.Equal(t, "mosaic", gotQuery["query"].(map[string]interface{})["query_string"].(map[string]interface{})["query"])

	require.Len(t, sources, 2)
	assert.JSONEq(t, `{"id": "b", "title": "Second"}`, string(sources[0]))
	assert.JSONEq(t, `{"id": "a", "title": "First"}`, string(sources[1]))
}

func TestSearch_NoHitsIsEmptySlice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits": {"hits": []}}`)
	})

	sources, err := client.Search(context.Background(), "annotations", "nothing")
	require.NoError(t, err)

	data, err := json.Marshal(sources)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSearch_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Search(context.Background(), "heritages", "mosaic")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSearch_Unreachable(t *testing.T) {
	client, err := NewClient(&config.Config{SearchURL: "http://127.0.0.1:1"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "heritages", "mosaic")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(&config.Config{SearchURL: "://no-scheme"}, zap.NewNop())
	assert.Error(t, err)
}

func TestIndex_PutsDocument(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	})

	err := client.Index(context.Background(), "heritages", "h-1", map[string]string{"title": "Hagia Sophia"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/heritages/_doc/h-1", gotPath)
	assert.Equal(t, "Hagia Sophia", gotBody["title"])
}

func TestRemove_MissingDocumentIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})

	assert.NoError(t, client.Remove(context.Background(), "annotations", "gone"))
}

func TestRemove_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.ErrorIs(t, client.Remove(context.Background(), "annotations", "a-1"), ErrUnavailable)
}

func TestIndex_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"mapper_parsing_exception"},"status":400}`)
	})

	err := client.Index(context.Background(), "heritages", "h-1", map[string]string{"title": "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSearch_KeepsHitsWithoutSource(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"hits":{"hits":[{"_id":"x"},{"_id":"y","_source":{"id":"y"}}]}}`)
	})

	sources, err := client.Search(context.Background(), "heritages", "mosaic")
	require.NoError(t, err)

	data, err := json.Marshal(sources)
	require.NoError(t, err)
	assert.JSONEq(t, `[null,{"id":"y"}]`, string(data))
}

func TestResponse_SourcesKeepsEveryHit(t *testing.T) {
	var r Response
	require.NoError(t, json.Unmarshal([]byte(`{"hits":{"hits":[{"_id":"x"},{"_source":{"id":"y"}},{"_source":null}]}}`), &r))

	sources := r.Sources()
	require.Len(t, sources, 3)
	assert.Equal(t, "null", string(sources[0]))
	assert.JSONEq(t, `{"id":"y"}`, string(sources[1]))
	assert.Equal(t, "null", string(sources[2]))
}
