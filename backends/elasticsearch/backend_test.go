package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	te "github.com/kpn-digital/timeexecution"
)

// newServer fakes an Elasticsearch node answering index requests with status.
func newServer(t *testing.T, status int, handle func(r *http.Request, body []byte)) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if handle != nil {
			handle(r, body)
		}

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestBackendIndexesDailyDocument(t *testing.T) {
	var path string
	var doc map[string]interface{}
	server := newServer(t, http.StatusCreated, func(r *http.Request, body []byte) {
		path = r.URL.Path
		_ = json.Unmarshal(body, &doc)
	})

	b, err := New(Config{Addresses: []string{server.URL}, Index: "metrics"})
	require.NoError(t, err)
	b.now = func() time.Time { return time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("CET", 3600)) }

	err = b.Write(context.Background(), "pkg.hello", te.Fields{"value": int64(3), "hostname": "h"})
	require.NoError(t, err)

	assert.Equal(t, "/metrics-2024.03.01/_doc", path)
	assert.Equal(t, "pkg.hello", doc["name"])
	assert.Equal(t, 3.0, doc["value"])
	assert.Equal(t, "h", doc["hostname"])
	assert.Equal(t, "2024-03-01T22:30:00Z", doc["timestamp"])
}

func TestBackendReportsRejectedDocument(t *testing.T) {
	server := newServer(t, http.StatusBadRequest, nil)

	b, err := New(Config{Addresses: []string{server.URL}, Index: "metrics"})
	require.NoError(t, err)

	err = b.Write(context.Background(), "pkg.hello", te.Fields{"value": 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

func TestNewRequiresIndex(t *testing.T) {
	_, err := New(Config{Addresses: []string{"http://localhost:9200"}})
	assert.Error(t, err)
}
