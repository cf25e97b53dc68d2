// Package elasticsearch provides a backend indexing every metric as a JSON document.
//
// Documents are written to daily indices named after the configured prefix and the UTC date of
// the write, like "metrics-2024.03.01", so retention can be managed by dropping whole indices.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	te "github.com/kpn-digital/timeexecution"
)

// TimestampField holds the UTC time at which a document was written.
const TimestampField = "timestamp"

// Config describes the Elasticsearch cluster and the index prefix.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// Backend indexes metrics into Elasticsearch.
type Backend struct {
	client *elasticsearch.Client
	index  string
	now    func() time.Time
}

// New creates a backend for the configured cluster.
func New(cfg Config) (*Backend, error) {
	if cfg.Index == "" {
		return nil, fmt.Errorf("elasticsearch: missing index prefix")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: error creating client: err=%w", err)
	}

	return &Backend{client: client, index: cfg.Index, now: time.Now}, nil
}

// Write indexes the metric with its name and a timestamp.
func (b *Backend) Write(ctx context.Context, name string, fields te.Fields) error {
	now := b.now().UTC()

	doc := fields.Clone()
	doc[te.NameField] = name
	doc[TimestampField] = now.Format(time.RFC3339Nano)

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch: error encoding document: metric=%s err=%w", name, err)
	}

	index := b.indexFor(now)

	res, err := b.client.Index(index, bytes.NewReader(body), b.client.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: error indexing document: index=%s err=%w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("elasticsearch: index request rejected: index=%s status=%d body=%s", index, res.StatusCode, detail)
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, res.Body)

	return nil
}

// indexFor names the daily index receiving documents written at t.
func (b *Backend) indexFor(t time.Time) string {
	return fmt.Sprintf("%s-%s", b.index, t.Format("2006.01.02"))
}

func (b *Backend) String() string {
	return "elasticsearch"
}
