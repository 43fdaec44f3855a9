package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"tessera/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Client indexes catalog events into Elasticsearch and serves full-text
// event search. Postgres stays the source of truth; this index is a search
// projection only.
type Client struct {
	es    *elasticsearch.Client
	index string
}

type Config struct {
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
}

func NewClient(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &Client{es: es, index: cfg.Index}

	if err := client.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

func (c *Client) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{Index: []string{c.index}}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.index)
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":   map[string]interface{}{"type": "keyword"},
				"name": map[string]interface{}{
					"type":     "text",
					"analyzer": "english",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type":         "keyword",
							"ignore_above": 256,
						},
					},
				},
				"description": map[string]interface{}{
					"type":     "text",
					"analyzer": "english",
				},
				"starts_at": map[string]interface{}{
					"type":   "date",
					"format": "strict_date_optional_time||epoch_millis",
				},
				"sale_starts_at": map[string]interface{}{
					"type":   "date",
					"format": "strict_date_optional_time||epoch_millis",
				},
				"published": map[string]interface{}{"type": "boolean"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.index,
		Body:  bytes.NewReader(body),
	}

	createRes, err := createReq.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("index creation returned %s", createRes.Status())
	}

	slog.Info("Created Elasticsearch index", "index", c.index)
	return nil
}

// IndexEvent upserts one event document. Called after the Postgres write
// commits; failures are the caller's to log, not to fail the request on.
func (c *Client) IndexEvent(ctx context.Context, event *models.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: event.ID.String(),
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("failed to index event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing event returned %s", res.Status())
	}

	return nil
}

// SearchEvents runs a full-text query over name and description,
// optionally narrowed to a start date (YYYY-MM-DD), and returns matching
// events ordered by relevance.
func (c *Client) SearchEvents(ctx context.Context, query, date string, page, pageSize int) ([]models.Event, error) {
	must := []interface{}{
		map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^2", "description"},
			},
		},
	}

	filter := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"published": true}},
	}
	if date != "" {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"starts_at": map[string]interface{}{
					"gte":    date,
					"lt":     date + "||+1d",
					"format": "yyyy-MM-dd",
				},
			},
		})
	}

	searchBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"from": (page - 1) * pageSize,
		"size": pageSize,
	}

	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("event search returned %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	events := make([]models.Event, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		events = append(events, hit.Source)
	}

	return events, nil
}
