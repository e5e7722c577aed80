// Package search mirrors account profiles into Elasticsearch so the
// rest of the platform can search members by name or email. Indexing is
// best effort; failures are logged and never surface to the caller.
package search

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/sharecycle/accounts/internal/domain/entity"
)

type Indexer struct {
	ES     *elasticsearch.Client
	IndexName string
	Logger *logrus.Logger
}

func NewIndexer(es *elasticsearch.Client, index string, logger *logrus.Logger) *Indexer {
	return &Indexer{ES: es, IndexName: index, Logger: logger}
}

func (i *Indexer) Index(ctx context.Context, a *entity.Account) error {
	if i == nil || i.ES == nil || i.IndexName == "" {
		return nil
	}
	doc := map[string]any{
		"id":           a.ID,
		"email":        a.Email,
		"display_name": a.DisplayName,
		"language":     a.Language,
		"photo_path":   a.PhotoPath,
		"created_at":   a.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   a.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: i.IndexName, DocumentID: a.ID, Body: strings.NewReader(string(b)), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.ES)
	if err != nil {
		if i.Logger != nil {
			i.Logger.WithError(err).WithField("account_id", a.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && i.Logger != nil {
		i.Logger.WithField("status", res.Status()).WithField("account_id", a.ID).Warn("es index response error")
	}
	return nil
}

// Remove drops a profile document, part of the deletion scrub.
func (i *Indexer) Remove(ctx context.Context, accountID string) error {
	if i == nil || i.ES == nil || i.IndexName == "" {
		return nil
	}
	req := esapi.DeleteRequest{Index: i.IndexName, DocumentID: accountID}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.ES)
	if err != nil {
		if i.Logger != nil {
			i.Logger.WithError(err).WithField("account_id", accountID).Warn("es delete failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	return nil
}

// Search performs a simple multi_match query on email and display name.
func (i *Indexer) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if i == nil || i.ES == nil || i.IndexName == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "display_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := i.ES.Search(
		i.ES.Search.WithContext(c),
		i.ES.Search.WithIndex(i.IndexName),
		i.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
