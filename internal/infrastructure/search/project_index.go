// Package search keeps an Elasticsearch copy of the project feed for
// full-text lookup. The database stays the source of truth; the index is
// updated from broadcast events and may lag behind it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/project-feed/internal/domain/entity"
	"github.com/oksasatya/project-feed/internal/realtime"
)

const requestTimeout = 3 * time.Second

var ErrUnavailable = errors.New("search is not configured")

// Document is the indexed shape of a project.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Content     string    `json:"content"`
	ImageRef    string    `json:"imageRef"`
	CreatorID   string    `json:"creatorId"`
	CreatorName string    `json:"creatorName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func DocumentOf(p *entity.Project) Document {
	d := Document{
		ID:        p.ID,
		Name:      p.Name,
		Content:   p.Content,
		ImageRef:  p.ImageRef,
		CreatorID: p.CreatorID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Creator != nil {
		d.CreatorName = p.Creator.Name
	}
	return d
}

type ProjectIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewProjectIndex(es *elasticsearch.Client, index string) *ProjectIndex {
	return &ProjectIndex{ES: es, Index: index}
}

func (x *ProjectIndex) enabled() bool {
	return x != nil && x.ES != nil && x.Index != ""
}

func (x *ProjectIndex) Upsert(ctx context.Context, p *entity.Project) error {
	if !x.enabled() {
		return ErrUnavailable
	}
	b, err := json.Marshal(DocumentOf(p))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.Index, DocumentID: p.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// Delete removes a document. A missing document is not an error.
func (x *ProjectIndex) Delete(ctx context.Context, id string) error {
	if !x.enabled() {
		return ErrUnavailable
	}
	req := esapi.DeleteRequest{Index: x.Index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete: %s", res.Status())
	}
	return nil
}

// Search performs a multi_match query on name and content.
func (x *ProjectIndex) Search(ctx context.Context, q string, size int) ([]Document, error) {
	if !x.enabled() {
		return nil, ErrUnavailable
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "content", "creatorName"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.Index), x.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return []Document{}, nil
		}
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]Document, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

// Apply mirrors one broadcast event into the index.
func (x *ProjectIndex) Apply(ctx context.Context, ev realtime.Event) error {
	switch ev.Action {
	case realtime.ActionCreate, realtime.ActionUpdate:
		p, ok := ev.Project.(*entity.Project)
		if !ok {
			return fmt.Errorf("unexpected %s payload %T", ev.Action, ev.Project)
		}
		return x.Upsert(ctx, p)
	case realtime.ActionDelete:
		id, ok := ev.Project.(string)
		if !ok {
			return fmt.Errorf("unexpected delete payload %T", ev.Project)
		}
		return x.Delete(ctx, id)
	}
	return fmt.Errorf("unknown action %q", ev.Action)
}
