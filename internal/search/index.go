package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/stepup/internal/models"
)

var ErrUnavailable = errors.New("search index unavailable")

type ProductDoc struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Style       string `json:"style,omitempty"`
	Brand       string `json:"brand,omitempty"`
	IsActive    bool   `json:"is_active"`
}

func DocFromProduct(p *models.Product) ProductDoc {
	doc := ProductDoc{
		ID:          p.ID,
		Title:       p.Title,
		Subtitle:    p.Subtitle,
		Description: p.Description,
		Category:    p.Category,
		Style:       p.Style,
		IsActive:    p.IsActive,
	}
	if p.Brand != nil {
		doc.Brand = p.Brand.Name
	}
	return doc
}

type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func NewIndex(es *elasticsearch.Client, name string) *Index {
	return &Index{ES: es, Name: name}
}

func (x *Index) Put(ctx context.Context, p *models.Product) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(DocFromProduct(p)); err != nil {
		return fmt.Errorf("search: encode product %d: %w", p.ID, err)
	}

	res, err := x.ES.Index(
		x.Name,
		&buf,
		x.ES.Index.WithContext(ctx),
		x.ES.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("search: index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.StatusCode, res.Body)
	}
	return nil
}

func (x *Index) Delete(ctx context.Context, id uint) error {
	res, err := x.ES.Delete(
		x.Name,
		strconv.FormatUint(uint64(id), 10),
		x.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res.StatusCode, res.Body)
	}
	return nil
}

// Search returns the total hit count and the matching product ids in relevance order.
func (x *Index) Search(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"title^2", "subtitle", "description", "brand", "style"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"is_active": true},
				},
			},
		},
		"from":    from,
		"size":    size,
		"_source": []string{"id"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := x.ES.Search(
		x.ES.Search.WithContext(ctx),
		x.ES.Search.WithIndex(x.Name),
		x.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source ProductDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	ids := make([]uint, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		ids[i] = hit.Source.ID
	}
	return r.Hits.Total.Value, ids, nil
}

func responseError(op string, status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 1024))
	return fmt.Errorf("%w: %s returned %d: %s", ErrUnavailable, op, status, raw)
}
