// internal/catalog/search.go
package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/meilisearch/meilisearch-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Searcher is an optional full-text search backend for the catalog. The
// repository's ILIKE scan remains the source of truth when no backend is
// configured or when it is unreachable.
type Searcher interface {
	IndexBook(ctx context.Context, book Book) error
	RemoveBook(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string) ([]Book, error)
}

const booksIndex = "books"

// MeilisearchSearcher indexes books into a Meilisearch instance.
type MeilisearchSearcher struct {
	index meilisearch.IndexManager
}

func NewMeilisearchSearcher(url, apiKey string) *MeilisearchSearcher {
	client := meilisearch.New(url, meilisearch.WithAPIKey(apiKey))
	return &MeilisearchSearcher{index: client.Index(booksIndex)}
}

func (m *MeilisearchSearcher) IndexBook(ctx context.Context, book Book) error {
	primaryKey := "id"
	if _, err := m.index.AddDocumentsWithContext(ctx, []Book{book}, &primaryKey); err != nil {
		return fmt.Errorf("failed to index book: %w", err)
	}
	return nil
}

func (m *MeilisearchSearcher) RemoveBook(ctx context.Context, id uuid.UUID) error {
	if _, err := m.index.DeleteDocumentWithContext(ctx, id.String()); err != nil {
		return fmt.Errorf("failed to delete book from index: %w", err)
	}
	return nil
}

func (m *MeilisearchSearcher) Search(ctx context.Context, query string) ([]Book, error) {
	res, err := m.index.SearchWithContext(ctx, query, &meilisearch.SearchRequest{Limit: 100})
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	books := make([]Book, 0, len(res.Hits))
	for _, hit := range res.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal search hit: %w", err)
		}
		var book Book
		if err := json.Unmarshal(raw, &book); err != nil {
			return nil, fmt.Errorf("failed to decode search hit: %w", err)
		}
		books = append(books, book)
	}
	return books, nil
}
