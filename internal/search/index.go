package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meilisearch/meilisearch-go"
	"github.com/shopspring/decimal"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/logger"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
	"github.com/tranbinhminh1403/back-end-thesis/internal/normalize"
)

const (
	batchSize    = 1000
	defaultLimit = 20
	maxLimit     = 100
)

// ErrUnavailable means the search server could not be reached.
var ErrUnavailable = errors.New("search index unavailable")

// Query is a full-text lookup. Empty slices and nil bounds are ignored.
type Query struct {
	Text     string
	Brands   []string
	Shops    []string
	Statuses []string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
}

// Result is one page of hits with facet counts over all matches.
type Result struct {
	Hits             []Document                  `json:"hits"`
	Total            int64                       `json:"total"`
	ProcessingTimeMs int64                       `json:"processingTimeMs"`
	Facets           map[string]map[string]int64 `json:"facets"`
}

// Source lists the products that belong in the index.
type Source interface {
	Searchable(ctx context.Context) ([]models.Product, error)
}

// backend is the slice of the meilisearch API the index drives.
type backend interface {
	healthy() bool
	recreate(uid string) error
	configure(uid string, settings *meilisearch.Settings) error
	add(uid string, docs []Document) error
	search(uid, text string, req *meilisearch.SearchRequest) (*meilisearch.SearchResponse, error)
}

type meiliBackend struct {
	client meilisearch.ServiceManager
}

func (m meiliBackend) healthy() bool { return m.client.IsHealthy() }

func (m meiliBackend) recreate(uid string) error {
	_, _ = m.client.DeleteIndex(uid)
	_, err := m.client.CreateIndex(&meilisearch.IndexConfig{Uid: uid, PrimaryKey: "id"})
	return err
}

func (m meiliBackend) configure(uid string, settings *meilisearch.Settings) error {
	_, err := m.client.Index(uid).UpdateSettings(settings)
	return err
}

func (m meiliBackend) add(uid string, docs []Document) error {
	_, err := m.client.Index(uid).AddDocuments(docs, nil)
	return err
}

func (m meiliBackend) search(uid, text string, req *meilisearch.SearchRequest) (*meilisearch.SearchResponse, error) {
	return m.client.Index(uid).Search(text, req)
}

// Index is the product index on a meilisearch server.
type Index struct {
	backend    backend
	uid        string
	normalizer *normalize.Normalizer
	log        *logger.Logger
}

// New connects to the meilisearch server at url.
func New(url, apiKey, uid string, log *logger.Logger) *Index {
	client := meilisearch.New(url, meilisearch.WithAPIKey(apiKey))
	return newIndex(meiliBackend{client: client}, uid, log)
}

func newIndex(b backend, uid string, log *logger.Logger) *Index {
	if log == nil {
		log = logger.Discard()
	}
	return &Index{backend: b, uid: uid, normalizer: normalize.Default, log: log}
}

// Healthy reports whether the server answers.
func (ix *Index) Healthy() bool { return ix.backend.healthy() }

// Configure applies searchable, filterable and sortable attributes.
func (ix *Index) Configure() error {
	err := ix.backend.configure(ix.uid, &meilisearch.Settings{
		SearchableAttributes: searchableAttributes,
		FilterableAttributes: filterableAttributes,
		SortableAttributes:   sortableAttributes,
	})
	if err != nil {
		return fmt.Errorf("configure index %s: %w", ix.uid, err)
	}
	return nil
}

// Rebuild drops the index and refills it from src in batches. It returns the
// number of documents sent.
func (ix *Index) Rebuild(ctx context.Context, src Source) (int, error) {
	products, err := src.Searchable(ctx)
	if err != nil {
		return 0, err
	}

	if err := ix.backend.recreate(ix.uid); err != nil {
		ix.log.Warn("could not create index %s: %v", ix.uid, err)
	}
	if err := ix.Configure(); err != nil {
		ix.log.Warn("%v", err)
	}

	indexed := 0
	for start := 0; start < len(products); start += batchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		end := min(start+batchSize, len(products))
		docs := make([]Document, 0, end-start)
		for _, p := range products[start:end] {
			docs = append(docs, NewDocument(p, ix.normalizer))
		}
		if err := ix.backend.add(ix.uid, docs); err != nil {
			return indexed, fmt.Errorf("add documents %d-%d: %w", start, end, err)
		}
		indexed += len(docs)
		ix.log.Debug("indexed %d/%d products", indexed, len(products))
	}
	ix.log.Info("index %s rebuilt with %d products", ix.uid, indexed)
	return indexed, nil
}

// Search runs a full-text query. An empty result is not an error.
func (ix *Index) Search(ctx context.Context, q Query) (Result, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return Result{}, catalog.InvalidInput("minPrice %s is greater than maxPrice %s", q.MinPrice, q.MaxPrice)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	req := &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Offset: int64(max(q.Offset, 0)),
		Facets: facets,
	}
	if filter := BuildFilter(q); filter != "" {
		req.Filter = filter
	}

	res, err := ix.backend.search(ix.uid, q.Text, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decodeResponse(res)
}

func decodeResponse(res *meilisearch.SearchResponse) (Result, error) {
	out := Result{Hits: []Document{}, Facets: map[string]map[string]int64{}}
	b, err := json.Marshal(res.Hits)
	if err != nil {
		return out, fmt.Errorf("encode hits: %w", err)
	}
	if err := json.Unmarshal(b, &out.Hits); err != nil {
		return out, fmt.Errorf("decode hits: %w", err)
	}
	if out.Hits == nil {
		out.Hits = []Document{}
	}
	if res.EstimatedTotalHits > 0 {
		out.Total = res.EstimatedTotalHits
	} else {
		out.Total = int64(len(out.Hits))
	}
	out.ProcessingTimeMs = res.ProcessingTimeMs
	if res.FacetDistribution != nil {
		fb, err := json.Marshal(res.FacetDistribution)
		if err == nil {
			_ = json.Unmarshal(fb, &out.Facets)
		}
	}
	return out, nil
}
