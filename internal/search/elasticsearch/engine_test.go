package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/search"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/pagination"
)

var _ search.Engine = (*Engine)(nil)

type recorded struct {
	Method string
	Path   string
	Body   string
}

// fakeCluster answers just enough of the REST API for the engine.
type fakeCluster struct {
	mu          sync.Mutex
	requests    []recorded
	indexExists bool
	handle      func(w http.ResponseWriter, r *http.Request, body string) bool
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if f.handle != nil && f.handle(w, r, string(body)) {
		return
	}

	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/products":
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/products":
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeCluster) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, f *fakeCluster) *Engine {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	eng, err := New(context.Background(), Config{URL: srv.URL, Index: "products"}, discardLogger())
	require.NoError(t, err)
	return eng
}

func sampleProduct() *domain.Product {
	coll := "coll-1"
	discount := int64(9000)
	return &domain.Product{
		ID: "prod-1", Name: "Oud Noir", Slug: "oud-noir", Brand: "Maison Sher",
		CollectionID: &coll, Gender: domain.GenderUnisex, Price: 12000, DiscountPrice: &discount,
		Stock: 2, Status: domain.ProductPublished, Notes: []string{"oud"}, Images: []string{},
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNew_CreatesMissingIndex(t *testing.T) {
	f := &fakeCluster{}
	newTestEngine(t, f)

	require.Len(t, f.requests, 2)
	create := f.last()
	assert.Equal(t, http.MethodPut, create.Method)
	assert.Contains(t, create.Body, `"effective_price"`)
}

func TestNew_ExistingIndexIsKept(t *testing.T) {
	f := &fakeCluster{indexExists: true}
	newTestEngine(t, f)

	require.Len(t, f.requests, 1)
	assert.Equal(t, http.MethodHead, f.requests[0].Method)
}

func TestIndex_SendsDocument(t *testing.T) {
	f := &fakeCluster{indexExists: true}
	eng := newTestEngine(t, f)

	require.NoError(t, eng.Index(context.Background(), sampleProduct()))

	req := f.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/products/_doc/prod-1", req.Path)
	var doc search.Document
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, int64(9000), doc.EffectivePrice)
	assert.True(t, doc.InStock)
	assert.Equal(t, "coll-1", doc.CollectionID)
}

func TestIndex_ErrorResponse(t *testing.T) {
	f := &fakeCluster{indexExists: true, handle: func(w http.ResponseWriter, r *http.Request, _ string) bool {
		if strings.Contains(r.URL.Path, "_doc") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"mapper_parsing_exception","reason":"bad field"},"status":400}`))
			return true
		}
		return false
	}}
	eng := newTestEngine(t, f)

	err := eng.Index(context.Background(), sampleProduct())

	assert.ErrorContains(t, err, "mapper_parsing_exception: bad field")
}

func TestDelete_IgnoresMissingDocument(t *testing.T) {
	f := &fakeCluster{indexExists: true, handle: func(w http.ResponseWriter, r *http.Request, _ string) bool {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
			return true
		}
		return false
	}}
	eng := newTestEngine(t, f)

	assert.NoError(t, eng.Delete(context.Background(), "gone"))
	assert.Equal(t, "/products/_doc/gone", f.last().Path)
}

func TestBulkIndex_NDJSONAndPartialErrors(t *testing.T) {
	f := &fakeCluster{indexExists: true, handle: func(w http.ResponseWriter, r *http.Request, _ string) bool {
		if strings.HasSuffix(r.URL.Path, "/_bulk") {
			_, _ = w.Write([]byte(`{"errors":true,"items":[{"index":{"_id":"prod-1","status":201}},{"index":{"_id":"prod-2","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad"}}}]}`))
			return true
		}
		return false
	}}
	eng := newTestEngine(t, f)
	p2 := sampleProduct()
	p2.ID = "prod-2"

	err := eng.BulkIndex(context.Background(), []domain.Product{*sampleProduct(), *p2})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "id=prod-2")
	assert.NotContains(t, err.Error(), "id=prod-1")
	lines := strings.Split(strings.TrimSpace(f.last().Body), "\n")
	assert.Len(t, lines, 4)
}

func TestBulkIndex_EmptyIsNoop(t *testing.T) {
	f := &fakeCluster{indexExists: true}
	eng := newTestEngine(t, f)

	require.NoError(t, eng.BulkIndex(context.Background(), nil))
	assert.Len(t, f.requests, 1)
}

func TestSearch_DecodesHits(t *testing.T) {
	doc := search.NewDocument(sampleProduct())
	hit, err := json.Marshal(map[string]any{
		"hits": map[string]any{
			"total": map[string]any{"value": 7},
			"hits":  []any{map[string]any{"_source": doc}},
		},
	})
	require.NoError(t, err)

	f := &fakeCluster{indexExists: true, handle: func(w http.ResponseWriter, r *http.Request, _ string) bool {
		if strings.HasSuffix(r.URL.Path, "/_search") {
			_, _ = w.Write(hit)
			return true
		}
		return false
	}}
	eng := newTestEngine(t, f)

	res, err := eng.Search(context.Background(), &search.Query{Text: "oud", Page: 2, PerPage: 5})

	require.NoError(t, err)
	assert.Equal(t, 7, res.Total)
	assert.Equal(t, 2, res.Page)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Oud Noir", res.Products[0].Name)
	assert.Equal(t, int64(9000), res.Products[0].EffectivePrice())

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.last().Body), &body))
	assert.EqualValues(t, 5, body["from"])
	assert.EqualValues(t, 5, body["size"])
}

func TestBuildQuery_Filters(t *testing.T) {
	minPrice, maxPrice := int64(1000), int64(5000)
	inStock := true
	q := &search.Query{
		CollectionID: "coll-1", Brand: "Maison SHER", Gender: domain.GenderMen,
		MinPrice: &minPrice, MaxPrice: &maxPrice, InStock: &inStock, Sort: search.SortPriceAsc,
	}

	dsl := buildQuery(q, pagination.DefaultParams())

	data, err := json.Marshal(dsl)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `{"term":{"status":"published"}}`)
	assert.Contains(t, s, `{"term":{"collection_id":"coll-1"}}`)
	assert.Contains(t, s, `{"term":{"brand.keyword":"maison sher"}}`)
	assert.Contains(t, s, `{"term":{"gender":"men"}}`)
	assert.Contains(t, s, `{"term":{"in_stock":true}}`)
	assert.Contains(t, s, `"effective_price":{"gte":1000,"lte":5000}`)
	assert.Contains(t, s, `"match_all"`)
	assert.Contains(t, s, `"sort":[{"effective_price":"asc"},{"id":"asc"}]`)
}

func TestBuildSort_Defaults(t *testing.T) {
	assert.Equal(t, map[string]any{"created_at": "desc"}, buildSort("", false)[0])
	assert.Equal(t, map[string]any{"_score": "desc"}, buildSort("", true)[0])
	assert.Equal(t, map[string]any{"name.keyword": "asc"}, buildSort(search.SortNameAsc, true)[0])
}

func TestPing(t *testing.T) {
	f := &fakeCluster{indexExists: true}
	eng := newTestEngine(t, f)

	assert.NoError(t, eng.Ping(context.Background()))
	assert.Equal(t, http.MethodHead, f.last().Method)
	assert.Equal(t, "/", f.last().Path)
}
