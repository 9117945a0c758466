// Package memory is an in-process search engine for development, tests and
// small catalogs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/search"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/pagination"
)

// Engine is an in-memory implementation of search.Engine. Text matching is
// a case-insensitive substring match over name, brand, notes and
// description.
type Engine struct {
	mu   sync.RWMutex
	docs map[string]search.Document
}

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{docs: make(map[string]search.Document)}
}

// Index adds or replaces a product.
func (e *Engine) Index(_ context.Context, p *domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.docs[p.ID] = search.NewDocument(p)
	return nil
}

// Delete removes a product by ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.docs, id)
	return nil
}

// BulkIndex adds or replaces many products.
func (e *Engine) BulkIndex(_ context.Context, products []domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range products {
		e.docs[products[i].ID] = search.NewDocument(&products[i])
	}
	return nil
}

// Ping always succeeds.
func (e *Engine) Ping(context.Context) error { return nil }

// Len returns the number of indexed products.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

type scored struct {
	doc   search.Document
	score int
}

// Search filters, sorts and paginates the index.
func (e *Engine) Search(_ context.Context, q *search.Query) (*search.Result, error) {
	terms := strings.Fields(strings.ToLower(q.Text))

	e.mu.RLock()
	matched := make([]scored, 0, len(e.docs))
	for _, d := range e.docs {
		if !matches(d, q) {
			continue
		}
		s := score(d, terms)
		if len(terms) > 0 && s == 0 {
			continue
		}
		matched = append(matched, scored{doc: d, score: s})
	}
	e.mu.RUnlock()

	sortDocs(matched, q.Sort, len(terms) > 0)

	page := pagination.Params{Page: q.Page, PerPage: q.PerPage}.Normalize()
	start, end := page.Window(len(matched))

	products := make([]domain.Product, 0, end-start)
	for _, m := range matched[start:end] {
		products = append(products, m.doc.Product())
	}

	return &search.Result{
		Products: products,
		Total:    len(matched),
		Page:     page.Page,
		PerPage:  page.PerPage,
	}, nil
}

func matches(d search.Document, q *search.Query) bool {
	if q.CollectionID != "" && d.CollectionID != q.CollectionID {
		return false
	}
	if q.Brand != "" && !strings.EqualFold(d.Brand, q.Brand) {
		return false
	}
	if q.Gender != "" && d.Gender != string(q.Gender) {
		return false
	}
	if q.MinPrice != nil && d.EffectivePrice < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && d.EffectivePrice > *q.MaxPrice {
		return false
	}
	if q.InStock != nil && d.InStock != *q.InStock {
		return false
	}
	if q.Featured != nil && d.Featured != *q.Featured {
		return false
	}
	return true
}

// score weights a term hit by where it lands: name 3, brand 2, notes 2,
// description 1. A document must hit every term to score.
func score(d search.Document, terms []string) int {
	if len(terms) == 0 {
		return 0
	}
	name := strings.ToLower(d.Name)
	brand := strings.ToLower(d.Brand)
	desc := strings.ToLower(d.Description)
	notes := strings.ToLower(strings.Join(d.Notes, " "))

	total := 0
	for _, t := range terms {
		s := 0
		if strings.Contains(name, t) {
			s += 3
		}
		if strings.Contains(brand, t) {
			s += 2
		}
		if strings.Contains(notes, t) {
			s += 2
		}
		if strings.Contains(desc, t) {
			s++
		}
		if s == 0 {
			return 0
		}
		total += s
	}
	return total
}

func sortDocs(docs []scored, sortBy string, hasText bool) {
	if sortBy == "" {
		sortBy = search.SortNewest
		if hasText {
			sortBy = search.SortRelevance
		}
	}

	var less func(a, b scored) bool
	switch sortBy {
	case search.SortPriceAsc:
		less = func(a, b scored) bool { return a.doc.EffectivePrice < b.doc.EffectivePrice }
	case search.SortPriceDesc:
		less = func(a, b scored) bool { return a.doc.EffectivePrice > b.doc.EffectivePrice }
	case search.SortNameAsc:
		less = func(a, b scored) bool { return strings.ToLower(a.doc.Name) < strings.ToLower(b.doc.Name) }
	case search.SortRelevance:
		less = func(a, b scored) bool { return a.score > b.score }
	default:
		less = func(a, b scored) bool { return a.doc.CreatedAt.After(b.doc.CreatedAt) }
	}

	// Map iteration is random; ID breaks ties so pages are stable.
	sort.Slice(docs, func(i, j int) bool {
		if less(docs[i], docs[j]) {
			return true
		}
		if less(docs[j], docs[i]) {
			return false
		}
		return docs[i].doc.ID < docs[j].doc.ID
	})
}
