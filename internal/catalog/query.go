package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davemarchant/offerbuilder/internal/models"
)

// DefaultDebounce is the window within which successive search-term changes
// are conflated into one request.
const DefaultDebounce = 300 * time.Millisecond

// Query tracks one incremental paginated search against the catalog.
//
// Search calls are debounced: only the last call inside the debounce window
// is executed, and it replaces the result set from page one. LoadNextPage is
// not debounced but is refused while a request is pending or after the
// upstream signalled the end of results; appended pages are deduplicated by
// product id, keeping the earliest-seen instance.
//
// At most one request is in flight at a time. Every state reset bumps a
// generation counter, and a response is dropped on arrival when its
// generation is stale, so superseded searches and closed sessions never
// overwrite fresh results.
type Query struct {
	fetcher  Fetcher
	logger   *zap.Logger
	pageSize int
	debounce time.Duration

	mu         sync.Mutex
	term       string
	page       int // 0 until the first search is scheduled
	results    []models.CatalogProduct
	loading    bool
	end        bool
	generation uint64
	timer      *time.Timer
}

// NewQuery builds a query state around a fetcher. A non-positive debounce
// falls back to DefaultDebounce.
func NewQuery(f Fetcher, pageSize int, debounce time.Duration, logger *zap.Logger) *Query {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Query{
		fetcher:  f,
		logger:   logger,
		pageSize: pageSize,
		debounce: debounce,
	}
}

// Search schedules a debounced fetch of the first page for term. The empty
// term requests the default unfiltered page. A pending debounce timer or an
// in-flight request is superseded; the result set is replaced when the fetch
// lands. The loading flag covers the debounce window as well, which keeps
// page advances from slipping in between.
func (q *Query) Search(term string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.term = term
	q.page = 1
	q.end = false
	q.loading = true
	q.generation++
	gen := q.generation
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.debounce, func() {
		q.fetch(gen, false)
	})
}

// LoadNextPage advances the page counter and fetches immediately. It is a
// no-op while a request is pending, before the first search, or after a
// short page marked the end of results.
func (q *Query) LoadNextPage() {
	q.mu.Lock()
	if q.loading || q.end || q.page == 0 {
		q.mu.Unlock()
		return
	}
	q.page++
	q.loading = true
	q.generation++
	gen := q.generation
	q.mu.Unlock()
	go q.fetch(gen, true)
}

// fetch issues the request tagged with gen and applies the outcome only if
// the query has not moved on in the meantime.
func (q *Query) fetch(gen uint64, appendPage bool) {
	q.mu.Lock()
	if gen != q.generation {
		q.mu.Unlock()
		return
	}
	term, page, size := q.term, q.page, q.pageSize
	q.mu.Unlock()

	products, err := q.fetcher.SearchProducts(context.Background(), term, page, size)

	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != q.generation {
		return // superseded while in flight
	}
	q.loading = false
	if err != nil {
		// Prior results stay intact; the next user-initiated search or
		// scroll supersedes the failure.
		q.logger.Warn("catalog fetch failed",
			zap.String("term", term),
			zap.Int("page", page),
			zap.Error(err))
		if appendPage {
			q.page--
		}
		return
	}
	if len(products) < size {
		q.end = true
	}
	if appendPage {
		q.results = appendDeduped(q.results, products)
	} else {
		q.results = products
	}
}

// appendDeduped appends page entries whose ids have not been seen yet; the
// earliest-seen instance keeps its position and later payloads for the same
// id are discarded.
func appendDeduped(existing, page []models.CatalogProduct) []models.CatalogProduct {
	seen := make(map[int64]bool, len(existing))
	for _, p := range existing {
		seen[p.ID] = true
	}
	for _, p := range page {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		existing = append(existing, p)
	}
	return existing
}

// Results returns a snapshot of the current result set and the loading flag.
func (q *Query) Results() ([]models.CatalogProduct, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.CatalogProduct, len(q.results))
	copy(out, q.results)
	return out, q.loading
}

// Loading reports whether a fetch is pending or in flight.
func (q *Query) Loading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loading
}

// Started reports whether at least one page fetch has been scheduled. The
// viewport sentinel only advances pages once this is true.
func (q *Query) Started() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.page > 0
}

// Find returns the product with the given id from the current result set.
func (q *Query) Find(productID int64) (models.CatalogProduct, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, p := range q.results {
		if p.ID == productID {
			return p, true
		}
	}
	return models.CatalogProduct{}, false
}

// Reset cancels any pending timer, orphans any in-flight request and clears
// all result state. The next Search starts a fresh generation.
func (q *Query) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.generation++
	q.term = ""
	q.page = 0
	q.results = nil
	q.loading = false
	q.end = false
}
