package picker

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/davemarchant/offerbuilder/internal/catalog"
	"github.com/davemarchant/offerbuilder/internal/models"
)

// ErrClosed is returned for picker operations outside an open session.
var ErrClosed = errors.New("picker session is not open")

// ErrEmptySelection is returned when confirm is attempted with no product
// selected. The caller is expected to keep the confirm action disabled, so
// hitting this is a client bug, not a user-facing failure.
var ErrEmptySelection = errors.New("nothing selected")

// Session is the modal interaction used to populate one offer item from the
// catalog. It composes the paginated query state with a selection
// accumulator; both are reset on close or confirm, and the next Open starts
// a fresh query generation so stale responses from a previous session are
// dropped.
type Session struct {
	mu     sync.Mutex
	query  *catalog.Query
	sel    *Selection
	target int64
	term   string
	open   bool
	logger *zap.Logger
}

// NewSession builds a closed session around a query state.
func NewSession(q *catalog.Query, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		query:  q,
		sel:    NewSelection(),
		logger: logger,
	}
}

// Open starts a session targeting the given offer item and kicks off the
// default (empty-term) first page.
func (s *Session) Open(targetItemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = targetItemID
	s.open = true
	s.sel.Reset()
	s.query.Reset()
	s.query.Search("")
}

// Close discards all accumulated selection state and detaches from the
// current result set. Any in-flight catalog response is dropped on arrival.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.open = false
	s.target = 0
	s.term = ""
	s.sel.Reset()
	s.query.Reset()
}

// Search updates the search term. A term change also clears the accumulated
// selection, matching the picker UI where filtered-out rows lose their
// checkmarks; re-submitting the current term keeps it.
func (s *Session) Search(term string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrClosed
	}
	if term != s.term {
		s.sel.Reset()
	}
	s.term = term
	s.query.Search(term)
	return nil
}

// SentinelVisible handles the viewport-intersection signal from the bottom
// of the result list: it advances one page when a first page has loaded and
// no request is pending. The query state enforces both conditions, so the
// signal is safe to deliver repeatedly.
func (s *Session) SentinelVisible() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrClosed
	}
	if !s.query.Started() {
		return nil
	}
	s.query.LoadNextPage()
	return nil
}

// Results returns the current result page set and loading flag.
func (s *Session) Results() ([]models.CatalogProduct, bool) {
	return s.query.Results()
}

// IsProductSelected reports the header checkbox state for a product.
func (s *Session) IsProductSelected(p models.CatalogProduct) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.IsProductSelected(p)
}

// SelectedVariantIDs returns the checked variant ids for a product.
func (s *Session) SelectedVariantIDs(productID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.VariantIDs(productID)
}

// ToggleProduct checks or unchecks a whole product. The full variant id list
// is taken from the product's current catalog payload.
func (s *Session) ToggleProduct(productID int64, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrClosed
	}
	p, ok := s.query.Find(productID)
	if !ok {
		return nil // product scrolled out of the result set; nothing to toggle
	}
	s.sel.ToggleProduct(productID, p.VariantIDs(), checked)
	return nil
}

// ToggleVariant checks or unchecks one variant.
func (s *Session) ToggleVariant(productID, variantID int64, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrClosed
	}
	s.sel.ToggleVariant(productID, variantID, checked)
	return nil
}

// SelectedCount returns the number of products with a non-empty selection.
func (s *Session) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.SelectedProductCount()
}

// Target returns the offer item id this session was opened for.
func (s *Session) Target() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// IsOpen reports whether the session is open.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Confirm finalizes the session. For every product with a non-empty
// selection it emits one merge record carrying the product restricted to its
// selected variants in the catalog's own variant order, regardless of the
// order they were checked in. Records are ordered by first selection. The
// session is reset afterwards.
func (s *Session) Confirm() ([]models.MergeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil, ErrClosed
	}
	if s.sel.SelectedProductCount() == 0 {
		return nil, ErrEmptySelection
	}

	records := make([]models.MergeRecord, 0, s.sel.SelectedProductCount())
	for _, productID := range s.sel.Products() {
		p, ok := s.query.Find(productID)
		if !ok {
			s.logger.Warn("selected product missing from result set",
				zap.Int64("product_id", productID))
			continue
		}
		selected := make(map[int64]bool)
		for _, id := range s.sel.VariantIDs(productID) {
			selected[id] = true
		}
		variants := make([]models.CatalogVariant, 0, len(selected))
		for _, v := range p.Variants { // catalog order, not selection order
			if selected[v.ID] {
				variants = append(variants, v)
			}
		}
		if len(variants) == 0 {
			continue
		}
		records = append(records, models.MergeRecord{
			TargetID: s.target,
			Product:  p,
			Variants: variants,
		})
	}
	if len(records) == 0 {
		return nil, ErrEmptySelection
	}
	s.reset()
	return records, nil
}
