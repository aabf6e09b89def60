package picker

import "github.com/davemarchant/offerbuilder/internal/models"

// Selection accumulates which catalog entries are checked during one picker
// session, independent of display order. It is scoped to a single session
// and discarded on close or confirm. Selection is not safe for concurrent
// use; the owning Session serializes access.
type Selection struct {
	order     []int64           // product ids in first-selection order
	byProduct map[int64][]int64 // product id -> selected variant ids, insertion order
}

// NewSelection returns an empty accumulator.
func NewSelection() *Selection {
	return &Selection{byProduct: make(map[int64][]int64)}
}

// ToggleProduct sets a product's entry to the full variant id list (checked)
// or clears it to empty (unchecked). Other products are untouched.
func (s *Selection) ToggleProduct(productID int64, variantIDs []int64, checked bool) {
	s.track(productID)
	if !checked {
		s.byProduct[productID] = nil
		return
	}
	ids := make([]int64, len(variantIDs))
	copy(ids, variantIDs)
	s.byProduct[productID] = ids
}

// ToggleVariant adds or removes exactly one variant id from a product's
// entry.
func (s *Selection) ToggleVariant(productID, variantID int64, checked bool) {
	s.track(productID)
	cur := s.byProduct[productID]
	if checked {
		for _, id := range cur {
			if id == variantID {
				return
			}
		}
		s.byProduct[productID] = append(cur, variantID)
		return
	}
	out := cur[:0]
	for _, id := range cur {
		if id != variantID {
			out = append(out, id)
		}
	}
	s.byProduct[productID] = out
}

func (s *Selection) track(productID int64) {
	if _, ok := s.byProduct[productID]; !ok {
		s.order = append(s.order, productID)
		s.byProduct[productID] = nil
	}
}

// IsProductSelected drives the product header checkbox: checked iff the
// product's entry is non-empty and intersects its current variant set.
// Partial selection displays as checked.
func (s *Selection) IsProductSelected(p models.CatalogProduct) bool {
	sel := s.byProduct[p.ID]
	if len(sel) == 0 {
		return false
	}
	for _, v := range p.Variants {
		for _, id := range sel {
			if id == v.ID {
				return true
			}
		}
	}
	return false
}

// VariantIDs returns the selected variant ids for a product in selection
// order.
func (s *Selection) VariantIDs(productID int64) []int64 {
	ids := s.byProduct[productID]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

// Products returns the ids of products with a non-empty entry, in
// first-selection order.
func (s *Selection) Products() []int64 {
	out := make([]int64, 0, len(s.order))
	for _, id := range s.order {
		if len(s.byProduct[id]) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// SelectedProductCount is the number shown next to the confirm action: how
// many products have at least one variant checked.
func (s *Selection) SelectedProductCount() int {
	return len(s.Products())
}

// Reset clears all accumulated state.
func (s *Selection) Reset() {
	s.order = nil
	s.byProduct = make(map[int64][]int64)
}
