package editor

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/davemarchant/offerbuilder/internal/models"
)

// ErrNotFound is returned when a mutation targets an item or variant line
// that is not in the collection.
var ErrNotFound = errors.New("entity not found")

// ErrVariantFloor is returned when a delete would empty an item's variant
// list. An item keeps at least one variant line while it exists.
var ErrVariantFloor = errors.New("cannot delete the last variant of an item")

// ErrInvalidDiscount is returned for discount updates with an unknown field,
// an unknown discount type, or a non-numeric value.
var ErrInvalidDiscount = errors.New("invalid discount update")

// ErrInvalidSeed is returned by ValidateSeed for a host-provided initial
// list that breaks the collection's invariants.
var ErrInvalidSeed = errors.New("invalid initial items")

// ValidateSeed checks a host-provided initial list before it becomes a
// collection: item ids must be unique, variant ids must be unique within
// their item, and a catalog-backed item must carry at least one variant.
func ValidateSeed(items []models.OfferItem) error {
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			return fmt.Errorf("%w: duplicate item id %d", ErrInvalidSeed, it.ID)
		}
		seen[it.ID] = true
		if it.Source == models.SourceCatalog && len(it.Variants) == 0 {
			return fmt.Errorf("%w: catalog item %d has no variants", ErrInvalidSeed, it.ID)
		}
		vseen := make(map[int64]bool, len(it.Variants))
		for _, vl := range it.Variants {
			if vseen[vl.ID] {
				return fmt.Errorf("%w: duplicate variant id %d under item %d", ErrInvalidSeed, vl.ID, it.ID)
			}
			vseen[vl.ID] = true
		}
	}
	return nil
}

// Collection owns the authoritative ordered two-level offer list for one
// editor session. All mutations are applied atomically under the collection
// lock and every accessor hands out deep copies, so callers never observe a
// partially applied change.
//
// The collection is never empty: deleting the last item re-seeds a single
// placeholder.
type Collection struct {
	mu     sync.Mutex
	items  []models.OfferItem
	nextID int64
	logger *zap.Logger
}

// New builds a collection seeded with the host-provided initial items. An
// empty seed starts with one placeholder.
func New(initial []models.OfferItem, logger *zap.Logger) *Collection {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collection{
		items:  models.CloneItems(initial),
		logger: logger,
	}
	c.ensureNonEmpty()
	return c
}

// Items returns a deep copy of the current ordered list.
func (c *Collection) Items() []models.OfferItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CloneItems(c.items)
}

// AddPlaceholder appends one empty SourceNew item with a fresh unique id and
// returns it.
func (c *Collection) AddPlaceholder() models.OfferItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addPlaceholder()
}

func (c *Collection) addPlaceholder() models.OfferItem {
	it := models.OfferItem{
		ID:     c.newItemID(),
		Source: models.SourceNew,
	}
	c.items = append(c.items, it)
	return it
}

// newItemID hands out an id unused by any current item. Catalog-backed items
// carry product-derived ids, so the counter skips over collisions.
func (c *Collection) newItemID() int64 {
	for {
		c.nextID++
		if c.indexOfItem(c.nextID) < 0 {
			return c.nextID
		}
	}
}

// ensureNonEmpty re-seeds a placeholder when the list has been emptied. It is
// invoked deterministically from the deletion paths, never as a side effect
// of reads.
func (c *Collection) ensureNonEmpty() {
	if len(c.items) == 0 {
		c.addPlaceholder()
	}
}

// DeleteItem removes the item with the given id. Removing the last item
// immediately re-seeds one placeholder so the list never goes empty.
func (c *Collection) DeleteItem(itemID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOfItem(itemID)
	if idx < 0 {
		return ErrNotFound
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.ensureNonEmpty()
	return nil
}

// DeleteVariant removes one variant line from an item. The item's last
// remaining variant cannot be removed.
func (c *Collection) DeleteVariant(itemID, variantID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOfItem(itemID)
	if idx < 0 {
		return ErrNotFound
	}
	it := &c.items[idx]
	vIdx := -1
	for i, vl := range it.Variants {
		if vl.ID == variantID {
			vIdx = i
			break
		}
	}
	if vIdx < 0 {
		return ErrNotFound
	}
	if len(it.Variants) == 1 {
		return ErrVariantFloor
	}
	it.Variants = append(it.Variants[:vIdx], it.Variants[vIdx+1:]...)
	return nil
}

// ToggleExpanded flips the item's expanded flag. The flag is pure view
// state; no mutation is gated on it.
func (c *Collection) ToggleExpanded(itemID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOfItem(itemID)
	if idx < 0 {
		return ErrNotFound
	}
	c.items[idx].Expanded = !c.items[idx].Expanded
	return nil
}

// Reorder moves the referenced entity to the position currently occupied by
// hoverID within its own level. Unknown ids and dragged == hover are no-ops,
// and the id multiset at the level is always preserved.
func (c *Collection) Reorder(ref models.DragRef, hoverID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ref.Kind {
	case models.DragItem:
		c.items = moveByID(c.items, func(it models.OfferItem) int64 { return it.ID }, ref.ID, hoverID)
		return nil
	case models.DragVariant:
		idx := c.indexOfItem(ref.ParentID)
		if idx < 0 {
			return ErrNotFound
		}
		it := &c.items[idx]
		it.Variants = moveByID(it.Variants, func(vl models.OfferVariantLine) int64 { return vl.ID }, ref.ID, hoverID)
		return nil
	default:
		return ErrNotFound
	}
}

// SetDiscount updates one discount field on an item (variantID == 0) or on a
// specific variant line. Values for FieldDiscountType must be a valid
// DiscountType string; values for FieldDiscountValue must be numeric.
func (c *Collection) SetDiscount(level models.DragKind, itemID, variantID int64, field models.DiscountField, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOfItem(itemID)
	if idx < 0 {
		return ErrNotFound
	}

	var dt *models.DiscountType
	var dv **float64
	switch level {
	case models.DragItem:
		dt = &c.items[idx].DiscountType
		dv = &c.items[idx].DiscountValue
	case models.DragVariant:
		it := &c.items[idx]
		var line *models.OfferVariantLine
		for i := range it.Variants {
			if it.Variants[i].ID == variantID {
				line = &it.Variants[i]
				break
			}
		}
		if line == nil {
			return ErrNotFound
		}
		dt = &line.DiscountType
		dv = &line.DiscountValue
	default:
		return ErrInvalidDiscount
	}

	switch field {
	case models.FieldDiscountType:
		s, ok := value.(string)
		if !ok || !models.DiscountType(s).IsValid() {
			return ErrInvalidDiscount
		}
		*dt = models.DiscountType(s)
	case models.FieldDiscountValue:
		f, ok := toFloat(value)
		if !ok {
			return ErrInvalidDiscount
		}
		*dv = &f
	default:
		return ErrInvalidDiscount
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// MergePickerResult applies a confirmed picker session to the list as one
// atomic replacement. The first record populates the target item in place,
// keeping the target's id and position; further records become new items
// inserted right after it, carrying their product ids. When the target id is
// missing (the item was deleted while the picker was open) the records are
// appended at the tail. Afterwards the list is deduplicated by id, keeping
// the freshly merged payload at the first occurrence's position. Sibling
// order is never disturbed.
func (c *Collection) MergePickerResult(records []models.MergeRecord) []models.OfferItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(records) == 0 {
		return models.CloneItems(c.items)
	}

	targetIdx := c.indexOfItem(records[0].TargetID)

	merged := make([]models.OfferItem, 0, len(records))
	for i, rec := range records {
		it := materialize(rec)
		if i == 0 && targetIdx >= 0 {
			it.ID = c.items[targetIdx].ID
			for j := range it.Variants {
				it.Variants[j].ParentItemID = it.ID
			}
		}
		merged = append(merged, it)
	}

	var next []models.OfferItem
	mergedStart := targetIdx
	if targetIdx >= 0 {
		next = make([]models.OfferItem, 0, len(c.items)+len(merged)-1)
		next = append(next, c.items[:targetIdx]...)
		next = append(next, merged...)
		next = append(next, c.items[targetIdx+1:]...)
	} else {
		c.logger.Warn("picker merge target missing, appending",
			zap.Int64("target_id", records[0].TargetID))
		mergedStart = len(c.items)
		next = append(c.items, merged...)
	}

	// Dedupe by id: the first occurrence keeps its slot, and a stale
	// occupant is replaced in place when a freshly merged instance of the
	// same id turns up later. Freshness is per instance, not per id, so a
	// stale duplicate never overwrites a merged one regardless of which
	// side of the target it sits on.
	seen := make(map[int64]int, len(next))
	fresh := make([]bool, 0, len(next))
	out := next[:0]
	for i, it := range next {
		m := i >= mergedStart && i < mergedStart+len(merged)
		if pos, dup := seen[it.ID]; dup {
			if m && !fresh[pos] {
				out[pos] = it
				fresh[pos] = true
			}
			continue
		}
		seen[it.ID] = len(out)
		out = append(out, it)
		fresh = append(fresh, m)
	}
	c.items = out
	return models.CloneItems(c.items)
}

// materialize turns one merge record into a catalog-backed offer item with
// fresh variant lines in the record's (catalog) order.
func materialize(rec models.MergeRecord) models.OfferItem {
	it := models.OfferItem{
		ID:        rec.Product.ID,
		ProductID: rec.Product.ID,
		Title:     rec.Product.Title,
		Source:    models.SourceCatalog,
	}
	it.Variants = make([]models.OfferVariantLine, 0, len(rec.Variants))
	for _, v := range rec.Variants {
		it.Variants = append(it.Variants, models.OfferVariantLine{
			ID:           v.ID,
			ParentItemID: it.ID,
			Title:        v.Title,
		})
	}
	return it
}

func (c *Collection) indexOfItem(id int64) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}
