package editor

import (
	"errors"
	"testing"

	"github.com/davemarchant/offerbuilder/internal/models"
)

func catalogItem(id int64, title string, variantIDs ...int64) models.OfferItem {
	it := models.OfferItem{
		ID:        id,
		ProductID: id,
		Title:     title,
		Source:    models.SourceCatalog,
	}
	for _, vid := range variantIDs {
		it.Variants = append(it.Variants, models.OfferVariantLine{
			ID:           vid,
			ParentItemID: id,
		})
	}
	return it
}

func itemIDs(items []models.OfferItem) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func assertIDs(t *testing.T, items []models.OfferItem, want ...int64) {
	t.Helper()
	got := itemIDs(items)
	if len(got) != len(want) {
		t.Fatalf("item ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("item ids = %v, want %v", got, want)
		}
	}
}

func TestNewSeedsPlaceholder(t *testing.T) {
	c := New(nil, nil)
	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Source != models.SourceNew {
		t.Fatalf("expected placeholder source, got %q", items[0].Source)
	}
	if len(items[0].Variants) != 0 || items[0].DiscountType != "" {
		t.Fatalf("placeholder must carry no variants and no discount: %+v", items[0])
	}
}

func TestDeleteLastItemReseedsPlaceholder(t *testing.T) {
	c := New([]models.OfferItem{catalogItem(101, "Shirt", 1)}, nil)
	if err := c.DeleteItem(101); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item after floor re-seed, got %d", len(items))
	}
	if items[0].Source != models.SourceNew {
		t.Fatalf("expected fresh placeholder, got %+v", items[0])
	}
	if items[0].ID == 101 {
		t.Fatalf("placeholder must carry a fresh id")
	}
}

func TestDeleteItemKeepsSiblingOrder(t *testing.T) {
	c := New([]models.OfferItem{
		catalogItem(1, "a", 11),
		catalogItem(2, "b", 22),
		catalogItem(3, "c", 33),
	}, nil)
	if err := c.DeleteItem(2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertIDs(t, c.Items(), 1, 3)

	if err := c.DeleteItem(9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteVariantFloor(t *testing.T) {
	c := New([]models.OfferItem{catalogItem(1, "a", 11, 12)}, nil)

	if err := c.DeleteVariant(1, 12); err != nil {
		t.Fatalf("delete above floor: %v", err)
	}
	if err := c.DeleteVariant(1, 11); !errors.Is(err, ErrVariantFloor) {
		t.Fatalf("expected ErrVariantFloor, got %v", err)
	}
	items := c.Items()
	if len(items[0].Variants) != 1 {
		t.Fatalf("variant count dropped below 1: %+v", items[0])
	}
	if err := c.DeleteVariant(1, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown variant, got %v", err)
	}
}

func TestReorderItems(t *testing.T) {
	c := New([]models.OfferItem{
		catalogItem(1, "a", 11),
		catalogItem(2, "b", 22),
		catalogItem(3, "c", 33),
		catalogItem(5, "d", 55),
	}, nil)

	if err := c.Reorder(models.DragRef{Kind: models.DragItem, ID: 5}, 2); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	assertIDs(t, c.Items(), 1, 5, 2, 3)
}

func TestReorderVariants(t *testing.T) {
	c := New([]models.OfferItem{catalogItem(1, "a", 11, 12, 13)}, nil)

	if err := c.Reorder(models.DragRef{Kind: models.DragVariant, ID: 13, ParentID: 1}, 11); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	vars := c.Items()[0].Variants
	want := []int64{13, 11, 12}
	for i := range want {
		if vars[i].ID != want[i] {
			t.Fatalf("variant order = %v, want %v", vars, want)
		}
	}

	if err := c.Reorder(models.DragRef{Kind: models.DragVariant, ID: 13, ParentID: 9}, 11); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown parent, got %v", err)
	}
}

func TestToggleExpanded(t *testing.T) {
	c := New([]models.OfferItem{catalogItem(1, "a", 11)}, nil)
	if err := c.ToggleExpanded(1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !c.Items()[0].Expanded {
		t.Fatal("expected expanded after toggle")
	}
	if err := c.ToggleExpanded(1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if c.Items()[0].Expanded {
		t.Fatal("expected collapsed after second toggle")
	}
}

func TestSetDiscount(t *testing.T) {
	c := New([]models.OfferItem{catalogItem(1, "a", 11, 12)}, nil)

	if err := c.SetDiscount(models.DragItem, 1, 0, models.FieldDiscountType, "percentage"); err != nil {
		t.Fatalf("set type: %v", err)
	}
	if err := c.SetDiscount(models.DragItem, 1, 0, models.FieldDiscountValue, float64(15)); err != nil {
		t.Fatalf("set value: %v", err)
	}
	it := c.Items()[0]
	if it.DiscountType != models.DiscountPercentage || it.DiscountValue == nil || *it.DiscountValue != 15 {
		t.Fatalf("item discount not applied: %+v", it)
	}

	if err := c.SetDiscount(models.DragVariant, 1, 12, models.FieldDiscountType, "flatOff"); err != nil {
		t.Fatalf("set variant type: %v", err)
	}
	if got := c.Items()[0].Variants[1].DiscountType; got != models.DiscountFlatOff {
		t.Fatalf("variant discount type = %q", got)
	}

	if err := c.SetDiscount(models.DragItem, 1, 0, models.FieldDiscountType, "bogus"); !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount for unknown type, got %v", err)
	}
	if err := c.SetDiscount(models.DragItem, 1, 0, models.FieldDiscountValue, "ten"); !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount for non-numeric value, got %v", err)
	}
	if err := c.SetDiscount(models.DragItem, 9, 0, models.FieldDiscountValue, float64(1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func mergeRecord(target int64, productID int64, title string, variantIDs ...int64) models.MergeRecord {
	p := models.CatalogProduct{ID: productID, Title: title}
	for _, vid := range variantIDs {
		p.Variants = append(p.Variants, models.CatalogVariant{ID: vid, ProductID: productID})
	}
	return models.MergeRecord{TargetID: target, Product: p, Variants: p.Variants}
}

func TestMergePopulatesPlaceholderInPlace(t *testing.T) {
	c := New([]models.OfferItem{{ID: 1, Source: models.SourceNew}}, nil)

	items := c.MergePickerResult([]models.MergeRecord{
		mergeRecord(1, 101, "Shirt", 11, 12),
	})

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.ID != 1 {
		t.Fatalf("target id must be preserved, got %d", it.ID)
	}
	if it.Source != models.SourceCatalog || it.ProductID != 101 || it.Title != "Shirt" {
		t.Fatalf("merge did not populate item: %+v", it)
	}
	if len(it.Variants) != 2 || it.Variants[0].ID != 11 || it.Variants[1].ID != 12 {
		t.Fatalf("variant lines wrong: %+v", it.Variants)
	}
	for _, vl := range it.Variants {
		if vl.ParentItemID != 1 {
			t.Fatalf("variant not re-tagged with parent id: %+v", vl)
		}
	}
}

func TestMergeLeavesSiblingsUntouched(t *testing.T) {
	c := New([]models.OfferItem{
		catalogItem(1, "a", 11),
		{ID: 2, Source: models.SourceNew},
		catalogItem(3, "c", 33),
	}, nil)

	items := c.MergePickerResult([]models.MergeRecord{
		mergeRecord(2, 200, "Hat", 21),
	})

	assertIDs(t, items, 1, 2, 3)
	if items[0].Title != "a" || items[2].Title != "c" {
		t.Fatalf("sibling content touched: %+v", items)
	}
	if items[1].Source != models.SourceCatalog || items[1].ProductID != 200 {
		t.Fatalf("target not merged: %+v", items[1])
	}
}

func TestMergeMultipleProductsInsertsAfterTarget(t *testing.T) {
	c := New([]models.OfferItem{
		catalogItem(1, "a", 11),
		{ID: 2, Source: models.SourceNew},
		catalogItem(3, "c", 33),
	}, nil)

	items := c.MergePickerResult([]models.MergeRecord{
		mergeRecord(2, 200, "Hat", 21),
		mergeRecord(2, 300, "Sock", 31, 32),
	})

	assertIDs(t, items, 1, 2, 300, 3)
	if items[2].Title != "Sock" || len(items[2].Variants) != 2 {
		t.Fatalf("second record not materialized: %+v", items[2])
	}
	if items[2].Variants[0].ParentItemID != 300 {
		t.Fatalf("second record variants mis-tagged: %+v", items[2].Variants)
	}
}

func TestMergeMissingTargetAppends(t *testing.T) {
	c := New([]models.OfferItem{catalogItem(1, "a", 11)}, nil)

	items := c.MergePickerResult([]models.MergeRecord{
		mergeRecord(99, 200, "Hat", 21),
	})

	assertIDs(t, items, 1, 200)
	if items[1].Source != models.SourceCatalog {
		t.Fatalf("appended item not catalog-backed: %+v", items[1])
	}
}

func TestMergeDeduplicatesByID(t *testing.T) {
	c := New([]models.OfferItem{
		catalogItem(101, "Shirt (stale)", 11),
		{ID: 2, Source: models.SourceNew},
		catalogItem(3, "c", 33),
	}, nil)

	items := c.MergePickerResult([]models.MergeRecord{
		mergeRecord(2, 300, "Sock", 31),
		mergeRecord(2, 101, "Shirt", 11, 12),
	})

	// The re-picked product keeps the stale item's slot; the stale payload
	// is replaced by the merged one.
	assertIDs(t, items, 101, 2, 3)
	if items[0].Title != "Shirt" || len(items[0].Variants) != 2 {
		t.Fatalf("merged payload did not win dedupe: %+v", items[0])
	}
	if items[1].ProductID != 300 {
		t.Fatalf("target item not populated from first record: %+v", items[1])
	}
}

func TestMergeDeduplicatesByIDStaleAfterTarget(t *testing.T) {
	c := New([]models.OfferItem{
		{ID: 2, Source: models.SourceNew},
		catalogItem(101, "Shirt (stale)", 11),
	}, nil)

	items := c.MergePickerResult([]models.MergeRecord{
		mergeRecord(2, 300, "Sock", 31),
		mergeRecord(2, 101, "Shirt", 11, 12),
	})

	// The merged instance lands before the stale one here; the stale
	// duplicate is dropped, never written back over the merged payload.
	assertIDs(t, items, 2, 101)
	if items[0].ProductID != 300 {
		t.Fatalf("target item not populated from first record: %+v", items[0])
	}
	if items[1].Title != "Shirt" || len(items[1].Variants) != 2 {
		t.Fatalf("stale payload won dedupe: %+v", items[1])
	}
}

func TestMergeEmptyRecordsIsNoOp(t *testing.T) {
	c := New([]models.OfferItem{catalogItem(1, "a", 11)}, nil)
	items := c.MergePickerResult(nil)
	assertIDs(t, items, 1)
}

func TestValidateSeed(t *testing.T) {
	tests := []struct {
		name    string
		items   []models.OfferItem
		invalid bool
	}{
		{
			name:  "empty seed",
			items: nil,
		},
		{
			name:  "valid mixed seed",
			items: []models.OfferItem{catalogItem(1, "a", 11), {ID: 2, Source: models.SourceNew}},
		},
		{
			name:    "duplicate item ids",
			items:   []models.OfferItem{catalogItem(1, "a", 11), catalogItem(1, "b", 22)},
			invalid: true,
		},
		{
			name:    "catalog item without variants",
			items:   []models.OfferItem{{ID: 1, Source: models.SourceCatalog, Title: "a"}},
			invalid: true,
		},
		{
			name:    "duplicate variant ids within an item",
			items:   []models.OfferItem{catalogItem(1, "a", 11, 11)},
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeed(tt.items)
			if tt.invalid && !errors.Is(err, ErrInvalidSeed) {
				t.Fatalf("expected ErrInvalidSeed, got %v", err)
			}
			if !tt.invalid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAddPlaceholderSkipsTakenIDs(t *testing.T) {
	c := New([]models.OfferItem{catalogItem(1, "a", 11), catalogItem(2, "b", 22)}, nil)
	it := c.AddPlaceholder()
	if it.ID == 1 || it.ID == 2 {
		t.Fatalf("placeholder id collides: %d", it.ID)
	}
	seen := make(map[int64]bool)
	for _, item := range c.Items() {
		if seen[item.ID] {
			t.Fatalf("duplicate item id %d", item.ID)
		}
		seen[item.ID] = true
	}
}
