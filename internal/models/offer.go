package models

// Item sources distinguish placeholders awaiting configuration from items
// populated out of the catalog picker.
const (
	// SourceNew marks an empty placeholder row. Placeholders carry no
	// variants and no discount until a picker merge populates them.
	SourceNew = "new"
	// SourceCatalog marks an item backed by a catalog product. A catalog
	// item always carries at least one variant line.
	SourceCatalog = "catalog"
)

// DiscountType enumerates the supported discount kinds.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage" // rendered as "% Off"
	DiscountFlatOff    DiscountType = "flatOff"    // rendered as "flat Off"
)

// IsValid reports whether the discount type is one of the enumerated kinds.
func (d DiscountType) IsValid() bool {
	switch d {
	case DiscountPercentage, DiscountFlatOff:
		return true
	default:
		return false
	}
}

// DiscountField names the mutable discount attributes on an item or a
// variant line.
type DiscountField string

const (
	FieldDiscountType  DiscountField = "discountType"
	FieldDiscountValue DiscountField = "discountValue"
)

// OfferItem is one row in the merchandiser's editable offer list. An item is
// either a bare placeholder (SourceNew) or a catalog-backed product
// (SourceCatalog) with an ordered list of variant lines.
type OfferItem struct {
	ID            int64             `json:"id"`
	ProductID     int64             `json:"product_id,omitempty"`
	Title         string            `json:"title"`
	Source        string            `json:"source"`
	DiscountType  DiscountType      `json:"discount_type,omitempty"`
	DiscountValue *float64          `json:"discount_value,omitempty"`
	Variants      []OfferVariantLine `json:"variants,omitempty"`
	Expanded      bool              `json:"expanded"`
}

// OfferVariantLine is one row nested under an OfferItem. Its ID equals the
// originating catalog variant's id.
type OfferVariantLine struct {
	ID            int64        `json:"id"`
	ParentItemID  int64        `json:"parent_item_id"`
	Title         string       `json:"title"`
	DiscountType  DiscountType `json:"discount_type,omitempty"`
	DiscountValue *float64     `json:"discount_value,omitempty"`
}

// Clone returns a deep copy of the item, detaching the variant slice.
func (it OfferItem) Clone() OfferItem {
	out := it
	if it.DiscountValue != nil {
		v := *it.DiscountValue
		out.DiscountValue = &v
	}
	if it.Variants != nil {
		out.Variants = make([]OfferVariantLine, len(it.Variants))
		for i, vl := range it.Variants {
			out.Variants[i] = vl
			if vl.DiscountValue != nil {
				v := *vl.DiscountValue
				out.Variants[i].DiscountValue = &v
			}
		}
	}
	return out
}

// CloneItems deep-copies a whole offer list.
func CloneItems(items []OfferItem) []OfferItem {
	out := make([]OfferItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// MergeRecord is one entry of a confirmed picker session: a catalog product
// restricted to the variants the merchandiser selected, tagged with the
// offer item it should populate.
type MergeRecord struct {
	TargetID int64            `json:"target_id"`
	Product  CatalogProduct   `json:"product"`
	Variants []CatalogVariant `json:"variants"`
}
