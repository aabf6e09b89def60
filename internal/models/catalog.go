package models

// CatalogProduct is one product record as returned by the external catalog
// search endpoint. The payload is immutable once received; identity is ID.
type CatalogProduct struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Image    *CatalogImage    `json:"image,omitempty"`
	Variants []CatalogVariant `json:"variants"`
}

// CatalogImage holds the product thumbnail reference used by the picker UI.
type CatalogImage struct {
	Src string `json:"src"`
}

// CatalogVariant is one sellable variant under a CatalogProduct. Variant IDs
// are unique across the catalog, not just within their parent.
type CatalogVariant struct {
	ID             int64   `json:"id"`
	ProductID      int64   `json:"product_id"`
	Title          string  `json:"title"`
	Price          float64 `json:"price"`
	AvailableCount int     `json:"inventory_quantity"`
}

// VariantIDs returns the product's variant ids in catalog order.
func (p CatalogProduct) VariantIDs() []int64 {
	ids := make([]int64, len(p.Variants))
	for i, v := range p.Variants {
		ids[i] = v.ID
	}
	return ids
}

// FindVariant returns the variant with the given id, or nil when the product
// does not carry it.
func (p CatalogProduct) FindVariant(id int64) *CatalogVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}
