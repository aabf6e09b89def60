package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/davemarchant/offerbuilder/internal/models"
	"github.com/davemarchant/offerbuilder/internal/picker"
)

type pickerOpenRequest struct {
	TargetItemID int64 `json:"target_item_id"`
}

// PickerOpen starts a picker session targeting one offer item and kicks off
// the default first page.
func (s *Server) PickerOpen(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	var req pickerOpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	es.Picker.Open(req.TargetItemID)
	w.WriteHeader(http.StatusNoContent)
}

// PickerClose discards the picker session's accumulated state.
func (s *Server) PickerClose(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	es.Picker.Close()
	w.WriteHeader(http.StatusNoContent)
}

type pickerSearchRequest struct {
	Term string `json:"term"`
}

// PickerSearch updates the (debounced) search term.
func (s *Server) PickerSearch(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	var req pickerSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := es.Picker.Search(req.Term); err != nil {
		http.Error(w, "picker not open", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// PickerSentinel handles the viewport-intersection signal from the bottom of
// the result list.
func (s *Server) PickerSentinel(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err := es.Picker.SentinelVisible(); err != nil {
		http.Error(w, "picker not open", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type pickerProduct struct {
	models.CatalogProduct
	Selected           bool    `json:"selected"`
	SelectedVariantIDs []int64 `json:"selected_variant_ids,omitempty"`
}

type pickerResultsResponse struct {
	Products      []pickerProduct `json:"products"`
	Loading       bool            `json:"loading"`
	SelectedCount int             `json:"selected_count"`
}

// PickerResults returns the current result pages decorated with selection
// state, plus the loading flag that gates the sentinel.
func (s *Server) PickerResults(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	products, loading := es.Picker.Results()
	out := make([]pickerProduct, 0, len(products))
	for _, p := range products {
		out = append(out, pickerProduct{
			CatalogProduct:     p,
			Selected:           es.Picker.IsProductSelected(p),
			SelectedVariantIDs: es.Picker.SelectedVariantIDs(p.ID),
		})
	}
	writeJSON(w, pickerResultsResponse{
		Products:      out,
		Loading:       loading,
		SelectedCount: es.Picker.SelectedCount(),
	})
}

type pickerToggleRequest struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"` // absent toggles the whole product
	Checked   bool   `json:"checked"`
}

// PickerToggle checks or unchecks a product or one of its variants.
func (s *Server) PickerToggle(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	var req pickerToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var err error
	if req.VariantID != nil {
		err = es.Picker.ToggleVariant(req.ProductID, *req.VariantID, req.Checked)
	} else {
		err = es.Picker.ToggleProduct(req.ProductID, req.Checked)
	}
	if err != nil {
		http.Error(w, "picker not open", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]int{"selected_count": es.Picker.SelectedCount()})
}

// PickerConfirm finalizes the selection and merges it into the collection as
// one atomic subtree replacement. Confirming with nothing selected is
// refused; the UI keeps the action disabled in that state.
func (s *Server) PickerConfirm(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	records, err := es.Picker.Confirm()
	switch {
	case errors.Is(err, picker.ErrEmptySelection):
		http.Error(w, "nothing selected", http.StatusConflict)
		return
	case errors.Is(err, picker.ErrClosed):
		http.Error(w, "picker not open", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	items := es.Collection.MergePickerResult(records)
	s.Metrics.IncrementPickerConfirms()
	s.Metrics.IncrementEditorOps("merge")
	s.persist(r, es, items)
	writeJSON(w, items)
}
