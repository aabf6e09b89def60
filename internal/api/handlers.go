package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/davemarchant/offerbuilder/internal/catalog"
	"github.com/davemarchant/offerbuilder/internal/db"
	"github.com/davemarchant/offerbuilder/internal/editor"
	"github.com/davemarchant/offerbuilder/internal/middleware"
	"github.com/davemarchant/offerbuilder/internal/models"
	"github.com/davemarchant/offerbuilder/internal/picker"
)

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	SessionID string             `json:"session_id,omitempty"`
	Items     []models.OfferItem `json:"items,omitempty"`
}

type sessionResponse struct {
	SessionID string             `json:"session_id"`
	Items     []models.OfferItem `json:"items"`
}

// CreateSession opens an editor session. The host may seed the initial list
// in the body; with a known session id and no seed, the redis snapshot is
// restored. An empty seed starts with one placeholder.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	if err := editor.ValidateSeed(req.Items); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.New()
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}
		id = parsed
	}

	initial := req.Items
	if len(initial) == 0 && req.SessionID != "" && s.Store != nil {
		snapshot, err := s.Store.LoadCollection(id.String())
		if err != nil {
			middleware.LoggerFromRequest(r, s.Logger).Warn("session snapshot load failed",
				zap.String("session_id", id.String()),
				zap.Error(err))
		} else if snapshot != nil {
			initial = snapshot
		}
	}

	logger := s.Logger.With(zap.String("session_id", id.String()))
	query := catalog.NewQuery(s.Catalog, s.Config.CatalogPageSize, s.Config.SearchDebounce, logger)
	es := &EditorSession{
		ID:         id,
		Collection: editor.New(initial, logger),
		Picker:     picker.NewSession(query, logger),
	}

	s.mu.Lock()
	s.sessions[id] = es
	s.mu.Unlock()

	items := es.Collection.Items()
	s.persist(r, es, items)
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, sessionResponse{SessionID: id.String(), Items: items})
}

// ListItems returns the current authoritative ordered list.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, es.Collection.Items())
}

// AddPlaceholder appends one empty item row.
func (s *Server) AddPlaceholder(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	es.Collection.AddPlaceholder()
	s.Metrics.IncrementEditorOps("add_placeholder")
	items := es.Collection.Items()
	s.persist(r, es, items)
	writeJSON(w, items)
}

// DeleteItem removes an item; the collection re-seeds a placeholder when the
// last item goes.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	if err := es.Collection.DeleteItem(itemID); err != nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	s.Metrics.IncrementEditorOps("delete_item")
	items := es.Collection.Items()
	s.persist(r, es, items)
	writeJSON(w, items)
}

// DeleteVariant removes a variant line. Deleting an item's last variant is
// refused with 409.
func (s *Server) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	variantID, err := pathID(r, "variantID")
	if err != nil {
		http.Error(w, "invalid variant id", http.StatusBadRequest)
		return
	}
	switch err := es.Collection.DeleteVariant(itemID, variantID); {
	case errors.Is(err, editor.ErrVariantFloor):
		http.Error(w, "last variant cannot be deleted", http.StatusConflict)
		return
	case errors.Is(err, editor.ErrNotFound):
		http.Error(w, "variant not found", http.StatusNotFound)
		return
	}
	s.Metrics.IncrementEditorOps("delete_variant")
	items := es.Collection.Items()
	s.persist(r, es, items)
	writeJSON(w, items)
}

// ToggleExpanded flips an item's expanded flag.
func (s *Server) ToggleExpanded(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	if err := es.Collection.ToggleExpanded(itemID); err != nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	items := es.Collection.Items()
	s.persist(r, es, items)
	writeJSON(w, items)
}

type reorderRequest struct {
	Kind      models.DragKind `json:"kind"`
	DraggedID int64           `json:"dragged_id"`
	HoverID   int64           `json:"hover_id"`
	ParentID  int64           `json:"parent_id,omitempty"`
}

// Reorder moves an item or a variant line within its level. Unknown ids are
// a silent no-op, matching drag-and-drop semantics where a stale hover
// target is dropped rather than surfaced.
func (s *Server) Reorder(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if !req.Kind.IsValid() {
		http.Error(w, "invalid drag kind", http.StatusBadRequest)
		return
	}
	ref := models.DragRef{Kind: req.Kind, ID: req.DraggedID, ParentID: req.ParentID}
	if err := es.Collection.Reorder(ref, req.HoverID); err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Debug("reorder ignored",
			zap.Int64("dragged_id", req.DraggedID),
			zap.Int64("hover_id", req.HoverID),
			zap.Error(err))
	}
	s.Metrics.IncrementEditorOps("reorder")
	items := es.Collection.Items()
	s.persist(r, es, items)
	writeJSON(w, items)
}

type discountRequest struct {
	Level     models.DragKind      `json:"level"`
	ItemID    int64                `json:"item_id"`
	VariantID int64                `json:"variant_id,omitempty"`
	Field     models.DiscountField `json:"field"`
	Value     any                  `json:"value"`
}

// SetDiscount updates one discount field on an item or a variant line.
func (s *Server) SetDiscount(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	switch err := es.Collection.SetDiscount(req.Level, req.ItemID, req.VariantID, req.Field, req.Value); {
	case errors.Is(err, editor.ErrInvalidDiscount):
		http.Error(w, "invalid discount update", http.StatusBadRequest)
		return
	case errors.Is(err, editor.ErrNotFound):
		http.Error(w, "target not found", http.StatusNotFound)
		return
	}
	s.Metrics.IncrementEditorOps("set_discount")
	items := es.Collection.Items()
	s.persist(r, es, items)
	writeJSON(w, items)
}

// Submit hands the final ordered list back to the host, archives it when an
// archive is configured, and discards the session.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	es, ok := s.session(r)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	items := es.Collection.Items()

	if s.PG != nil {
		sub := &db.Submission{ID: uuid.New(), SessionID: es.ID, Items: items}
		if err := s.PG.InsertSubmission(context.Background(), sub); err != nil {
			s.Metrics.IncrementPersistErrors()
			middleware.LoggerFromRequest(r, s.Logger).Error("submission archive failed",
				zap.String("session_id", es.ID.String()),
				zap.Error(err))
		}
	}
	if s.Store != nil {
		if err := s.Store.DeleteCollection(es.ID.String()); err != nil {
			middleware.LoggerFromRequest(r, s.Logger).Warn("snapshot cleanup failed",
				zap.String("session_id", es.ID.String()),
				zap.Error(err))
		}
	}

	s.mu.Lock()
	delete(s.sessions, es.ID)
	s.mu.Unlock()

	s.Metrics.IncrementSubmissions()
	writeJSON(w, sessionResponse{SessionID: es.ID.String(), Items: items})
}

type submissionResponse struct {
	ID        uuid.UUID          `json:"id"`
	SessionID uuid.UUID          `json:"session_id"`
	Items     []models.OfferItem `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
}

// ListSubmissions returns the archived lists for a session id, newest first.
// The archive outlives the session, so this works after submit discarded it.
func (s *Server) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.PG == nil {
		http.Error(w, "submission archive disabled", http.StatusServiceUnavailable)
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	subs, err := s.PG.LoadSubmissions(r.Context(), id)
	if err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Error("submission archive query failed",
			zap.String("session_id", id.String()),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]submissionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, submissionResponse{
			ID:        sub.ID,
			SessionID: sub.SessionID,
			Items:     sub.Items,
			CreatedAt: sub.CreatedAt,
		})
	}
	writeJSON(w, out)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}
