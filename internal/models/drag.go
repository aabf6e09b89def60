package models

// DragKind tags which level of the offer list a drag operation targets.
type DragKind string

const (
	DragItem    DragKind = "item"
	DragVariant DragKind = "variant"
)

// IsValid reports whether the kind is one of the two drag levels.
func (k DragKind) IsValid() bool {
	return k == DragItem || k == DragVariant
}

// DragRef identifies a dragged entity. ParentID is only meaningful for
// variant drags, where it names the variant's parent item.
type DragRef struct {
	Kind     DragKind `json:"kind"`
	ID       int64    `json:"id"`
	ParentID int64    `json:"parent_id,omitempty"`
}
