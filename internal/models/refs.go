package models

import "fmt"

// RefType tags the kind of entity a Ref points at.
type RefType string

// Evidence variant tags. These double as the type tags of evidence links and
// reported-suspect references.
const (
	RefTestimony  RefType = "testimony"
	RefBiological RefType = "biological"
	RefVehicle    RefType = "vehicle"
	RefDocument   RefType = "document"
	RefOther      RefType = "other"
)

// Non-evidence tags used by notifications.
const (
	RefComplaint       RefType = "complaint"
	RefCase            RefType = "case"
	RefDetectiveReport RefType = "detective_report"
	RefSuspect         RefType = "suspect"
	RefReward          RefType = "reward"
	RefTrial           RefType = "trial"
)

// EvidenceTypes lists every evidence variant tag.
var EvidenceTypes = []RefType{RefTestimony, RefBiological, RefVehicle, RefDocument, RefOther}

// IsEvidence reports whether the tag names an evidence variant.
func (t RefType) IsEvidence() bool {
	switch t {
	case RefTestimony, RefBiological, RefVehicle, RefDocument, RefOther:
		return true
	}
	return false
}

// Ref is a generic (type tag, identifier) reference to another entity.
type Ref struct {
	Type RefType `json:"type" validate:"required"`
	ID   uint    `json:"id" validate:"required"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}
