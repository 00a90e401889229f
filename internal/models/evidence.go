package models

import "time"

// EvidenceBase is the envelope shared by every evidence variant.
type EvidenceBase struct {
	ID             uint      `json:"id" db:"id"`
	Type           RefType   `json:"type" db:"-"`
	EvidenceNumber string    `json:"evidence_number" db:"evidence_number"`
	CaseID         uint      `json:"case_id" db:"case_id"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description" db:"description"`
	CollectedBy    *uint     `json:"collected_by,omitempty" db:"collected_by"`
	CollectedAt    time.Time `json:"collected_at" db:"collected_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Evidence is implemented by the five variants.
type Evidence interface {
	Envelope() *EvidenceBase
	Kind() RefType
}

// RefOf returns the generic reference pointing at e.
func RefOf(e Evidence) Ref {
	return Ref{Type: e.Kind(), ID: e.Envelope().ID}
}

// Testimony is a witness statement.
type Testimony struct {
	EvidenceBase
	WitnessName    string `json:"witness_name" db:"witness_name"`
	WitnessContact string `json:"witness_contact" db:"witness_contact"`
	Statement      string `json:"statement" db:"statement"`
	Credibility    *int   `json:"credibility,omitempty" db:"credibility"`
}

func (e *Testimony) Envelope() *EvidenceBase { return &e.EvidenceBase }
func (e *Testimony) Kind() RefType           { return RefTestimony }

// Biological is a forensic sample. LabResult starts empty and the coroner
// approval flag is set externally.
type Biological struct {
	EvidenceBase
	SampleType      string     `json:"sample_type" db:"sample_type"`
	LabResult       string     `json:"lab_result" db:"lab_result"`
	CoronerApproved bool       `json:"coroner_approved" db:"coroner_approved"`
	ApprovedBy      *uint      `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" db:"approved_at"`
}

func (e *Biological) Envelope() *EvidenceBase { return &e.EvidenceBase }
func (e *Biological) Kind() RefType           { return RefBiological }

// Vehicle identifies a car by plate or VIN, never both.
type Vehicle struct {
	EvidenceBase
	Make         string `json:"make" db:"make"`
	Model        string `json:"model" db:"model"`
	Color        string `json:"color" db:"color"`
	LicensePlate string `json:"license_plate,omitempty" db:"license_plate"`
	VIN          string `json:"vin,omitempty" db:"vin"`
	OwnerName    string `json:"owner_name,omitempty" db:"owner_name"`
}

func (e *Vehicle) Envelope() *EvidenceBase { return &e.EvidenceBase }
func (e *Vehicle) Kind() RefType           { return RefVehicle }

// Document is a paper or digital record with open-ended attributes.
type Document struct {
	EvidenceBase
	DocumentType string            `json:"document_type" db:"document_type"`
	Issuer       string            `json:"issuer" db:"issuer"`
	Recipient    string            `json:"recipient" db:"recipient"`
	Attributes   map[string]string `json:"attributes" db:"attributes"`
}

func (e *Document) Envelope() *EvidenceBase { return &e.EvidenceBase }
func (e *Document) Kind() RefType           { return RefDocument }

// OtherItem is any physical item that fits no other variant.
type OtherItem struct {
	EvidenceBase
	ItemName     string `json:"item_name" db:"item_name"`
	SerialNumber string `json:"serial_number,omitempty" db:"serial_number"`
}

func (e *OtherItem) Envelope() *EvidenceBase { return &e.EvidenceBase }
func (e *OtherItem) Kind() RefType           { return RefOther }

// EvidenceLink is an undirected annotation between two evidence items of the
// same case on the detective board.
type EvidenceLink struct {
	ID          uint      `json:"id" db:"id"`
	CaseID      uint      `json:"case_id" db:"case_id"`
	From        Ref       `json:"from"`
	To          Ref       `json:"to"`
	Description string    `json:"description" db:"description"`
	CreatedBy   uint      `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
