package handlers

import (
	"net/http"
	"time"

	govalidator "github.com/go-playground/validator/v10"

	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/pkg/validator"
)

func init() {
	validator.RegisterStructValidation(vehicleIdent, EvidenceRequest{})
}

// EvidenceHandler handles evidence and detective board requests
type EvidenceHandler struct {
	evidence *service.EvidenceService
	board    *service.BoardService
}

// NewEvidenceHandler creates a new evidence handler
func NewEvidenceHandler(evidence *service.EvidenceService, board *service.BoardService) *EvidenceHandler {
	return &EvidenceHandler{evidence: evidence, board: board}
}

// EvidenceRequest records one evidence item. Type selects the variant and
// which of the variant fields apply.
type EvidenceRequest struct {
	Type        models.RefType `json:"type" validate:"evidence_type"`
	Title       string         `json:"title" validate:"notblank,max=255"`
	Description string         `json:"description"`
	CollectedAt *time.Time     `json:"collected_at"`

	WitnessName    string `json:"witness_name"`
	WitnessContact string `json:"witness_contact"`
	Statement      string `json:"statement" validate:"required_if=Type testimony"`
	Credibility    *int   `json:"credibility" validate:"omitempty,min=1,max=10"`

	SampleType string `json:"sample_type" validate:"required_if=Type biological"`

	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
	VIN          string `json:"vin"`
	OwnerName    string `json:"owner_name"`

	DocumentType string            `json:"document_type"`
	Issuer       string            `json:"issuer"`
	Recipient    string            `json:"recipient"`
	Attributes   map[string]string `json:"attributes"`

	ItemName     string `json:"item_name" validate:"required_if=Type other"`
	SerialNumber string `json:"serial_number"`
}

// vehicleIdent rejects vehicles carrying both a plate and a VIN
func vehicleIdent(sl govalidator.StructLevel) {
	req := sl.Current().Interface().(EvidenceRequest)
	if req.Type == models.RefVehicle && req.LicensePlate != "" && req.VIN != "" {
		sl.ReportError(req.LicensePlate, "license_plate", "LicensePlate", "vehicle_ident", "")
	}
}

func (req EvidenceRequest) evidence() models.Evidence {
	base := models.EvidenceBase{Title: req.Title, Description: req.Description}
	if req.CollectedAt != nil {
		base.CollectedAt = *req.CollectedAt
	}

	switch req.Type {
	case models.RefTestimony:
		return &models.Testimony{EvidenceBase: base, WitnessName: req.WitnessName, WitnessContact: req.WitnessContact,
			Statement: req.Statement, Credibility: req.Credibility}
	case models.RefBiological:
		return &models.Biological{EvidenceBase: base, SampleType: req.SampleType}
	case models.RefVehicle:
		return &models.Vehicle{EvidenceBase: base, Make: req.Make, Model: req.Model, Color: req.Color,
			LicensePlate: req.LicensePlate, VIN: req.VIN, OwnerName: req.OwnerName}
	case models.RefDocument:
		return &models.Document{EvidenceBase: base, DocumentType: req.DocumentType, Issuer: req.Issuer,
			Recipient: req.Recipient, Attributes: req.Attributes}
	default:
		return &models.OtherItem{EvidenceBase: base, ItemName: req.ItemName, SerialNumber: req.SerialNumber}
	}
}

// LabResultRequest carries a biological lab result
type LabResultRequest struct {
	Result string `json:"result" validate:"notblank"`
}

// LinkRequest connects two evidence items on the detective board
type LinkRequest struct {
	From        models.Ref `json:"from" validate:"required"`
	To          models.Ref `json:"to" validate:"required"`
	Description string     `json:"description" validate:"max=1000"`
}

// Add records evidence on a case
// @Summary Add evidence
// @Description Record a testimony, biological sample, vehicle, document or other item. A vehicle carries a license plate or a VIN, never both.
// @Tags Evidence
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param request body EvidenceRequest true "Evidence"
// @Success 201 {object} DataResponse "Evidence recorded"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Router /cases/{id}/evidence [post]
func (h *EvidenceHandler) Add(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req EvidenceRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	e, err := h.evidence.Add(r.Context(), actorID, caseID, req.evidence())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Evidence recorded", e)
}

// List lists every evidence item of a case
// @Summary List evidence
// @Tags Evidence
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Success 200 {object} DataResponse "Evidence"
// @Router /cases/{id}/evidence [get]
func (h *EvidenceHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	items, err := h.evidence.List(r.Context(), actorID, caseID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, items)
}

// Get returns one evidence item
// @Summary Get evidence
// @Tags Evidence
// @Produce json
// @Security BearerAuth
// @Param type path string true "Evidence type" Enums(testimony, biological, vehicle, document, other)
// @Param id path int true "Evidence ID"
// @Success 200 {object} DataResponse "Evidence"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /evidence/{type}/{id} [get]
func (h *EvidenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	ref := models.Ref{Type: models.RefType(r.PathValue("type")), ID: id}
	if !ref.Type.IsEvidence() {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Unknown evidence type", Field: "type"})
		return
	}

	e, err := h.evidence.Get(r.Context(), actorID, ref)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "", e)
}

// RecordLabResult stores the lab result of a biological item
// @Summary Record lab result
// @Tags Evidence
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Biological evidence ID"
// @Param request body LabResultRequest true "Result"
// @Success 200 {object} DataResponse "Result recorded"
// @Failure 400 {object} ErrorResponse "Already approved"
// @Router /evidence/biological/{id}/lab-result [post]
func (h *EvidenceHandler) RecordLabResult(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req LabResultRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	b, err := h.evidence.RecordLabResult(r.Context(), actorID, id, req.Result)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "Lab result recorded", b)
}

// CoronerApprove approves a biological item
// @Summary Coroner approval
// @Tags Evidence
// @Produce json
// @Security BearerAuth
// @Param id path int true "Biological evidence ID"
// @Success 200 {object} DataResponse "Approved"
// @Failure 400 {object} ErrorResponse "Missing lab result"
// @Router /evidence/biological/{id}/coroner-approve [post]
func (h *EvidenceHandler) CoronerApprove(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	b, err := h.evidence.CoronerApprove(r.Context(), actorID, id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "Biological evidence approved", b)
}

// CreateLink draws a link on the detective board
// @Summary Create board link
// @Tags Detective board
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param request body LinkRequest true "Link"
// @Success 201 {object} DataResponse "Link created"
// @Failure 400 {object} ErrorResponse "Evidence of another case"
// @Failure 409 {object} ErrorResponse "Link exists"
// @Router /cases/{id}/board/links [post]
func (h *EvidenceHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req LinkRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	link, err := h.board.CreateLink(r.Context(), actorID, caseID, req.From, req.To, req.Description)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Link created", link)
}

// ListLinks lists the links on a case's board
// @Summary List board links
// @Tags Detective board
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Success 200 {object} DataResponse "Links"
// @Router /cases/{id}/board/links [get]
func (h *EvidenceHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	links, err := h.board.ListLinks(r.Context(), actorID, caseID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, links)
}

// DeleteLink removes a link from a case's board
// @Summary Delete board link
// @Tags Detective board
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param linkId path int true "Link ID"
// @Success 200 {object} DataResponse "Link deleted"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /cases/{id}/board/links/{linkId} [delete]
func (h *EvidenceHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	linkID, err := pathID(r, "linkId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if err := h.board.DeleteLink(r.Context(), actorID, caseID, linkID); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "Link deleted", map[string]uint{"id": linkID})
}
