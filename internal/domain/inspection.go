package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultInspectionPhoto is sent when an inspection has no photo.
const DefaultInspectionPhoto = "https://via.placeholder.com/150/0000FF/FFFFFF?text=Fiscalizacao"

// InspectionStatus is the closed set of inspection outcomes.
type InspectionStatus string

const (
	StatusCompliant    InspectionStatus = "Conforme"
	StatusNonCompliant InspectionStatus = "Não Conforme"
	StatusPending      InspectionStatus = "Pendente"
	StatusUnderReview  InspectionStatus = "Em Análise"
)

// InspectionStatuses is the enumeration in display order.
var InspectionStatuses = []InspectionStatus{
	StatusCompliant,
	StatusNonCompliant,
	StatusPending,
	StatusUnderReview,
}

// IsValid reports whether s is a member of the enumeration.
func (s InspectionStatus) IsValid() bool {
	for _, candidate := range InspectionStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Normalize coerces anything outside the enumeration to StatusCompliant so
// legacy or foreign records still load.
func (s InspectionStatus) Normalize() InspectionStatus {
	if s.IsValid() {
		return s
	}
	return StatusCompliant
}

// Next cycles forward through the enumeration.
func (s InspectionStatus) Next() InspectionStatus {
	return s.step(1)
}

// Prev cycles backward through the enumeration.
func (s InspectionStatus) Prev() InspectionStatus {
	return s.step(-1)
}

func (s InspectionStatus) step(delta int) InspectionStatus {
	n := len(InspectionStatuses)
	for i, candidate := range InspectionStatuses {
		if candidate == s {
			return InspectionStatuses[((i+delta)%n+n)%n]
		}
	}
	return StatusCompliant
}

func (s InspectionStatus) String() string { return string(s) }

// WorkSummary is the embedded work representation some responses carry in
// place of a bare identifier.
type WorkSummary struct {
	ID          string `json:"_id"`
	Name        string `json:"nome,omitempty"`
	Responsible string `json:"responsavel,omitempty"`
	Status      string `json:"status,omitempty"`
}

// WorkRef is an inspection's reference to its owning work. On the wire it is
// either the work identifier or an embedded WorkSummary; it always encodes
// back to the identifier.
type WorkRef struct {
	ID      string
	Summary *WorkSummary
}

// RefTo builds a bare identifier reference.
func RefTo(id string) WorkRef {
	return WorkRef{ID: id}
}

// Label is the work's name when the gateway embedded it, else the raw
// identifier. Inspections whose parent is gone still render something.
func (r WorkRef) Label() string {
	if r.Summary != nil && strings.TrimSpace(r.Summary.Name) != "" {
		return r.Summary.Name
	}
	return r.ID
}

func (r WorkRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

func (r *WorkRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = WorkRef{}
		return nil
	}
	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = WorkRef{ID: id}
		return nil
	case '{':
		var summary WorkSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			return fmt.Errorf("domain: decode embedded work: %w", err)
		}
		*r = WorkRef{ID: summary.ID, Summary: &summary}
		return nil
	default:
		return fmt.Errorf("domain: obra must be an id or an object, got %s", string(data))
	}
}

// Inspection is a dated observation belonging to one work.
type Inspection struct {
	ID        string           `json:"_id,omitempty"`
	Work      WorkRef          `json:"obra"`
	Date      Timestamp        `json:"data"`
	Inspector string           `json:"fiscal"`
	Status    InspectionStatus `json:"status"`
	Remarks   string           `json:"observacoes"`
	Location  *Location        `json:"localizacao,omitempty"`
	Photo     string           `json:"foto,omitempty"`
}

// InspectionPayload is the body sent on create and update.
type InspectionPayload struct {
	Date      Timestamp        `json:"data"`
	Status    InspectionStatus `json:"status"`
	Remarks   string           `json:"observacoes"`
	Location  *Location        `json:"localizacao,omitempty"`
	Photo     string           `json:"foto"`
	WorkID    string           `json:"obra"`
	Inspector string           `json:"fiscal"`
}

// Apply copies the payload onto in, keeping its identifier.
func (p InspectionPayload) Apply(in Inspection) Inspection {
	in.Date = p.Date
	in.Status = p.Status
	in.Remarks = p.Remarks
	in.Location = p.Location
	in.Photo = p.Photo
	in.Work = RefTo(p.WorkID)
	in.Inspector = p.Inspector
	return in
}
