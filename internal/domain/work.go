// internal/domain/work.go
//
// Wire and domain types for works ("obras"). Field names on the wire are
// the remote service's; Go names describe what the field holds.

package domain

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

const (
	// DefaultWorkPhoto is sent when a work has no photo.
	DefaultWorkPhoto = "https://via.placeholder.com/150"
	// DefaultWorkStatus seeds new work drafts.
	DefaultWorkStatus = "Planejada"
)

// WorkStatuses lists the statuses offered as suggestions. The field itself
// stays free text.
var WorkStatuses = []string{"Planejada", "Em Andamento", "Concluída", "Suspensa"}

// Location is a decimal-degree coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports non-finite or out-of-range coordinates.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) {
		return fmt.Errorf("latitude must be a finite number")
	}
	if math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) {
		return fmt.Errorf("longitude must be a finite number")
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// String renders "lat, lon" with the shortest exact decimal form.
func (l Location) String() string {
	return FormatCoordinate(l.Latitude) + ", " + FormatCoordinate(l.Longitude)
}

// MapURL builds a link that opens the coordinate in a web maps client.
func (l Location) MapURL() string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", FormatCoordinate(l.Latitude)+","+FormatCoordinate(l.Longitude))
	return "https://www.google.com/maps/search/?" + q.Encode()
}

// GeoURI is the geo: form understood by mobile map applications, with the
// label shown on the pin.
func (l Location) GeoURI(label string) string {
	latLng := FormatCoordinate(l.Latitude) + "," + FormatCoordinate(l.Longitude)
	if label == "" {
		return "geo:0,0?q=" + latLng
	}
	return "geo:0,0?q=" + latLng + "(" + url.PathEscape(label) + ")"
}

// FormatCoordinate renders a coordinate in its text-editable form.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Work is a tracked construction project.
type Work struct {
	ID          string    `json:"_id,omitempty"`
	Name        string    `json:"nome"`
	Responsible string    `json:"responsavel"`
	StartDate   Timestamp `json:"dataInicio"`
	EndDate     Timestamp `json:"dataFim"`
	Description string    `json:"descricao"`
	Status      string    `json:"status"`
	Location    *Location `json:"localizacao,omitempty"`
	Photo       string    `json:"foto,omitempty"`
}

// Summary returns the embedded form used inside inspection payloads.
func (w Work) Summary() WorkSummary {
	return WorkSummary{ID: w.ID, Name: w.Name, Responsible: w.Responsible, Status: w.Status}
}

// WorkPayload is the body sent on create and update.
type WorkPayload struct {
	Name        string    `json:"nome"`
	Responsible string    `json:"responsavel"`
	StartDate   Timestamp `json:"dataInicio"`
	EndDate     Timestamp `json:"dataFim"`
	Location    *Location `json:"localizacao,omitempty"`
	Description string    `json:"descricao"`
	Photo       string    `json:"foto"`
	Status      string    `json:"status"`
}

// Apply copies the payload onto w, keeping its identifier.
func (p WorkPayload) Apply(w Work) Work {
	w.Name = p.Name
	w.Responsible = p.Responsible
	w.StartDate = p.StartDate
	w.EndDate = p.EndDate
	w.Location = p.Location
	w.Description = p.Description
	w.Photo = p.Photo
	w.Status = p.Status
	return w
}
